package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/communehq/membersearch/core"
)

// Canned replies for intents the ranker does not serve.
const (
	conversationalReply = "Hello! Ask me to find members by skill, service, location, degree, batch year, or turnover. For example: \"find AI experts in Chennai\"."

	documentReply = "That looks like a question about community documents or policies. I can only search the member directory here. Try asking for members, like \"find catering businesses in Madurai\"."
)

// formatResults renders ranked members as a reply. The output is stable for
// identical input so cached responses replay byte-identically.
func formatResults(members []core.RankedMember, broadened, degraded bool) string {
	if len(members) == 0 {
		return "No members matched your search. Try fewer filters or different terms."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d member", len(members))
	if len(members) != 1 {
		b.WriteString("s")
	}
	b.WriteString(":\n")

	for i, row := range members {
		m := row.Member
		fmt.Fprintf(&b, "%d. %s", i+1, m.Name)
		var details []string
		if m.Location != "" {
			details = append(details, m.Location)
		}
		if m.Organization != "" {
			details = append(details, m.Organization)
		}
		if len(m.Skills) > 0 {
			details = append(details, strings.Join(m.Skills, ", "))
		} else if len(m.Services) > 0 {
			details = append(details, strings.Join(m.Services, ", "))
		}
		if len(details) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(details, "; "))
		}
		b.WriteString("\n")
	}

	if broadened {
		b.WriteString("\nNo exact matches, so some filters were relaxed.")
	}
	if degraded {
		b.WriteString("\nSome search features were temporarily unavailable; results may be less precise.")
	}
	return b.String()
}

// FormatError maps an orchestrator error to user-facing text. Channel
// adapters and the CLI use it so every surface phrases failures the same way.
func FormatError(err error) string {
	var rateErr *core.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Sprintf("You have hit the %s limit. Please try again in %s.",
			rateErr.Category, rateErr.RetryAfter.Round(time.Second))
	}
	switch {
	case errors.Is(err, core.ErrEmptyQuery):
		return "Please type a question or a search, like \"find AI experts in Chennai\"."
	case errors.Is(err, core.ErrQueryTooLong):
		return "That message is too long. Please shorten it and try again."
	case errors.Is(err, core.ErrProviderTimeout), errors.Is(err, core.ErrProviderUnavailable):
		return "The search service is busy right now. Please try again in a moment."
	default:
		return "Something went wrong handling that message. Please try again."
	}
}
