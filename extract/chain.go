package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/communehq/membersearch/ai"
	"github.com/communehq/membersearch/core"
)

// DefaultConfidenceThreshold is the fast-path confidence below which the
// slow path is consulted.
const DefaultConfidenceThreshold = 0.5

// DefaultSlowPathTimeout bounds a single slow-path provider call.
const DefaultSlowPathTimeout = 2 * time.Second

// Chain runs the fast pattern extractor and, when its confidence falls below
// the threshold, asks the provider-backed slow path to refine the result.
// Slow-path failure degrades back to the fast result instead of failing the
// request.
type Chain struct {
	fast      *FastExtractor
	slow      ai.QueryExtractor
	threshold float32
	timeout   time.Duration
	logger    *slog.Logger
}

var _ Extractor = (*Chain)(nil)

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithConfidenceThreshold overrides the slow-path trigger threshold.
func WithConfidenceThreshold(threshold float32) ChainOption {
	return func(c *Chain) { c.threshold = threshold }
}

// WithSlowPathTimeout overrides the per-call slow-path timeout.
func WithSlowPathTimeout(timeout time.Duration) ChainOption {
	return func(c *Chain) { c.timeout = timeout }
}

// WithLogger sets the chain logger.
func WithLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) { c.logger = logger }
}

// NewChain creates the two-stage extractor. A nil slow extractor disables the
// slow path entirely; the chain then always returns the fast result.
func NewChain(slow ai.QueryExtractor, opts ...ChainOption) *Chain {
	c := &Chain{
		fast:      NewFastExtractor(),
		slow:      slow,
		threshold: DefaultConfidenceThreshold,
		timeout:   DefaultSlowPathTimeout,
		logger:    slog.Default().With("component", "extract"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract implements Extractor. The degraded flag is true only when the slow
// path was needed and failed; the fast result is still returned in that case.
func (c *Chain) Extract(ctx context.Context, text string, tc TenantContext) (core.Extraction, bool) {
	fast, _ := c.fast.Extract(ctx, text, tc)
	if fast.Confidence >= c.threshold || c.slow == nil {
		return fast, false
	}
	if fast.Intent == core.IntentConversational {
		return fast, false
	}

	slowCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	analysis, err := c.slow.ExtractQuery(slowCtx, text)
	if err != nil {
		c.logger.Warn("slow-path extraction failed, keeping fast result",
			"error", err, "fast_confidence", fast.Confidence)
		return fast, true
	}

	merged := c.merge(fast, analysis)
	merged.Clamp()
	return merged, false
}

// merge overlays the provider analysis onto the fast result. Provider fields
// win where present; fast-path entities survive where the provider stayed
// silent so regex hits are never lost to a terse model response.
func (c *Chain) merge(fast core.Extraction, analysis *ai.QueryAnalysis) core.Extraction {
	out := fast
	out.Method = core.MethodLLM
	out.LowConfidenceFields = nil

	if intent := intentFromString(analysis.Intent); intent != core.IntentUnknown {
		out.Intent = intent
	}
	// The provider's self-reported confidence replaces the fast score even
	// when it is lower; a hesitant model answer should read as hesitant.
	conf := float32(analysis.Confidence)
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	out.Confidence = conf

	if analysis.Location != "" {
		out.Entities.Location = NormalizeText(analysis.Location)
		out.Entities.Locations = nil
	}
	if len(analysis.Skills) > 0 {
		out.Entities.Skills = normalizeTerms(analysis.Skills)
	}
	if len(analysis.Services) > 0 {
		out.Entities.Services = normalizeTerms(analysis.Services)
	}
	if analysis.Degree != "" {
		out.Entities.Degree = NormalizeText(analysis.Degree)
	}
	if r := rangeFromBounds(analysis.YearMin, analysis.YearMax); r != nil {
		out.Entities.YearRange = r
	}
	if r := rangeFromBounds(analysis.TurnoverMin, analysis.TurnoverMax); r != nil {
		out.Entities.TurnoverRange = r
	}
	return out
}

func intentFromString(s string) core.Intent {
	switch s {
	case "member_search":
		return core.IntentMemberSearch
	case "document_qa":
		return core.IntentDocumentQA
	case "hybrid":
		return core.IntentHybrid
	case "conversational":
		return core.IntentConversational
	default:
		return core.IntentUnknown
	}
}

// rangeFromBounds builds a range from the schema's zero-means-unbounded
// convention.
func rangeFromBounds(min, max int64) *core.Range {
	if min == 0 && max == 0 {
		return nil
	}
	r := &core.Range{}
	if min != 0 {
		r.Min, r.HasMin = min, true
	}
	if max != 0 {
		r.Max, r.HasMax = max, true
	}
	if r.HasMin && r.HasMax && r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}
