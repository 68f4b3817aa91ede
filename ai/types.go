package ai

// QueryAnalysis is the structured-output shape the slow-path extractor asks
// the model to produce. Field names match the JSON schema sent in the prompt.
type QueryAnalysis struct {
	// Intent is one of: member_search, document_qa, hybrid, conversational.
	Intent string `json:"intent"`

	// Location is the primary city or area mentioned, empty if none.
	Location string `json:"location,omitempty"`

	// Skills are skill or expertise terms ("ai", "machine learning").
	Skills []string `json:"skills,omitempty"`

	// Services are offered-service terms ("catering", "legal advice").
	Services []string `json:"services,omitempty"`

	// Degree is an academic qualification ("mba", "b.tech"), empty if none.
	Degree string `json:"degree,omitempty"`

	// YearMin/YearMax bound a graduation-year filter; 0 means unbounded.
	YearMin int64 `json:"year_min,omitempty"`
	YearMax int64 `json:"year_max,omitempty"`

	// TurnoverMin/TurnoverMax bound an annual-turnover filter in rupees;
	// 0 means unbounded.
	TurnoverMin int64 `json:"turnover_min,omitempty"`
	TurnoverMax int64 `json:"turnover_max,omitempty"`

	// Confidence is the model's own estimate in [0,1].
	Confidence float64 `json:"confidence"`
}

// Intents lists the valid intent values for the extraction schema.
var Intents = []string{
	"member_search",
	"document_qa",
	"hybrid",
	"conversational",
}
