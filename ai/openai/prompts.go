package openai

import (
	"fmt"
	"strings"

	"github.com/communehq/membersearch/ai"
)

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "intent": {
      "type": "string"
    },
    "location": {
      "type": "string"
    },
    "skills": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[a-z0-9]+( [a-z0-9]+)*$"}
    },
    "services": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[a-z0-9]+( [a-z0-9]+)*$"}
    },
    "degree": {
      "type": "string"
    },
    "year_min": {"type": "integer"},
    "year_max": {"type": "integer"},
    "turnover_min": {"type": "integer"},
    "turnover_max": {"type": "integer"},
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    }
  },
  "required": ["intent", "confidence"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `You classify and extract structured filters from member-directory search queries and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- The intent field must be exactly one of: %s.
  Use "member_search" for people/business lookups, "document_qa" for questions about rules,
  policies, or procedures, "hybrid" when the query mixes both, "conversational" for greetings
  or small talk.
- Skill and service terms must be lowercase, 1-3 words each.
- Turnover bounds are absolute rupee amounts: "5 crores" is 50000000, "20 lakhs" is 2000000.
- Year bounds apply to graduation years only.
- Omit every field that the query does not mention. Do not hallucinate filters.
- Confidence is your own estimate, 0 to 1, of how completely the extraction captures the query.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "find AI experts in Chennai"
Output:
{
  "intent": "member_search",
  "location": "Chennai",
  "skills": ["ai"],
  "confidence": 0.9
}

Example (numeric range):
Input: "manufacturing businesses in Chennai with turnover above 5 crores"
Output:
{
  "intent": "member_search",
  "location": "Chennai",
  "services": ["manufacturing"],
  "turnover_min": 50000000,
  "confidence": 0.85
}

Example (document question):
Input: "what is the visitor parking policy?"
Output:
{
  "intent": "document_qa",
  "confidence": 0.9
}

Example (informal, no filters):
Input: "hey there"
Output:
{
  "intent": "conversational",
  "confidence": 0.95
}`

// buildSystemPrompt assembles the extraction prompt with the schema and the
// valid intent values interpolated.
func buildSystemPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate, extractionResponseSchema, strings.Join(ai.Intents, ", "))
}
