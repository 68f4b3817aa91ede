package rank

import "strings"

// Stop words to filter out when computing keyword overlap
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "who": true, "any": true, "find": true,
	"looking": true, "search": true, "me": true, "need": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and
// removes stop words.
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// ProfileKeywords tokenizes free-form profile fields into the deduplicated
// keyword list stored on an embedding record.
func ProfileKeywords(texts ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, text := range texts {
		for _, tok := range tokenizeAndFilter(text) {
			if !seen[tok] {
				seen[tok] = true
				out = append(out, tok)
			}
		}
	}
	return out
}

// keywordScore returns the fraction of query tokens present in the member's
// keyword representation, in [0,1]. Zero query tokens score zero rather than
// treating every member as a perfect match.
func keywordScore(queryTokens []string, keywords []string) float32 {
	if len(queryTokens) == 0 || len(keywords) == 0 {
		return 0
	}

	keywordSet := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		for _, tok := range tokenizeAndFilter(kw) {
			keywordSet[tok] = true
		}
	}

	matched := 0
	for _, tok := range queryTokens {
		if keywordSet[tok] {
			matched++
		}
	}
	return float32(matched) / float32(len(queryTokens))
}

// memberKeywords assembles the keyword corpus for a member: the stored keyword
// list plus the structured profile fields, so keyword overlap works even for
// members whose ingestion predates keyword generation.
func memberKeywords(keywords []string, extra ...string) []string {
	out := make([]string, 0, len(keywords)+len(extra))
	out = append(out, keywords...)
	for _, e := range extra {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
