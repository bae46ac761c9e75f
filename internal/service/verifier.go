package service

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`\w+`)

// fallbackMarker is the case-insensitive substring used to detect that an
// answer already declines. Deliberately shorter than FallbackAnswer so that
// model paraphrases like "Sorry, that is not found in the document" pass.
const fallbackMarker = "not found in the document"

// VerifyAnswer cross-checks a model answer against the retrieved context and
// overrides it when ungrounded. An answer sharing zero case-folded word
// tokens with the context keywords is replaced with FallbackAnswer, unless
// it already declines.
//
// This is a lexical heuristic, not semantic entailment: a correct answer
// phrased entirely in vocabulary absent from the context gets overridden,
// and a hallucination that happens to reuse a context word slips through.
func VerifyAnswer(answer string, contextChunks []string) string {
	contextKeywords := make(map[string]struct{})
	for _, chunk := range contextChunks {
		for _, w := range wordPattern.FindAllString(strings.ToLower(chunk), -1) {
			contextKeywords[w] = struct{}{}
		}
	}
	if len(contextKeywords) == 0 {
		return answer
	}

	for _, w := range wordPattern.FindAllString(strings.ToLower(answer), -1) {
		if _, ok := contextKeywords[w]; ok {
			return answer
		}
	}

	if strings.Contains(strings.ToLower(answer), fallbackMarker) {
		return answer
	}

	return FallbackAnswer
}
