package quality

import (
	"strings"
	"unicode"
)

// broadQuestionWords are too vague to search on by themselves.
var broadQuestionWords = map[string]bool{
	"what":  true,
	"how":   true,
	"why":   true,
	"when":  true,
	"where": true,
	"who":   true,
	"which": true,
}

const (
	minQueryLength = 3
	maxQueryLength = 200

	// Queries repeating the same few words are rejected below this
	// unique-word ratio (checked only above repetitionMinWords words).
	minUniqueWordRatio = 0.4
	repetitionMinWords = 3
)

// ValidQuery reports whether a planned search query is worth executing.
// It rejects queries that are too short or long, contain no alphanumeric
// characters, repeat words excessively, or consist of a lone broad
// question word.
func ValidQuery(query string) bool {
	q := strings.TrimSpace(query)
	if len(q) < minQueryLength || len(q) > maxQueryLength {
		return false
	}

	if !containsAlphanumeric(q) {
		return false
	}

	words := strings.Fields(strings.ToLower(q))
	if len(words) > repetitionMinWords {
		unique := make(map[string]bool, len(words))
		for _, w := range words {
			unique[w] = true
		}
		if float64(len(unique))/float64(len(words)) < minUniqueWordRatio {
			return false
		}
	}

	if len(words) <= 1 && broadQuestionWords[strings.TrimFunc(strings.ToLower(q), unicode.IsPunct)] {
		return false
	}

	return true
}

func containsAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
