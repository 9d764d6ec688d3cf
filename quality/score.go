// Package quality scores scraped content and validates search queries.
//
// Scoring is a pure function of (title, url, content); identical inputs
// always yield identical scores.
package quality

import (
	"math"
	"net/url"
	"strings"
	"unicode"
)

// Sub-score weights. Must sum to 1.
const (
	weightLength      = 0.35
	weightTitle       = 0.15
	weightDomain      = 0.30
	weightReadability = 0.20
)

// reputableHosts is a fixed allow-list of hosts known to publish
// substantive content. Matched by suffix so subdomains qualify.
var reputableHosts = []string{
	"wikipedia.org",
	"arxiv.org",
	"nature.com",
	"sciencedirect.com",
	"ieee.org",
	"acm.org",
	"nih.gov",
	"who.int",
	"reuters.com",
	"apnews.com",
	"bbc.com",
	"bbc.co.uk",
	"nytimes.com",
	"theguardian.com",
	"economist.com",
	"github.com",
	"stackoverflow.com",
}

// Score rates content quality on a 0-100 scale as a weighted sum of
// length, title presence, domain reputation, and readability sub-scores.
func Score(title, rawURL, content string) int {
	combined := weightLength*lengthScore(content) +
		weightTitle*titleScore(title) +
		weightDomain*domainScore(rawURL) +
		weightReadability*readabilityScore(content)

	return clamp(int(math.Round(combined)))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// lengthScore favors a 1,000-10,000 character sweet spot, penalizing
// both very short bodies and extremely long ones.
func lengthScore(content string) float64 {
	n := len(content)
	switch {
	case n == 0:
		return 0
	case n < 100:
		return 10
	case n < 500:
		return 40
	case n < 1000:
		return 70
	case n <= 10000:
		return 100
	case n <= 20000:
		return 85
	case n <= 50000:
		return 65
	default:
		return 45
	}
}

func titleScore(title string) float64 {
	trimmed := strings.TrimSpace(title)
	switch {
	case trimmed == "":
		return 0
	case len(trimmed) < 5:
		return 60
	default:
		return 100
	}
}

// domainScore rates the host: academic/government TLDs and the fixed
// allow-list score highest; spam signals (many subdomain labels,
// digit-heavy or unusually long hostnames) score low; unrecognized
// hosts get a mid-range default; unparseable URLs score zero.
func domainScore(rawURL string) float64 {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return 0
	}
	host := strings.ToLower(u.Hostname())

	if hasAcademicTLD(host) {
		return 95
	}
	for _, reputable := range reputableHosts {
		if host == reputable || strings.HasSuffix(host, "."+reputable) {
			return 90
		}
	}

	labels := strings.Split(host, ".")
	if len(labels) > 4 {
		return 20
	}
	if len(host) > 40 {
		return 20
	}
	if digitRatio(host) > 0.3 {
		return 15
	}

	return 50
}

func hasAcademicTLD(host string) bool {
	for _, suffix := range []string{".edu", ".gov", ".ac.uk", ".gov.uk", ".edu.au", ".gc.ca"} {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

func digitRatio(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return float64(digits) / float64(len(s))
}

// readabilityScore derives a score from words-per-sentence and
// characters-per-word against target bands, penalizes dense
// non-standard punctuation, and rewards multi-paragraph structure.
func readabilityScore(content string) float64 {
	words := strings.Fields(content)
	if len(words) == 0 {
		return 0
	}

	sentences := countSentences(content)
	if sentences == 0 {
		sentences = 1
	}

	avgWordsPerSentence := float64(len(words)) / float64(sentences)
	avgCharsPerWord := averageWordLength(words)

	score := bandScore(avgWordsPerSentence, 8, 25)*0.5 + bandScore(avgCharsPerWord, 3.5, 7.5)*0.5

	if punctuationDensity(content) > 0.02 {
		score -= 25
	}
	if strings.Contains(content, "\n\n") {
		score += 10
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// bandScore returns 100 inside [lo, hi] and decays linearly outside.
func bandScore(v, lo, hi float64) float64 {
	switch {
	case v >= lo && v <= hi:
		return 100
	case v < lo:
		return 100 * v / lo
	default:
		excess := (v - hi) / hi
		if excess > 1 {
			return 0
		}
		return 100 * (1 - excess)
	}
}

func countSentences(content string) int {
	count := 0
	for _, r := range content {
		if r == '.' || r == '!' || r == '?' {
			count++
		}
	}
	return count
}

func averageWordLength(words []string) float64 {
	total := 0
	for _, w := range words {
		total += len(w)
	}
	return float64(total) / float64(len(words))
}

// punctuationDensity measures non-standard punctuation (markup noise,
// not prose punctuation) relative to content length.
func punctuationDensity(content string) float64 {
	if len(content) == 0 {
		return 0
	}
	count := 0
	for _, r := range content {
		switch r {
		case '#', '$', '%', '^', '*', '~', '|', '<', '>', '{', '}', '[', ']', '\\', '@', '=', '+':
			count++
		}
	}
	return float64(count) / float64(len(content))
}
