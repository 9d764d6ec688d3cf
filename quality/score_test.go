package quality

import (
	"strings"
	"testing"
)

func sampleBody() string {
	paragraph := "Solar photovoltaic efficiency has improved steadily over the last decade. " +
		"Researchers attribute the gains to better cell architectures and manufacturing. " +
		"Perovskite tandem designs now exceed thirty percent in laboratory conditions."
	return paragraph + "\n\n" + paragraph + "\n\n" + paragraph + "\n\n" + paragraph
}

func TestScoreIsIdempotent(t *testing.T) {
	title := "Advances in Solar Cell Efficiency"
	url := "https://www.nature.com/articles/solar-2026"
	body := sampleBody()

	first := Score(title, url, body)
	second := Score(title, url, body)
	if first != second {
		t.Errorf("identical inputs scored differently: %d vs %d", first, second)
	}
}

func TestScoreRange(t *testing.T) {
	cases := []struct{ title, url, body string }{
		{"", "", ""},
		{"A", "not a url at all", "x"},
		{"Good Title", "https://example.edu/paper", sampleBody()},
		{"Long", "https://spam.example.com", strings.Repeat("word ", 50000)},
	}
	for _, c := range cases {
		s := Score(c.title, c.url, c.body)
		if s < 0 || s > 100 {
			t.Errorf("Score(%q, %q, ...) = %d, out of [0,100]", c.title, c.url, s)
		}
	}
}

func TestScoreRewardsReputableDomains(t *testing.T) {
	body := sampleBody()
	title := "Research Summary"

	academic := Score(title, "https://physics.mit.edu/findings", body)
	unknown := Score(title, "https://some-random-blog.example", body)
	spammy := Score(title, "https://a.b.c.d.e.content-farm.biz/page", body)

	if academic <= unknown {
		t.Errorf("academic domain (%d) should outscore unknown domain (%d)", academic, unknown)
	}
	if unknown <= spammy {
		t.Errorf("unknown domain (%d) should outscore spam-signal domain (%d)", unknown, spammy)
	}
}

func TestScoreUnparseableURL(t *testing.T) {
	if got := domainScore("://missing-scheme"); got != 0 {
		t.Errorf("expected 0 for unparseable URL, got %v", got)
	}
	if got := domainScore("relative/path"); got != 0 {
		t.Errorf("expected 0 for URL without host, got %v", got)
	}
}

func TestScorePenalizesShortBodies(t *testing.T) {
	title := "Title"
	url := "https://example.com/a"
	short := Score(title, url, "tiny")
	good := Score(title, url, sampleBody())
	if short >= good {
		t.Errorf("short body (%d) should score below sweet-spot body (%d)", short, good)
	}
}

func TestScoreFallbackSnippetIsNonZero(t *testing.T) {
	snippet := "A short search snippet describing the page contents in one or two sentences."
	if got := Score("Result Title", "https://example.com/page", snippet); got == 0 {
		t.Error("snippet fallback content should still produce a non-zero score")
	}
}

func TestValidQueryBoundaries(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"abc", true},          // exactly 3 characters passes
		{"ab", false},          // 2 characters fails
		{"how", false},         // lone broad question word fails
		{"how much", true},     // two words pass
		{"what", false},        // lone broad word fails
		{"what is rust", true}, // broad word in context passes
		{strings.Repeat("a", 200), true},
		{strings.Repeat("a", 201), false},
		{"!!! ???", false}, // no alphanumeric characters
		{"go go go go go", false},
		{"compare go rust zig performance", true},
		{"   ab   ", false}, // trimmed length rules
	}

	for _, tt := range tests {
		if got := ValidQuery(tt.query); got != tt.want {
			t.Errorf("ValidQuery(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
