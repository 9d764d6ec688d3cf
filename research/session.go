package research

import (
	"github.com/google/uuid"
)

// session holds the state of one research run. Created at the start of
// Research and discarded when it returns; nothing here is shared across
// sessions.
type session struct {
	id      string
	query   string
	profile DepthProfile

	rounds          int
	seen            map[string]struct{}
	executedQueries []string
	summaries       []Summary
	items           []ScrapedItem
}

func newSession(query string, profile DepthProfile) *session {
	return &session{
		id:      uuid.NewString(),
		query:   query,
		profile: profile,
		seen:    make(map[string]struct{}),
	}
}

// markSeen records a URL in the session's dedup set and reports whether
// it was already present. The set only grows within a session.
func (s *session) markSeen(url string) bool {
	if _, ok := s.seen[url]; ok {
		return true
	}
	s.seen[url] = struct{}{}
	return false
}

func (s *session) summaryTexts() []string {
	texts := make([]string, len(s.summaries))
	for i, sum := range s.summaries {
		texts[i] = sum.Text
	}
	return texts
}

func (s *session) summaryByURL() map[string]string {
	m := make(map[string]string, len(s.summaries))
	for _, sum := range s.summaries {
		if _, ok := m[sum.URL]; !ok {
			m[sum.URL] = sum.Text
		}
	}
	return m
}
