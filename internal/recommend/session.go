package recommend

import (
	"sync"

	"github.com/Dragy007/Movie-RecS/internal/domain"
)

// Sessions holds the ephemeral per-user pipeline state: the current
// preference summary and the recommendation list derived from it. Both are
// cleared the moment the user's rated set changes.
type Sessions struct {
	mu     sync.RWMutex
	states map[string]*sessionState
}

type sessionState struct {
	// rev increments on every invalidation. Writers that started before an
	// invalidation carry a stale rev and their result is discarded, so a
	// slow analysis can never resurrect state derived from old ratings.
	rev        int
	summary    string
	hasSummary bool
	recs       []domain.RecommendedMovie
}

// NewSessions constructs an empty session table.
func NewSessions() *Sessions {
	return &Sessions{states: make(map[string]*sessionState)}
}

func (s *Sessions) state(userID string) *sessionState {
	if st, ok := s.states[userID]; ok {
		return st
	}
	st := &sessionState{}
	s.states[userID] = st
	return st
}

// Revision returns the user's current invalidation revision.
func (s *Sessions) Revision(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.states[userID]; ok {
		return st.rev
	}
	return 0
}

// Summary returns the user's current preference summary, if one exists.
func (s *Sessions) Summary(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.states[userID]; ok && st.hasSummary {
		return st.summary, true
	}
	return "", false
}

// Recommendations returns the user's current recommendation list.
func (s *Sessions) Recommendations(userID string) []domain.RecommendedMovie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.states[userID]; ok {
		return st.recs
	}
	return nil
}

// SetSummary stores a freshly computed summary. It reports whether the value
// was applied: a mismatched revision means the rated set changed while the
// analysis ran, and the result is dropped.
func (s *Sessions) SetSummary(userID, summary string, rev int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(userID)
	if st.rev != rev {
		return false
	}
	st.summary = summary
	st.hasSummary = true
	return true
}

// SetRecommendations stores a freshly computed list under the same revision
// discipline as SetSummary.
func (s *Sessions) SetRecommendations(userID string, recs []domain.RecommendedMovie, rev int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(userID)
	if st.rev != rev {
		return false
	}
	st.recs = recs
	return true
}

// Invalidate clears the user's derived state. Called for every change to the
// user's rated-movie set.
func (s *Sessions) Invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(userID)
	st.rev++
	st.summary = ""
	st.hasSummary = false
	st.recs = nil
}
