package conversation

import (
	"slices"
	"sync"

	"github.com/PabloGalante/counsel-agent/internal/domain"
)

// Draft is the unsent input of the session.
type Draft struct {
	Text          string `json:"text"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

// SessionState is a snapshot of the process-wide session.
type SessionState struct {
	ActiveThreadID domain.ThreadID   `json:"active_thread_id"`
	Pending        []domain.ThreadID `json:"pending"`
	Draft          Draft             `json:"draft"`
}

// session is the ephemeral state of one client context. Only the active
// thread pointer is persisted, through the conversation store.
type session struct {
	mu      sync.Mutex
	active  domain.ThreadID
	pending map[domain.ThreadID]struct{}
	draft   Draft
}

func newSession() *session {
	return &session{pending: make(map[domain.ThreadID]struct{})}
}

// acquire marks the thread as pending. It fails with ErrBusy when a request
// is already in flight for it.
func (s *session) acquire(id domain.ThreadID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.pending[id]; busy {
		return domain.ErrBusy
	}
	s.pending[id] = struct{}{}
	return nil
}

func (s *session) release(id domain.ThreadID) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *session) isPending(id domain.ThreadID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

func (s *session) activeThread() domain.ThreadID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *session) setActive(id domain.ThreadID) {
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
}

func (s *session) setDraft(d Draft) {
	s.mu.Lock()
	s.draft = d
	s.mu.Unlock()
}

func (s *session) getDraft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *session) snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]domain.ThreadID, 0, len(s.pending))
	for id := range s.pending {
		pending = append(pending, id)
	}
	slices.Sort(pending)

	return SessionState{
		ActiveThreadID: s.active,
		Pending:        pending,
		Draft:          s.draft,
	}
}
