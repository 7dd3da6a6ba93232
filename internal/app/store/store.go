package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/counsel-agent/internal/domain"
)

// DefaultThreadName is used when a thread is created without a name.
const DefaultThreadName = "New chat"

// Store implements domain.ConversationStore on top of a key-value backing.
//
// Mutations on one thread are serialized by a per-thread lock, changes to the
// thread index by the index lock. Lock order is always thread, then index.
type Store struct {
	kv    domain.KeyValueStore
	now   func() time.Time
	newID func() string

	indexMu sync.Mutex

	locksMu sync.Mutex
	locks   map[domain.ThreadID]*threadLock
}

// threadLock is dropped from the map once no caller holds or waits on it.
type threadLock struct {
	mu   sync.Mutex
	refs int
}

var _ domain.ConversationStore = (*Store)(nil)

type Option func(*Store)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the uuid based id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates a conversation store over kv.
func New(kv domain.KeyValueStore, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		now:   time.Now,
		newID: uuid.NewString,
		locks: make(map[domain.ThreadID]*threadLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) lockThread(id domain.ThreadID) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &threadLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

// ─────────────────────────────────────────
// Threads
// ─────────────────────────────────────────

func (s *Store) CreateThread(ctx context.Context, name string) (*domain.Thread, error) {
	if name == "" {
		name = DefaultThreadName
	}

	thread := &domain.Thread{
		ID:        domain.ThreadID(s.newID()),
		Name:      name,
		CreatedAt: s.now(),
	}

	unlock := s.lockThread(thread.ID)
	defer unlock()

	if err := s.putJSON(ctx, threadKey(thread.ID), thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	if err := s.putJSON(ctx, messagesKey(thread.ID), []*domain.Message{}); err != nil {
		_ = s.kv.Remove(ctx, threadKey(thread.ID))
		return nil, fmt.Errorf("create thread messages: %w", err)
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	ids, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	ids = append(ids, thread.ID)
	if err := s.putJSON(ctx, keyThreads, ids); err != nil {
		_ = s.kv.Remove(ctx, messagesKey(thread.ID))
		_ = s.kv.Remove(ctx, threadKey(thread.ID))
		return nil, fmt.Errorf("save thread index: %w", err)
	}

	out := *thread
	return &out, nil
}

// ListThreads returns threads in insertion order, re-read from the backing.
func (s *Store) ListThreads(ctx context.Context) ([]*domain.Thread, error) {
	s.indexMu.Lock()
	ids, err := s.loadIndex(ctx)
	s.indexMu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Thread, 0, len(ids))
	for _, id := range ids {
		thread, err := s.loadThread(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			// deleted between reading the index and the record
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, thread)
	}
	return out, nil
}

// RenameThread is a no-op for unknown ids.
func (s *Store) RenameThread(ctx context.Context, id domain.ThreadID, name string) error {
	unlock := s.lockThread(id)
	defer unlock()

	thread, err := s.loadThread(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	thread.Name = name
	if err := s.putJSON(ctx, threadKey(id), thread); err != nil {
		return fmt.Errorf("rename thread %s: %w", id, err)
	}
	return nil
}

// DeleteThread removes the thread and all its messages. Unknown ids are a no-op.
func (s *Store) DeleteThread(ctx context.Context, id domain.ThreadID) error {
	unlock := s.lockThread(id)
	defer unlock()

	if _, err := s.loadThread(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	s.indexMu.Lock()
	ids, err := s.loadIndex(ctx)
	if err == nil {
		ids = slices.DeleteFunc(ids, func(other domain.ThreadID) bool { return other == id })
		err = s.putJSON(ctx, keyThreads, ids)
	}
	s.indexMu.Unlock()
	if err != nil {
		return fmt.Errorf("delete thread %s from index: %w", id, err)
	}

	if err := s.kv.Remove(ctx, messagesKey(id)); err != nil {
		return fmt.Errorf("delete thread %s messages: %w", id, err)
	}
	if err := s.kv.Remove(ctx, threadKey(id)); err != nil {
		return fmt.Errorf("delete thread %s: %w", id, err)
	}
	return nil
}

// ─────────────────────────────────────────
// Messages
// ─────────────────────────────────────────

// AppendMessage stores a copy of msg, assigning id and timestamp when absent.
func (s *Store) AppendMessage(ctx context.Context, threadID domain.ThreadID, msg *domain.Message) (*domain.Message, error) {
	if msg == nil {
		return nil, errors.New("append message: nil message")
	}

	unlock := s.lockThread(threadID)
	defer unlock()

	msgs, err := s.loadMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}

	stored := *msg
	stored.ThreadID = threadID
	if stored.ID == "" {
		stored.ID = domain.MessageID(s.newID())
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}

	msgs = append(msgs, &stored)
	if err := s.putJSON(ctx, messagesKey(threadID), msgs); err != nil {
		return nil, fmt.Errorf("append message to %s: %w", threadID, err)
	}

	out := stored
	return &out, nil
}

// UpdateMessage patches a persisted message in place.
func (s *Store) UpdateMessage(
	ctx context.Context,
	threadID domain.ThreadID,
	messageID domain.MessageID,
	patch domain.MessagePatch,
) (*domain.Message, error) {
	unlock := s.lockThread(threadID)
	defer unlock()

	msgs, err := s.loadMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(msgs, func(m *domain.Message) bool { return m.ID == messageID })
	if idx < 0 {
		return nil, fmt.Errorf("message %s in thread %s: %w", messageID, threadID, domain.ErrNotFound)
	}

	updated := patch.Apply(*msgs[idx])
	msgs[idx] = &updated
	if err := s.putJSON(ctx, messagesKey(threadID), msgs); err != nil {
		return nil, fmt.Errorf("update message %s: %w", messageID, err)
	}

	out := updated
	return &out, nil
}

// GetMessages returns the thread's messages in insertion order.
func (s *Store) GetMessages(ctx context.Context, threadID domain.ThreadID) ([]*domain.Message, error) {
	unlock := s.lockThread(threadID)
	defer unlock()

	return s.loadMessages(ctx, threadID)
}

// ─────────────────────────────────────────
// Session pointer
// ─────────────────────────────────────────

// ActiveThread returns the persisted active thread id, or "" when none.
func (s *Store) ActiveThread(ctx context.Context) (domain.ThreadID, error) {
	var id domain.ThreadID
	err := s.getJSON(ctx, keyActive, &id)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// SetActiveThread persists the active thread pointer. An empty id clears it.
func (s *Store) SetActiveThread(ctx context.Context, id domain.ThreadID) error {
	if id == "" {
		return s.kv.Remove(ctx, keyActive)
	}
	return s.putJSON(ctx, keyActive, id)
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) loadIndex(ctx context.Context) ([]domain.ThreadID, error) {
	var ids []domain.ThreadID
	err := s.getJSON(ctx, keyThreads, &ids)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load thread index: %w", err)
	}
	return ids, nil
}

func (s *Store) loadThread(ctx context.Context, id domain.ThreadID) (*domain.Thread, error) {
	var thread domain.Thread
	err := s.getJSON(ctx, threadKey(id), &thread)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", id, err)
	}
	return &thread, nil
}

func (s *Store) loadMessages(ctx context.Context, id domain.ThreadID) ([]*domain.Message, error) {
	var msgs []*domain.Message
	err := s.getJSON(ctx, messagesKey(id), &msgs)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load messages of %s: %w", id, err)
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return msgs, nil
}

func (s *Store) getJSON(ctx context.Context, key string, dest any) error {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

func (s *Store) putJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.kv.Set(ctx, key, raw)
}
