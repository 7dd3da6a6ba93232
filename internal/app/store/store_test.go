package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/counsel-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/counsel-agent/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/counsel-agent/internal/app/store"
	"github.com/PabloGalante/counsel-agent/internal/domain"
)

func newTestStore(t *testing.T) (*store.Store, *memory.KVStore) {
	t.Helper()
	kv := memory.NewKVStore()
	return store.New(kv), kv
}

func TestCreateThread_DefaultsAndPersists(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	thread, err := s.CreateThread(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, thread.ID)
	assert.Equal(t, store.DefaultThreadName, thread.Name)
	assert.False(t, thread.CreatedAt.IsZero())

	// index + thread record + empty message list
	assert.Equal(t, 3, kv.Len())

	msgs, err := s.GetMessages(ctx, thread.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestListThreads_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	var want []domain.ThreadID
	for i := range 4 {
		th, err := s.CreateThread(ctx, fmt.Sprintf("chat %d", i))
		require.NoError(t, err)
		want = append(want, th.ID)
	}

	threads, err := s.ListThreads(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 4)
	for i, th := range threads {
		assert.Equal(t, want[i], th.ID)
	}
}

func TestRenameThread(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	th, err := s.CreateThread(ctx, "old")
	require.NoError(t, err)

	require.NoError(t, s.RenameThread(ctx, th.ID, "new"))
	threads, err := s.ListThreads(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "new", threads[0].Name)

	// unknown id is a silent no-op
	require.NoError(t, s.RenameThread(ctx, "nope", "whatever"))
	threads, err = s.ListThreads(ctx)
	require.NoError(t, err)
	assert.Len(t, threads, 1)
}

func TestDeleteThread_RemovesMessages(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	keep, err := s.CreateThread(ctx, "keep")
	require.NoError(t, err)
	gone, err := s.CreateThread(ctx, "gone")
	require.NoError(t, err)

	_, err = s.AppendMessage(ctx, gone.ID, &domain.Message{Role: domain.RoleUser, Text: "hi"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteThread(ctx, gone.ID))
	require.NoError(t, s.DeleteThread(ctx, "unknown"))

	threads, err := s.ListThreads(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, keep.ID, threads[0].ID)

	_, err = s.GetMessages(ctx, gone.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// index + keep's record + keep's messages
	assert.Equal(t, 3, kv.Len())
}

func TestAppendMessage_UnknownThread(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.AppendMessage(context.Background(), "missing", &domain.Message{Role: domain.RoleUser, Text: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAppendMessage_AssignsIDAndKeepsGiven(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var n int
	s := store.New(memory.NewKVStore(),
		store.WithClock(func() time.Time { return fixed }),
		store.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)

	th, err := s.CreateThread(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadID("id-1"), th.ID)

	auto, err := s.AppendMessage(ctx, th.ID, &domain.Message{Role: domain.RoleUser, Text: "a"})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageID("id-2"), auto.ID)
	assert.Equal(t, th.ID, auto.ThreadID)
	assert.True(t, fixed.Equal(auto.CreatedAt))

	given, err := s.AppendMessage(ctx, th.ID, &domain.Message{ID: "m-1", Role: domain.RoleAssistant, Text: "b"})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageID("m-1"), given.ID)
	assert.Equal(t, 2, n)
}

func TestUpdateMessage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	th, err := s.CreateThread(ctx, "t")
	require.NoError(t, err)
	placeholder, err := s.AppendMessage(ctx, th.ID, &domain.Message{Role: domain.RoleAssistant, Pending: true})
	require.NoError(t, err)

	text := "final"
	pending := false
	updated, err := s.UpdateMessage(ctx, th.ID, placeholder.ID, domain.MessagePatch{Text: &text, Pending: &pending})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Text)
	assert.False(t, updated.Pending)
	assert.False(t, updated.Failed)

	msgs, err := s.GetMessages(ctx, th.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "final", msgs[0].Text)

	_, err = s.UpdateMessage(ctx, th.ID, "unknown", domain.MessagePatch{Text: &text})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.UpdateMessage(ctx, "unknown", placeholder.ID, domain.MessagePatch{Text: &text})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoundTrip_AfterReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := sqlite.Open(ctx, dir)
	require.NoError(t, err)
	s := store.New(kv)

	th, err := s.CreateThread(ctx, "contract review")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, th.ID, &domain.Message{
		Role:          domain.RoleUser,
		Text:          "Can I use this photo?",
		AttachmentURL: "https://cdn.example.com/photo.png",
	})
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, th.ID, &domain.Message{Role: domain.RoleAssistant, Text: "Only with a license."})
	require.NoError(t, err)
	require.NoError(t, s.SetActiveThread(ctx, th.ID))
	require.NoError(t, kv.Close())

	reopened, err := sqlite.Open(ctx, dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	s = store.New(reopened)

	msgs, err := s.GetMessages(ctx, th.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "Can I use this photo?", msgs[0].Text)
	assert.Equal(t, "https://cdn.example.com/photo.png", msgs[0].AttachmentURL)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Only with a license.", msgs[1].Text)

	active, err := s.ActiveThread(ctx)
	require.NoError(t, err)
	assert.Equal(t, th.ID, active)
}

func TestActiveThread_Clear(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	active, err := s.ActiveThread(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, s.SetActiveThread(ctx, "abc"))
	require.NoError(t, s.SetActiveThread(ctx, ""))

	active, err = s.ActiveThread(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestConcurrentAppends_SameThread(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	th, err := s.CreateThread(ctx, "busy")
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AppendMessage(ctx, th.ID, &domain.Message{Role: domain.RoleUser, Text: fmt.Sprint(i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	msgs, err := s.GetMessages(ctx, th.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, n)
}

func TestConcurrentCreates_IndexConsistent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateThread(ctx, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	threads, err := s.ListThreads(ctx)
	require.NoError(t, err)
	assert.Len(t, threads, n)
}
