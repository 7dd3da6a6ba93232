package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PabloGalante/counsel-agent/internal/domain"
	"github.com/PabloGalante/counsel-agent/internal/observability"
)

const (
	// AnalysisErrorText finalizes a placeholder whose analysis failed.
	AnalysisErrorText = "Sorry, the legal analysis could not be completed. Please try again."
	// InterruptedText finalizes a placeholder left pending by a previous run.
	InterruptedText = "The analysis was interrupted before a reply arrived. Please send your question again."
)

// Service is the session manager: it drives at most one analysis request
// per thread and reconciles the reply into the conversation store.
type Service struct {
	store    domain.ConversationStore
	analyzer domain.AnalysisService
	uploader domain.AttachmentUploader

	historyBudget int
	now           func() time.Time

	session  *session
	inflight sync.WaitGroup
}

type Option func(*Service)

// WithHistoryBudget sets the max serialized history size in bytes.
func WithHistoryBudget(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyBudget = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the session manager. uploader may be nil, in which case
// local file attachments fail with ErrUploadFailed.
func NewService(
	store domain.ConversationStore,
	analyzer domain.AnalysisService,
	uploader domain.AttachmentUploader,
	opts ...Option,
) *Service {
	s := &Service{
		store:         store,
		analyzer:      analyzer,
		uploader:      uploader,
		historyBudget: DefaultHistoryBudget,
		now:           time.Now,
		session:       newSession(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load initializes the session from the store: restores the active thread
// pointer and finalizes placeholders left pending by a previous process.
func (s *Service) Load(ctx context.Context) error {
	log := observability.LoggerFromContext(ctx)

	active, err := s.store.ActiveThread(ctx)
	if err != nil {
		return fmt.Errorf("load active thread: %w", err)
	}
	if active != "" {
		if _, err := s.store.GetMessages(ctx, active); errors.Is(err, domain.ErrNotFound) {
			active = ""
		} else if err != nil {
			return err
		}
	}
	s.session.setActive(active)

	recovered, err := s.Recover(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Str("active_thread", string(active)).
		Int("recovered", recovered).
		Msg("session loaded")
	return nil
}

// Recover finalizes every placeholder still pending in the store that has no
// request in flight in this process. It returns how many were reset.
//
// A store is owned by one process at a time: placeholders written by another
// live process sharing the same backend are indistinguishable from orphans
// and get reset too. Run the CLI and the API against separate data.
func (s *Service) Recover(ctx context.Context) (int, error) {
	threads, err := s.store.ListThreads(ctx)
	if err != nil {
		return 0, fmt.Errorf("recover: %w", err)
	}

	text := InterruptedText
	pending := false
	failed := true
	patch := domain.MessagePatch{Text: &text, Pending: &pending, Failed: &failed}

	count := 0
	for _, th := range threads {
		if s.session.isPending(th.ID) {
			continue
		}
		msgs, err := s.store.GetMessages(ctx, th.ID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return count, fmt.Errorf("recover %s: %w", th.ID, err)
		}
		for _, m := range msgs {
			if !m.Pending {
				continue
			}
			if _, err := s.store.UpdateMessage(ctx, th.ID, m.ID, patch); err != nil {
				return count, fmt.Errorf("recover message %s: %w", m.ID, err)
			}
			count++
		}
	}
	return count, nil
}

// ─────────────────────────────────────────
// Submit
// ─────────────────────────────────────────

type SubmitInput struct {
	// ThreadID defaults to the active thread; a new thread is created when
	// there is none.
	ThreadID   domain.ThreadID
	Text       string
	Attachment *domain.Attachment
}

type SubmitOutput struct {
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
}

// turn is a submission that passed validation and has its messages appended.
type turn struct {
	threadID    domain.ThreadID
	user        *domain.Message
	placeholder *domain.Message
	history     []domain.HistoryEntry
}

// Submit sends one user turn for analysis and waits for the reply.
//
// On analysis failure the user message stays persisted, the placeholder is
// finalized with AnalysisErrorText and the output is returned together with
// an error wrapping domain.ErrAnalysisFailed.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitOutput, error) {
	t, err := s.begin(ctx, in)
	if err != nil {
		return nil, err
	}
	defer s.session.release(t.threadID)

	// requests run to completion once started
	return s.complete(context.WithoutCancel(ctx), t)
}

// SubmitAsync appends the user message and the placeholder, then completes
// the analysis in the background. The returned assistant message is the
// pending placeholder. Use Wait to drain background work.
func (s *Service) SubmitAsync(ctx context.Context, in SubmitInput) (*SubmitOutput, error) {
	t, err := s.begin(ctx, in)
	if err != nil {
		return nil, err
	}

	bg := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer s.session.release(t.threadID)

		if _, err := s.complete(bg, t); err != nil {
			log := observability.LoggerFromContext(bg)
			log.Warn().
				Err(err).
				Str("thread_id", string(t.threadID)).
				Msg("async submission finished with error")
		}
	}()

	return &SubmitOutput{UserMessage: t.user, AssistantMessage: t.placeholder}, nil
}

// Wait blocks until every background submission has completed.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) begin(ctx context.Context, in SubmitInput) (*turn, error) {
	if strings.TrimSpace(in.Text) == "" && in.Attachment.IsZero() {
		observability.RecordSubmission("empty")
		return nil, domain.ErrEmptyInput
	}

	threadID := in.ThreadID
	if threadID == "" {
		threadID = s.session.activeThread()
	}

	// Without a thread to post to, upload before creating one so a failed
	// upload leaves nothing behind.
	var attachmentURL string
	uploaded := false
	if threadID == "" {
		url, err := s.resolveAttachment(ctx, in.Attachment)
		if err != nil {
			observability.RecordSubmission("upload_failed")
			log := observability.LoggerFromContext(ctx)
			log.Error().Err(err).Msg("attachment upload failed")
			return nil, err
		}
		attachmentURL, uploaded = url, true

		th, err := s.NewThread(ctx, "")
		if err != nil {
			return nil, err
		}
		threadID = th.ID
	}

	log := observability.LoggerFromContext(ctx).With().
		Str("thread_id", string(threadID)).
		Logger()

	if err := s.session.acquire(threadID); err != nil {
		observability.RecordSubmission("busy")
		log.Warn().Msg("submission rejected, thread busy")
		return nil, err
	}
	// release on every early exit, panics included
	done := false
	defer func() {
		if !done {
			s.session.release(threadID)
		}
	}()

	prior, err := s.store.GetMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}

	if !uploaded {
		attachmentURL, err = s.resolveAttachment(ctx, in.Attachment)
		if err != nil {
			observability.RecordSubmission("upload_failed")
			log.Error().Err(err).Msg("attachment upload failed")
			return nil, err
		}
	}

	user, err := s.store.AppendMessage(ctx, threadID, &domain.Message{
		Role:          domain.RoleUser,
		Text:          in.Text,
		AttachmentURL: attachmentURL,
		CreatedAt:     s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}
	s.session.setDraft(Draft{})

	placeholder, err := s.store.AppendMessage(ctx, threadID, &domain.Message{
		Role:      domain.RoleAssistant,
		Pending:   true,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("append placeholder: %w", err)
	}

	log.Info().
		Str("message_id", string(user.ID)).
		Bool("has_attachment", attachmentURL != "").
		Msg("user turn appended")

	done = true
	return &turn{
		threadID:    threadID,
		user:        user,
		placeholder: placeholder,
		history:     BuildHistory(prior, s.historyBudget),
	}, nil
}

func (s *Service) complete(ctx context.Context, t *turn) (*SubmitOutput, error) {
	log := observability.LoggerFromContext(ctx).With().
		Str("thread_id", string(t.threadID)).
		Str("message_id", string(t.placeholder.ID)).
		Logger()

	start := time.Now()
	res, analyzeErr := s.analyze(ctx, domain.AnalysisRequest{
		Text:          t.user.Text,
		AttachmentURL: t.user.AttachmentURL,
		History:       t.history,
	})
	observability.AnalysisDuration.Observe(time.Since(start).Seconds())

	if analyzeErr == nil && (res == nil || strings.TrimSpace(res.Summary) == "") {
		analyzeErr = errors.New("empty summary")
	}

	pending := false
	patch := domain.MessagePatch{Pending: &pending}
	if analyzeErr == nil {
		patch.Text = &res.Summary
	} else {
		text := AnalysisErrorText
		failed := true
		patch.Text = &text
		patch.Failed = &failed
	}

	final, err := s.store.UpdateMessage(ctx, t.threadID, t.placeholder.ID, patch)
	if err != nil {
		log.Error().Err(err).Msg("failed to finalize placeholder")
		return nil, fmt.Errorf("finalize placeholder: %w", err)
	}

	out := &SubmitOutput{UserMessage: t.user, AssistantMessage: final}
	if analyzeErr != nil {
		observability.RecordSubmission("analysis_failed")
		log.Error().Err(analyzeErr).Msg("analysis failed")
		return out, fmt.Errorf("%w: %w", domain.ErrAnalysisFailed, analyzeErr)
	}

	observability.RecordSubmission("ok")
	log.Info().Dur("took", time.Since(start)).Msg("analysis completed")
	return out, nil
}

// analyze calls the analyzer and turns a panic into an error so the
// placeholder is still finalized.
func (s *Service) analyze(ctx context.Context, req domain.AnalysisRequest) (res *domain.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("analyzer panic: %v", r)
		}
	}()
	return s.analyzer.Analyze(ctx, req)
}

func (s *Service) resolveAttachment(ctx context.Context, att *domain.Attachment) (string, error) {
	if att.IsZero() {
		return "", nil
	}
	if att.File == nil {
		return strings.TrimSpace(att.URL), nil
	}
	if s.uploader == nil {
		observability.RecordUpload("error")
		return "", fmt.Errorf("%w: no uploader configured", domain.ErrUploadFailed)
	}

	url, err := s.uploader.Upload(ctx, *att)
	if err != nil {
		observability.RecordUpload("error")
		if errors.Is(err, domain.ErrUploadFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}
	if url == "" {
		observability.RecordUpload("error")
		return "", fmt.Errorf("%w: uploader returned no url", domain.ErrUploadFailed)
	}
	observability.RecordUpload("ok")
	return url, nil
}

// ─────────────────────────────────────────
// Threads
// ─────────────────────────────────────────

// NewThread creates a thread and makes it the active one.
func (s *Service) NewThread(ctx context.Context, name string) (*domain.Thread, error) {
	th, err := s.store.CreateThread(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.activate(ctx, th.ID); err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx)
	log.Info().
		Str("thread_id", string(th.ID)).
		Msg("thread created")
	return th, nil
}

func (s *Service) ListThreads(ctx context.Context) ([]*domain.Thread, error) {
	return s.store.ListThreads(ctx)
}

func (s *Service) RenameThread(ctx context.Context, id domain.ThreadID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: thread name", domain.ErrEmptyInput)
	}
	return s.store.RenameThread(ctx, id, name)
}

// DeleteThread removes a thread. When it was the active one, the most recent
// remaining thread becomes active, or none. A thread with a request in
// flight cannot be deleted.
func (s *Service) DeleteThread(ctx context.Context, id domain.ThreadID) error {
	if err := s.session.acquire(id); err != nil {
		return err
	}
	defer s.session.release(id)

	if err := s.store.DeleteThread(ctx, id); err != nil {
		return err
	}
	if s.session.activeThread() != id {
		return nil
	}

	threads, err := s.store.ListThreads(ctx)
	if err != nil {
		return err
	}
	var next domain.ThreadID
	if len(threads) > 0 {
		next = threads[len(threads)-1].ID
	}
	return s.activate(ctx, next)
}

// SelectThread makes id the active thread.
func (s *Service) SelectThread(ctx context.Context, id domain.ThreadID) error {
	if _, err := s.store.GetMessages(ctx, id); err != nil {
		return err
	}
	return s.activate(ctx, id)
}

// ActiveThread returns the active thread id, "" when none.
func (s *Service) ActiveThread() domain.ThreadID {
	return s.session.activeThread()
}

// Timeline returns the thread's messages in insertion order.
func (s *Service) Timeline(ctx context.Context, id domain.ThreadID) ([]*domain.Message, error) {
	return s.store.GetMessages(ctx, id)
}

// IsPending reports whether a request is in flight for id.
func (s *Service) IsPending(id domain.ThreadID) bool {
	return s.session.isPending(id)
}

func (s *Service) SetDraft(d Draft) { s.session.setDraft(d) }

func (s *Service) Draft() Draft { return s.session.getDraft() }

func (s *Service) ClearDraft() { s.session.setDraft(Draft{}) }

// State returns a snapshot of the session.
func (s *Service) State() SessionState {
	return s.session.snapshot()
}

func (s *Service) activate(ctx context.Context, id domain.ThreadID) error {
	if err := s.store.SetActiveThread(ctx, id); err != nil {
		return fmt.Errorf("persist active thread: %w", err)
	}
	s.session.setActive(id)
	return nil
}
