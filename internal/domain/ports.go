package domain

import "context"

// AnalysisRequest is the payload sent to the external analysis service.
type AnalysisRequest struct {
	Text          string
	AttachmentURL string
	History       []HistoryEntry
}

// AnalysisResult is a successful analysis reply.
type AnalysisResult struct {
	Summary string
}

// AnalysisService produces a legal-risk analysis for a user turn.
// It must tolerate an empty Text when AttachmentURL is set and vice versa.
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
}

// AttachmentUploader turns a local file or a URL into a durable remote URL.
// A failed upload must not have side effects on any message.
type AttachmentUploader interface {
	Upload(ctx context.Context, att Attachment) (remoteURL string, err error)
}

// Recognition is the result of an audio fingerprint lookup.
type Recognition struct {
	Matched        bool     `json:"matched"`
	Title          string   `json:"title,omitempty"`
	Artists        []string `json:"artists,omitempty"`
	YouTubeVideoID string   `json:"youtube_video_id,omitempty"`
}

// AudioRecognizer identifies known recordings behind an audio URL.
type AudioRecognizer interface {
	Identify(ctx context.Context, audioURL string) (*Recognition, error)
}

// KeyValueStore is the durable string-keyed substrate behind the conversation store.
// Get returns an error wrapping ErrKeyNotFound for missing keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// ConversationStore owns thread and message lifetime.
type ConversationStore interface {
	CreateThread(ctx context.Context, name string) (*Thread, error)
	ListThreads(ctx context.Context) ([]*Thread, error)
	RenameThread(ctx context.Context, id ThreadID, name string) error
	DeleteThread(ctx context.Context, id ThreadID) error

	AppendMessage(ctx context.Context, threadID ThreadID, msg *Message) (*Message, error)
	UpdateMessage(ctx context.Context, threadID ThreadID, messageID MessageID, patch MessagePatch) (*Message, error)
	GetMessages(ctx context.Context, threadID ThreadID) ([]*Message, error)

	ActiveThread(ctx context.Context) (ThreadID, error)
	SetActiveThread(ctx context.Context, id ThreadID) error
}
