package domain

import "io"

// Thread is one persisted conversation with its own message history.
type Thread struct {
	ID        ThreadID  `json:"id"`
	Name      string    `json:"name"`
	CreatedAt Timestamp `json:"created_at"`
}

// Message represents a single turn half in a thread (user or assistant).
// Messages are immutable once persisted, except the assistant placeholder
// which is created with Pending set and finalized exactly once.
type Message struct {
	ID            MessageID `json:"id"`
	ThreadID      ThreadID  `json:"thread_id"`
	Role          Role      `json:"role"`
	Text          string    `json:"text"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     Timestamp `json:"created_at"`

	// Pending marks an in-flight assistant placeholder.
	Pending bool `json:"pending,omitempty"`
	// Failed marks a placeholder finalized with an error text.
	Failed bool `json:"failed,omitempty"`
}

// MessagePatch is the only way a persisted message changes.
// Nil fields are left untouched.
type MessagePatch struct {
	Text    *string
	Pending *bool
	Failed  *bool
}

// Apply returns a copy of m with the patch applied.
func (p MessagePatch) Apply(m Message) Message {
	if p.Text != nil {
		m.Text = *p.Text
	}
	if p.Pending != nil {
		m.Pending = *p.Pending
	}
	if p.Failed != nil {
		m.Failed = *p.Failed
	}
	return m
}

// HistoryEntry is a message reduced to what the analysis service needs.
type HistoryEntry struct {
	Role          Role   `json:"role"`
	Text          string `json:"text"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

// LocalFile is an attachment that still lives on the caller's side and
// has to be uploaded before it can be referenced.
type LocalFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Attachment is either a remote URL or a local file. Zero value means none.
type Attachment struct {
	URL  string
	File *LocalFile
}

// IsZero reports whether no attachment was provided.
func (a *Attachment) IsZero() bool {
	return a == nil || (a.URL == "" && a.File == nil)
}
