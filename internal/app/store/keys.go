package store

import "github.com/PabloGalante/counsel-agent/internal/domain"

// Canonical key scheme. Every key the conversation store writes is built here.
const (
	keyPrefix  = "counsel:"
	keyThreads = keyPrefix + "threads"
	keyActive  = keyPrefix + "session:active"
)

func threadKey(id domain.ThreadID) string {
	return keyPrefix + "thread:" + string(id)
}

func messagesKey(id domain.ThreadID) string {
	return keyPrefix + "messages:" + string(id)
}
