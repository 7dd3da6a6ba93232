package domain

import "errors"

var (
	// ErrEmptyInput is returned when a submission has neither text nor attachment.
	ErrEmptyInput = errors.New("empty input: text or attachment required")
	// ErrBusy is returned when a request is already pending for the thread.
	ErrBusy = errors.New("thread busy: a request is already pending")
	// ErrUploadFailed wraps any attachment uploader failure.
	ErrUploadFailed = errors.New("attachment upload failed")
	// ErrAnalysisFailed is returned when the analysis service call failed.
	// The user message stays persisted.
	ErrAnalysisFailed = errors.New("analysis failed")
	// ErrNotFound is returned by store operations on unknown thread or message ids.
	ErrNotFound = errors.New("not found")

	// ErrKeyNotFound is returned by key-value backings for missing keys.
	ErrKeyNotFound = errors.New("key not found")

	ErrUnsupportedAttachment = errors.New("unsupported attachment type")
	ErrAttachmentTooLarge    = errors.New("attachment too large")
)
