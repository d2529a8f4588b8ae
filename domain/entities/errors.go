package entities

import (
	"errors"
	"fmt"
)

// Sentinel errors for session and call-category guards.
var (
	// ErrSessionBusy rejects starting a session while one is active.
	ErrSessionBusy = errors.New("a recording session is already active")
	// ErrNotRecording rejects stop when no session is recording.
	ErrNotRecording = errors.New("no recording session in progress")
	// ErrOperationInProgress rejects a concurrent call in the same
	// category while one is in flight.
	ErrOperationInProgress = errors.New("operation already in progress")
	// ErrMalformedModelOutput marks an unparsable generative response.
	// Document-generation call sites never propagate it; they degrade
	// to a typed fallback instead.
	ErrMalformedModelOutput = errors.New("malformed model output")
)

// CaptureError aborts the session: the audio device or its permission
// failed. Surfaced to the user.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string { return fmt.Sprintf("audio capture failed: %v", e.Err) }
func (e *CaptureError) Unwrap() error { return e.Err }

// RecognitionError is a non-fatal per-utterance recognition failure.
// Logged and skipped; the live engine keeps listening.
type RecognitionError struct {
	Reason string
}

func (e *RecognitionError) Error() string { return fmt.Sprintf("speech recognition: %s", e.Reason) }

// RemoteTranscriptionError propagates a failed re-transcription call.
// There is no safe fallback text to substitute for a conversation's
// content, so the session moves to the error state.
type RemoteTranscriptionError struct {
	Err error
}

func (e *RemoteTranscriptionError) Error() string {
	return fmt.Sprintf("remote transcription failed: %v", e.Err)
}
func (e *RemoteTranscriptionError) Unwrap() error { return e.Err }

// PersistenceError is surfaced as non-fatal: the in-memory transcript
// is retained so the write can be retried.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence failed: %v", e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
