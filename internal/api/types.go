package api

import (
	"time"

	"github.com/fieldscope/server/domain/entities"
)

// DeviceAuthRequest represents the request payload for device authentication
type DeviceAuthRequest struct {
	SerialNumber string `json:"serial_number" validate:"required"`
	SecretKey    string `json:"secret_key" validate:"required"`
}

// DeviceAuthResponse represents the response payload for device authentication
type DeviceAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	DeviceID  string    `json:"device_id"`
}

// StartSessionRequest optionally overrides the recognition locale.
type StartSessionRequest struct {
	Locale string `json:"locale,omitempty"`
}

// SessionResponse reports a session's identity and lifecycle state.
type SessionResponse struct {
	SessionID  string                `json:"session_id"`
	State      entities.SessionState `json:"state"`
	StartedAt  time.Time             `json:"started_at"`
	EntryCount int                   `json:"entry_count"`
}

// ScopeResponse carries the paired scope documents and the review
// change log.
type ScopeResponse struct {
	Scope   entities.ScopeOfWork    `json:"scope"`
	Changes []entities.ChangeRecord `json:"changes,omitempty"`
}

// NarrateRequest selects which scope section to read aloud.
type NarrateRequest struct {
	SectionIndex int `json:"section_index"`
}

// ListenRequest optionally overrides the recognition locale for review
// edits.
type ListenRequest struct {
	Locale string `json:"locale,omitempty"`
}

// ListenResponse returns the edit transcript buffered so far.
type ListenResponse struct {
	Transcript string `json:"transcript"`
}

// ProcessChangesRequest optionally supplies a typed edit transcript in
// place of the buffered spoken one.
type ProcessChangesRequest struct {
	Transcript string `json:"transcript,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
