package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldscope/server/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeAudioChunk        MessageType = "audio_chunk"
	MessageTypeTranscriptUpdate  MessageType = "transcript_update"
	MessageTypePartialTranscript MessageType = "partial_transcript"
	MessageTypeSessionState      MessageType = "session_state"
	MessageTypeNarrationAudio    MessageType = "narration_audio"
	MessageTypeReviewState       MessageType = "review_state"
	MessageTypePing              MessageType = "ping"
	MessageTypePong              MessageType = "pong"
	MessageTypeError             MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id,omitempty"`
}

// AudioChunkMessage represents an incoming audio chunk from a device
type AudioChunkMessage struct {
	BaseMessage
	SessionID string `json:"session_id"`
	AudioData string `json:"audio_data"` // base64 encoded
	ChunkSeq  int    `json:"chunk_sequence"`
	IsFinal   bool   `json:"is_final"`
}

// Validate checks the required audio chunk fields.
func (m *AudioChunkMessage) Validate() error {
	if m.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if m.AudioData == "" {
		return fmt.Errorf("audio_data is required")
	}
	return nil
}

// TranscriptUpdateMessage carries the full, ordered entry list so the
// client can render live progress.
type TranscriptUpdateMessage struct {
	BaseMessage
	SessionID string                     `json:"session_id"`
	Entries   []entities.TranscriptEntry `json:"entries"`
}

// PartialTranscriptMessage carries an interim recognition hypothesis.
// Partials are display-only; they never become permanent entries.
type PartialTranscriptMessage struct {
	BaseMessage
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// SessionStateMessage announces a session state transition.
type SessionStateMessage struct {
	BaseMessage
	SessionID string                `json:"session_id"`
	State     entities.SessionState `json:"state"`
}

// NarrationAudioMessage carries synthesized review narration.
type NarrationAudioMessage struct {
	BaseMessage
	AudioData string `json:"audio_data"` // base64 encoded
}

// ReviewStateMessage announces a review engine state transition.
type ReviewStateMessage struct {
	BaseMessage
	State string `json:"state"`
}

// ErrorMessage reports a failure to the client.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{
		Type:      t,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// PeekType extracts the message type without decoding the payload.
func PeekType(raw []byte) (MessageType, error) {
	var base BaseMessage
	if err := json.Unmarshal(raw, &base); err != nil {
		return "", fmt.Errorf("malformed message: %w", err)
	}
	if base.Type == "" {
		return "", fmt.Errorf("message type is required")
	}
	return base.Type, nil
}
