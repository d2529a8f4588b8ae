package websocket

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/fieldscope/server/domain/entities"
)

func TestPeekType(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantType MessageType
		wantErr  bool
	}{
		{
			name:     "audio chunk",
			message:  `{"type": "audio_chunk", "session_id": "s-1"}`,
			wantType: MessageTypeAudioChunk,
		},
		{
			name:     "ping",
			message:  `{"type": "ping"}`,
			wantType: MessageTypePing,
		},
		{
			name:    "missing type",
			message: `{"session_id": "s-1"}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			message: `{invalid}`,
			wantErr: true,
		},
		{
			name:    "empty payload",
			message: ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeekType([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Errorf("PeekType() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.wantType {
				t.Errorf("PeekType() = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestAudioChunkMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{
			name: "valid audio chunk",
			message: `{
				"type": "audio_chunk",
				"session_id": "session-123",
				"audio_data": "SGVsbG8gV29ybGQ=",
				"chunk_sequence": 1,
				"is_final": false
			}`,
			wantErr: false,
		},
		{
			name: "missing session_id",
			message: `{
				"type": "audio_chunk",
				"audio_data": "SGVsbG8gV29ybGQ="
			}`,
			wantErr: true,
		},
		{
			name: "missing audio_data",
			message: `{
				"type": "audio_chunk",
				"session_id": "session-123"
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg AudioChunkMessage
			if err := json.Unmarshal([]byte(tt.message), &msg); err != nil {
				t.Fatalf("Failed to unmarshal message: %v", err)
			}
			err := msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewBase(t *testing.T) {
	base := newBase(MessageTypeSessionState)

	if base.Type != MessageTypeSessionState {
		t.Errorf("Expected type %s, got %s", MessageTypeSessionState, base.Type)
	}

	timestamp, err := time.Parse(time.RFC3339, base.Timestamp)
	if err != nil {
		t.Errorf("Invalid timestamp format: %v", err)
	}
	if time.Since(timestamp) > time.Second {
		t.Errorf("Timestamp is not recent: %s", base.Timestamp)
	}
}

func TestMessageSerialization(t *testing.T) {
	tests := []struct {
		name    string
		message interface{}
	}{
		{
			name: "TranscriptUpdateMessage",
			message: TranscriptUpdateMessage{
				BaseMessage: newBase(MessageTypeTranscriptUpdate),
				SessionID:   "test-session",
				Entries: []entities.TranscriptEntry{
					{ID: "e-1", TimestampMs: 0, Speaker: "Contractor", Text: "Hello", Confidence: 0.8},
				},
			},
		},
		{
			name: "PartialTranscriptMessage",
			message: PartialTranscriptMessage{
				BaseMessage: newBase(MessageTypePartialTranscript),
				SessionID:   "test-session",
				Text:        "so what we",
			},
		},
		{
			name: "SessionStateMessage",
			message: SessionStateMessage{
				BaseMessage: newBase(MessageTypeSessionState),
				SessionID:   "test-session",
				State:       entities.SessionStateRecording,
			},
		},
		{
			name: "NarrationAudioMessage",
			message: NarrationAudioMessage{
				BaseMessage: newBase(MessageTypeNarrationAudio),
				AudioData:   "SGVsbG8=",
			},
		},
		{
			name: "ReviewStateMessage",
			message: ReviewStateMessage{
				BaseMessage: newBase(MessageTypeReviewState),
				State:       "speaking",
			},
		},
		{
			name: "ErrorMessage",
			message: ErrorMessage{
				BaseMessage: newBase(MessageTypeError),
				Code:        "bad_message",
				Message:     "session_id is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.message)
			if err != nil {
				t.Errorf("Failed to marshal message: %v", err)
				return
			}

			var result map[string]interface{}
			if err := json.Unmarshal(data, &result); err != nil {
				t.Errorf("Failed to unmarshal message: %v", err)
				return
			}

			if _, exists := result["type"]; !exists {
				t.Errorf("Message missing 'type' field")
			}
			if _, exists := result["timestamp"]; !exists {
				t.Errorf("Message missing 'timestamp' field")
			}
		})
	}
}

func TestPeekType_InvalidJSON(t *testing.T) {
	invalidMessages := []string{
		`{invalid json}`,
		`{"type": "audio_chunk", "session_id":}`,
		`{"type": }`,
	}

	for i, msg := range invalidMessages {
		t.Run(fmt.Sprintf("invalid_json_%d", i), func(t *testing.T) {
			if _, err := PeekType([]byte(msg)); err == nil {
				t.Errorf("Expected error for invalid JSON, got nil")
			}
		})
	}
}
