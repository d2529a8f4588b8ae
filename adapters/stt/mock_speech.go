package stt

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fieldscope/server/domain/repositories"
)

// MockSpeechRecognizer is a scriptable streaming recognizer for
// development and tests. Fed audio produces no results on its own;
// tests emit them through EmitResult/EmitPartial/EmitError.
type MockSpeechRecognizer struct {
	logger    *zap.Logger
	mu        sync.Mutex
	running   bool
	callbacks repositories.RecognizerCallbacks
	FedBytes  int
}

// NewMockSpeechRecognizer creates a mock streaming recognizer.
func NewMockSpeechRecognizer(logger *zap.Logger) *MockSpeechRecognizer {
	return &MockSpeechRecognizer{logger: logger}
}

var _ repositories.SpeechRecognizer = (*MockSpeechRecognizer)(nil)

func (m *MockSpeechRecognizer) Start(_ context.Context, locale string, callbacks repositories.RecognizerCallbacks) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("recognizer already started")
	}
	m.running = true
	m.callbacks = callbacks
	m.logger.Info("mock recognizer started", zap.String("locale", locale))
	return nil
}

func (m *MockSpeechRecognizer) Feed(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return fmt.Errorf("recognizer not started")
	}
	m.FedBytes += len(data)
	return nil
}

func (m *MockSpeechRecognizer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.callbacks = repositories.RecognizerCallbacks{}
	return nil
}

// Running reports whether the stream is active.
func (m *MockSpeechRecognizer) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// EmitResult delivers a final utterance to the active callbacks.
func (m *MockSpeechRecognizer) EmitResult(text string, confidence *float64) {
	m.mu.Lock()
	cb := m.callbacks.OnResult
	m.mu.Unlock()
	if cb != nil {
		cb(text, confidence)
	}
}

// EmitPartial delivers an interim hypothesis.
func (m *MockSpeechRecognizer) EmitPartial(text string) {
	m.mu.Lock()
	cb := m.callbacks.OnPartial
	m.mu.Unlock()
	if cb != nil {
		cb(text)
	}
}

// EmitError delivers a recognition error.
func (m *MockSpeechRecognizer) EmitError(reason string) {
	m.mu.Lock()
	cb := m.callbacks.OnError
	m.mu.Unlock()
	if cb != nil {
		cb(reason)
	}
}

// MockTranscriber is a scriptable batch TranscriptionModel.
type MockTranscriber struct {
	Result *repositories.TranscriptionResult
	Err    error
}

var _ repositories.TranscriptionModel = (*MockTranscriber)(nil)

func (m *MockTranscriber) Transcribe(_ context.Context, _ []byte, _ repositories.AudioConfig) (*repositories.TranscriptionResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &repositories.TranscriptionResult{
		Text: "Hello there.",
		Segments: []repositories.TranscriptSegment{
			{Start: 0, End: 1.5, Text: "Hello there."},
		},
	}, nil
}
