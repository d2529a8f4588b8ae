package tts

import (
	"context"
	"sync"

	"github.com/fieldscope/server/domain/repositories"
)

// MockTTS returns the input text as bytes, so tests can assert what
// would have been spoken.
type MockTTS struct {
	mu    sync.Mutex
	Err   error
	Texts []string
}

var _ repositories.SpeechSynthesisModel = (*MockTTS)(nil)

func (m *MockTTS) Synthesize(_ context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Texts = append(m.Texts, text)
	return []byte(text), nil
}
