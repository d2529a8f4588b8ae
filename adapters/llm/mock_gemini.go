package llm

import (
	"context"
	"sync"

	"github.com/fieldscope/server/domain/repositories"
)

// MockModel is a scriptable GenerativeTextModel for development and
// tests: responses are returned in order, then the last one repeats.
type MockModel struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	Prompts   []string
}

// NewMockModel creates a mock that replays the given responses.
func NewMockModel(responses ...string) *MockModel {
	return &MockModel{responses: responses}
}

// Ensure MockModel implements the GenerativeTextModel interface
var _ repositories.GenerativeTextModel = (*MockModel)(nil)

// Fail makes every subsequent Complete call return err.
func (m *MockModel) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Complete records the prompt and replays the scripted response.
func (m *MockModel) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	idx := m.calls
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.calls++
	return m.responses[idx], nil
}
