package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/domain/repositories"
	"github.com/fieldscope/server/internal/speaker"
)

func newConsultationClassifier() *speaker.Classifier {
	return speaker.NewClassifier(speaker.ConsultationVocabulary())
}

func newRoleClassifier() *speaker.Classifier {
	return speaker.NewClassifier(speaker.RoleVocabulary())
}

// fakeCaptureDevice records audio chunks in memory instead of a file.
type fakeCaptureDevice struct {
	mu       sync.Mutex
	started  bool
	path     string
	written  []byte
	startErr error
	stopErr  error
	readErr  error
}

var _ repositories.AudioCaptureDevice = (*fakeCaptureDevice)(nil)

func (d *fakeCaptureDevice) Start(_ context.Context, path string, _ repositories.CaptureConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return d.startErr
	}
	d.started = true
	d.path = path
	d.written = nil
	return nil
}

func (d *fakeCaptureDevice) Write(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return fmt.Errorf("capture not started")
	}
	d.written = append(d.written, data...)
	return nil
}

func (d *fakeCaptureDevice) Stop() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopErr != nil {
		return "", d.stopErr
	}
	d.started = false
	return d.path, nil
}

func (d *fakeCaptureDevice) ReadAll(path string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readErr != nil {
		return nil, d.readErr
	}
	_ = path
	return d.written, nil
}

// fakeGateway stores bundles in memory.
type fakeGateway struct {
	mu       sync.Mutex
	bundles  map[string]entities.TranscriptBundle
	writeErr error
}

var _ repositories.PersistenceGateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{bundles: make(map[string]entities.TranscriptBundle)}
}

func (g *fakeGateway) Write(_ context.Context, sessionID string, bundle entities.TranscriptBundle) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return "", g.writeErr
	}
	g.bundles[sessionID] = bundle
	return "mem://" + sessionID, nil
}

func (g *fakeGateway) Read(_ context.Context, sessionID string) (*entities.TranscriptBundle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.bundles[sessionID]
	if !ok {
		return nil, fmt.Errorf("bundle not found: %s", sessionID)
	}
	return &b, nil
}

// fakeArchive records archived bundles.
type fakeArchive struct {
	mu      sync.Mutex
	bundles []entities.TranscriptBundle
	err     error
}

var _ repositories.SessionArchive = (*fakeArchive)(nil)

func (a *fakeArchive) Archive(_ context.Context, bundle entities.TranscriptBundle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.bundles = append(a.bundles, bundle)
	return nil
}

func (a *fakeArchive) Recent(_ context.Context, limit int) ([]entities.TranscriptBundle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if limit <= 0 || limit > len(a.bundles) {
		limit = len(a.bundles)
	}
	out := make([]entities.TranscriptBundle, limit)
	copy(out, a.bundles[len(a.bundles)-limit:])
	return out, nil
}

// fakePlayer hands the done channel to the test so playback completion
// is under test control.
type fakePlayer struct {
	mu      sync.Mutex
	playing [][]byte
	done    chan struct{}
	stops   int
	playErr error
}

var _ repositories.AudioPlayer = (*fakePlayer)(nil)

func (p *fakePlayer) Play(audio []byte) (<-chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playErr != nil {
		return nil, p.playErr
	}
	p.playing = append(p.playing, audio)
	p.done = make(chan struct{})
	return p.done, nil
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	if p.done != nil {
		select {
		case <-p.done:
		default:
			close(p.done)
		}
		p.done = nil
	}
}

// finishPlayback closes the active done channel as a natural playback
// end would.
func (p *fakePlayer) finishPlayback() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
}
