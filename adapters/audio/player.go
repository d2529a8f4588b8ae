// Package audio provides the playback side of review narration. The
// server does not own a speaker; playback means delivering audio to a
// sink (the websocket client) and holding the exclusive playback slot
// for the estimated play time.
package audio

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fieldscope/server/domain/repositories"
)

// defaultBytesPerSecond approximates 128kbps mp3 output.
const defaultBytesPerSecond = 16000

// SinkPlayer implements AudioPlayer by handing audio to a sink
// function. It is an exclusive resource: Play stops whatever is
// currently playing before starting the new sound.
type SinkPlayer struct {
	sink           func(audio []byte)
	bytesPerSecond int
	logger         *zap.Logger

	mu      sync.Mutex
	done    chan struct{}
	timer   *time.Timer
	playing bool
}

var _ repositories.AudioPlayer = (*SinkPlayer)(nil)

// NewSinkPlayer creates a player delivering audio to sink.
func NewSinkPlayer(sink func(audio []byte), logger *zap.Logger) *SinkPlayer {
	return &SinkPlayer{
		sink:           sink,
		bytesPerSecond: defaultBytesPerSecond,
		logger:         logger,
	}
}

// Play stops current playback, delivers the audio, and returns a
// channel closed when the estimated play time elapses or Stop is
// called.
func (p *SinkPlayer) Play(audio []byte) (<-chan struct{}, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio to play")
	}

	p.mu.Lock()
	p.stopLocked()

	done := make(chan struct{})
	p.done = done
	p.playing = true

	duration := time.Duration(len(audio)) * time.Second / time.Duration(p.bytesPerSecond)
	if duration < time.Second {
		duration = time.Second
	}
	p.timer = time.AfterFunc(duration, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.done == done && p.playing {
			p.playing = false
			close(done)
		}
	})
	sink := p.sink
	p.mu.Unlock()

	sink(audio)
	p.logger.Debug("playback started",
		zap.Int("audio_bytes", len(audio)),
		zap.Duration("estimated_duration", duration))
	return done, nil
}

// Stop halts current playback and releases the playback slot.
func (p *SinkPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *SinkPlayer) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.playing {
		p.playing = false
		close(p.done)
	}
	p.done = nil
}
