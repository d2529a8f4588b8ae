package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/domain/repositories"
	"github.com/fieldscope/server/internal/speaker"
)

// defaultLiveConfidence is assumed when the recognizer reports no
// confidence for a final result.
const defaultLiveConfidence = 0.8

// LiveCallbacks let a consumer observe the live transcript as it grows.
type LiveCallbacks struct {
	// OnUpdate receives the full, timestamp-ordered entry list after
	// every appended utterance.
	OnUpdate func(entries []entities.TranscriptEntry)
	// OnPartial receives interim hypotheses. Partials are observable
	// only; they are never appended as permanent entries.
	OnPartial func(text string)
	// OnError receives non-fatal recognition failures.
	OnError func(reason string)
}

// LiveTranscriptionEngine streams microphone audio through a speech
// recognizer and accumulates low-confidence transcript entries in real
// time. Recognition errors do not stop the stream; it listens until
// explicitly stopped.
type LiveTranscriptionEngine struct {
	recognizer repositories.SpeechRecognizer
	classifier *speaker.Classifier
	logger     *zap.Logger

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	entries   []entities.TranscriptEntry
	callbacks LiveCallbacks
}

// NewLiveTranscriptionEngine creates a live engine over the given
// recognizer, classifying speakers with the consultation vocabulary.
func NewLiveTranscriptionEngine(
	recognizer repositories.SpeechRecognizer,
	classifier *speaker.Classifier,
	logger *zap.Logger,
) *LiveTranscriptionEngine {
	return &LiveTranscriptionEngine{
		recognizer: recognizer,
		classifier: classifier,
		logger:     logger,
	}
}

// Start begins streaming recognition. A second Start while running is
// rejected with ErrOperationInProgress.
func (e *LiveTranscriptionEngine) Start(ctx context.Context, locale string, callbacks LiveCallbacks) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return entities.ErrOperationInProgress
	}
	e.running = true
	e.startedAt = time.Now()
	e.entries = make([]entities.TranscriptEntry, 0)
	e.callbacks = callbacks
	e.mu.Unlock()

	err := e.recognizer.Start(ctx, locale, repositories.RecognizerCallbacks{
		OnResult:  e.handleResult,
		OnPartial: e.handlePartial,
		OnError:   e.handleError,
	})
	if err != nil {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		return &entities.CaptureError{Err: err}
	}

	e.logger.Info("live transcription started", zap.String("locale", locale))
	return nil
}

// Feed pushes raw audio into the recognition stream.
func (e *LiveTranscriptionEngine) Feed(data []byte) error {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if !running {
		return entities.ErrNotRecording
	}
	return e.recognizer.Feed(data)
}

// Stop ends the stream and returns the accumulated session entries.
func (e *LiveTranscriptionEngine) Stop() ([]entities.TranscriptEntry, error) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil, entities.ErrNotRecording
	}
	e.running = false
	entries := e.entries
	e.entries = nil
	e.callbacks = LiveCallbacks{}
	e.mu.Unlock()

	if err := e.recognizer.Stop(); err != nil {
		e.logger.Warn("recognizer stop failed", zap.Error(err))
	}

	e.logger.Info("live transcription stopped", zap.Int("entries", len(entries)))
	return entries, nil
}

func (e *LiveTranscriptionEngine) handleResult(text string, confidence *float64) {
	conf := defaultLiveConfidence
	if confidence != nil {
		conf = *confidence
	}

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	label := e.classifier.Classify(text, len(e.entries))
	entry := entities.NewTranscriptEntry(
		time.Since(e.startedAt).Milliseconds(),
		label,
		text,
		conf,
	)
	e.entries = append(e.entries, entry)

	snapshot := make([]entities.TranscriptEntry, len(e.entries))
	copy(snapshot, e.entries)
	onUpdate := e.callbacks.OnUpdate
	e.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snapshot)
	}
}

func (e *LiveTranscriptionEngine) handlePartial(text string) {
	e.mu.Lock()
	onPartial := e.callbacks.OnPartial
	e.mu.Unlock()
	if onPartial != nil {
		onPartial(text)
	}
}

func (e *LiveTranscriptionEngine) handleError(reason string) {
	recErr := &entities.RecognitionError{Reason: reason}
	e.logger.Warn("recognition error, continuing to listen", zap.Error(recErr))

	e.mu.Lock()
	onError := e.callbacks.OnError
	e.mu.Unlock()
	if onError != nil {
		onError(reason)
	}
}
