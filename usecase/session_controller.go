package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/domain/repositories"
	"github.com/fieldscope/server/internal/pipeline"
)

// errStaleSession aborts a stop run whose session was abandoned while
// a remote call was in flight. The stale result is discarded; it must
// never be written into a newer session's state.
var errStaleSession = errors.New("session abandoned during processing")

// ControllerCallbacks let a transport layer observe session progress.
type ControllerCallbacks struct {
	OnStateChange func(sessionID string, state entities.SessionState)
	OnEntries     func(sessionID string, entries []entities.TranscriptEntry)
	OnPartial     func(sessionID string, text string)
}

// SessionController owns the single active RecordingSession and
// sequences live capture, enhancement, scope generation, and review.
type SessionController struct {
	live     *LiveTranscriptionEngine
	enhancer *EnhancementPipeline
	scopeGen *ScopeOfWorkGenerator
	review   *InteractiveReviewEngine
	device   repositories.AudioCaptureDevice
	gateway  repositories.PersistenceGateway
	archive  repositories.SessionArchive
	runner   *pipeline.Runner
	logger   *zap.Logger

	audioDir   string
	captureCfg repositories.CaptureConfig
	audioCfg   repositories.AudioConfig

	mu            sync.Mutex
	session       *entities.RecordingSession
	starting      bool
	stopping      bool
	scopeInFlight bool
	callbacks     ControllerCallbacks
}

// NewSessionController wires the controller with injected collaborator
// handles. The archive may be nil; archival is best-effort.
func NewSessionController(
	live *LiveTranscriptionEngine,
	enhancer *EnhancementPipeline,
	scopeGen *ScopeOfWorkGenerator,
	review *InteractiveReviewEngine,
	device repositories.AudioCaptureDevice,
	gateway repositories.PersistenceGateway,
	archive repositories.SessionArchive,
	runner *pipeline.Runner,
	audioDir string,
	audioCfg repositories.AudioConfig,
	logger *zap.Logger,
) *SessionController {
	return &SessionController{
		live:     live,
		enhancer: enhancer,
		scopeGen: scopeGen,
		review:   review,
		device:   device,
		gateway:  gateway,
		archive:  archive,
		runner:   runner,
		audioDir: audioDir,
		captureCfg: repositories.CaptureConfig{
			SampleRate: audioCfg.SampleRate,
			Encoding:   audioCfg.Encoding,
			Channels:   1,
		},
		audioCfg: audioCfg,
		logger:   logger,
	}
}

// SetCallbacks registers transport observers.
func (c *SessionController) SetCallbacks(cb ControllerCallbacks) {
	c.mu.Lock()
	c.callbacks = cb
	c.mu.Unlock()
}

// StartSession begins a new recording session. Only permitted when no
// session exists or the current one is idle, complete, or errored;
// otherwise it fails with ErrSessionBusy.
func (c *SessionController) StartSession(ctx context.Context, locale string) (entities.RecordingSession, error) {
	c.mu.Lock()
	if c.starting || c.stopping || (c.session != nil && !c.session.State.CanStartNew()) {
		c.mu.Unlock()
		return entities.RecordingSession{}, entities.ErrSessionBusy
	}
	c.starting = true

	sess := entities.NewRecordingSession(locale)
	audioPath := filepath.Join(c.audioDir, sess.ID+".wav")
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
	}()

	if err := c.device.Start(ctx, audioPath, c.captureCfg); err != nil {
		return entities.RecordingSession{}, &entities.CaptureError{Err: err}
	}

	sessID := sess.ID
	err := c.live.Start(ctx, locale, LiveCallbacks{
		OnUpdate: func(entries []entities.TranscriptEntry) {
			c.handleLiveUpdate(sessID, entries)
		},
		OnPartial: func(text string) {
			c.mu.Lock()
			cb := c.callbacks.OnPartial
			c.mu.Unlock()
			if cb != nil {
				cb(sessID, text)
			}
		},
		OnError: func(reason string) {
			c.logger.Warn("live recognition error",
				zap.String("session_id", sessID),
				zap.String("reason", reason))
		},
	})
	if err != nil {
		if _, stopErr := c.device.Stop(); stopErr != nil {
			c.logger.Warn("capture device stop failed after start error", zap.Error(stopErr))
		}
		return entities.RecordingSession{}, err
	}

	c.mu.Lock()
	c.session = sess
	snapshot := *sess
	c.emitStateLocked()
	c.mu.Unlock()

	c.logger.Info("recording session started",
		zap.String("session_id", sess.ID),
		zap.String("locale", locale))
	return snapshot, nil
}

// FeedAudio pushes an audio chunk into both the live recognition
// stream and the session's recording file.
func (c *SessionController) FeedAudio(data []byte) error {
	if err := c.live.Feed(data); err != nil {
		return err
	}
	if err := c.device.Write(data); err != nil {
		return &entities.CaptureError{Err: err}
	}
	return nil
}

// StopSession ends live capture and runs the enhancement sequence:
// finalize capture, re-transcribe the full audio, derive analysis,
// persist the bundle. The persistence write is awaited before the
// session reaches Complete; any step failure moves it to Error with
// the in-memory transcript retained.
func (c *SessionController) StopSession(ctx context.Context) (entities.RecordingSession, error) {
	c.mu.Lock()
	if c.session == nil || c.session.State != entities.SessionStateRecording {
		c.mu.Unlock()
		return entities.RecordingSession{}, entities.ErrNotRecording
	}
	if c.stopping {
		c.mu.Unlock()
		return entities.RecordingSession{}, entities.ErrOperationInProgress
	}
	c.stopping = true
	sessID := c.session.ID
	c.session.State = entities.SessionStateTranscribing
	c.emitStateLocked()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.stopping = false
		c.mu.Unlock()
	}()

	steps := []pipeline.Step{
		pipeline.StepFunc{StepID: "finalize_live_capture", Fn: func(ctx context.Context, data pipeline.Data) error {
			return c.finalizeLiveCapture(sessID, data)
		}},
		pipeline.StepFunc{StepID: "enhance_transcript", Fn: func(ctx context.Context, data pipeline.Data) error {
			return c.runEnhancement(ctx, sessID, data)
		}},
		pipeline.StepFunc{StepID: "persist_bundle", Fn: func(ctx context.Context, data pipeline.Data) error {
			return c.persistBundle(ctx, sessID)
		}},
	}

	if err := c.runner.Run(ctx, "recording_stop", steps, pipeline.Data{}); err != nil {
		c.mu.Lock()
		if c.session != nil && c.session.ID == sessID {
			c.session.State = entities.SessionStateError
			c.emitStateLocked()
		}
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, err
	}

	c.mu.Lock()
	if c.session != nil && c.session.ID == sessID {
		c.session.State = entities.SessionStateComplete
		c.emitStateLocked()
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("recording session complete", zap.String("session_id", sessID))
	return snapshot, nil
}

// Abandon discards the current session and returns the controller to
// Idle. Remote results still in flight for the abandoned session fail
// their session-id check and are dropped.
func (c *SessionController) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	if c.session.State == entities.SessionStateRecording {
		if _, err := c.live.Stop(); err != nil {
			c.logger.Warn("live engine stop failed on abandon", zap.Error(err))
		}
		if _, err := c.device.Stop(); err != nil {
			c.logger.Warn("capture device stop failed on abandon", zap.Error(err))
		}
	}
	c.logger.Info("session abandoned", zap.String("session_id", c.session.ID))
	c.session = nil
}

// Session returns a snapshot of the current session; ok is false when
// none exists.
func (c *SessionController) Session() (entities.RecordingSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return entities.RecordingSession{}, false
	}
	return c.snapshotLocked(), true
}

// State returns the current session state, or Idle with no session.
func (c *SessionController) State() entities.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return entities.SessionStateIdle
	}
	return c.session.State
}

// GenerateScope derives the scope of work pair from the session's
// transcript and loads it into the review engine. Concurrent calls
// are rejected with ErrOperationInProgress.
func (c *SessionController) GenerateScope(ctx context.Context) (entities.ScopeOfWork, error) {
	c.mu.Lock()
	if c.session == nil || len(c.session.Entries) == 0 {
		c.mu.Unlock()
		return entities.ScopeOfWork{}, errors.New("no transcript available for scope generation")
	}
	if c.scopeInFlight {
		c.mu.Unlock()
		return entities.ScopeOfWork{}, entities.ErrOperationInProgress
	}
	c.scopeInFlight = true
	transcript := c.session.FullText()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.scopeInFlight = false
		c.mu.Unlock()
	}()

	scope := c.scopeGen.Generate(ctx, transcript)
	c.review.SetScope(scope)
	return scope, nil
}

// Review exposes the interactive review engine.
func (c *SessionController) Review() *InteractiveReviewEngine {
	return c.review
}

func (c *SessionController) finalizeLiveCapture(sessID string, data pipeline.Data) error {
	entries, err := c.live.Stop()
	if err != nil {
		return err
	}

	audioRef, err := c.device.Stop()
	if err != nil {
		return &entities.CaptureError{Err: err}
	}
	data["audio_ref"] = audioRef

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.ID != sessID {
		return errStaleSession
	}
	c.session.ReplaceEntries(entries)
	c.session.AudioRef = audioRef
	c.session.State = entities.SessionStateEnhancing
	c.emitStateLocked()
	return nil
}

func (c *SessionController) runEnhancement(ctx context.Context, sessID string, data pipeline.Data) error {
	audioRef, _ := data["audio_ref"].(string)

	result, err := c.enhancer.Enhance(ctx, audioRef, c.audioCfg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.ID != sessID {
		c.logger.Warn("discarding enhancement result for abandoned session",
			zap.String("session_id", sessID))
		return errStaleSession
	}
	c.session.ReplaceEntries(result.Entries)
	c.session.Analysis = result.Analysis
	if cb := c.callbacks.OnEntries; cb != nil {
		cb(sessID, c.session.Entries)
	}
	return nil
}

func (c *SessionController) persistBundle(ctx context.Context, sessID string) error {
	c.mu.Lock()
	if c.session == nil || c.session.ID != sessID {
		c.mu.Unlock()
		return errStaleSession
	}
	bundle := c.session.BuildBundle()
	c.mu.Unlock()

	ref, err := c.gateway.Write(ctx, sessID, bundle)
	if err != nil {
		return &entities.PersistenceError{Err: err}
	}
	c.logger.Info("transcript bundle persisted",
		zap.String("session_id", sessID),
		zap.String("ref", ref))

	if c.archive != nil {
		if err := c.archive.Archive(ctx, bundle); err != nil {
			// Archive is a mirror; the gateway write already succeeded.
			c.logger.Warn("bundle archival failed", zap.Error(err))
		}
	}
	return nil
}

func (c *SessionController) handleLiveUpdate(sessID string, entries []entities.TranscriptEntry) {
	c.mu.Lock()
	if c.session != nil && c.session.ID == sessID && c.session.State == entities.SessionStateRecording {
		c.session.Entries = entries
	}
	cb := c.callbacks.OnEntries
	c.mu.Unlock()
	if cb != nil {
		cb(sessID, entries)
	}
}

// snapshotLocked copies the session value. Caller holds c.mu.
func (c *SessionController) snapshotLocked() entities.RecordingSession {
	if c.session == nil {
		return entities.RecordingSession{}
	}
	return *c.session
}

// emitStateLocked notifies the state observer. Caller holds c.mu;
// observers must not call back into the controller.
func (c *SessionController) emitStateLocked() {
	if c.session == nil {
		return
	}
	if cb := c.callbacks.OnStateChange; cb != nil {
		cb(c.session.ID, c.session.State)
	}
}
