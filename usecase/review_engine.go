package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/domain/repositories"
	"github.com/fieldscope/server/internal/jsonx"
)

// ReviewState is the review engine's activity state. The states are
// mutually exclusive; moving between Listening and Speaking always
// passes through Idle so the active resource is released first.
type ReviewState string

const (
	ReviewStateIdle      ReviewState = "idle"
	ReviewStateListening ReviewState = "listening"
	ReviewStateSpeaking  ReviewState = "speaking"
)

var errNotListening = errors.New("review engine is not listening")

// reviewResponse is the JSON shape expected from the change call.
type reviewResponse struct {
	UpdatedScope entities.ScopeOfWork    `json:"updatedScope"`
	Changes      []entities.ChangeRecord `json:"changes"`
}

// InteractiveReviewEngine drives a speak/listen cycle over a generated
// scope of work: it narrates sections, captures spoken edit requests,
// and applies model-detected changes atomically. It owns the working
// scope and the session-scoped, in-memory change log.
type InteractiveReviewEngine struct {
	model      repositories.GenerativeTextModel
	tts        repositories.SpeechSynthesisModel
	player     repositories.AudioPlayer
	recognizer repositories.SpeechRecognizer
	logger     *zap.Logger

	mu          sync.Mutex
	state       ReviewState
	scope       *entities.ScopeOfWork
	changeLog   []entities.ChangeRecord
	buffer      strings.Builder
	processing  bool
	playbackGen int
	onState     func(ReviewState)
}

// NewInteractiveReviewEngine creates a review engine. The recognizer
// is a separate stream from live capture; review listening never
// shares the recording session's recognizer.
func NewInteractiveReviewEngine(
	model repositories.GenerativeTextModel,
	tts repositories.SpeechSynthesisModel,
	player repositories.AudioPlayer,
	recognizer repositories.SpeechRecognizer,
	logger *zap.Logger,
) *InteractiveReviewEngine {
	return &InteractiveReviewEngine{
		model:      model,
		tts:        tts,
		player:     player,
		recognizer: recognizer,
		logger:     logger,
		state:      ReviewStateIdle,
	}
}

// OnStateChange registers a state observer. Presentation layers
// subscribe to transitions instead of owning the flags themselves.
func (e *InteractiveReviewEngine) OnStateChange(fn func(ReviewState)) {
	e.mu.Lock()
	e.onState = fn
	e.mu.Unlock()
}

// State returns the current activity state.
func (e *InteractiveReviewEngine) State() ReviewState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetScope loads the scope under review and clears the change log and
// the review transcript buffer.
func (e *InteractiveReviewEngine) SetScope(scope entities.ScopeOfWork) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scope = &scope
	e.changeLog = nil
	e.buffer.Reset()
}

// Scope returns a copy of the working scope, or false when none is
// loaded.
func (e *InteractiveReviewEngine) Scope() (entities.ScopeOfWork, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scope == nil {
		return entities.ScopeOfWork{}, false
	}
	return *e.scope, true
}

// ChangeLog returns a copy of the accumulated change records.
func (e *InteractiveReviewEngine) ChangeLog() []entities.ChangeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]entities.ChangeRecord, len(e.changeLog))
	copy(out, e.changeLog)
	return out
}

// SectionCount returns how many narratable sections the working scope
// has: overview, one per homeowner scope item, timeline, next steps.
func (e *InteractiveReviewEngine) SectionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scope == nil {
		return 0
	}
	return len(e.scope.HomeownerScope.ScopeItems) + 3
}

// Narrate synthesizes and plays one section of the homeowner scope.
// Section 0 is the overview, 1..N are scope items, N+1 the timeline,
// N+2 the next steps. Any current listening or playback is stopped
// first; the engine is Speaking until playback completes or is
// stopped.
func (e *InteractiveReviewEngine) Narrate(ctx context.Context, sectionIndex int) error {
	e.mu.Lock()
	if e.scope == nil {
		e.mu.Unlock()
		return errors.New("no scope of work loaded")
	}
	text, err := sectionText(*e.scope, sectionIndex)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.stopActivityLocked()
	e.mu.Unlock()

	audio, err := e.tts.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("speech synthesis failed: %w", err)
	}

	e.mu.Lock()
	// Playback is exclusive: release whatever started while we were
	// synthesizing before starting the new sound.
	e.stopActivityLocked()
	done, err := e.player.Play(audio)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("audio playback failed: %w", err)
	}
	e.playbackGen++
	gen := e.playbackGen
	e.setStateLocked(ReviewStateSpeaking)
	e.mu.Unlock()

	go func() {
		<-done
		e.mu.Lock()
		if e.playbackGen == gen && e.state == ReviewStateSpeaking {
			e.setStateLocked(ReviewStateIdle)
		}
		e.mu.Unlock()
	}()

	return nil
}

// StopNarration halts playback and returns the engine to Idle.
func (e *InteractiveReviewEngine) StopNarration() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == ReviewStateSpeaking {
		e.player.Stop()
		e.setStateLocked(ReviewStateIdle)
	}
}

// BeginListening starts capturing spoken edit requests into the review
// transcript buffer. Requesting it while already listening is rejected
// with ErrOperationInProgress; active playback is stopped first.
func (e *InteractiveReviewEngine) BeginListening(ctx context.Context, locale string) error {
	e.mu.Lock()
	if e.state == ReviewStateListening {
		e.mu.Unlock()
		return entities.ErrOperationInProgress
	}
	e.stopActivityLocked()
	e.mu.Unlock()

	err := e.recognizer.Start(ctx, locale, repositories.RecognizerCallbacks{
		OnResult: func(text string, _ *float64) {
			e.mu.Lock()
			if e.buffer.Len() > 0 {
				e.buffer.WriteString(" ")
			}
			e.buffer.WriteString(text)
			e.mu.Unlock()
		},
		OnError: func(reason string) {
			e.logger.Warn("review recognition error", zap.String("reason", reason))
		},
	})
	if err != nil {
		return &entities.CaptureError{Err: err}
	}

	e.mu.Lock()
	e.setStateLocked(ReviewStateListening)
	e.mu.Unlock()
	return nil
}

// EndListening stops capture and returns everything buffered so far.
// The buffer keeps accumulating across listen cycles until changes are
// applied.
func (e *InteractiveReviewEngine) EndListening() (string, error) {
	e.mu.Lock()
	if e.state != ReviewStateListening {
		e.mu.Unlock()
		return "", errNotListening
	}
	e.setStateLocked(ReviewStateIdle)
	text := e.buffer.String()
	e.mu.Unlock()

	if err := e.recognizer.Stop(); err != nil {
		e.logger.Warn("review recognizer stop failed", zap.Error(err))
	}
	return text, nil
}

// PendingTranscript returns the spoken edit requests buffered so far
// without consuming them.
func (e *InteractiveReviewEngine) PendingTranscript() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer.String()
}

// ProcessChanges asks the model to apply the buffered edit requests to
// the current scope. An empty or whitespace-only transcript is a
// no-op. On success with detected changes, the working scope is
// replaced atomically and the changes appended to the change log; a
// parse failure degrades to "no changes applied", leaving the scope
// untouched.
func (e *InteractiveReviewEngine) ProcessChanges(ctx context.Context, current entities.ScopeOfWork, reviewTranscript string) (entities.ScopeOfWork, []entities.ChangeRecord, error) {
	if strings.TrimSpace(reviewTranscript) == "" {
		return current, nil, nil
	}

	e.mu.Lock()
	if e.processing {
		e.mu.Unlock()
		return current, nil, entities.ErrOperationInProgress
	}
	e.processing = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.processing = false
		e.mu.Unlock()
	}()

	raw, err := e.model.Complete(ctx, reviewPrompt(current, reviewTranscript))
	if err != nil {
		e.logger.Warn("change processing call failed, no changes applied", zap.Error(err))
		return current, nil, nil
	}

	var resp reviewResponse
	if err := jsonx.Decode(raw, &resp); err != nil {
		e.logger.Warn("change response unparsable, no changes applied",
			zap.Error(err),
			zap.Int("response_length", len(raw)))
		return current, nil, nil
	}

	if len(resp.Changes) == 0 {
		e.logger.Info("no edits detected in review transcript")
		return current, nil, nil
	}

	if err := resp.UpdatedScope.Validate(); err != nil {
		e.logger.Warn("updated scope incomplete, no changes applied", zap.Error(err))
		return current, nil, nil
	}

	e.mu.Lock()
	e.scope = &resp.UpdatedScope
	e.changeLog = append(e.changeLog, resp.Changes...)
	e.buffer.Reset()
	e.mu.Unlock()

	e.logger.Info("scope changes applied", zap.Int("changes", len(resp.Changes)))
	return resp.UpdatedScope, resp.Changes, nil
}

// stopActivityLocked returns the engine to Idle, releasing whichever
// resource the current state holds. Caller holds e.mu.
func (e *InteractiveReviewEngine) stopActivityLocked() {
	switch e.state {
	case ReviewStateSpeaking:
		e.player.Stop()
		e.setStateLocked(ReviewStateIdle)
	case ReviewStateListening:
		if err := e.recognizer.Stop(); err != nil {
			e.logger.Warn("review recognizer stop failed", zap.Error(err))
		}
		e.setStateLocked(ReviewStateIdle)
	}
}

func (e *InteractiveReviewEngine) setStateLocked(state ReviewState) {
	if e.state == state {
		return
	}
	e.state = state
	if e.onState != nil {
		// Observers get transitions inline; they must not call back
		// into the engine.
		e.onState(state)
	}
}

// sectionText resolves a narration section index to its spoken text.
func sectionText(scope entities.ScopeOfWork, index int) (string, error) {
	hs := scope.HomeownerScope
	n := len(hs.ScopeItems)
	switch {
	case index == 0:
		return fmt.Sprintf("%s. %s", hs.ProjectTitle, hs.ProjectOverview), nil
	case index >= 1 && index <= n:
		item := hs.ScopeItems[index-1]
		parts := []string{fmt.Sprintf("%s: %s", item.Category, item.Description)}
		parts = append(parts, item.Details...)
		return strings.Join(parts, ". "), nil
	case index == n+1:
		return fmt.Sprintf("Estimated timeline: %s", hs.EstimatedTimeline), nil
	case index == n+2:
		return "Next steps: " + strings.Join(hs.NextSteps, ". "), nil
	default:
		return "", fmt.Errorf("section index %d out of range", index)
	}
}
