package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/fieldscope/server/adapters/stt"
	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/internal/speaker"
)

func newLiveEngine(t *testing.T) (*LiveTranscriptionEngine, *stt.MockSpeechRecognizer) {
	t.Helper()
	recognizer := stt.NewMockSpeechRecognizer(zap.NewNop())
	engine := NewLiveTranscriptionEngine(
		recognizer,
		speaker.NewClassifier(speaker.ConsultationVocabulary()),
		zap.NewNop(),
	)
	return engine, recognizer
}

func TestLiveTranscriptionEngine_DefaultConfidence(t *testing.T) {
	engine, recognizer := newLiveEngine(t)

	var updates [][]entities.TranscriptEntry
	err := engine.Start(context.Background(), "en-US", LiveCallbacks{
		OnUpdate: func(entries []entities.TranscriptEntry) {
			updates = append(updates, entries)
		},
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	recognizer.EmitResult("We can start next week.", nil)

	high := 0.93
	recognizer.EmitResult("How much would that cost?", &high)

	entries, err := engine.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Confidence != 0.8 {
		t.Errorf("Entry without reported confidence = %f, want 0.8", entries[0].Confidence)
	}
	if entries[1].Confidence != 0.93 {
		t.Errorf("Entry with reported confidence = %f, want 0.93", entries[1].Confidence)
	}
	if len(updates) != 2 {
		t.Errorf("Expected 2 update callbacks, got %d", len(updates))
	}
	if len(updates) == 2 && len(updates[1]) != 2 {
		t.Errorf("Final update carried %d entries, want the full list of 2", len(updates[1]))
	}
}

func TestLiveTranscriptionEngine_PartialsAreNeverAppended(t *testing.T) {
	engine, recognizer := newLiveEngine(t)

	var partials []string
	if err := engine.Start(context.Background(), "en-US", LiveCallbacks{
		OnPartial: func(text string) { partials = append(partials, text) },
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	recognizer.EmitPartial("so what we")
	recognizer.EmitPartial("so what we want is")
	recognizer.EmitResult("So what we want is a bigger kitchen.", nil)

	entries, err := engine.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Text != "So what we want is a bigger kitchen." {
		t.Errorf("Entry text = %q", entries[0].Text)
	}
	if len(partials) != 2 {
		t.Errorf("Expected 2 partial callbacks, got %d", len(partials))
	}
}

func TestLiveTranscriptionEngine_ErrorKeepsListening(t *testing.T) {
	engine, recognizer := newLiveEngine(t)

	var reasons []string
	if err := engine.Start(context.Background(), "en-US", LiveCallbacks{
		OnError: func(reason string) { reasons = append(reasons, reason) },
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	recognizer.EmitError("stream reset")
	recognizer.EmitResult("Still here.", nil)

	entries, err := engine.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected recognition to continue after an error, got %d entries", len(entries))
	}
	if len(reasons) != 1 || reasons[0] != "stream reset" {
		t.Errorf("reasons = %v, want [stream reset]", reasons)
	}
}

func TestLiveTranscriptionEngine_DoubleStart(t *testing.T) {
	engine, _ := newLiveEngine(t)

	if err := engine.Start(context.Background(), "en-US", LiveCallbacks{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := engine.Start(context.Background(), "en-US", LiveCallbacks{}); !errors.Is(err, entities.ErrOperationInProgress) {
		t.Errorf("Second Start() error = %v, want ErrOperationInProgress", err)
	}
}

func TestLiveTranscriptionEngine_FeedWhenStopped(t *testing.T) {
	engine, _ := newLiveEngine(t)

	if err := engine.Feed([]byte{1, 2, 3}); !errors.Is(err, entities.ErrNotRecording) {
		t.Errorf("Feed() before start error = %v, want ErrNotRecording", err)
	}
	if _, err := engine.Stop(); !errors.Is(err, entities.ErrNotRecording) {
		t.Errorf("Stop() before start error = %v, want ErrNotRecording", err)
	}
}

func TestLiveTranscriptionEngine_AlternatesSpeakers(t *testing.T) {
	engine, recognizer := newLiveEngine(t)

	if err := engine.Start(context.Background(), "en-US", LiveCallbacks{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// No keyword hits; alternation decides.
	recognizer.EmitResult("Right.", nil)
	recognizer.EmitResult("Okay.", nil)
	recognizer.EmitResult("Sure.", nil)

	entries, err := engine.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	want := []string{"Contractor", "Homeowner", "Contractor"}
	for i, w := range want {
		if entries[i].Speaker != w {
			t.Errorf("entry %d speaker = %q, want %q", i, entries[i].Speaker, w)
		}
	}
}
