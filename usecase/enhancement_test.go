package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/fieldscope/server/adapters/llm"
	"github.com/fieldscope/server/adapters/stt"
	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/domain/repositories"
)

const validAnalysisJSON = `{
	"summary": "Kitchen remodel consultation covering layout and budget.",
	"keyPoints": ["Island requested", "Budget around 30k"],
	"actionItems": ["Send estimate"],
	"sentiment": "positive",
	"topics": ["Kitchen", "Budget"]
}`

func newEnhancer(transcriber repositories.TranscriptionModel, model repositories.GenerativeTextModel) (*EnhancementPipeline, *fakeCaptureDevice) {
	device := &fakeCaptureDevice{}
	device.started = true
	device.written = []byte("pcm-audio")
	p := NewEnhancementPipeline(
		device,
		transcriber,
		model,
		newConsultationClassifier(),
		newRoleClassifier(),
		zap.NewNop(),
	)
	return p, device
}

func TestEnhancementPipeline_Enhance(t *testing.T) {
	transcriber := &stt.MockTranscriber{
		Result: &repositories.TranscriptionResult{
			Text: "I recommend new joists. I noticed the floor sagging.",
			Segments: []repositories.TranscriptSegment{
				{Start: 0, End: 3.2, Text: "I recommend new joists."},
				{Start: 3.2, End: 6.0, Text: "I noticed the floor sagging."},
			},
		},
	}
	enhancer, _ := newEnhancer(transcriber, llm.NewMockModel(validAnalysisJSON))

	result, err := enhancer.Enhance(context.Background(), "audio.wav", repositories.AudioConfig{})
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(result.Entries))
	}
	for i, e := range result.Entries {
		if !e.AIEnhanced {
			t.Errorf("entry %d not marked enhanced", i)
		}
		if e.Confidence != 0.95 {
			t.Errorf("entry %d confidence = %f, want 0.95", i, e.Confidence)
		}
	}
	if result.Entries[1].TimestampMs != 3200 {
		t.Errorf("entry 1 timestamp = %d, want 3200", result.Entries[1].TimestampMs)
	}
	if result.Entries[0].SpeakerRole != "advisor" {
		t.Errorf("entry 0 role = %q, want advisor", result.Entries[0].SpeakerRole)
	}
	if result.Entries[1].SpeakerRole != "client" {
		t.Errorf("entry 1 role = %q, want client", result.Entries[1].SpeakerRole)
	}

	if result.Analysis == nil {
		t.Fatal("Expected analysis")
	}
	if result.Analysis.Sentiment != entities.SentimentPositive {
		t.Errorf("Sentiment = %s, want positive", result.Analysis.Sentiment)
	}
}

func TestEnhancementPipeline_TranscriptionFailurePropagates(t *testing.T) {
	transcriber := &stt.MockTranscriber{Err: errors.New("deadline exceeded")}
	enhancer, _ := newEnhancer(transcriber, llm.NewMockModel(validAnalysisJSON))

	_, err := enhancer.Enhance(context.Background(), "audio.wav", repositories.AudioConfig{})
	var remoteErr *entities.RemoteTranscriptionError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("Enhance() error = %v, want RemoteTranscriptionError", err)
	}
}

func TestEnhancementPipeline_AudioReadFailurePropagates(t *testing.T) {
	enhancer, device := newEnhancer(&stt.MockTranscriber{}, llm.NewMockModel(validAnalysisJSON))
	device.readErr = errors.New("file vanished")

	_, err := enhancer.Enhance(context.Background(), "audio.wav", repositories.AudioConfig{})
	var remoteErr *entities.RemoteTranscriptionError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("Enhance() error = %v, want RemoteTranscriptionError", err)
	}
}

func TestEnhancementPipeline_AnalysisCallFailureFallsBack(t *testing.T) {
	model := llm.NewMockModel()
	model.Fail(errors.New("quota exhausted"))
	enhancer, _ := newEnhancer(&stt.MockTranscriber{}, model)

	result, err := enhancer.Enhance(context.Background(), "audio.wav", repositories.AudioConfig{})
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}
	if result.Analysis == nil {
		t.Fatal("Expected fallback analysis, got nil")
	}
	if result.Analysis.Sentiment != entities.SentimentNeutral {
		t.Errorf("Sentiment = %s, want neutral", result.Analysis.Sentiment)
	}
	if len(result.Analysis.Topics) != 1 || result.Analysis.Topics[0] != "General Discussion" {
		t.Errorf("Topics = %v, want [General Discussion]", result.Analysis.Topics)
	}
}

func TestEnhancementPipeline_UnparsableAnalysisFallsBack(t *testing.T) {
	raw := "I'm sorry, I cannot produce structured output today."
	enhancer, _ := newEnhancer(&stt.MockTranscriber{}, llm.NewMockModel(raw))

	result, err := enhancer.Enhance(context.Background(), "audio.wav", repositories.AudioConfig{})
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}
	a := result.Analysis
	if a == nil {
		t.Fatal("Expected fallback analysis, got nil")
	}
	if len(a.KeyPoints) != 1 || a.KeyPoints[0] != entities.AnalysisParseFailureMarker {
		t.Errorf("KeyPoints = %v, want the parse failure marker", a.KeyPoints)
	}
	if a.Summary != raw {
		t.Errorf("Summary = %q, want the raw response preserved", a.Summary)
	}
}

func TestEnhancementPipeline_UnknownSentimentNormalized(t *testing.T) {
	response := `{"summary": "ok", "keyPoints": ["a"], "sentiment": "ecstatic"}`
	enhancer, _ := newEnhancer(&stt.MockTranscriber{}, llm.NewMockModel(response))

	result, err := enhancer.Enhance(context.Background(), "audio.wav", repositories.AudioConfig{})
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}
	if result.Analysis.Sentiment != entities.SentimentNeutral {
		t.Errorf("Sentiment = %s, want neutral", result.Analysis.Sentiment)
	}
	if result.Analysis.ActionItems == nil {
		t.Error("ActionItems must be filled in, not nil")
	}
}
