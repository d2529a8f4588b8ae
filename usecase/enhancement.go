package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/domain/repositories"
	"github.com/fieldscope/server/internal/jsonx"
	"github.com/fieldscope/server/internal/speaker"
)

// enhancedConfidence is the fixed confidence assigned to enhanced
// entries; batch transcription of the full recording is assumed
// reliable and carries no degraded-confidence path.
const enhancedConfidence = 0.95

// EnhancementResult is the outcome of one enhancement pass.
type EnhancementResult struct {
	Entries  []entities.TranscriptEntry
	Analysis *entities.AIAnalysis
}

// EnhancementPipeline re-processes the finished recording: a
// high-fidelity transcription call replaces the live entries
// wholesale, then a generative call derives structured analysis.
type EnhancementPipeline struct {
	media          repositories.AudioCaptureDevice
	transcriber    repositories.TranscriptionModel
	model          repositories.GenerativeTextModel
	speakerLabeler *speaker.Classifier
	roleLabeler    *speaker.Classifier
	logger         *zap.Logger
}

// NewEnhancementPipeline creates an enhancement pipeline. The speaker
// labeler and role labeler intentionally carry different vocabularies;
// speaker labels and speaker roles are independent heuristics.
func NewEnhancementPipeline(
	media repositories.AudioCaptureDevice,
	transcriber repositories.TranscriptionModel,
	model repositories.GenerativeTextModel,
	speakerLabeler *speaker.Classifier,
	roleLabeler *speaker.Classifier,
	logger *zap.Logger,
) *EnhancementPipeline {
	return &EnhancementPipeline{
		media:          media,
		transcriber:    transcriber,
		model:          model,
		speakerLabeler: speakerLabeler,
		roleLabeler:    roleLabeler,
		logger:         logger,
	}
}

// Enhance transcribes the recorded audio and derives analysis. A
// failed transcription call is propagated as RemoteTranscriptionError:
// there is no safe fallback text for a conversation's content. The
// analysis call, by contrast, always yields a valid AIAnalysis, with
// a deterministic fallback when the response cannot be parsed.
func (p *EnhancementPipeline) Enhance(ctx context.Context, audioRef string, config repositories.AudioConfig) (*EnhancementResult, error) {
	audioData, err := p.media.ReadAll(audioRef)
	if err != nil {
		return nil, &entities.RemoteTranscriptionError{Err: err}
	}

	result, err := p.transcriber.Transcribe(ctx, audioData, config)
	if err != nil {
		return nil, &entities.RemoteTranscriptionError{Err: err}
	}

	entries := p.entriesFromSegments(result.Segments)
	p.logger.Info("enhanced transcription complete",
		zap.String("audio_ref", audioRef),
		zap.Int("segments", len(result.Segments)))

	analysis := p.analyze(ctx, result.Text)

	return &EnhancementResult{Entries: entries, Analysis: analysis}, nil
}

func (p *EnhancementPipeline) entriesFromSegments(segments []repositories.TranscriptSegment) []entities.TranscriptEntry {
	entries := make([]entities.TranscriptEntry, 0, len(segments))
	for i, seg := range segments {
		entry := entities.NewTranscriptEntry(
			int64(seg.Start*1000),
			p.speakerLabeler.Classify(seg.Text, i),
			seg.Text,
			enhancedConfidence,
		)
		entry.AIEnhanced = true
		entry.SpeakerRole = p.roleLabeler.ClassifyRole(seg.Text)
		entries = append(entries, entry)
	}
	return entries
}

// analyze requests structured analysis of the full transcript. It
// never returns nil: call or parse failures degrade to the
// deterministic fallback so downstream consumers always have a valid
// AIAnalysis to render.
func (p *EnhancementPipeline) analyze(ctx context.Context, transcript string) *entities.AIAnalysis {
	raw, err := p.model.Complete(ctx, analysisPrompt(transcript))
	if err != nil {
		p.logger.Warn("analysis generation failed, using fallback", zap.Error(err))
		return entities.FallbackAnalysis("")
	}

	var analysis entities.AIAnalysis
	if err := jsonx.Decode(raw, &analysis); err != nil {
		p.logger.Warn("analysis response unparsable, using fallback",
			zap.Error(err),
			zap.Int("response_length", len(raw)))
		return entities.FallbackAnalysis(raw)
	}
	if analysis.Summary == "" && len(analysis.KeyPoints) == 0 {
		p.logger.Warn("analysis response empty, using fallback")
		return entities.FallbackAnalysis(raw)
	}

	analysis.Normalize()
	if analysis.KeyPoints == nil {
		analysis.KeyPoints = []string{}
	}
	if analysis.ActionItems == nil {
		analysis.ActionItems = []string{}
	}
	if len(analysis.Topics) == 0 {
		analysis.Topics = []string{"General Discussion"}
	}
	return &analysis
}
