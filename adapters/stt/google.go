package stt

import (
	"context"
	"fmt"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/fieldscope/server/domain/repositories"
)

// GoogleSpeechRecognizer implements the streaming SpeechRecognizer
// using Google Cloud Speech-to-Text. Interim results are forwarded as
// partials; only final results carry confidence.
type GoogleSpeechRecognizer struct {
	logger  *zap.Logger
	config  repositories.AudioConfig
	mu      sync.Mutex
	client  *speech.Client
	stream  speechpb.Speech_StreamingRecognizeClient
	running bool
}

// NewGoogleSpeechRecognizer creates a streaming recognizer with the
// given audio configuration.
func NewGoogleSpeechRecognizer(config repositories.AudioConfig, logger *zap.Logger) *GoogleSpeechRecognizer {
	return &GoogleSpeechRecognizer{logger: logger, config: config}
}

var _ repositories.SpeechRecognizer = (*GoogleSpeechRecognizer)(nil)

func (g *GoogleSpeechRecognizer) Start(ctx context.Context, locale string, callbacks repositories.RecognizerCallbacks) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return fmt.Errorf("recognizer already started")
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create speech client: %w", err)
	}

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to create streaming recognize: %w", err)
	}

	encoding, err := getAudioEncoding(g.config.Encoding)
	if err != nil {
		stream.CloseSend()
		client.Close()
		return err
	}

	language := locale
	if language == "" {
		language = g.config.Language
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   encoding,
					SampleRateHertz:            int32(g.config.SampleRate),
					LanguageCode:               language,
					EnableAutomaticPunctuation: true,
				},
				InterimResults: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		client.Close()
		return fmt.Errorf("failed to send streaming config: %w", err)
	}

	g.client = client
	g.stream = stream
	g.running = true

	go g.receiveResults(stream, callbacks)
	return nil
}

func (g *GoogleSpeechRecognizer) Feed(data []byte) error {
	g.mu.Lock()
	stream := g.stream
	running := g.running
	g.mu.Unlock()
	if !running {
		return fmt.Errorf("recognizer not started")
	}
	if len(data) == 0 {
		return nil
	}
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: data,
		},
	}); err != nil {
		return fmt.Errorf("failed to send audio data: %w", err)
	}
	return nil
}

func (g *GoogleSpeechRecognizer) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.running {
		return nil
	}
	g.running = false
	if err := g.stream.CloseSend(); err != nil {
		g.logger.Warn("failed to close send stream", zap.Error(err))
	}
	if g.client != nil {
		g.client.Close()
		g.client = nil
	}
	g.stream = nil
	return nil
}

func (g *GoogleSpeechRecognizer) receiveResults(stream speechpb.Speech_StreamingRecognizeClient, callbacks repositories.RecognizerCallbacks) {
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			g.mu.Lock()
			running := g.running
			g.mu.Unlock()
			// Recv fails after Stop; only a live stream's error is a
			// recognition error.
			if running && callbacks.OnError != nil {
				callbacks.OnError(err.Error())
			}
			return
		}

		for _, result := range resp.Results {
			if len(result.Alternatives) == 0 {
				continue
			}
			best := result.Alternatives[0]
			if result.IsFinal {
				var confidence *float64
				if best.Confidence > 0 {
					c := float64(best.Confidence)
					confidence = &c
				}
				if callbacks.OnResult != nil {
					callbacks.OnResult(best.Transcript, confidence)
				}
			} else if callbacks.OnPartial != nil {
				callbacks.OnPartial(best.Transcript)
			}
		}
	}
}

// GoogleTranscriber implements the batch TranscriptionModel used by
// the enhancement pass, requesting word time offsets so segments carry
// start/end times.
type GoogleTranscriber struct {
	logger *zap.Logger
}

// NewGoogleTranscriber creates a batch transcriber.
func NewGoogleTranscriber(logger *zap.Logger) *GoogleTranscriber {
	return &GoogleTranscriber{logger: logger}
}

var _ repositories.TranscriptionModel = (*GoogleTranscriber)(nil)

func (g *GoogleTranscriber) Transcribe(ctx context.Context, audioData []byte, config repositories.AudioConfig) (*repositories.TranscriptionResult, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return nil, err
	}

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encoding,
			SampleRateHertz:            int32(config.SampleRate),
			LanguageCode:               config.Language,
			EnableWordTimeOffsets:      true,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("batch recognition failed: %w", err)
	}

	result := &repositories.TranscriptionResult{}
	for _, res := range resp.Results {
		if len(res.Alternatives) == 0 {
			continue
		}
		best := res.Alternatives[0]
		if result.Text != "" {
			result.Text += " "
		}
		result.Text += best.Transcript

		segment := repositories.TranscriptSegment{Text: best.Transcript}
		if len(best.Words) > 0 {
			segment.Start = best.Words[0].StartTime.AsDuration().Seconds()
			segment.End = best.Words[len(best.Words)-1].EndTime.AsDuration().Seconds()
		} else if res.ResultEndTime != nil {
			segment.End = res.ResultEndTime.AsDuration().Seconds()
		}
		result.Segments = append(result.Segments, segment)
	}

	if len(result.Segments) == 0 {
		return nil, fmt.Errorf("no speech detected in audio")
	}

	g.logger.Info("batch transcription complete",
		zap.Int("segments", len(result.Segments)),
		zap.Int("audio_bytes", len(audioData)))
	return result, nil
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
