package repositories

import "context"

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// RecognizerCallbacks receives streaming recognition events. Partial
// results are observable for rendering but must never become permanent
// transcript entries.
type RecognizerCallbacks struct {
	// OnResult delivers a final recognized utterance. Confidence is
	// nil when the recognizer does not report one.
	OnResult func(text string, confidence *float64)
	// OnPartial delivers an interim hypothesis.
	OnPartial func(text string)
	// OnError delivers a per-utterance recognition failure. The
	// stream keeps running unless explicitly stopped.
	OnError func(reason string)
}

// SpeechRecognizer abstracts a streaming speech recognition service
// used for live, low-fidelity capture.
type SpeechRecognizer interface {
	// Start begins streaming recognition for the given locale.
	Start(ctx context.Context, locale string, callbacks RecognizerCallbacks) error
	// Feed pushes raw audio into the stream.
	Feed(data []byte) error
	// Stop ends the stream and releases its resources.
	Stop() error
}

// TranscriptSegment is one timestamped portion of a batch
// transcription result. Start and End are in seconds.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the full-audio, high-fidelity transcription.
type TranscriptionResult struct {
	Text     string              `json:"text"`
	Segments []TranscriptSegment `json:"segments"`
}

// TranscriptionModel abstracts the high-fidelity batch transcription
// used by the enhancement pass once recording stops.
type TranscriptionModel interface {
	Transcribe(ctx context.Context, audioData []byte, config AudioConfig) (*TranscriptionResult, error)
}
