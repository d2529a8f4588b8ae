package repositories

import "context"

// SpeechSynthesisModel abstracts text-to-speech used to narrate scope
// sections during interactive review.
type SpeechSynthesisModel interface {
	// Synthesize converts text to playable audio bytes.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioPlayer is the exclusive playback resource. Starting new
// playback must first stop whatever is currently playing.
type AudioPlayer interface {
	// Play starts playback and returns a channel closed when playback
	// finishes or is stopped.
	Play(audio []byte) (<-chan struct{}, error)
	// Stop halts current playback and releases the output device.
	Stop()
}
