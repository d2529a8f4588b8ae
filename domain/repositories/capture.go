package repositories

import "context"

// CaptureConfig configures an audio capture device.
type CaptureConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Channels   int    `json:"channels"`
}

// AudioCaptureDevice abstracts the microphone-side recording device.
// Implementations live on the capturing client; the server sees audio
// through the websocket stream and, after stop, the recorded file.
type AudioCaptureDevice interface {
	// Start begins recording to the given path.
	Start(ctx context.Context, path string, config CaptureConfig) error
	// Write appends captured audio to the active recording.
	Write(data []byte) error
	// Stop ends recording and returns the recorded file path.
	Stop() (string, error)
	// ReadAll returns the bytes of a finished recording.
	ReadAll(path string) ([]byte, error)
}
