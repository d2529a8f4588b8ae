// Package media implements the server-side view of the capture
// device: audio chunks arriving over the wire are appended to a file
// per session, and the finished file feeds the enhancement pass.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/fieldscope/server/domain/repositories"
)

// FileCaptureDevice records incoming audio to a file.
type FileCaptureDevice struct {
	logger *zap.Logger

	mu   sync.Mutex
	file *os.File
	path string
}

var _ repositories.AudioCaptureDevice = (*FileCaptureDevice)(nil)

// NewFileCaptureDevice creates a file-backed capture device.
func NewFileCaptureDevice(logger *zap.Logger) *FileCaptureDevice {
	return &FileCaptureDevice{logger: logger}
}

func (d *FileCaptureDevice) Start(_ context.Context, path string, config repositories.CaptureConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file != nil {
		return fmt.Errorf("capture already in progress at %s", d.path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create audio directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording file: %w", err)
	}

	d.file = file
	d.path = path
	d.logger.Info("capture started",
		zap.String("path", path),
		zap.Int("sample_rate", config.SampleRate),
		zap.String("encoding", config.Encoding))
	return nil
}

func (d *FileCaptureDevice) Write(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return fmt.Errorf("no capture in progress")
	}
	if _, err := d.file.Write(data); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	return nil
}

func (d *FileCaptureDevice) Stop() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return "", fmt.Errorf("no capture in progress")
	}
	path := d.path
	err := d.file.Close()
	d.file = nil
	d.path = ""
	if err != nil {
		return "", fmt.Errorf("failed to close recording file: %w", err)
	}
	d.logger.Info("capture stopped", zap.String("path", path))
	return path, nil
}

func (d *FileCaptureDevice) ReadAll(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	return data, nil
}
