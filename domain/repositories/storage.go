package repositories

import (
	"context"

	"github.com/fieldscope/server/domain/entities"
)

// PersistenceGateway stores finished transcript bundles. Write must
// complete before a session is allowed to reach the complete state;
// losing unsaved transcript data is worse than a brief wait.
type PersistenceGateway interface {
	// Write persists a bundle and returns a storage reference.
	Write(ctx context.Context, sessionID string, bundle entities.TranscriptBundle) (string, error)
	// Read loads a previously persisted bundle.
	Read(ctx context.Context, sessionID string) (*entities.TranscriptBundle, error)
}

// SessionArchive mirrors completed bundles to long-term storage for
// later retrieval across restarts.
type SessionArchive interface {
	Archive(ctx context.Context, bundle entities.TranscriptBundle) error
	Recent(ctx context.Context, limit int) ([]entities.TranscriptBundle, error)
}

// DeviceRepository defines data access for field recorder devices
// authenticating to the websocket endpoint.
type DeviceRepository interface {
	GetBySerialNumber(ctx context.Context, serialNumber string) (*entities.FieldDevice, error)
	// ValidateDevice validates device credentials for authentication
	ValidateDevice(ctx context.Context, serialNumber, secret string) (*entities.FieldDevice, error)
}
