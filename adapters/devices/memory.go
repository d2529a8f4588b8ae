// Package devices provides device credential lookup for websocket
// authentication.
package devices

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/domain/repositories"
)

var errDeviceNotFound = errors.New("device not found")

// MemoryDeviceRepository is an in-memory device registry, seeded from
// configuration at startup.
type MemoryDeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]*entities.FieldDevice // keyed by serial number
}

var _ repositories.DeviceRepository = (*MemoryDeviceRepository)(nil)

// NewMemoryDeviceRepository creates an empty registry.
func NewMemoryDeviceRepository() *MemoryDeviceRepository {
	return &MemoryDeviceRepository{
		devices: make(map[string]*entities.FieldDevice),
	}
}

// Register adds a device with the given credentials.
func (r *MemoryDeviceRepository) Register(serialNumber, secret, label string) (*entities.FieldDevice, error) {
	device := &entities.FieldDevice{
		ID:           uuid.NewString(),
		SerialNumber: serialNumber,
		SecretKey:    secret,
		Label:        label,
		CreatedAt:    time.Now(),
	}
	if err := device.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[serialNumber] = device
	return device, nil
}

// GetBySerialNumber implements repositories.DeviceRepository
func (r *MemoryDeviceRepository) GetBySerialNumber(_ context.Context, serialNumber string) (*entities.FieldDevice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	device, ok := r.devices[serialNumber]
	if !ok {
		return nil, errDeviceNotFound
	}
	copied := *device
	return &copied, nil
}

// ValidateDevice implements repositories.DeviceRepository
func (r *MemoryDeviceRepository) ValidateDevice(_ context.Context, serialNumber, secret string) (*entities.FieldDevice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	device, ok := r.devices[serialNumber]
	if !ok || device.SecretKey != secret {
		return nil, errors.New("invalid device credentials")
	}
	copied := *device
	return &copied, nil
}
