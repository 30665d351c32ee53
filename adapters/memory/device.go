// Package memory provides an in-memory device registry, the simple storage
// backend used when no external device directory is configured.
package memory

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hanyuwei/petbabel/server/domain/entities"
	"github.com/hanyuwei/petbabel/server/domain/repositories"
)

// DeviceRepository keeps registered devices and their secrets in memory.
type DeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]*entities.Device // id -> device
	serials map[string]*entities.Device // serial_number -> device
	secrets map[string]string           // serial_number -> secret_key
}

var _ repositories.DeviceRepository = (*DeviceRepository)(nil)

// NewDeviceRepository creates an empty in-memory device repository.
func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{
		devices: make(map[string]*entities.Device),
		serials: make(map[string]*entities.Device),
		secrets: make(map[string]string),
	}
}

// NewDeviceRepositoryFromEnv seeds the registry from PETBABEL_DEVICES, a
// comma-separated list of serial:secret pairs.
func NewDeviceRepositoryFromEnv() (*DeviceRepository, error) {
	repo := NewDeviceRepository()

	seed := os.Getenv("PETBABEL_DEVICES")
	if seed == "" {
		return repo, nil
	}

	for _, pair := range strings.Split(seed, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, errors.New("PETBABEL_DEVICES entries must be serial:secret")
		}
		device := &entities.Device{
			SerialNumber: parts[0],
			Model:        "capture-device",
		}
		if err := repo.Create(context.Background(), device); err != nil {
			return nil, err
		}
		if err := repo.RegisterDeviceSecret(parts[0], parts[1]); err != nil {
			return nil, err
		}
	}

	return repo, nil
}

// ValidateDevice validates device credentials (serial number + secret).
func (m *DeviceRepository) ValidateDevice(serialNumber, secret string) (*entities.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	storedSecret, exists := m.secrets[serialNumber]
	if !exists {
		return nil, errors.New("device not found")
	}
	if storedSecret != secret {
		return nil, errors.New("invalid credentials")
	}

	device, exists := m.serials[serialNumber]
	if !exists {
		return nil, errors.New("device not found")
	}

	deviceCopy := *device
	return &deviceCopy, nil
}

// Create implements DeviceRepository
func (m *DeviceRepository) Create(ctx context.Context, device *entities.Device) error {
	if device == nil {
		return errors.New("device cannot be nil")
	}
	if err := device.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.serials[device.SerialNumber]; exists {
		return errors.New("device with this serial number already exists")
	}

	if device.ID == "" {
		device.ID = uuid.New().String()
	}

	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now

	deviceCopy := *device
	m.devices[device.ID] = &deviceCopy
	m.serials[device.SerialNumber] = &deviceCopy

	return nil
}

// GetByID implements DeviceRepository
func (m *DeviceRepository) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	if id == "" {
		return nil, errors.New("device ID cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	device, exists := m.devices[id]
	if !exists {
		return nil, errors.New("device not found")
	}

	deviceCopy := *device
	return &deviceCopy, nil
}

// GetBySerialNumber implements DeviceRepository
func (m *DeviceRepository) GetBySerialNumber(ctx context.Context, serialNumber string) (*entities.Device, error) {
	if serialNumber == "" {
		return nil, errors.New("serial number cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	device, exists := m.serials[serialNumber]
	if !exists {
		return nil, errors.New("device not found")
	}

	deviceCopy := *device
	return &deviceCopy, nil
}

// RegisterDeviceSecret sets up authentication credentials for a serial.
func (m *DeviceRepository) RegisterDeviceSecret(serialNumber, secret string) error {
	if serialNumber == "" {
		return errors.New("serial number cannot be empty")
	}
	if secret == "" {
		return errors.New("secret cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.secrets[serialNumber] = secret
	return nil
}
