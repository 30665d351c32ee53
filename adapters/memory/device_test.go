package memory

import (
	"context"
	"testing"

	"github.com/hanyuwei/petbabel/server/domain/entities"
)

func seedDevice(t *testing.T, repo *DeviceRepository, serial, secret string) *entities.Device {
	t.Helper()
	device := &entities.Device{SerialNumber: serial, Model: "capture-device"}
	if err := repo.Create(context.Background(), device); err != nil {
		t.Fatal(err)
	}
	if err := repo.RegisterDeviceSecret(serial, secret); err != nil {
		t.Fatal(err)
	}
	return device
}

func TestValidateDevice(t *testing.T) {
	repo := NewDeviceRepository()
	created := seedDevice(t, repo, "SN-100", "hunter2")

	device, err := repo.ValidateDevice("SN-100", "hunter2")
	if err != nil {
		t.Fatalf("ValidateDevice() error = %v", err)
	}
	if device.ID != created.ID {
		t.Errorf("device id = %q, want %q", device.ID, created.ID)
	}

	if _, err := repo.ValidateDevice("SN-100", "wrong"); err == nil {
		t.Error("wrong secret should be rejected")
	}
	if _, err := repo.ValidateDevice("SN-999", "hunter2"); err == nil {
		t.Error("unknown serial should be rejected")
	}
}

func TestCreateAssignsIDAndRejectsDuplicates(t *testing.T) {
	repo := NewDeviceRepository()

	device := &entities.Device{SerialNumber: "SN-200", Model: "capture-device"}
	if err := repo.Create(context.Background(), device); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if device.ID == "" {
		t.Error("Create() should assign an id")
	}

	dup := &entities.Device{SerialNumber: "SN-200", Model: "capture-device"}
	if err := repo.Create(context.Background(), dup); err == nil {
		t.Error("duplicate serial should be rejected")
	}
}

func TestGetByIDReturnsCopy(t *testing.T) {
	repo := NewDeviceRepository()
	created := seedDevice(t, repo, "SN-300", "s3cret")

	got, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	got.Model = "mutated"
	again, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Model != "capture-device" {
		t.Error("mutating a returned device should not affect the stored one")
	}
}
