package entities

import (
	"errors"
	"time"
)

// Device represents a registered capture device (a phone or a dedicated
// listener unit) allowed to open the detection WebSocket.
type Device struct {
	ID           string    `json:"id" bson:"_id"`
	SerialNumber string    `json:"serial_number" bson:"serial_number"`
	Model        string    `json:"model" bson:"model"`
	OwnerID      *string   `json:"owner_id" bson:"owner_id"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func (d *Device) Validate() error {
	if d.SerialNumber == "" {
		return errors.New("serial number is required")
	}
	if d.Model == "" {
		return errors.New("model is required")
	}
	return nil
}
