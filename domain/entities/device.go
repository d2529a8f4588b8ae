package entities

import (
	"errors"
	"time"
)

// FieldDevice represents a field recorder authenticating to the
// websocket audio endpoint.
type FieldDevice struct {
	ID           string    `json:"id" bson:"_id"`
	SerialNumber string    `json:"serial_number" bson:"serial_number"`
	SecretKey    string    `json:"-" bson:"secret_key"`
	Label        string    `json:"label" bson:"label"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

func (d *FieldDevice) Validate() error {
	if d.SerialNumber == "" {
		return errors.New("serial number is required")
	}
	return nil
}
