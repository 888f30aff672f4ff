package models

import (
	"encoding/json"
	"time"
)

type EquipmentStatus string

const (
	EquipmentAvailable   EquipmentStatus = "available"
	EquipmentInUse       EquipmentStatus = "in-use"
	EquipmentMaintenance EquipmentStatus = "maintenance"
	EquipmentBroken      EquipmentStatus = "broken"
)

// Equipment is an inventory item tracked alongside rooms.
type Equipment struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Model           string          `json:"model,omitempty"`
	SerialNumber    string          `json:"serialNumber,omitempty"`
	Status          EquipmentStatus `json:"status"`
	Location        string          `json:"location,omitempty"`
	AssignedTo      string          `json:"assignedTo,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	LastMaintenance *time.Time      `json:"lastMaintenance,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

func (e Equipment) MarshalJSON() ([]byte, error) {
	type alias Equipment
	var lastMaintenance *int64
	if e.LastMaintenance != nil {
		ms := Millis(*e.LastMaintenance)
		lastMaintenance = &ms
	}
	return json.Marshal(struct {
		alias
		CreatedAt       int64  `json:"createdAt"`
		LastMaintenance *int64 `json:"lastMaintenance,omitempty"`
	}{alias(e), Millis(e.CreatedAt), lastMaintenance})
}
