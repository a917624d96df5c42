package dto

import (
	"rfidstock/pkg/rfid"
)

// PowerRequest sets the antenna power in dBm.
type PowerRequest struct {
	Power int `json:"power" binding:"required"`
}

// ReaderStatus describes the shared RFID reader.
type ReaderStatus struct {
	Available   bool         `json:"available"`
	Reading     bool         `json:"reading"`
	Session     string       `json:"session,omitempty"`
	Version     string       `json:"version,omitempty"`
	WorkingMode string       `json:"working_mode,omitempty"`
	Power       []rfid.Power `json:"power,omitempty"`
	Error       string       `json:"error,omitempty"`
}
