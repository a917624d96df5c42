// Package rfid abstracts a UHF RFID reader: single reads, continuous
// inventory delivered to subscribers, and antenna power control.
package rfid

import (
	"context"
	"errors"
	"fmt"
)

// Antenna power limits in dBm.
const (
	MinPower = 5
	MaxPower = 30
)

var (
	// ErrUnavailable is returned by every operation of a reader that failed to initialise.
	ErrUnavailable = errors.New("rfid: reader unavailable")

	// ErrNotInitialized is returned when Init has not been called or Free was called.
	ErrNotInitialized = errors.New("rfid: reader not initialized")

	// ErrNoTag is returned by ReadSingleTag when nothing answered.
	ErrNoTag = errors.New("rfid: no tag in range")
)

// TagPayload is one tag read.
type TagPayload struct {
	EPC     string `json:"epc"`
	TID     string `json:"tid,omitempty"`
	User    string `json:"user,omitempty"`
	RSSI    string `json:"rssi,omitempty"`
	Ant     string `json:"ant,omitempty"`
	Message string `json:"message,omitempty"`
}

// Power is the configured power of one antenna.
type Power struct {
	Antenna int `json:"antenna"`
	Power   int `json:"power"`
}

// Reader is a UHF RFID reader.
type Reader interface {
	Init(ctx context.Context) error
	Free() error

	// Subscribe registers for continuous reads; buffer sizes the channel.
	Subscribe(buffer int) *Subscription

	ReadSingleTag(ctx context.Context) (TagPayload, error)

	// StartReading starts continuous inventory; reads go to subscribers.
	StartReading(ctx context.Context) error
	StopReading() error
	Reading() bool

	Version() (string, error)
	WorkingMode() (string, error)

	// SetAntennaPower sets the power of antenna 1.
	SetAntennaPower(power int) error
	Power() ([]Power, error)
}

// ValidatePower checks a requested antenna power.
func ValidatePower(power int) error {
	if power < MinPower || power > MaxPower {
		return fmt.Errorf("rfid: power %d out of range %d-%d", power, MinPower, MaxPower)
	}
	return nil
}
