package rfid

import (
	"context"
	"fmt"
)

// Disabled stands in for a reader that failed to initialise.
// Subscriptions stay open and silent; every operation returns an error wrapping ErrUnavailable.
type Disabled struct {
	cause error
}

var _ Reader = (*Disabled)(nil)

// NewDisabled creates a disabled reader; cause may be nil.
func NewDisabled(cause error) *Disabled {
	return &Disabled{cause: cause}
}

func (d *Disabled) err() error {
	if d.cause == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, d.cause)
}

func (d *Disabled) Init(context.Context) error { return d.err() }

func (d *Disabled) Free() error { return nil }

func (d *Disabled) Subscribe(buffer int) *Subscription {
	ch := make(chan TagPayload)
	return &Subscription{C: ch, ch: ch}
}

func (d *Disabled) ReadSingleTag(context.Context) (TagPayload, error) { return TagPayload{}, d.err() }

func (d *Disabled) StartReading(context.Context) error { return d.err() }

func (d *Disabled) StopReading() error { return d.err() }

func (d *Disabled) Reading() bool { return false }

func (d *Disabled) Version() (string, error) { return "", d.err() }

func (d *Disabled) WorkingMode() (string, error) { return "", d.err() }

func (d *Disabled) SetAntennaPower(int) error { return d.err() }

func (d *Disabled) Power() ([]Power, error) { return nil, d.err() }
