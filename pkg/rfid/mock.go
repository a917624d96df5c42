package rfid

import (
	"context"
	"sync"
	"time"
)

// Mock is an in-process reader that replays a fixed list of EPCs.
// While reading it publishes the next EPC every interval.
type Mock struct {
	*Hub

	tags     []string
	interval time.Duration

	mu      sync.Mutex
	ready   bool
	next    int
	power   int
	cancel  context.CancelFunc
	stopped chan struct{}
}

var _ Reader = (*Mock)(nil)

// NewMock creates a mock reader.
func NewMock(tags []string, interval time.Duration) *Mock {
	if interval <= 0 {
		interval = time.Second
	}
	return &Mock{
		Hub:      NewHub(),
		tags:     append([]string(nil), tags...),
		interval: interval,
		power:    MaxPower,
	}
}

func (m *Mock) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = true
	return nil
}

func (m *Mock) Free() error {
	_ = m.StopReading()

	m.mu.Lock()
	m.ready = false
	m.mu.Unlock()
	return nil
}

// ReadSingleTag returns the next canned EPC.
func (m *Mock) ReadSingleTag(ctx context.Context) (TagPayload, error) {
	if err := ctx.Err(); err != nil {
		return TagPayload{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return TagPayload{}, ErrNotInitialized
	}
	return m.take()
}

func (m *Mock) StartReading(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}
	if m.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.stopped = make(chan struct{})
	go m.loop(loopCtx, m.stopped)
	return nil
}

func (m *Mock) loop(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			p, err := m.take()
			m.mu.Unlock()
			if err == nil {
				m.Publish(p)
			}
		}
	}
}

// StopReading stops continuous inventory and waits for the loop to exit.
func (m *Mock) StopReading() error {
	m.mu.Lock()
	cancel, stopped := m.cancel, m.stopped
	m.cancel, m.stopped = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
	return nil
}

func (m *Mock) Reading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Mock) Version() (string, error) { return "mock-1.0", nil }

func (m *Mock) WorkingMode() (string, error) { return "mock", nil }

func (m *Mock) SetAntennaPower(power int) error {
	if err := ValidatePower(power); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.power = power
	return nil
}

func (m *Mock) Power() ([]Power, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return []Power{{Antenna: 1, Power: m.power}}, nil
}

// take must be called with mu held.
func (m *Mock) take() (TagPayload, error) {
	if len(m.tags) == 0 {
		return TagPayload{}, ErrNoTag
	}
	epc := m.tags[m.next%len(m.tags)]
	m.next++
	return TagPayload{EPC: epc, Ant: "1", RSSI: "-48.5"}, nil
}
