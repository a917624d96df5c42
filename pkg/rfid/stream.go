package rfid

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"rfidstock/pkg/logger"
)

// Stream turns newline-delimited EPCs from an io.Reader into tag reads.
// Serial bridges and keyboard-wedge scanners produce this format.
// Lines arriving while not reading are only delivered to single reads.
type Stream struct {
	*Hub

	src io.Reader

	mu      sync.Mutex
	started bool
	reading bool
	power   int
	single  []chan TagPayload
	done    chan struct{}
}

var _ Reader = (*Stream)(nil)

// NewStream creates a reader over src.
func NewStream(src io.Reader) *Stream {
	return &Stream{
		Hub:   NewHub(),
		src:   src,
		power: MaxPower,
		done:  make(chan struct{}),
	}
}

// Init starts consuming the source.
func (s *Stream) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true
	go s.scan(ctx)
	return nil
}

func (s *Stream) scan(ctx context.Context) {
	defer close(s.done)
	sc := bufio.NewScanner(s.src)
	for sc.Scan() {
		epc := strings.TrimSpace(sc.Text())
		if epc == "" {
			continue
		}
		s.dispatch(TagPayload{EPC: epc})
	}
	if err := sc.Err(); err != nil {
		logger.Warn(ctx, "rfid stream stopped", "error", err)
	}
}

func (s *Stream) dispatch(p TagPayload) {
	s.mu.Lock()
	waiters := s.single
	s.single = nil
	reading := s.reading
	s.mu.Unlock()

	for _, w := range waiters {
		w <- p
	}
	if reading {
		s.Publish(p)
	}
}

// Free stops delivering reads and closes the source when it is closable.
func (s *Stream) Free() error {
	s.mu.Lock()
	s.reading = false
	s.mu.Unlock()

	s.Hub.Close()
	if c, ok := s.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ReadSingleTag waits for the next line.
func (s *Stream) ReadSingleTag(ctx context.Context) (TagPayload, error) {
	w := make(chan TagPayload, 1)

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return TagPayload{}, ErrNotInitialized
	}
	s.single = append(s.single, w)
	s.mu.Unlock()

	select {
	case p := <-w:
		return p, nil
	case <-s.done:
		return TagPayload{}, ErrNoTag
	case <-ctx.Done():
		s.mu.Lock()
		for i, c := range s.single {
			if c == w {
				s.single = append(s.single[:i], s.single[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		return TagPayload{}, ctx.Err()
	}
}

func (s *Stream) StartReading(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotInitialized
	}
	s.reading = true
	return nil
}

func (s *Stream) StopReading() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reading = false
	return nil
}

func (s *Stream) Reading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reading
}

func (s *Stream) Version() (string, error) { return "stream", nil }

func (s *Stream) WorkingMode() (string, error) { return "line", nil }

// SetAntennaPower is recorded only; a stream has no radio to configure.
func (s *Stream) SetAntennaPower(power int) error {
	if err := ValidatePower(power); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.power = power
	return nil
}

func (s *Stream) Power() ([]Power, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []Power{{Antenna: 1, Power: s.power}}, nil
}
