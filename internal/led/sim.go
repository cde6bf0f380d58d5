package led

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Sim keeps channel values in memory. It is safe for concurrent use so the
// values can be inspected from outside the loop.
type Sim struct {
	log zerolog.Logger

	mu     sync.Mutex
	vals   [Channels]float64
	writes int
	resets int
}

var _ Driver = (*Sim)(nil)

// NewSim logs every completed frame at trace level.
func NewSim(log zerolog.Logger) *Sim {
	return &Sim{log: log}
}

func (s *Sim) SetChannel(ch int, v float64) error {
	if ch < 0 || ch >= Channels {
		return fmt.Errorf("led: channel %d out of range", ch)
	}
	s.mu.Lock()
	s.vals[ch] = v
	s.writes++
	frame := s.vals
	s.mu.Unlock()

	if ch == Blue {
		s.log.Trace().Floats64("rgb", frame[:]).Msg("frame")
	}
	return nil
}

func (s *Sim) ResetAll() error {
	s.mu.Lock()
	s.vals = [Channels]float64{}
	s.resets++
	s.mu.Unlock()
	s.log.Trace().Msg("reset")
	return nil
}

// Values returns the last value written to each channel.
func (s *Sim) Values() [Channels]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vals
}

// Writes counts SetChannel calls.
func (s *Sim) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Resets counts ResetAll calls.
func (s *Sim) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}
