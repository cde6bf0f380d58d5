package sensor

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/sched"
)

// Sample is emitted by a Stream with a Vec3 payload.
const Sample event.Name = "sample"

// Source produces one vector reading per call.
type Source interface {
	Read() (Vec3, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Vec3, error)

func (f SourceFunc) Read() (Vec3, error) { return f() }

// Feed is the consumer side of a Stream.
type Feed interface {
	event.Observable
	Acquire(rateHz float64)
	Release()
}

// Stream polls a Source while at least one consumer holds it. The poll rate
// is the highest rate requested since the stream was last idle.
type Stream struct {
	*event.Emitter

	sched sched.Scheduler
	src   Source
	log   zerolog.Logger

	refs   int
	rate   float64
	cancel sched.Cancel
	latest Vec3
}

var _ Feed = (*Stream)(nil)

func NewStream(s sched.Scheduler, src Source, log zerolog.Logger) *Stream {
	return &Stream{
		Emitter: &event.Emitter{},
		sched:   s,
		src:     src,
		log:     log,
	}
}

// Acquire takes a reference and raises the poll rate to rateHz if higher.
func (s *Stream) Acquire(rateHz float64) {
	s.refs++
	if rateHz > s.rate {
		s.rate = rateHz
		s.restart()
	}
}

// Release drops a reference; the last one stops polling.
func (s *Stream) Release() {
	if s.refs == 0 {
		return
	}
	s.refs--
	if s.refs == 0 {
		s.halt()
		s.rate = 0
	}
}

// Rate is the current poll rate, zero when idle.
func (s *Stream) Rate() float64 { return s.rate }

// Latest is the most recent sample.
func (s *Stream) Latest() Vec3 { return s.latest }

func (s *Stream) restart() {
	s.halt()
	p := time.Duration(float64(time.Second) / s.rate)
	s.cancel = s.sched.Every(p, s.poll)
	s.log.Debug().Float64("rate", s.rate).Msg("stream polling")
}

func (s *Stream) halt() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Stream) poll() {
	v, err := s.src.Read()
	if err != nil {
		s.log.Warn().Err(err).Msg("stream read")
		return
	}
	s.latest = v
	s.Emit(Sample, v)
}
