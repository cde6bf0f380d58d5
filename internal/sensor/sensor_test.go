package sensor

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/sched"
)

type recorder struct {
	names  []event.Name
	values []any
}

func record(obs event.Observable, names ...event.Name) *recorder {
	r := &recorder{}
	for _, n := range names {
		obs.On(n, func(ev event.Event) {
			r.names = append(r.names, ev.Name)
			r.values = append(r.values, ev.Value)
		})
	}
	return r
}

var buttonEvents = []event.Name{Down, Up, Press, Double, Multi, Long}

func TestButtonGestures(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name      string
		immediate bool
		// alternating down/up edges, each preceded by a wait
		waits []time.Duration
		want  []event.Name
		count any
	}{
		{
			name:  "single",
			waits: []time.Duration{0, 100 * ms},
			want:  []event.Name{Down, Up, Press},
			count: 1,
		},
		{
			name:  "double",
			waits: []time.Duration{0, 50 * ms, 50 * ms, 50 * ms},
			want:  []event.Name{Down, Up, Down, Up, Double},
			count: 2,
		},
		{
			name:  "triple",
			waits: []time.Duration{0, 50 * ms, 50 * ms, 50 * ms, 50 * ms, 50 * ms},
			want:  []event.Name{Down, Up, Down, Up, Down, Up, Multi},
			count: 3,
		},
		{
			name:  "held past the multi window",
			waits: []time.Duration{0, 400 * ms},
			want:  []event.Name{Down, Up, Press},
			count: 1,
		},
		{
			name:  "long",
			waits: []time.Duration{0, 700 * ms},
			want:  []event.Name{Down, Long, Up},
			count: nil,
		},
		{
			name:      "immediate",
			immediate: true,
			waits:     []time.Duration{0, 50 * ms, 50 * ms, 50 * ms},
			want:      []event.Name{Down, Press, Up, Down, Double, Up},
			count:     2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := sched.NewVirtual()
			b := NewButton(v, ButtonOptions{Immediate: tt.immediate})
			rec := record(b, buttonEvents...)

			for i, w := range tt.waits {
				v.Advance(w)
				if i%2 == 0 {
					b.Down()
				} else {
					b.Up()
				}
			}
			v.Advance(time.Second)

			assert.Equal(t, tt.want, rec.names)
			var count any
			for _, val := range rec.values {
				if val != nil {
					count = val
				}
			}
			assert.Equal(t, tt.count, count)
		})
	}
}

func TestStreamReferenceCounting(t *testing.T) {
	v := sched.NewVirtual()
	n := 0.0
	s := NewStream(v, SourceFunc(func() (Vec3, error) {
		n++
		return Vec3{Z: n}, nil
	}), zerolog.Nop())
	rec := record(s, Sample)

	s.Acquire(5)
	v.Advance(time.Second)
	assert.Len(t, rec.names, 5)

	s.Acquire(10)
	assert.Equal(t, 10.0, s.Rate())
	v.Advance(time.Second)
	assert.Len(t, rec.names, 15)
	assert.Equal(t, Vec3{Z: 15}, s.Latest())

	s.Release()
	assert.Equal(t, 10.0, s.Rate())
	s.Release()
	s.Release()
	assert.Zero(t, s.Rate())
	assert.Equal(t, 0, v.Pending())
	v.Advance(time.Second)
	assert.Len(t, rec.names, 15)
}

func circle(theta float64) Vec3 {
	return Vec3{Y: 0.5 + 0.5*math.Cos(theta), Z: 0.5 + 0.5*math.Sin(theta)}
}

func TestScrollWheel(t *testing.T) {
	v := sched.NewVirtual()
	cur := circle(0)
	stream := NewStream(v, SourceFunc(func() (Vec3, error) { return cur, nil }), zerolog.Nop())
	w := NewScrollWheel(v, stream, ScrollWheelOptions{Window: 1}, zerolog.Nop())
	rec := record(w, Plus, Minus, Notch, Calibrated)

	w.Start()
	step := 200 * time.Millisecond
	for i := 0; i < 19; i++ {
		cur = circle(2 * math.Pi * float64(i) / 20)
		v.Advance(step)
	}
	cur = circle(0)
	v.Advance(step)
	require.True(t, w.Calibrated())
	assert.Equal(t, []event.Name{Calibrated}, rec.names)

	turn := func(theta float64) {
		rec.names, rec.values = nil, nil
		cur = circle(theta)
		v.Advance(step)
	}

	turn(0.7)
	assert.Equal(t, []event.Name{Plus, Notch}, rec.names)
	assert.Equal(t, 1, rec.values[1])

	turn(0.3)
	assert.Empty(t, rec.names, "less than a notch")

	turn(0)
	assert.Equal(t, []event.Name{Minus, Notch}, rec.names)

	turn(3.0)
	assert.Equal(t, []event.Name{Plus, Notch}, rec.names)

	turn(-3.0)
	assert.Empty(t, rec.names, "short way across the wrap")

	turn(-2.5)
	assert.Equal(t, []event.Name{Plus, Notch}, rec.names)

	w.Stop()
	assert.Zero(t, stream.Rate())
	assert.Equal(t, 0, stream.ListenerCount(Sample))

	w.Resume()
	turn(-3.2)
	assert.Equal(t, []event.Name{Minus, Notch}, rec.names)
}

func TestProximity(t *testing.T) {
	v := sched.NewVirtual()
	level := 0.5
	p := NewProximity(v, LightFunc(func() (float64, error) { return level, nil }), ProximityOptions{}, zerolog.Nop())
	rec := record(p, Close, Far)

	p.Start()
	v.Advance(5 * time.Second)
	assert.Empty(t, rec.names)

	level = 0.3
	v.Advance(500 * time.Millisecond)
	assert.Equal(t, []event.Name{Close}, rec.names)
	assert.True(t, p.Near())

	v.Advance(time.Second)
	assert.Len(t, rec.names, 1)

	level = 0.6
	v.Advance(500 * time.Millisecond)
	assert.Equal(t, []event.Name{Close, Far}, rec.names)

	p.Stop()
	assert.Equal(t, 0, v.Pending())
}

func TestWatchPinPostsEdges(t *testing.T) {
	v := sched.NewVirtual()
	b := NewButton(v, ButtonOptions{})
	rec := record(b, Down, Up)
	pin := &gpiotest.Pin{N: "BTN", EdgesChan: make(chan gpio.Level, 4)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchPin(ctx, pin, v, b, 0) }()
	// In flushes queued edges, wait for it
	assert.Eventually(t, func() bool { return pin.Pull() == gpio.PullDown }, time.Second, time.Millisecond)
	pin.Read()

	pin.EdgesChan <- gpio.High
	assert.Eventually(t, func() bool { return v.Pending() == 1 }, time.Second, time.Millisecond)
	pin.EdgesChan <- gpio.Low
	assert.Eventually(t, func() bool { return v.Pending() == 2 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	v.Advance(0)
	assert.Equal(t, []event.Name{Down, Up}, rec.names)
}

func TestNoiseMagnetometerStaysOnCircle(t *testing.T) {
	v := sched.NewVirtual()
	m := NewNoiseMagnetometer(v, 7)
	for i := 0; i < 50; i++ {
		s, err := m.Read()
		require.NoError(t, err)
		r := math.Hypot(s.Y-0.5, s.Z-0.5)
		assert.InDelta(t, 0.5, r, 1e-9)
		v.Advance(100 * time.Millisecond)
	}
}
