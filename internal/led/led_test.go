package led

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/puckglow/internal/sched"
)

func testPins() ([]*gpiotest.Pin, []gpio.PinOut) {
	pins := []*gpiotest.Pin{{N: "R", Num: 1}, {N: "G", Num: 2}, {N: "B", Num: 3}}
	outs := make([]gpio.PinOut, len(pins))
	for i, p := range pins {
		outs[i] = p
	}
	return pins, outs
}

func TestGPIOHardwarePWM(t *testing.T) {
	pins, outs := testPins()
	d, err := NewGPIO(outs, GPIOOptions{PWMFreq: physic.KiloHertz})
	require.NoError(t, err)

	require.NoError(t, d.SetChannel(Red, 1))
	require.NoError(t, d.SetChannel(Green, 0.5))
	require.NoError(t, d.SetChannel(Blue, 0))

	assert.Equal(t, gpio.High, pins[0].Read())
	assert.Equal(t, gpio.DutyHalf, pins[1].D)
	assert.Equal(t, physic.KiloHertz, pins[1].F)
	assert.Equal(t, gpio.Low, pins[2].Read())

	// identical values are not re-issued
	pins[1].D = 0
	require.NoError(t, d.SetChannel(Green, 0.5))
	assert.Equal(t, gpio.Duty(0), pins[1].D)

	require.NoError(t, d.ResetAll())
	for _, p := range pins {
		assert.Equal(t, gpio.Low, p.Read())
	}
	assert.Error(t, d.SetChannel(3, 1))
}

func TestGPIOSoftwarePulse(t *testing.T) {
	pins, outs := testPins()
	v := sched.NewVirtual()
	d, err := NewGPIO(outs, GPIOOptions{Pulse: 10 * time.Millisecond, Sched: v})
	require.NoError(t, err)

	require.NoError(t, d.SetChannel(Red, 0.5))
	assert.Equal(t, gpio.High, pins[0].Read())
	v.Advance(4 * time.Millisecond)
	assert.Equal(t, gpio.High, pins[0].Read())
	v.Advance(time.Millisecond)
	assert.Equal(t, gpio.Low, pins[0].Read())

	// a reset cancels the pending falling edge
	require.NoError(t, d.SetChannel(Red, 0.9))
	require.NoError(t, d.ResetAll())
	assert.Equal(t, 0, v.Pending())
	assert.Equal(t, gpio.Low, pins[0].Read())
}

type stuckLow struct{ *gpiotest.Pin }

func (p stuckLow) Out(l gpio.Level) error {
	if l == gpio.Low {
		return errors.New("stuck")
	}
	return p.Pin.Out(l)
}

func TestGPIOFallingEdgeErrorReported(t *testing.T) {
	pin := &gpiotest.Pin{N: "R", Num: 1}
	v := sched.NewVirtual()
	d, err := NewGPIO([]gpio.PinOut{stuckLow{pin}}, GPIOOptions{Pulse: 10 * time.Millisecond, Sched: v})
	require.NoError(t, err)

	require.NoError(t, d.SetChannel(Red, 0.5))
	v.Advance(10 * time.Millisecond)

	err = d.SetChannel(Red, 0.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "falling edge")
	assert.Equal(t, gpio.High, pin.Read(), "the new pulse still went out")

	v.Advance(10 * time.Millisecond)
	assert.ErrorContains(t, d.ResetAll(), "falling edge")
	require.NoError(t, d.SetChannel(Red, 1))
}

func TestGPIONeedsScheduler(t *testing.T) {
	_, outs := testPins()
	_, err := NewGPIO(outs, GPIOOptions{})
	assert.Error(t, err)
	_, err = NewGPIO(nil, GPIOOptions{PWMFreq: physic.KiloHertz})
	assert.Error(t, err)
}

type fakeDrawer struct {
	img    *image.NRGBA
	draws  int
	halted int
}

func (f *fakeDrawer) String() string { return "fake" }
func (f *fakeDrawer) Halt() error    { f.halted++; return nil }
func (f *fakeDrawer) ColorModel() color.Model {
	return f.img.ColorModel()
}
func (f *fakeDrawer) Bounds() image.Rectangle { return f.img.Bounds() }
func (f *fakeDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	f.draws++
	draw.Draw(f.img, r, src, sp, draw.Src)
	return nil
}

func TestDrawerPaintsOnLastChannel(t *testing.T) {
	dev := &fakeDrawer{img: image.NewNRGBA(image.Rect(0, 0, 4, 1))}
	d := NewDrawer(dev)

	require.NoError(t, d.SetChannel(Red, 1))
	require.NoError(t, d.SetChannel(Green, 0.5))
	assert.Equal(t, 0, dev.draws)
	require.NoError(t, d.SetChannel(Blue, 0))
	assert.Equal(t, 1, dev.draws)

	px := dev.img.NRGBAAt(3, 0)
	assert.Equal(t, uint8(255), px.R)
	assert.Equal(t, uint8(128), px.G)
	assert.Equal(t, uint8(0), px.B)

	require.NoError(t, d.ResetAll())
	assert.Equal(t, 1, dev.halted)
}

func TestStripOverSPI(t *testing.T) {
	buf := bytes.Buffer{}
	d, err := OpenStrip(spitest.NewRecordRaw(&buf), 2, 2500*physic.KiloHertz)
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", d.String())

	frame := func(c [Channels]float64) []byte {
		buf.Reset()
		require.NoError(t, d.SetChannel(Red, c[Red]))
		require.NoError(t, d.SetChannel(Green, c[Green]))
		require.NoError(t, d.SetChannel(Blue, c[Blue]))
		return append([]byte(nil), buf.Bytes()...)
	}
	red := frame([Channels]float64{1, 0, 0})
	require.NotEmpty(t, red)
	blue := frame([Channels]float64{0, 0, 1})
	assert.Len(t, blue, len(red))
	assert.NotEqual(t, red, blue)
	assert.Equal(t, red, frame([Channels]float64{1, 0, 0}), "frames are repeatable")
}

type failing struct{ Sim }

func (f *failing) SetChannel(int, float64) error { return errors.New("boom") }

func TestTeeWritesAll(t *testing.T) {
	a, b := NewSim(zerolog.Nop()), NewSim(zerolog.Nop())
	tee := Tee{a, &failing{}, b}

	assert.EqualError(t, tee.SetChannel(Green, 0.25), "boom")
	assert.Equal(t, [Channels]float64{0, 0.25, 0}, a.Values())
	assert.Equal(t, [Channels]float64{0, 0.25, 0}, b.Values())

	require.NoError(t, tee.ResetAll())
	assert.Equal(t, 1, a.Resets())
	assert.Equal(t, [Channels]float64{}, b.Values())
	assert.Equal(t, 1, b.Writes())
}
