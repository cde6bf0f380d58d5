package sensor

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/coreman2200/puckglow/internal/sched"
)

// NoiseMagnetometer fakes a magnetometer on a device that is slowly turned
// back and forth in the Y/Z plane. Readings are in [0,1] per axis.
type NoiseMagnetometer struct {
	clock sched.Scheduler
	noise opensimplex.Noise
	// Speed scales how fast the simulated device turns.
	Speed float64
}

func NewNoiseMagnetometer(clock sched.Scheduler, seed int64) *NoiseMagnetometer {
	return &NoiseMagnetometer{clock: clock, noise: opensimplex.NewNormalized(seed), Speed: 0.2}
}

func (m *NoiseMagnetometer) Read() (Vec3, error) {
	t := m.clock.Now().Seconds() * m.Speed
	theta := 4 * math.Pi * m.noise.Eval2(t, 0)
	return Vec3{
		X: m.noise.Eval2(t, 10),
		Y: 0.5 + 0.5*math.Cos(theta),
		Z: 0.5 + 0.5*math.Sin(theta),
	}, nil
}

// ConstantLight always reads the same level.
type ConstantLight float64

func (c ConstantLight) Light() (float64, error) { return float64(c), nil }
