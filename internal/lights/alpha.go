package lights

import (
	"math"
	"time"

	"github.com/ojrac/opensimplex-go"
)

// AlphaFunc is an intensity envelope: elapsed time since activation to [0,1].
type AlphaFunc func(elapsed time.Duration) float64

// SteadyAlpha is a constant intensity. Zero or negative a means full intensity.
func SteadyAlpha(a float64) AlphaFunc {
	if a <= 0 {
		a = 1
	}
	a = clamp01(a)
	return func(time.Duration) float64 { return a }
}

// PulsingAlpha breathes between low and 1, speed cycles per second, starting
// at low.
func PulsingAlpha(speed, low float64) AlphaFunc {
	speed, low = normSpeed(speed), clamp01(low)
	return func(elapsed time.Duration) float64 {
		t := elapsed.Seconds()
		wave := (math.Sin(t*speed*2*math.Pi-math.Pi/2) + 1) / 2
		return wave*(1-low) + low
	}
}

// BlinkingAlpha alternates between low (first half cycle) and 1.
func BlinkingAlpha(speed, low float64) AlphaFunc {
	speed, low = normSpeed(speed), clamp01(low)
	return func(elapsed time.Duration) float64 {
		_, frac := math.Modf(elapsed.Seconds() * speed)
		if frac > 0.5 {
			return 1
		}
		return low
	}
}

// FlickeringAlpha wanders between low and 1 following smooth simplex noise,
// like a candle. The same seed always yields the same flicker.
func FlickeringAlpha(speed, low float64, seed int64) AlphaFunc {
	speed, low = normSpeed(speed), clamp01(low)
	noise := opensimplex.NewNormalized(seed)
	return func(elapsed time.Duration) float64 {
		n := clamp01(noise.Eval2(elapsed.Seconds()*speed, 0))
		return low + (1-low)*n
	}
}

func normSpeed(s float64) float64 {
	if s <= 0 {
		return 1
	}
	return s
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
