// Package led holds the channel output sinks a light runner writes to.
package led

// Channel indexes for an RGB light.
const (
	Red = iota
	Green
	Blue

	Channels = 3
)

// Driver abstracts an LED output sink addressed by channel.
type Driver interface {
	// SetChannel sets channel ch to intensity v in [0,1].
	SetChannel(ch int, v float64) error
	// ResetAll turns every channel off.
	ResetAll() error
}
