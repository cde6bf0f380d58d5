package led

// Tee writes to every driver in order. All drivers are written even if one
// fails; the first error is returned.
type Tee []Driver

var _ Driver = Tee(nil)

func (t Tee) SetChannel(ch int, v float64) error {
	var first error
	for _, d := range t {
		if err := d.SetChannel(ch, v); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t Tee) ResetAll() error {
	var first error
	for _, d := range t {
		if err := d.ResetAll(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
