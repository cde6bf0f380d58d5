package led

import (
	"image"
	"image/draw"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/puckglow/internal/color"
)

// Drawer paints the whole surface of a pixel device with the channel color.
// Channels are buffered; the frame is drawn when the blue channel arrives.
type Drawer struct {
	dev   display.Drawer
	buf   color.RGB
	frame *image.NRGBA
}

var _ Driver = (*Drawer)(nil)

func NewDrawer(dev display.Drawer) *Drawer {
	return &Drawer{dev: dev, frame: image.NewNRGBA(dev.Bounds())}
}

// OpenStrip drives a WS2812 style strip over SPI.
func OpenStrip(p spi.Port, pixels int, freq physic.Frequency) (*Drawer, error) {
	dev, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: pixels,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		return nil, err
	}
	if err := dev.Halt(); err != nil {
		return nil, err
	}
	return NewDrawer(dev), nil
}

// OpenConsole prints the color as a row of width cells on the terminal.
func OpenConsole(width int) *Drawer {
	return NewDrawer(screen.New(width))
}

func (d *Drawer) String() string { return d.dev.String() }

func (d *Drawer) SetChannel(ch int, v float64) error {
	switch ch {
	case Red:
		d.buf.R = v
	case Green:
		d.buf.G = v
	case Blue:
		d.buf.B = v
		// devices such as nrzled rasterize the source, so it must be bounded
		r := d.frame.Bounds()
		draw.Draw(d.frame, r, image.NewUniform(d.buf.NRGBA()), image.Point{}, draw.Src)
		return d.dev.Draw(d.dev.Bounds(), d.frame, r.Min)
	}
	return nil
}

func (d *Drawer) ResetAll() error {
	d.buf = color.Black
	return d.dev.Halt()
}
