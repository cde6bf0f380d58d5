package ws

import (
	"sync"
	"time"

	"github.com/coreman2200/puckglow/internal/color"
	"github.com/coreman2200/puckglow/internal/led"
)

// Preview is an led.Driver that mirrors the light to websocket clients.
type Preview struct {
	hub      *Hub
	throttle time.Duration

	mu       sync.Mutex
	buf      color.RGB
	lastEmit time.Time
}

var _ led.Driver = (*Preview)(nil)

// NewPreview limits updates to fps frames per second; zero sends every frame.
func NewPreview(h *Hub, fps float64) *Preview {
	p := &Preview{hub: h}
	if fps > 0 {
		p.throttle = time.Duration(float64(time.Second) / fps)
	}
	return p
}

func (p *Preview) SetChannel(ch int, v float64) error {
	p.mu.Lock()
	switch ch {
	case led.Red:
		p.buf.R = v
	case led.Green:
		p.buf.G = v
	case led.Blue:
		p.buf.B = v
	}
	if ch != led.Blue {
		p.mu.Unlock()
		return nil
	}
	now := time.Now()
	if p.lastEmit.Add(p.throttle).After(now) {
		p.mu.Unlock()
		return nil // throttle client updates
	}
	p.lastEmit = now
	c := p.buf
	p.mu.Unlock()

	p.hub.Broadcast(c)
	return nil
}

// ResetAll always reaches clients so previews never stay lit.
func (p *Preview) ResetAll() error {
	p.mu.Lock()
	p.buf = color.Black
	p.mu.Unlock()
	p.hub.Broadcast(color.Black)
	return nil
}
