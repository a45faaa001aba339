//go:build !(rp2040 || rp2350) && !(linux && arm64)

// Host provider: fake pins with ISR-style one-shot edge callbacks, used by
// tests and host demos.
package platform

import (
	"sync"

	"inputcode-go/services/inputs/internal/hw"
)

// FakePin implements hw.GPIOPin and hw.IRQPin.
//
// Set drives the raw level; a level change fires the registered handler
// synchronously in the caller's goroutine when the configured edge matches
// and the source is armed. Like the real one-shot sources, firing disarms
// the pin until EnableIRQ re-arms it.
type FakePin struct {
	mu      sync.Mutex
	number  int
	level   bool
	pull    hw.Pull
	irqEdge hw.Edge
	handler func()
	armed   bool
}

func (p *FakePin) ConfigureInput(pull hw.Pull) error {
	p.mu.Lock()
	p.pull = pull
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *FakePin) Number() int { return p.number }

// Set drives the raw hardware level.
func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	edge := edgeFrom(old, level)
	fire := p.handler != nil && p.armed && edgeWanted(p.irqEdge, edge)
	var h func()
	if fire {
		p.armed = false
		h = p.handler
	}
	p.mu.Unlock()
	if h != nil {
		h()
	}
}

func (p *FakePin) SetIRQ(edge hw.Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.handler = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) EnableIRQ() error {
	p.mu.Lock()
	p.armed = true
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = hw.EdgeNone
	p.handler = nil
	p.armed = false
	p.mu.Unlock()
	return nil
}

// Armed reports whether the one-shot source would fire on the next edge.
func (p *FakePin) Armed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.armed
}

func edgeFrom(old, new bool) hw.Edge {
	switch {
	case !old && new:
		return hw.EdgeRising
	case old && !new:
		return hw.EdgeFalling
	default:
		return hw.EdgeNone
	}
}

func edgeWanted(cfg, seen hw.Edge) bool {
	if seen == hw.EdgeNone {
		return false
	}
	if cfg == hw.EdgeBoth {
		return true
	}
	return cfg == seen
}

// HostPinFactory returns stable *FakePin instances per number.
type HostPinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *HostPinFactory) ByNumber(n int) (hw.GPIOPin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = &FakePin{number: n}
		f.pins[n] = p
	}
	return p, true
}

// Get exposes the underlying *FakePin for tests (e.g. to drive edges).
func (f *HostPinFactory) Get(n int) (*FakePin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	return p, ok
}

// DefaultPinFactory provides the host GPIO factory.
func DefaultPinFactory() hw.PinFactory {
	return &HostPinFactory{pins: make(map[int]*FakePin)}
}
