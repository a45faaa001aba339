//go:build rp2040 || rp2350

// RP2 provider: machine.Pin wrappers with hardware edge interrupts.
package platform

import (
	"machine"

	"inputcode-go/services/inputs/internal/hw"
)

type rp2PinFactory struct{}

type rp2Pin struct {
	p       machine.Pin
	n       int
	handler func()
	armed   bool
}

func (rp2PinFactory) ByNumber(n int) (hw.GPIOPin, bool) {
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

func (r *rp2Pin) ConfigureInput(pull hw.Pull) error {
	var mode machine.PinMode
	switch pull {
	case hw.PullUp:
		mode = machine.PinInputPullup
	case hw.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) Get() bool   { return r.p.Get() }
func (r *rp2Pin) Number() int { return r.n }

func (r *rp2Pin) SetIRQ(edge hw.Edge, handler func()) error {
	var change machine.PinChange
	switch edge {
	case hw.EdgeRising:
		change = machine.PinRising
	case hw.EdgeFalling:
		change = machine.PinFalling
	default:
		change = machine.PinRising | machine.PinFalling
	}
	r.handler = handler
	// The RP2 source is level-free and not one-shot in hardware; the armed
	// latch provides the one-shot contract the debounce re-arm relies on.
	return r.p.SetInterrupt(change, func(machine.Pin) {
		if r.armed && r.handler != nil {
			r.armed = false
			r.handler()
		}
	})
}

func (r *rp2Pin) EnableIRQ() error {
	r.armed = true
	return nil
}

func (r *rp2Pin) ClearIRQ() error {
	r.armed = false
	r.handler = nil
	return r.p.SetInterrupt(0, nil)
}

// DefaultPinFactory provides the RP2 GPIO factory.
func DefaultPinFactory() hw.PinFactory { return rp2PinFactory{} }
