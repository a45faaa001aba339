package inputs

import (
	"testing"

	"inputcode-go/services/inputs/internal/hw"
)

// testPin implements hw.IRQPin with scripted levels and a one-shot handler,
// mirroring the hardware sources the core re-arms.
type testPin struct {
	number  int
	level   bool
	pull    hw.Pull
	cfgErr  error
	setErr  error
	armErr  error
	edge    hw.Edge
	handler func()
	armed   bool
	cleared bool
}

func (p *testPin) ConfigureInput(pull hw.Pull) error {
	if p.cfgErr != nil {
		return p.cfgErr
	}
	p.pull = pull
	return nil
}

func (p *testPin) Get() bool   { return p.level }
func (p *testPin) Number() int { return p.number }

func (p *testPin) SetIRQ(edge hw.Edge, handler func()) error {
	if p.setErr != nil {
		return p.setErr
	}
	p.edge = edge
	p.handler = handler
	return nil
}

func (p *testPin) EnableIRQ() error {
	if p.armErr != nil {
		return p.armErr
	}
	p.armed = true
	return nil
}

func (p *testPin) ClearIRQ() error {
	p.cleared = true
	p.armed = false
	p.handler = nil
	return nil
}

// fire drives the raw level and delivers the one-shot interrupt if armed.
func (p *testPin) fire(level bool) {
	p.level = level
	if p.armed {
		p.armed = false
		if p.handler != nil {
			p.handler()
		}
	}
}

// inputOnlyPin implements hw.GPIOPin without interrupts.
type inputOnlyPin struct {
	number int
	level  bool
}

func (p *inputOnlyPin) ConfigureInput(hw.Pull) error { return nil }
func (p *inputOnlyPin) Get() bool                    { return p.level }
func (p *inputOnlyPin) Number() int                  { return p.number }

func TestSeedingProducesNoEvent(t *testing.T) {
	pin := &testPin{number: 5, level: true}
	in := newInput(5, pin, ModeSwitch)

	if in.Confirmed() != High {
		t.Fatalf("confirmed = %v, want high", in.Confirmed())
	}
	if _, ok := in.tick(); ok {
		t.Fatal("tick on clean input produced an event")
	}
}

func TestExactlyOneEventOnNthSample(t *testing.T) {
	pin := &testPin{number: 5, level: false}
	in := newInput(5, pin, ModeSwitch)
	in.irq = pin
	pin.armed = true

	pin.fire(true)
	in.dirty = true // edge applied by the manager's drain in real runs

	for i := 1; i < SampleWindow; i++ {
		if _, ok := in.tick(); ok {
			t.Fatalf("event fired on tick %d, before the window filled", i)
		}
		if !in.dirty {
			t.Fatalf("input settled prematurely on tick %d", i)
		}
	}
	ev, ok := in.tick()
	if !ok {
		t.Fatal("no event on the tick completing the window")
	}
	if ev != On {
		t.Fatalf("event = %v, want on", ev)
	}
	if in.dirty {
		t.Fatal("input still dirty after settling")
	}
	if in.Confirmed() != High {
		t.Fatalf("confirmed = %v, want high", in.Confirmed())
	}
}

func TestIdempotentAfterSettle(t *testing.T) {
	pin := &testPin{number: 5, level: false}
	in := newInput(5, pin, ModeSwitch)

	// A bounce that settles back to the confirmed level: window is already
	// unanimous at low, so the first tick clears dirty without an event.
	in.dirty = true
	if _, ok := in.tick(); ok {
		t.Fatal("event fired for a settle at the already-confirmed level")
	}
	if in.dirty {
		t.Fatal("input still dirty after unanimous window")
	}

	// Further ticks on a clean input are no-ops.
	for i := 0; i < 3; i++ {
		if _, ok := in.tick(); ok {
			t.Fatal("event fired on clean input")
		}
	}
}

func TestNoiseNeverEmits(t *testing.T) {
	pin := &testPin{number: 5, level: false}
	in := newInput(5, pin, ModeSwitch)
	in.dirty = true

	// No run of SampleWindow identical samples anywhere in the sequence.
	noise := []bool{true, false, true, true, false, true, false, false, true, true,
		false, false, true, false, true, true, false, true, true, false}
	for i, lvl := range noise {
		pin.level = lvl
		if _, ok := in.tick(); ok {
			t.Fatalf("event fired on noisy sample %d", i)
		}
		if !in.dirty {
			t.Fatalf("input settled on noisy sample %d", i)
		}
	}

	// The line then holds high: exactly one event once the run completes.
	events := 0
	for i := 0; i < SampleWindow; i++ {
		pin.level = true
		if _, ok := in.tick(); ok {
			events++
		}
	}
	if events != 1 {
		t.Fatalf("events after settling = %d, want 1", events)
	}
}

func TestInterruptRearmsPin(t *testing.T) {
	pin := &testPin{number: 5, level: false}
	in := newInput(5, pin, ModeSwitch)
	in.irq = pin
	pin.armed = true

	pin.fire(true)
	if pin.armed {
		t.Fatal("one-shot source still armed after firing")
	}
	in.handleInterrupt()
	if !in.dirty {
		t.Fatal("interrupt did not mark the input dirty")
	}
	if !pin.armed {
		t.Fatal("interrupt handling did not re-arm the source")
	}
}

func TestUnregisteredInterruptIsNoOp(t *testing.T) {
	pin := &testPin{number: 5, level: false}
	in := newInput(5, pin, ModeSwitch) // interrupts never enabled

	in.handleInterrupt()
	if in.dirty {
		t.Fatal("unregistered interrupt changed input state")
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		mode Mode
		lvl  Level
		want Event
	}{
		{ModeSwitch, High, On},
		{ModeSwitch, Low, Off},
		{ModeButton, High, Pressed},
		{ModeButton, Low, Released},
	}
	for _, c := range cases {
		if got := classify(c.mode, c.lvl); got != c.want {
			t.Errorf("classify(%v, %v) = %v, want %v", c.mode, c.lvl, got, c.want)
		}
	}
}
