package inputs

import (
	"inputcode-go/services/inputs/internal/hw"
	"inputcode-go/services/inputs/internal/irqueue"
)

// PinID identifies one physical digital input line.
type PinID = irqueue.PinID

// SampleWindow is the number of consecutive identical raw samples required to
// confirm a level. An edge interrupt marks the input dirty; the poll loop
// then pushes one fresh sample per tick until the window is unanimous, so the
// worst-case resolution time is poll period x SampleWindow and the poll path
// never blocks on an unstable line.
const SampleWindow = 5

// Level is the confirmed state of a line.
type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

func levelOf(raw bool) Level {
	if raw {
		return High
	}
	return Low
}

// Mode selects the event vocabulary for an input's transitions.
type Mode uint8

const (
	ModeSwitch Mode = iota
	ModeButton
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "switch":
		return ModeSwitch, true
	case "button":
		return ModeButton, true
	}
	return 0, false
}

// Event is one confirmed transition, classified by the input's mode.
type Event uint8

const (
	On Event = iota
	Off
	Pressed
	Released
)

func (e Event) String() string {
	switch e {
	case On:
		return "on"
	case Off:
		return "off"
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	}
	return "unknown"
}

// classify maps a settled level to its event. Pure function of (mode, level).
func classify(m Mode, l Level) Event {
	if m == ModeSwitch {
		if l == High {
			return On
		}
		return Off
	}
	if l == High {
		return Pressed
	}
	return Released
}

// Input is the per-pin debounce state machine. All fields are owned by the
// poll context; the notification context only ever touches the bridge queue.
type Input struct {
	id   PinID
	pin  hw.GPIOPin
	irq  hw.IRQPin // nil when interrupts were not enabled
	mode Mode

	confirmed Level
	dirty     bool

	window [SampleWindow]bool
	wpos   int
}

// newInput seeds the confirmed level and the whole window from one real
// hardware read. No event is produced for the seed.
func newInput(id PinID, pin hw.GPIOPin, mode Mode) *Input {
	raw := pin.Get()
	in := &Input{
		id:        id,
		pin:       pin,
		mode:      mode,
		confirmed: levelOf(raw),
	}
	for i := range in.window {
		in.window[i] = raw
	}
	return in
}

// Confirmed returns the current debounced level.
func (in *Input) Confirmed() Level { return in.confirmed }

// handleInterrupt services one dequeued notification: mark the input dirty
// and re-arm the one-shot edge source so edges during resolution are not
// missed. A notification for an input that never enabled interrupts is
// invalid and absorbed.
func (in *Input) handleInterrupt() {
	if in.irq == nil {
		println("[inputs] interrupt for pin without interrupts enabled:", int(in.id))
		return
	}
	in.dirty = true
	if err := in.irq.EnableIRQ(); err != nil {
		println("[inputs] irq re-arm failed on pin:", int(in.id), err.Error())
	}
}

// tick advances the debounce by one sample while an edge is pending.
//
// One fresh raw read displaces the oldest window entry. A unanimous window
// settles the signal and clears dirty; exactly one event is produced iff the
// settled level differs from the confirmed one. A split window keeps the
// input dirty for the next tick and produces nothing.
func (in *Input) tick() (Event, bool) {
	if !in.dirty {
		return 0, false
	}

	in.window[in.wpos] = in.pin.Get()
	in.wpos++
	if in.wpos == SampleWindow {
		in.wpos = 0
	}

	highs := 0
	for _, s := range in.window {
		if s {
			highs++
		}
	}
	if highs != 0 && highs != SampleWindow {
		return 0, false // still bouncing
	}

	in.dirty = false
	settled := Low
	if highs == SampleWindow {
		settled = High
	}
	if settled == in.confirmed {
		return 0, false
	}
	in.confirmed = settled
	return classify(in.mode, settled), true
}
