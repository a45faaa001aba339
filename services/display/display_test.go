package display

import (
	"context"
	"image/color"
	"sync"
	"testing"
	"time"

	"inputcode-go/bus"
	"inputcode-go/types"
)

type fakeStrip struct {
	mu     sync.Mutex
	frames int
	last   []color.RGBA
}

func (f *fakeStrip) WriteColors(buf []color.RGBA) error {
	f.mu.Lock()
	f.frames++
	f.last = append(f.last[:0], buf...)
	f.mu.Unlock()
	return nil
}

func (f *fakeStrip) snapshot() (int, []color.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames, append([]color.RGBA(nil), f.last...)
}

func TestMaskFollowsSwitchEvents(t *testing.T) {
	s := &service{bitFor: map[int]uint8{5: 0, 6: 1, 21: 7}}

	s.handleEvent(types.InputEvent{Pin: 5, Event: "on"})
	s.handleEvent(types.InputEvent{Pin: 21, Event: "on"})
	if s.mask != 0x81 {
		t.Fatalf("mask = %#x, want 0x81", s.mask)
	}

	s.handleEvent(types.InputEvent{Pin: 5, Event: "off"})
	if s.mask != 0x80 {
		t.Fatalf("mask = %#x, want 0x80", s.mask)
	}

	// Buttons and unknown pins leave the mask alone.
	s.handleEvent(types.InputEvent{Pin: 6, Event: "pressed"})
	s.handleEvent(types.InputEvent{Pin: 99, Event: "on"})
	if s.mask != 0x80 {
		t.Fatalf("mask = %#x, want 0x80", s.mask)
	}
}

func TestRenderFrameAdvancesOscillator(t *testing.T) {
	strip := &fakeStrip{}
	s := &service{strip: strip, pixels: 2, buf: make([]color.RGBA, 2)}

	s.renderFrame()
	if s.frame != 1 {
		t.Fatalf("frame = %d, want 1", s.frame)
	}
	frames, last := strip.snapshot()
	if frames != 1 || len(last) != 2 {
		t.Fatalf("frames = %d len = %d, want 1 frame of 2 pixels", frames, len(last))
	}
	// Pixels are spread across the hue wheel, never identical.
	if last[0] == last[1] {
		t.Fatalf("adjacent pixels identical: %+v", last[0])
	}
}

func TestHSVPrimaries(t *testing.T) {
	cases := []struct {
		h    uint8
		want color.RGBA
	}{
		{0, color.RGBA{R: 255, G: 0, B: 0, A: 255}},   // red
		{86, color.RGBA{R: 0, G: 255, B: 5, A: 255}},  // green region
		{172, color.RGBA{R: 5, G: 0, B: 255, A: 255}}, // blue region
	}
	for _, c := range cases {
		got := hsvToRGB(c.h, 255, 255)
		if got.R != c.want.R && got.G != c.want.G {
			t.Errorf("hsvToRGB(%d) = %+v, want dominant channel of %+v", c.h, got, c.want)
		}
	}

	grey := hsvToRGB(13, 0, 100)
	if grey.R != 100 || grey.G != 100 || grey.B != 100 {
		t.Errorf("zero saturation should be grey, got %+v", grey)
	}
}

func TestDisplayServiceEndToEnd(t *testing.T) {
	b := bus.NewBus(16)
	svcConn := b.NewConnection("display")
	tstConn := b.NewConnection("test")

	strip := &fakeStrip{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runWith(ctx, svcConn, strip)

	stateSub := tstConn.Subscribe(bus.T("display", "state"))
	waitLevel(t, stateSub, "idle")

	tstConn.Publish(tstConn.NewMessage(bus.T("config", "display"), types.DisplayConfig{
		Pixels:  2,
		FrameMs: 1,
		Bits:    []int{5, 6},
	}, false))
	waitLevel(t, stateSub, "ready")

	deadline := time.After(2 * time.Second)
	for {
		frames, _ := strip.snapshot()
		if frames >= 3 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("only %d frames rendered", frames)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func waitLevel(t *testing.T, sub *bus.Subscription, level string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-sub.Channel():
			if st, ok := msg.Payload.(types.ServiceState); ok && st.Level == level {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for state %q", level)
		}
	}
}
