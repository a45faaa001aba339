// Package display renders the input state as slowly breathing colors on a
// short addressable LED strip. The base hue is derived from the switch mask;
// a slow sine oscillator modulates it so the panel reads as alive even when
// no switch moves.
package display

import (
	"context"
	"image/color"
	"math"
	"time"

	"inputcode-go/bus"
	"inputcode-go/types"
	"inputcode-go/x/timex"
)

const (
	defaultFrameMs = 16

	frameRate      = 60
	oscillatorHz   = 0.2
	oscillatorStep = 2 * math.Pi * oscillatorHz / frameRate

	pixelHueOffset = 64 // per-pixel hue spread
	hueSwing       = 16 // oscillator amplitude in hue steps
	pixelValue     = 16 // brightness
)

var (
	topicConfig = bus.T("config", "display")
	topicState  = bus.T("display", "state")
	topicEvents = bus.T("input", "event", bus.Plus)
)

// Strip is the output device. The rp2 build drives a WS2812 chain; hosts
// discard frames. Matches the drivers ws2812 device surface.
type Strip interface {
	WriteColors(buf []color.RGBA) error
}

type service struct {
	conn  *bus.Connection
	strip Strip

	pixels int
	bitFor map[int]uint8 // pin number -> mask bit
	mask   uint8
	frame  uint32

	buf []color.RGBA
}

// Run starts the display service and blocks until ctx is cancelled. The
// strip is opened from the DisplayConfig on {"config","display"}; input
// events adjust the hue mask, a fixed cadence renders frames.
func Run(ctx context.Context, conn *bus.Connection) {
	runWith(ctx, conn, nil)
}

// runWith lets tests inject a strip; a nil strip is opened from config.
func runWith(ctx context.Context, conn *bus.Connection, strip Strip) {
	s := &service{conn: conn, strip: strip}

	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)
	evSub := conn.Subscribe(topicEvents)
	defer conn.Unsubscribe(evSub)
	s.publishState("idle", "awaiting_config")

	tick := time.NewTicker(time.Hour) // parked until configured
	defer tick.Stop()
	configured := false

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled")
			return
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.DisplayConfig)
			if !ok {
				println("[display] ignoring config with unexpected payload")
				continue
			}
			if err := s.applyConfig(cfg); err != nil {
				s.publishState("error", err.Error())
				continue
			}
			tick.Reset(timex.PeriodMs(cfg.FrameMs, defaultFrameMs))
			if !configured {
				configured = true
				s.publishState("ready", "")
			}
		case msg := <-evSub.Channel():
			if ev, ok := msg.Payload.(types.InputEvent); ok {
				s.handleEvent(ev)
			}
		case <-tick.C:
			if configured {
				s.renderFrame()
			}
		}
	}
}

func (s *service) applyConfig(cfg types.DisplayConfig) error {
	if s.strip == nil {
		st, err := openStrip(cfg)
		if err != nil {
			return err
		}
		s.strip = st
	}
	pixels := cfg.Pixels
	if pixels <= 0 {
		pixels = 1
	}
	s.pixels = pixels
	s.buf = make([]color.RGBA, pixels)
	s.bitFor = make(map[int]uint8, len(cfg.Bits))
	for bit, pin := range cfg.Bits {
		if bit > 7 {
			break
		}
		s.bitFor[pin] = uint8(bit)
	}
	return nil
}

// handleEvent folds switch transitions into the hue mask. Button events do
// not move the mask; the panel hue tracks latched switches only.
func (s *service) handleEvent(ev types.InputEvent) {
	bit, ok := s.bitFor[ev.Pin]
	if !ok {
		return
	}
	switch ev.Event {
	case "on":
		s.mask |= 1 << bit
	case "off":
		s.mask &^= 1 << bit
	}
}

func (s *service) renderFrame() {
	osc := math.Sin(float64(s.frame) * oscillatorStep)
	base := s.mask + uint8(int8(hueSwing*osc))
	for i := range s.buf {
		s.buf[i] = hsvToRGB(base+uint8(i)*pixelHueOffset, 255, pixelValue)
	}
	if err := s.strip.WriteColors(s.buf); err != nil {
		println("[display] frame write failed:", err.Error())
	}
	s.frame++
}

func (s *service) publishState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(
		topicState,
		types.ServiceState{Level: level, Status: status, TSms: timex.NowMs()},
		true,
	))
}

// hsvToRGB converts an 8-bit HSV triple to RGBA, hue wrapping over six
// 43-step regions.
func hsvToRGB(h, s, v uint8) color.RGBA {
	if s == 0 {
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}
	region := h / 43
	rem := uint32(h-region*43) * 6

	p := uint8(uint32(v) * uint32(255-s) >> 8)
	q := uint8(uint32(v) * (255 - (uint32(s)*rem)>>8) >> 8)
	t := uint8(uint32(v) * (255 - (uint32(s)*(255-rem))>>8) >> 8)

	switch region {
	case 0:
		return color.RGBA{R: v, G: t, B: p, A: 255}
	case 1:
		return color.RGBA{R: q, G: v, B: p, A: 255}
	case 2:
		return color.RGBA{R: p, G: v, B: t, A: 255}
	case 3:
		return color.RGBA{R: p, G: q, B: v, A: 255}
	case 4:
		return color.RGBA{R: t, G: p, B: v, A: 255}
	default:
		return color.RGBA{R: v, G: p, B: q, A: 255}
	}
}
