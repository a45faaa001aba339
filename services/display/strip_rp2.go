//go:build rp2040 || rp2350

package display

import (
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"inputcode-go/types"
)

func openStrip(cfg types.DisplayConfig) (Strip, error) {
	pin := machine.Pin(cfg.Pin)
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	dev := ws2812.New(pin)
	return &dev, nil
}
