//go:build !(rp2040 || rp2350)

package display

import (
	"image/color"

	"inputcode-go/types"
)

// discardStrip swallows frames on hosts with no LED hardware.
type discardStrip struct{}

func (discardStrip) WriteColors([]color.RGBA) error { return nil }

func openStrip(types.DisplayConfig) (Strip, error) {
	return discardStrip{}, nil
}
