//go:build !(rp2040 || rp2350)

package bridge

import (
	"context"
	"io"

	"github.com/tarm/serial"

	"inputcode-go/errcode"
	"inputcode-go/types"
)

const defaultBaud = 115200

// serialTransport writes event lines to a host serial device (USB CDC or a
// real UART exposed by the OS).
type serialTransport struct {
	device string
	baud   int
}

func init() {
	RegisterTransport("serial", func(cfg types.BridgeConfig) (Transport, error) {
		if cfg.Device == "" {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "bridge.serial", Msg: "device path required"}
		}
		baud := cfg.Baud
		if baud <= 0 {
			baud = defaultBaud
		}
		return &serialTransport{device: cfg.Device, baud: baud}, nil
	})
}

func (t *serialTransport) String() string { return "serial:" + t.device }

func (t *serialTransport) Open(context.Context) (io.WriteCloser, error) {
	port, err := serial.OpenPort(&serial.Config{Name: t.device, Baud: t.baud})
	if err != nil {
		return nil, &errcode.E{C: errcode.LinkFailed, Op: "bridge.serial", Err: err}
	}
	return port, nil
}
