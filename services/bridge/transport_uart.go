//go:build rp2040 || rp2350

package bridge

import (
	"context"
	"io"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"inputcode-go/errcode"
	"inputcode-go/types"
)

// uartTransport writes event lines on a hardware UART. BridgeConfig.Device
// selects "uart0" or "uart1"; TxPin/RxPin are RP2 pad numbers.
type uartTransport struct {
	cfg types.BridgeConfig
}

func init() {
	RegisterTransport("uart", func(cfg types.BridgeConfig) (Transport, error) {
		return &uartTransport{cfg: cfg}, nil
	})
}

func (t *uartTransport) String() string { return "uart:" + t.cfg.Device }

func (t *uartTransport) Open(context.Context) (io.WriteCloser, error) {
	var hw *uartx.UART
	switch t.cfg.Device {
	case "", "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "bridge.uart", Msg: t.cfg.Device}
	}
	// Defaults inside uartx apply for zero baud/pins.
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: uint32(t.cfg.Baud),
		TX:       machine.Pin(t.cfg.TxPin),
		RX:       machine.Pin(t.cfg.RxPin),
	}); err != nil {
		return nil, &errcode.E{C: errcode.LinkFailed, Op: "bridge.uart", Err: err}
	}
	return &uartLink{u: hw}, nil
}

type uartLink struct {
	u *uartx.UART
}

func (l *uartLink) Write(p []byte) (int, error) { return l.u.Write(p) }

// The UART peripheral stays configured; Close only detaches the link.
func (l *uartLink) Close() error { return nil }
