package main

import (
	"context"
	"time"

	"inputcode-go/bus"
	"inputcode-go/services/bridge"
	"inputcode-go/services/display"
	"inputcode-go/services/inputs"
	"inputcode-go/types"
)

// Demo wiring: eight debounced switches feeding the LED panel and the event
// bridge. Pin numbers match the dev board's front-panel header.
var panelPins = []int{5, 6, 7, 8, 9, 10, 20, 21}

func main() {
	time.Sleep(3 * time.Second)
	ctx := context.Background()

	println("[main] bootstrapping bus ...")
	b := bus.NewBus(8)
	inputsConn := b.NewConnection("inputs")
	displayConn := b.NewConnection("display")
	bridgeConn := b.NewConnection("bridge")
	uiConn := b.NewConnection("ui")

	println("[main] subscribing to input/# for diagnostics ...")
	mon := uiConn.Subscribe(bus.T("input", "#"))
	go func() {
		for m := range mon.Channel() {
			println("[monitor] <-", m.Topic.String())
		}
	}()

	println("[main] starting services ...")
	go inputs.Run(ctx, inputsConn)
	go display.Run(ctx, displayConn)
	go bridge.Run(ctx, bridgeConn)

	pins := make([]types.InputPin, 0, len(panelPins))
	for _, p := range panelPins {
		pins = append(pins, types.InputPin{
			Pin:        p,
			Mode:       "switch",
			Pull:       "up",
			Interrupts: true,
		})
	}

	println("[main] publishing config/inputs ...")
	uiConn.Publish(uiConn.NewMessage(bus.T("config", "inputs"), types.InputsConfig{
		PollMs: 2,
		Pins:   pins,
	}, true))

	println("[main] publishing config/display ...")
	uiConn.Publish(uiConn.NewMessage(bus.T("config", "display"), types.DisplayConfig{
		Pin:     0,
		Pixels:  2,
		FrameMs: 16,
		Bits:    panelPins,
	}, true))

	println("[main] publishing config/bridge ...")
	uiConn.Publish(uiConn.NewMessage(bus.T("config", "bridge"), types.BridgeConfig{
		Transport: bridge.DefaultTransport,
	}, true))

	select {}
}
