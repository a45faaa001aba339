// Public, bus-facing types shared by services and bootstraps.
package types

// InputsConfig configures the inputs service ({"config","inputs"}).
type InputsConfig struct {
	PollMs int        `json:"poll_ms,omitempty"` // evaluation cadence, default 2
	Pins   []InputPin `json:"pins"`
}

// InputPin declares one debounced input line.
type InputPin struct {
	Pin        int    `json:"pin"`
	Mode       string `json:"mode"`           // "switch" | "button"
	Pull       string `json:"pull,omitempty"` // "up" (default) | "down" | "none"
	Interrupts bool   `json:"interrupts"`
}

// InputEvent is one confirmed transition, published on
// {"input","event",<pin>} and exported verbatim by the bridge.
type InputEvent struct {
	Pin   int    `json:"pin"`
	Event string `json:"event"` // "on" | "off" | "pressed" | "released"
	TSms  int64  `json:"ts_ms"`
}

// ServiceState is the retained {<service>,"state"} payload.
type ServiceState struct {
	Level  string `json:"level"` // "idle" | "ready" | "degraded" | "error" | "stopped"
	Status string `json:"status,omitempty"`
	TSms   int64  `json:"ts_ms"`
}

// DisplayConfig configures the display service ({"config","display"}).
type DisplayConfig struct {
	Pin     int   `json:"pin"`                // strip data pin
	Pixels  int   `json:"pixels"`             // strip length
	FrameMs int   `json:"frame_ms,omitempty"` // frame cadence, default 16
	Bits    []int `json:"bits"`               // Bits[i] = pin driving mask bit i
}

// BridgeConfig configures the bridge service ({"config","bridge"}).
type BridgeConfig struct {
	Transport string `json:"transport"` // "stdout" | "serial" | "mqtt" | "uart"
	Device    string `json:"device,omitempty"` // serial device path
	Baud      int    `json:"baud,omitempty"`
	TxPin     int    `json:"tx_pin,omitempty"` // uart transport
	RxPin     int    `json:"rx_pin,omitempty"`
	Broker    string `json:"broker,omitempty"` // mqtt url
	Topic     string `json:"topic,omitempty"`  // mqtt topic
}
