//go:build !(rp2040 || rp2350)

package bridge

// DefaultTransport is what callers use when no deployment-specific transport
// is configured.
const DefaultTransport = "stdout"
