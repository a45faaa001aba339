package bridge

import (
	"context"
	"io"
	"os"

	"inputcode-go/types"
)

// stdoutTransport prints event lines to standard output. Always available;
// the default on hosts.
type stdoutTransport struct{}

func init() {
	RegisterTransport("stdout", func(types.BridgeConfig) (Transport, error) {
		return stdoutTransport{}, nil
	})
}

func (stdoutTransport) String() string { return "stdout" }

func (stdoutTransport) Open(context.Context) (io.WriteCloser, error) {
	return nopCloser{os.Stdout}, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
