package handshake

import (
	"fmt"
	"io"
)

const (
	rtmpVersion          = 3
	rtmpVersionEncrypted = 6
)

// C0S0 is a C0 or S0 packet.
type C0S0 struct {
	Version byte
}

// Read reads a C0S0.
func (c *C0S0) Read(r io.Reader) error {
	buf := make([]byte, 1)
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return err
	}

	if buf[0] != rtmpVersion && buf[0] != rtmpVersionEncrypted {
		return fmt.Errorf("invalid RTMP version (%d)", buf[0])
	}

	c.Version = buf[0]

	return nil
}

// Write writes a C0S0.
func (C0S0) Write(w io.Writer) error {
	_, err := w.Write([]byte{rtmpVersion})
	return err
}
