// Package handshake contains the RTMP handshake mechanism.
package handshake

import (
	"fmt"
	"io"
)

// DoServer performs the server side of a handshake. The client message
// format is detected from the digest inside C1; when no digest is found,
// the plain handshake is used and C1 is echoed back as both S1 and S2.
func DoServer(rw io.ReadWriter) error {
	c0 := C0S0{}
	err := c0.Read(rw)
	if err != nil {
		return err
	}

	c1 := C1S1{}
	err = c1.Read(rw, true)
	if err != nil {
		return err
	}

	err = C0S0{}.Write(rw)
	if err != nil {
		return err
	}

	if c1.Format == messageFormat0 {
		echo := C1S1{
			Time:    c1.Time,
			Version: c1.Version,
			Random:  c1.Random,
		}

		err = echo.Write(rw, false)
		if err != nil {
			return err
		}

		err = echo.Write(rw, false)
		if err != nil {
			return err
		}
	} else {
		s1 := C1S1{
			Version: serverVersion,
			Format:  c1.Format,
		}

		err = s1.Write(rw, false)
		if err != nil {
			return err
		}

		s2 := C2S2{}
		err = s2.Write(rw, true, c1.Digest)
		if err != nil {
			return err
		}
	}

	// C2 is read and discarded
	c2 := C2S2{}
	return c2.Read(rw)
}

// DoClient performs the client side of a handshake.
func DoClient(rw io.ReadWriter, validateSignature bool) error {
	err := C0S0{}.Write(rw)
	if err != nil {
		return err
	}

	c1 := C1S1{
		Format: messageFormat1,
	}
	err = c1.Write(rw, true)
	if err != nil {
		return err
	}

	s0 := C0S0{}
	err = s0.Read(rw)
	if err != nil {
		return err
	}

	s1 := C1S1{}
	err = s1.Read(rw, false)
	if err != nil {
		return err
	}

	if validateSignature && s1.Format == messageFormat0 {
		return fmt.Errorf("unable to validate S1 signature")
	}

	s2 := C2S2{}
	err = s2.Read(rw)
	if err != nil {
		return err
	}

	if validateSignature {
		err = s2.validate(true, c1.Digest)
		if err != nil {
			return err
		}
	}

	if s1.Format != messageFormat0 {
		c2 := C2S2{}
		return c2.Write(rw, false, s1.Digest)
	}

	echo := C1S1{
		Time:    s1.Time,
		Version: s1.Version,
		Random:  s1.Random,
	}
	return echo.Write(rw, true)
}
