package handshake

import (
	"crypto/hmac"
	"crypto/rand"
	"fmt"
	"io"
)

const (
	c2s2Size      = c1s1Size
	c2s2DigestPos = c2s2Size - digestLength
)

// C2S2 is a C2 or S2 packet in digest form: random bytes followed by a
// signature keyed on the digest of the peer's C1 or S1.
type C2S2 struct {
	Random []byte // 1504 bytes
	Digest []byte // 32 bytes
}

// Read reads a C2S2.
func (c *C2S2) Read(r io.Reader) error {
	buf := make([]byte, c2s2Size)
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return err
	}

	c.Random = buf[:c2s2DigestPos]
	c.Digest = buf[c2s2DigestPos:]

	return nil
}

func signature(isS2 bool, challenge []byte, random []byte) []byte {
	key := clientFullKey
	if isS2 {
		key = serverFullKey
	}
	return hmacSHA256(hmacSHA256(key, challenge), random)
}

func (c C2S2) validate(isS2 bool, challenge []byte) error {
	if !hmac.Equal(c.Digest, signature(isS2, challenge, c.Random)) {
		return fmt.Errorf("unable to validate C2/S2 signature")
	}
	return nil
}

// Write writes a C2S2, signing it with the digest extracted from the
// peer's challenge packet.
func (c *C2S2) Write(w io.Writer, isS2 bool, challenge []byte) error {
	if c.Random == nil {
		c.Random = make([]byte, c2s2DigestPos)
		_, err := rand.Read(c.Random)
		if err != nil {
			return err
		}
	}

	c.Digest = signature(isS2, challenge, c.Random)

	buf := make([]byte, c2s2Size)
	copy(buf, c.Random)
	copy(buf[c2s2DigestPos:], c.Digest)

	_, err := w.Write(buf)
	return err
}
