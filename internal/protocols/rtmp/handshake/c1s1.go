package handshake

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"
)

const (
	c1s1Size     = 1536
	digestLength = 32

	// version field of server-generated S1 packets
	serverVersion = 0x01020304
)

// client message formats. Format 1 places the digest right after the
// 8-byte prefix, format 2 places it in the second half of the packet,
// format 0 carries no digest at all.
const (
	messageFormat0 = 0
	messageFormat1 = 1
	messageFormat2 = 2
)

var (
	randomCrud = []byte{
		0xF0, 0xEE, 0xC2, 0x4A, 0x80, 0x68, 0xBE, 0xE8,
		0x2E, 0x00, 0xD0, 0xD1, 0x02, 0x9E, 0x7E, 0x57,
		0x6E, 0xEC, 0x5D, 0x2D, 0x29, 0x80, 0x6F, 0xAB,
		0x93, 0xB8, 0xE6, 0x36, 0xCF, 0xEB, 0x31, 0xAE,
	}

	clientKey = []byte("Genuine Adobe Flash Player 001")
	serverKey = []byte("Genuine Adobe Flash Media Server 001")

	clientFullKey = append(append([]byte(nil), clientKey...), randomCrud...)
	serverFullKey = append(append([]byte(nil), serverKey...), randomCrud...)
)

func hmacSHA256(key []byte, msg []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(msg)
	return h.Sum(nil)
}

// makeDigest computes the HMAC of p with the digest hole at gap spliced out.
func makeDigest(key []byte, p []byte, gap int) []byte {
	h := hmac.New(sha256.New, key)
	if gap < 0 {
		h.Write(p)
	} else {
		h.Write(p[:gap])
		h.Write(p[gap+digestLength:])
	}
	return h.Sum(nil)
}

func digestOffset(p []byte, base int) int {
	pos := 0
	for i := 0; i < 4; i++ {
		pos += int(p[base+i])
	}
	return (pos % 728) + base + 4
}

func findDigest(p []byte, key []byte, base int) int {
	gap := digestOffset(p, base)
	digest := makeDigest(key, p, gap)
	if !bytes.Equal(p[gap:gap+digestLength], digest) {
		return -1
	}
	return gap
}

// C1S1 is a C1 or S1 packet.
type C1S1 struct {
	Time    uint32
	Version uint32
	Random  []byte // 1528 bytes
	Format  int    // message format detected by Read, used by Write
	Digest  []byte // digest found by Read or spliced in by Write
}

// Read reads a C1S1.
func (c *C1S1) Read(r io.Reader, isC1 bool) error {
	buf := make([]byte, c1s1Size)
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return err
	}

	c.Time = uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	c.Version = uint32(buf[4])<<24 | uint32(buf[5])<<16 | uint32(buf[6])<<8 | uint32(buf[7])
	c.Random = buf[8:]

	key := clientKey
	if !isC1 {
		key = serverKey
	}

	if pos := findDigest(buf, key, 772); pos >= 0 {
		c.Format = messageFormat2
		c.Digest = buf[pos : pos+digestLength]
	} else if pos := findDigest(buf, key, 8); pos >= 0 {
		c.Format = messageFormat1
		c.Digest = buf[pos : pos+digestLength]
	} else {
		c.Format = messageFormat0
	}

	return nil
}

// Write writes a C1S1.
func (c *C1S1) Write(w io.Writer, isC1 bool) error {
	buf := make([]byte, c1s1Size)

	buf[0] = byte(c.Time >> 24)
	buf[1] = byte(c.Time >> 16)
	buf[2] = byte(c.Time >> 8)
	buf[3] = byte(c.Time)
	buf[4] = byte(c.Version >> 24)
	buf[5] = byte(c.Version >> 16)
	buf[6] = byte(c.Version >> 8)
	buf[7] = byte(c.Version)

	if c.Random == nil {
		_, err := rand.Read(buf[8:])
		if err != nil {
			return err
		}
	} else {
		copy(buf[8:], c.Random)
	}

	if c.Format != messageFormat0 {
		base := 8
		if c.Format == messageFormat2 {
			base = 772
		}

		key := serverKey
		if isC1 {
			key = clientKey
		}

		gap := digestOffset(buf, base)
		copy(buf[gap:], makeDigest(key, buf, gap))
		c.Digest = buf[gap : gap+digestLength]
	}

	_, err := w.Write(buf)
	return err
}
