package chunk

import (
	"io"
)

// Chunk2 is a type 2 chunk.
// Neither the stream ID nor the
// message length is included; this chunk has the same stream ID and
// message length as the preceding chunk.
type Chunk2 struct {
	ChunkStreamID  uint32
	TimestampDelta uint32
	Body           []byte
}

// Read reads the chunk.
func (c *Chunk2) Read(r io.Reader, bodyLen uint32, _ bool) error {
	var err error
	c.ChunkStreamID, err = readBasicHeader(r)
	if err != nil {
		return err
	}

	header := make([]byte, 4)
	_, err = io.ReadFull(r, header[:3])
	if err != nil {
		return err
	}

	c.TimestampDelta = uint32(header[0])<<16 | uint32(header[1])<<8 | uint32(header[2])

	if c.TimestampDelta >= 0xFFFFFF {
		_, err = io.ReadFull(r, header[:4])
		if err != nil {
			return err
		}

		c.TimestampDelta = uint32(header[0])<<24 | uint32(header[1])<<16 | uint32(header[2])<<8 | uint32(header[3])
	}

	c.Body = make([]byte, bodyLen)
	_, err = io.ReadFull(r, c.Body)
	return err
}

func (c Chunk2) marshalSize() int {
	n := basicHeaderSize(c.ChunkStreamID) + 3 + len(c.Body)
	if c.TimestampDelta >= 0xFFFFFF {
		n += 4
	}
	return n
}

// Marshal writes the chunk.
func (c Chunk2) Marshal(_ bool) ([]byte, error) {
	buf := make([]byte, c.marshalSize())
	n := writeBasicHeader(buf, 2, c.ChunkStreamID)

	if c.TimestampDelta >= 0xFFFFFF {
		buf[n] = 0xFF
		buf[n+1] = 0xFF
		buf[n+2] = 0xFF
		buf[n+3] = byte(c.TimestampDelta >> 24)
		buf[n+4] = byte(c.TimestampDelta >> 16)
		buf[n+5] = byte(c.TimestampDelta >> 8)
		buf[n+6] = byte(c.TimestampDelta)
		n += 7
	} else {
		buf[n] = byte(c.TimestampDelta >> 16)
		buf[n+1] = byte(c.TimestampDelta >> 8)
		buf[n+2] = byte(c.TimestampDelta)
		n += 3
	}

	copy(buf[n:], c.Body)

	return buf, nil
}
