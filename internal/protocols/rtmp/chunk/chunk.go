// Package chunk implements RTMP chunks.
package chunk

import (
	"io"
)

// Chunk is a chunk.
type Chunk interface {
	Read(r io.Reader, bodyLen uint32, hasExtendedTimestamp bool) error
	Marshal(hasExtendedTimestamp bool) ([]byte, error)
}

// readBasicHeader reads the basic header, which encodes the chunk
// stream ID in one, two or three bytes.
func readBasicHeader(r io.Reader) (uint32, error) {
	var buf [2]byte

	_, err := io.ReadFull(r, buf[:1])
	if err != nil {
		return 0, err
	}

	switch buf[0] & 0x3F {
	case 0:
		_, err = io.ReadFull(r, buf[:1])
		if err != nil {
			return 0, err
		}

		return 64 + uint32(buf[0]), nil

	case 1:
		_, err = io.ReadFull(r, buf[:2])
		if err != nil {
			return 0, err
		}

		return 64 + uint32(buf[0]) + uint32(buf[1])*256, nil

	default:
		return uint32(buf[0] & 0x3F), nil
	}
}

func basicHeaderSize(chunkStreamID uint32) int {
	switch {
	case chunkStreamID >= 320:
		return 3

	case chunkStreamID >= 64:
		return 2

	default:
		return 1
	}
}

func writeBasicHeader(buf []byte, typ byte, chunkStreamID uint32) int {
	switch {
	case chunkStreamID >= 320:
		buf[0] = typ<<6 | 1
		buf[1] = byte(chunkStreamID - 64)
		buf[2] = byte((chunkStreamID - 64) >> 8)
		return 3

	case chunkStreamID >= 64:
		buf[0] = typ << 6
		buf[1] = byte(chunkStreamID - 64)
		return 2

	default:
		buf[0] = typ<<6 | byte(chunkStreamID)
		return 1
	}
}
