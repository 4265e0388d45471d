package av1

import (
	"fmt"
)

// OBUTypeSequenceHeader is the OBU type of a sequence header.
const OBUTypeSequenceHeader = 1

func leb128(buf []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < 8; i++ {
		if i >= len(buf) {
			return 0, 0, fmt.Errorf("invalid LEB128 value")
		}
		b := buf[i]
		v |= uint64(b&0x7F) << (i * 7)
		if (b & 0x80) == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("invalid LEB128 value")
}

// Config is an AV1CodecConfigurationRecord.
type Config struct {
	SeqProfile           uint8
	SeqLevelIdx0         uint8
	SeqTier0             uint8
	HighBitdepth         bool
	TwelveBit            bool
	Monochrome           bool
	ChromaSubsamplingX   bool
	ChromaSubsamplingY   bool
	ChromaSamplePosition uint8
	SequenceHeader       SequenceHeader
}

// Unmarshal decodes an AV1CodecConfigurationRecord
// and the sequence header OBU inside it.
func (c *Config) Unmarshal(buf []byte) error {
	if len(buf) < 4 {
		return fmt.Errorf("invalid AV1 configuration record")
	}

	if (buf[0] >> 7) != 1 {
		return fmt.Errorf("marker not set")
	}

	if v := buf[0] & 0x7F; v != 1 {
		return fmt.Errorf("unsupported configuration version (%d)", v)
	}

	c.SeqProfile = buf[1] >> 5
	c.SeqLevelIdx0 = buf[1] & 0x1F
	c.SeqTier0 = buf[2] >> 7
	c.HighBitdepth = ((buf[2] >> 6) & 0x01) != 0
	c.TwelveBit = ((buf[2] >> 5) & 0x01) != 0
	c.Monochrome = ((buf[2] >> 4) & 0x01) != 0
	c.ChromaSubsamplingX = ((buf[2] >> 3) & 0x01) != 0
	c.ChromaSubsamplingY = ((buf[2] >> 2) & 0x01) != 0
	c.ChromaSamplePosition = buf[2] & 0x03

	obus := buf[4:]

	for len(obus) > 0 {
		obuType := (obus[0] >> 3) & 0x0F
		extensionFlag := (obus[0]>>2)&0x01 != 0
		hasSizeField := (obus[0]>>1)&0x01 != 0

		pos := 1
		if extensionFlag {
			if len(obus) < 2 {
				return fmt.Errorf("invalid OBU header")
			}
			pos++
		}

		size := len(obus) - pos
		if hasSizeField {
			v, n, err := leb128(obus[pos:])
			if err != nil {
				return err
			}
			pos += n
			size = int(v)
			if size > len(obus)-pos {
				return fmt.Errorf("invalid OBU size")
			}
		}

		if obuType == OBUTypeSequenceHeader {
			return c.SequenceHeader.Unmarshal(obus[pos : pos+size])
		}

		obus = obus[pos+size:]
	}

	return fmt.Errorf("no sequence header in configuration record")
}

// Width returns the video width.
func (c Config) Width() int {
	return c.SequenceHeader.Width()
}

// Height returns the video height.
func (c Config) Height() int {
	return c.SequenceHeader.Height()
}

// Level returns the video level.
func (c Config) Level() float64 {
	return float64(c.SequenceHeader.SeqLevelIdx) / 8
}

// ProfileName returns a human-readable label of the AV1 profile.
func (c Config) ProfileName() string {
	switch c.SeqProfile {
	case 0:
		return "Main"
	case 1:
		return "High"
	case 2:
		return "Professional"
	}
	return ""
}
