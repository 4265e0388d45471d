package h265

import (
	"fmt"
)

// NALUTypeSPS is the NAL unit type of a sequence parameter set.
const NALUTypeSPS = 33

// Config is an HEVCDecoderConfigurationRecord.
type Config struct {
	GeneralProfileSpace              uint8
	GeneralTierFlag                  uint8
	GeneralProfileIdc                uint8
	GeneralProfileCompatibilityFlags uint32
	GeneralConstraintIndicatorFlags  uint64
	GeneralLevelIdc                  uint8
	MinSpatialSegmentationIdc        uint16
	ParallelismType                  uint8
	ChromaFormat                     uint8
	BitDepthLumaMinus8               uint8
	BitDepthChromaMinus8             uint8
	AvgFrameRate                     uint16
	ConstantFrameRate                uint8
	NumTemporalLayers                uint8
	TemporalIDNested                 uint8
	NALULengthSize                   int
	SPS                              SPS
}

// Unmarshal decodes an HEVCDecoderConfigurationRecord
// and the first sequence parameter set inside it.
func (c *Config) Unmarshal(buf []byte) error {
	if len(buf) < 23 {
		return fmt.Errorf("invalid HEVC configuration record")
	}

	if buf[0] != 1 {
		return fmt.Errorf("unsupported configuration version (%d)", buf[0])
	}

	c.GeneralProfileSpace = (buf[1] >> 6) & 0x03
	c.GeneralTierFlag = (buf[1] >> 5) & 0x01
	c.GeneralProfileIdc = buf[1] & 0x1F
	c.GeneralProfileCompatibilityFlags = uint32(buf[2])<<24 | uint32(buf[3])<<16 |
		uint32(buf[4])<<8 | uint32(buf[5])
	c.GeneralConstraintIndicatorFlags = uint64(buf[6])<<40 | uint64(buf[7])<<32 |
		uint64(buf[8])<<24 | uint64(buf[9])<<16 | uint64(buf[10])<<8 | uint64(buf[11])
	c.GeneralLevelIdc = buf[12]
	c.MinSpatialSegmentationIdc = uint16(buf[13]&0x0F)<<8 | uint16(buf[14])
	c.ParallelismType = buf[15] & 0x03
	c.ChromaFormat = buf[16] & 0x03
	c.BitDepthLumaMinus8 = buf[17] & 0x07
	c.BitDepthChromaMinus8 = buf[18] & 0x07
	c.AvgFrameRate = uint16(buf[19])<<8 | uint16(buf[20])
	c.ConstantFrameRate = (buf[21] >> 6) & 0x03
	c.NumTemporalLayers = (buf[21] >> 3) & 0x07
	c.TemporalIDNested = (buf[21] >> 2) & 0x01
	c.NALULengthSize = int(buf[21]&0x03) + 1

	numArrays := int(buf[22])
	p := buf[23:]
	spsFound := false

	for i := 0; i < numArrays; i++ {
		if len(p) < 3 {
			break
		}

		naluType := p[0] & 0x3F
		count := int(p[1])<<8 | int(p[2])
		p = p[3:]

		for j := 0; j < count; j++ {
			if len(p) < 2 {
				return fmt.Errorf("invalid HEVC configuration record")
			}

			size := int(p[0])<<8 | int(p[1])
			p = p[2:]

			if len(p) < size {
				return fmt.Errorf("invalid HEVC configuration record")
			}

			if naluType == NALUTypeSPS && !spsFound {
				err := c.SPS.Unmarshal(p[:size])
				if err != nil {
					return err
				}
				spsFound = true
			}

			p = p[size:]
		}
	}

	if !spsFound {
		return fmt.Errorf("no SPS in configuration record")
	}

	return nil
}

// Width returns the video width.
func (c Config) Width() int {
	return c.SPS.Width()
}

// Height returns the video height.
func (c Config) Height() int {
	return c.SPS.Height()
}

// Level returns the video level.
func (c Config) Level() float64 {
	return float64(c.GeneralLevelIdc) / 30
}

// ProfileName returns a human-readable label of the H265 profile.
func (c Config) ProfileName() string {
	switch c.GeneralProfileIdc {
	case 1:
		return "Main"
	case 2:
		return "Main 10"
	case 3:
		return "Main Still Picture"
	}
	return ""
}
