package h264

import (
	"fmt"
)

// Config is an AVCDecoderConfigurationRecord.
type Config struct {
	ProfileIdc     uint8
	Compatibility  uint8
	LevelIdc       uint8
	NALULengthSize int
	SPS            SPS
}

// Unmarshal decodes an AVCDecoderConfigurationRecord
// and the first sequence parameter set inside it.
func (c *Config) Unmarshal(buf []byte) error {
	if len(buf) < 8 {
		return fmt.Errorf("invalid AVC configuration record")
	}

	c.ProfileIdc = buf[1]
	c.Compatibility = buf[2]
	c.LevelIdc = buf[3]
	c.NALULengthSize = int(buf[4]&0x03) + 1

	if (buf[5] & 0x1F) == 0 {
		return fmt.Errorf("no SPS in configuration record")
	}

	n := int(buf[6])<<8 | int(buf[7])
	if len(buf) < 8+n {
		return fmt.Errorf("invalid AVC configuration record")
	}

	return c.SPS.Unmarshal(buf[8 : 8+n])
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
	return c.SPS.Level()
}

// ProfileName returns a human-readable label of the H264 profile.
func (c Config) ProfileName() string {
	switch c.ProfileIdc {
	case 66:
		return "Baseline"
	case 77:
		return "Main"
	case 100:
		return "High"
	}
	return ""
}
