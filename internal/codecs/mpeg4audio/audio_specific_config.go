package mpeg4audio

import (
	"fmt"

	"github.com/masterstream/masterstream/internal/codecs/bits"
)

// AudioSpecificConfig is a MPEG-4 AudioSpecificConfig as defined in ISO 14496-3.
type AudioSpecificConfig struct {
	Type         ObjectType
	SampleRate   int
	ChannelCount int

	// set when the object type signals an SBR / PS extension (5 or 29);
	// in that case Type and SampleRate hold the values re-read after the
	// extension and ExtensionType is 5.
	ExtensionType ObjectType
	SBR           bool
	PS            bool
}

func readObjectType(r *bits.Reader) ObjectType {
	v := r.Read(5)
	if v == 31 {
		v = r.Read(6) + 32
	}
	return ObjectType(v)
}

func readSampleRate(r *bits.Reader) int {
	i := r.Read(4)
	if i == 0x0F {
		return int(r.Read(24))
	}
	return sampleRates[i]
}

// Unmarshal decodes an AudioSpecificConfig.
func (c *AudioSpecificConfig) Unmarshal(buf []byte) error {
	r := bits.NewReader(buf)

	c.Type = readObjectType(r)
	c.SampleRate = readSampleRate(r)

	channelConfig := r.Read(4)
	if channelConfig >= uint64(len(channelCounts)) {
		return fmt.Errorf("invalid channel configuration (%d)", channelConfig)
	}
	c.ChannelCount = channelCounts[channelConfig]

	if c.Type == ObjectTypeSBR || c.Type == ObjectTypePS {
		if c.Type == ObjectTypePS {
			c.PS = true
		}
		c.ExtensionType = ObjectTypeSBR
		c.SBR = true
		c.SampleRate = readSampleRate(r)
		c.Type = readObjectType(r)
	}

	return r.Err()
}

// ProfileString returns a human-readable label of the AAC profile.
func (c AudioSpecificConfig) ProfileString() string {
	switch c.Type {
	case ObjectTypeAACMain:
		return "Main"

	case ObjectTypeAACLC:
		switch {
		case c.PS:
			return "HEv2"
		case c.SBR:
			return "HE"
		}
		return "LC"

	case ObjectTypeAACSSR:
		return "SSR"

	case ObjectTypeAACLTP:
		return "LTP"

	case ObjectTypeSBR:
		return "SBR"
	}
	return ""
}
