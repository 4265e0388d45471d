package h265

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testConfig = []byte{
	0x01, 0x01, 0x60, 0x00, 0x00, 0x00, 0x90, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x5D, 0xF0, 0x00, 0xFC,
	0xFD, 0xF8, 0xF8, 0x00, 0x00, 0x0F, 0x01, 0xA1,
	0x00, 0x01, 0x00, 0x16, 0x42, 0x01, 0x01, 0x01,
	0x60, 0x00, 0x00, 0x00, 0x90, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x5D, 0xA0, 0x03, 0xC0, 0x80, 0x10,
	0xE6, 0x97,
}

func TestConfigUnmarshal(t *testing.T) {
	var conf Config
	err := conf.Unmarshal(testConfig)
	require.NoError(t, err)

	require.Equal(t, Config{
		GeneralProfileIdc:                1,
		GeneralProfileCompatibilityFlags: 0x60000000,
		GeneralConstraintIndicatorFlags:  0x900000000000,
		GeneralLevelIdc:                  93,
		ChromaFormat:                     1,
		NumTemporalLayers:                1,
		TemporalIDNested:                 1,
		NALULengthSize:                   4,
		SPS: SPS{
			TemporalIDNestingFlag: true,
			ProfileTierLevel: ProfileTierLevel{
				ProfileIdc:                1,
				ProfileCompatibilityFlags: 0x60000000,
				ProgressiveSourceFlag:     true,
				FrameOnlyConstraintFlag:   true,
				LevelIdc:                  93,
			},
			ChromaFormatIdc:        1,
			PicWidthInLumaSamples:  1920,
			PicHeightInLumaSamples: 1080,
			ConfWinLeftOffset:      1,
			ConfWinRightOffset:     1,
		},
	}, conf)

	require.Equal(t, 1916, conf.Width())
	require.Equal(t, 1080, conf.Height())
	require.Equal(t, 3.1, conf.Level())
	require.Equal(t, "Main", conf.ProfileName())
}

func TestConfigUnmarshalErrors(t *testing.T) {
	for _, ca := range []struct {
		name string
		byts []byte
		err  string
	}{
		{
			"empty",
			[]byte{},
			"invalid HEVC configuration record",
		},
		{
			"wrong version",
			[]byte{
				0x02, 0x01, 0x60, 0x00, 0x00, 0x00, 0x90, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x5D, 0xF0, 0x00, 0xFC,
				0xFD, 0xF8, 0xF8, 0x00, 0x00, 0x0F, 0x00,
			},
			"unsupported configuration version (2)",
		},
		{
			"no SPS",
			[]byte{
				0x01, 0x01, 0x60, 0x00, 0x00, 0x00, 0x90, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x5D, 0xF0, 0x00, 0xFC,
				0xFD, 0xF8, 0xF8, 0x00, 0x00, 0x0F, 0x00,
			},
			"no SPS in configuration record",
		},
		{
			"truncated NALU",
			[]byte{
				0x01, 0x01, 0x60, 0x00, 0x00, 0x00, 0x90, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x5D, 0xF0, 0x00, 0xFC,
				0xFD, 0xF8, 0xF8, 0x00, 0x00, 0x0F, 0x01, 0xA1,
				0x00, 0x01, 0x00, 0x16, 0x42, 0x01,
			},
			"invalid HEVC configuration record",
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			var conf Config
			err := conf.Unmarshal(ca.byts)
			require.EqualError(t, err, ca.err)
		})
	}
}
