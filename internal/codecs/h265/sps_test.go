package h265

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSPSUnmarshal(t *testing.T) {
	for _, ca := range []struct {
		name   string
		byts   []byte
		sps    SPS
		width  int
		height int
	}{
		{
			"1920x1080",
			[]byte{
				0x42, 0x01, 0x01, 0x01, 0x60, 0x00, 0x00, 0x03,
				0x00, 0x90, 0x00, 0x00, 0x03, 0x00, 0x00, 0x03,
				0x00, 0x78, 0xa0, 0x03, 0xc0, 0x80, 0x10, 0xe5,
				0x96, 0x66, 0x69, 0x24, 0xca, 0xe0, 0x10, 0x00,
				0x00, 0x03, 0x00, 0x10, 0x00, 0x00, 0x03, 0x01,
				0xe0, 0x80,
			},
			SPS{
				TemporalIDNestingFlag: true,
				ProfileTierLevel: ProfileTierLevel{
					ProfileIdc:                1,
					ProfileCompatibilityFlags: 0x60000000,
					ProgressiveSourceFlag:     true,
					FrameOnlyConstraintFlag:   true,
					LevelIdc:                  120,
				},
				ChromaFormatIdc:        1,
				PicWidthInLumaSamples:  1920,
				PicHeightInLumaSamples: 1080,
			},
			1920,
			1080,
		},
		{
			"1920x800",
			[]byte{
				0x42, 0x01, 0x01, 0x01, 0x60, 0x00, 0x00, 0x03,
				0x00, 0x90, 0x00, 0x00, 0x03, 0x00, 0x00, 0x03,
				0x00, 0x78, 0xa0, 0x03, 0xc0, 0x80, 0x32, 0x16,
				0x59, 0x59, 0xa4, 0x93, 0x2b, 0xc0, 0x5a, 0x80,
				0x80, 0x80, 0x82, 0x00, 0x00, 0x07, 0xd2, 0x00,
				0x00, 0xbb, 0x80, 0x10,
			},
			SPS{
				TemporalIDNestingFlag: true,
				ProfileTierLevel: ProfileTierLevel{
					ProfileIdc:                1,
					ProfileCompatibilityFlags: 0x60000000,
					ProgressiveSourceFlag:     true,
					FrameOnlyConstraintFlag:   true,
					LevelIdc:                  120,
				},
				ChromaFormatIdc:        1,
				PicWidthInLumaSamples:  1920,
				PicHeightInLumaSamples: 800,
			},
			1920,
			800,
		},
		{
			"conformance window",
			[]byte{
				0x42, 0x01, 0x01, 0x01, 0x60, 0x00, 0x00, 0x00,
				0x90, 0x00, 0x00, 0x00, 0x00, 0x00, 0x5D, 0xA0,
				0x03, 0xC0, 0x80, 0x10, 0xE6, 0x97,
			},
			SPS{
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
			1916,
			1080,
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			var sps SPS
			err := sps.Unmarshal(ca.byts)
			require.NoError(t, err)
			require.Equal(t, ca.sps, sps)
			require.Equal(t, ca.width, sps.Width())
			require.Equal(t, ca.height, sps.Height())
		})
	}
}

func TestSPSUnmarshalErrors(t *testing.T) {
	for _, ca := range []struct {
		name string
		byts []byte
		err  string
	}{
		{
			"empty",
			[]byte{},
			"not enough bits",
		},
		{
			"truncated",
			[]byte{0x42, 0x01, 0x01, 0x01, 0x60},
			"not enough bits",
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			var sps SPS
			err := sps.Unmarshal(ca.byts)
			require.EqualError(t, err, ca.err)
		})
	}
}
