package av1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequenceHeaderUnmarshal(t *testing.T) {
	for _, ca := range []struct {
		name string
		byts []byte
		sh   SequenceHeader
	}{
		{
			"operating points",
			[]byte{0x00, 0x00, 0x00, 0x42, 0xAB, 0xBF, 0xC3, 0x70},
			SequenceHeader{
				SeqLevelIdx:           8,
				FrameWidthBitsMinus1:  10,
				FrameHeightBitsMinus1: 10,
				MaxFrameWidthMinus1:   1919,
				MaxFrameHeightMinus1:  1079,
			},
		},
		{
			"reduced still picture",
			[]byte{0x0A, 0x2A, 0xBB, 0xFC, 0x37},
			SequenceHeader{
				ReducedStillPictureHeader: true,
				SeqLevelIdx:               8,
				FrameWidthBitsMinus1:      10,
				FrameHeightBitsMinus1:     10,
				MaxFrameWidthMinus1:       1919,
				MaxFrameHeightMinus1:      1079,
			},
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			var sh SequenceHeader
			err := sh.Unmarshal(ca.byts)
			require.NoError(t, err)
			require.Equal(t, ca.sh, sh)
			require.Equal(t, 1920, sh.Width())
			require.Equal(t, 1080, sh.Height())
		})
	}
}

func TestSequenceHeaderUnmarshalErrors(t *testing.T) {
	var sh SequenceHeader
	err := sh.Unmarshal([]byte{0x0A})
	require.EqualError(t, err, "not enough bits")
}
