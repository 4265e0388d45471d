package av1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testConfig = []byte{
	0x81, 0x08, 0x0C, 0x00, 0x0A, 0x08, 0x00, 0x00,
	0x00, 0x42, 0xAB, 0xBF, 0xC3, 0x70,
}

func TestConfigUnmarshal(t *testing.T) {
	var conf Config
	err := conf.Unmarshal(testConfig)
	require.NoError(t, err)

	require.Equal(t, Config{
		SeqLevelIdx0:       8,
		ChromaSubsamplingX: true,
		ChromaSubsamplingY: true,
		SequenceHeader: SequenceHeader{
			SeqLevelIdx:           8,
			FrameWidthBitsMinus1:  10,
			FrameHeightBitsMinus1: 10,
			MaxFrameWidthMinus1:   1919,
			MaxFrameHeightMinus1:  1079,
		},
	}, conf)

	require.Equal(t, 1920, conf.Width())
	require.Equal(t, 1080, conf.Height())
	require.Equal(t, float64(1), conf.Level())
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
			"invalid AV1 configuration record",
		},
		{
			"marker not set",
			[]byte{0x01, 0x08, 0x0C, 0x00},
			"marker not set",
		},
		{
			"wrong version",
			[]byte{0x82, 0x08, 0x0C, 0x00},
			"unsupported configuration version (2)",
		},
		{
			"no sequence header",
			[]byte{0x81, 0x08, 0x0C, 0x00},
			"no sequence header in configuration record",
		},
		{
			"OBU size beyond buffer",
			[]byte{0x81, 0x08, 0x0C, 0x00, 0x0A, 0x20, 0x00},
			"invalid OBU size",
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			var conf Config
			err := conf.Unmarshal(ca.byts)
			require.EqualError(t, err, ca.err)
		})
	}
}
