package amf0

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var cases = []struct {
	name string
	enc  []byte
	dec  Data
}{
	{
		"number",
		[]byte{0x00, 0x40, 0x14, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		Data{float64(5)},
	},
	{
		"boolean",
		[]byte{0x01, 0x01},
		Data{true},
	},
	{
		"string",
		[]byte{0x02, 0x00, 0x03, 0x61, 0x62, 0x63},
		Data{"abc"},
	},
	{
		"object",
		[]byte{
			0x03,
			0x00, 0x03, 0x61, 0x70, 0x70,
			0x02, 0x00, 0x04, 0x6C, 0x69, 0x76, 0x65,
			0x00, 0x00, 0x09,
		},
		Data{Object{
			{Key: "app", Value: "live"},
		}},
	},
	{
		"null",
		[]byte{0x05},
		Data{nil},
	},
	{
		"undefined",
		[]byte{0x06},
		Data{Undefined{}},
	},
	{
		"ecma array",
		[]byte{
			0x08,
			0x00, 0x00, 0x00, 0x01,
			0x00, 0x05, 0x77, 0x69, 0x64, 0x74, 0x68,
			0x00, 0x40, 0x9E, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x09,
		},
		Data{ECMAArray{
			{Key: "width", Value: float64(1920)},
		}},
	},
	{
		"strict array",
		[]byte{
			0x0A,
			0x00, 0x00, 0x00, 0x02,
			0x00, 0x40, 0x3E, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x05,
		},
		Data{StrictArray{float64(30), nil}},
	},
	{
		"date",
		[]byte{0x0B, 0x42, 0x6D, 0x1A, 0x94, 0xA2, 0x00, 0x00, 0x00, 0x00, 0x00},
		Data{Date(1e12)},
	},
	{
		"multiple values",
		[]byte{
			0x02, 0x00, 0x07, 0x63, 0x6F, 0x6E, 0x6E, 0x65, 0x63, 0x74,
			0x00, 0x3F, 0xF0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x03,
			0x00, 0x03, 0x61, 0x70, 0x70,
			0x02, 0x00, 0x04, 0x6C, 0x69, 0x76, 0x65,
			0x00, 0x0E, 0x6F, 0x62, 0x6A, 0x65, 0x63, 0x74, 0x45, 0x6E,
			0x63, 0x6F, 0x64, 0x69, 0x6E, 0x67,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x09,
		},
		Data{
			"connect",
			float64(1),
			Object{
				{Key: "app", Value: "live"},
				{Key: "objectEncoding", Value: float64(0)},
			},
		},
	},
}

func TestUnmarshal(t *testing.T) {
	for _, ca := range cases {
		t.Run(ca.name, func(t *testing.T) {
			dec, err := Unmarshal(ca.enc)
			require.NoError(t, err)
			require.Equal(t, ca.dec, dec)
		})
	}
}

func TestMarshal(t *testing.T) {
	for _, ca := range cases {
		t.Run(ca.name, func(t *testing.T) {
			enc, err := ca.dec.Marshal()
			require.NoError(t, err)
			require.Equal(t, ca.enc, enc)
		})
	}
}

func TestUnmarshalAdditional(t *testing.T) {
	for _, ca := range []struct {
		name string
		enc  []byte
		dec  Data
	}{
		{
			"long string",
			[]byte{0x0C, 0x00, 0x00, 0x00, 0x03, 0x61, 0x62, 0x63},
			Data{"abc"},
		},
		{
			"ecma array with wrong count",
			[]byte{
				0x08,
				0x00, 0x00, 0x00, 0x63,
				0x00, 0x03, 0x6B, 0x65, 0x79,
				0x05,
				0x00, 0x00, 0x09,
			},
			Data{ECMAArray{
				{Key: "key", Value: nil},
			}},
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			dec, err := Unmarshal(ca.enc)
			require.NoError(t, err)
			require.Equal(t, ca.dec, dec)
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	for _, ca := range []struct {
		name string
		enc  []byte
		err  string
	}{
		{
			"truncated number",
			[]byte{0x00, 0x01},
			"buffer is too short",
		},
		{
			"truncated string",
			[]byte{0x02, 0x00, 0x05, 0x61},
			"buffer is too short",
		},
		{
			"truncated date",
			[]byte{0x0B, 0x00, 0x00, 0x00},
			"buffer is too short",
		},
		{
			"object end not found",
			[]byte{0x03, 0x00, 0x00, 0x08},
			"object end not found",
		},
		{
			"unsupported marker",
			[]byte{0x0E},
			"unsupported marker 0x0e",
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			_, err := Unmarshal(ca.enc)
			require.EqualError(t, err, ca.err)
		})
	}
}

func TestMarshalLongString(t *testing.T) {
	str := strings.Repeat("x", 70000)

	enc, err := Data{str}.Marshal()
	require.NoError(t, err)
	require.Equal(t, byte(markerLongString), enc[0])
	require.Equal(t, 5+70000, len(enc))

	dec, err := Unmarshal(enc)
	require.NoError(t, err)
	require.Equal(t, Data{str}, dec)
}

func TestMarshalUnsupported(t *testing.T) {
	_, err := Data{struct{}{}}.Marshal()
	require.EqualError(t, err, "unsupported data type: struct {}")
}

func FuzzUnmarshal(f *testing.F) {
	for _, ca := range cases {
		f.Add(ca.enc)
	}

	f.Fuzz(func(_ *testing.T, b []byte) {
		Unmarshal(b) //nolint:errcheck
	})
}
