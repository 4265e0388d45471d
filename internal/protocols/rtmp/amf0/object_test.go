package amf0

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObjectGet(t *testing.T) {
	o := Object{{Key: "testme", Value: "ok"}}
	v, ok := o.Get("testme")
	require.Equal(t, true, ok)
	require.Equal(t, "ok", v)

	_, ok = o.Get("absent")
	require.Equal(t, false, ok)
}

func TestObjectGetString(t *testing.T) {
	o := Object{{Key: "testme", Value: "ok"}, {Key: "num", Value: float64(1)}}
	v, ok := o.GetString("testme")
	require.Equal(t, true, ok)
	require.Equal(t, "ok", v)

	_, ok = o.GetString("num")
	require.Equal(t, false, ok)
}

func TestObjectGetFloat64(t *testing.T) {
	o := Object{{Key: "testme", Value: float64(123)}, {Key: "str", Value: "nope"}}
	v, ok := o.GetFloat64("testme")
	require.Equal(t, true, ok)
	require.Equal(t, float64(123), v)

	_, ok = o.GetFloat64("str")
	require.Equal(t, false, ok)
}
