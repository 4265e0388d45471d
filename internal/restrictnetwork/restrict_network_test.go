package restrictnetwork

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRestrict(t *testing.T) {
	network, address := Restrict("tcp", "0.0.0.0:1935")
	require.Equal(t, "tcp4", network)
	require.Equal(t, "0.0.0.0:1935", address)

	network, address = Restrict("tcp", ":1935")
	require.Equal(t, "tcp", network)
	require.Equal(t, ":1935", address)

	network, address = Restrict("tcp", "127.0.0.1:1935")
	require.Equal(t, "tcp", network)
	require.Equal(t, "127.0.0.1:1935", address)
}
