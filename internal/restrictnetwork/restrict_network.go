// Package restrictnetwork contains Restrict().
package restrictnetwork

import "strings"

// Restrict prevents listening on IPv6 when address is 0.0.0.0.
func Restrict(network string, address string) (string, string) {
	if strings.HasPrefix(address, "0.0.0.0:") {
		return network + "4", address
	}

	return network, address
}
