//go:build darwin

package logger

import (
	"fmt"
	"io"
)

func newSyslog(_ string) (io.WriteCloser, error) {
	return nil, fmt.Errorf("unavailable on macOS")
}
