//go:build windows

package logger

import (
	"fmt"
	"io"
)

func newSyslog(_ string) (io.WriteCloser, error) {
	return nil, fmt.Errorf("unavailable on Windows")
}
