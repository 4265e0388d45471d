//go:build windows

// Package rlimit contains Raise().
package rlimit

// Raise raises the number of file descriptors that can be opened.
func Raise() error {
	return nil
}
