//go:build !linux

package main

import "os"

// isatty reports whether fd is a character device.
func isatty(fd uintptr) bool {
	info, err := os.NewFile(fd, "").Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
