//go:build !linux

package main

import "os"

// OpenDevice reports ErrNotSupported; SG_IO passthrough is Linux only.
func OpenDevice(path string) (Device, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &DeviceError{Path: path, Err: err}
	}
	return nil, &DeviceError{Path: path, Err: ErrNotSupported}
}
