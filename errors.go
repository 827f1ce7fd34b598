package main

import (
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrNoDevice indicates no device path was configured.
	ErrNoDevice = errors.New("device is not set")

	// ErrInvalidConfig indicates a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDeviceClosed indicates a submission on a handle that was closed.
	ErrDeviceClosed = errors.New("device closed")

	// ErrNotSupported indicates passthrough is unavailable on this platform.
	ErrNotSupported = errors.New("scsi passthrough not supported on this platform")

	// ErrShortBlock indicates a block too small to hold a partition table.
	ErrShortBlock = errors.New("block too short for partition table")

	// ErrBufferSize indicates a data buffer that does not match the CDB.
	ErrBufferSize = errors.New("buffer size does not match transfer length")

	// ErrShortTransfer indicates the device moved fewer bytes than requested.
	ErrShortTransfer = errors.New("short transfer")
)

// DeviceError reports a device node that could not be opened.
type DeviceError struct {
	Path string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device file opening failed: %s: %v", e.Path, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// TransportError reports a failed passthrough submission with its sense data.
type TransportError struct {
	Op           CDB
	Sense        SenseData
	ScsiStatus   uint8
	HostStatus   uint16
	DriverStatus uint16
	SenseLen     uint8
	Resid        int32
	Err          error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v (sense %s)", e.Op, e.Err, hex.EncodeToString(e.senseBytes()))
	}
	return fmt.Sprintf("%s failed: scsi status %#02x, host status %#02x, driver status %#02x (sense %s)",
		e.Op, e.ScsiStatus, e.HostStatus, e.DriverStatus, hex.EncodeToString(e.senseBytes()))
}

// senseBytes trims the buffer to what the device reported writing.
func (e *TransportError) senseBytes() []byte {
	if e.SenseLen == 0 || int(e.SenseLen) > len(e.Sense) {
		return e.Sense[:]
	}
	return e.Sense[:e.SenseLen]
}

func (e *TransportError) Unwrap() error { return e.Err }

// SenseKey returns key, ASC and ASCQ for fixed-format sense data.
func (e *TransportError) SenseKey() (key, asc, ascq byte, ok bool) {
	code := e.Sense[0] & 0x7f
	if code != 0x70 && code != 0x71 {
		return 0, 0, 0, false
	}
	return e.Sense[2] & 0x0f, e.Sense[12], e.Sense[13], true
}
