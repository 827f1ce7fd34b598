//go:build linux

package main

import (
	"log/slog"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	sgIO               = 0x2285
	sgGetVersionNumber = 0x2282

	sgDxferNone     = -1
	sgDxferToDev    = -2
	sgDxferFromDev  = -3
	sgMinVersionNum = 30000
)

// sgIOHdr mirrors struct sg_io_hdr from <scsi/sg.h>.
type sgIOHdr struct {
	InterfaceID    int32
	DxferDirection int32
	CmdLen         uint8
	MxSbLen        uint8
	IovecCount     uint16
	DxferLen       uint32
	Dxferp         unsafe.Pointer
	Cmdp           unsafe.Pointer
	Sbp            unsafe.Pointer
	Timeout        uint32
	Flags          uint32
	PackID         int32
	UsrPtr         unsafe.Pointer
	Status         uint8
	MaskedStatus   uint8
	MsgStatus      uint8
	SbLenWr        uint8
	HostStatus     uint16
	DriverStatus   uint16
	Resid          int32
	Duration       uint32
	Info           uint32
}

type sgDevice struct {
	f *os.File
}

// OpenDevice opens a SCSI generic or block device node for passthrough.
func OpenDevice(path string) (Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, &DeviceError{Path: path, Err: err}
	}

	version, err := unix.IoctlGetInt(int(f.Fd()), sgGetVersionNumber)
	if err != nil || version < sgMinVersionNum {
		slog.Warn("device does not report an sg driver version", "device", path, "version", version, "err", err)
	} else {
		slog.Debug("sg driver", "device", path, "version", version)
	}

	return &sgDevice{f: f}, nil
}

func (d *sgDevice) Execute(req *IORequest) error {
	hdr := sgIOHdr{
		InterfaceID: int32('S'),
		CmdLen:      uint8(len(req.CDB)),
		MxSbLen:     uint8(len(req.Sense)),
		DxferLen:    uint32(len(req.Data)),
		Timeout:     uint32(req.Timeout.Milliseconds()),
	}

	switch req.Direction {
	case DirFromDevice:
		hdr.DxferDirection = sgDxferFromDev
	case DirToDevice:
		hdr.DxferDirection = sgDxferToDev
	default:
		hdr.DxferDirection = sgDxferNone
	}

	if len(req.CDB) > 0 {
		hdr.Cmdp = unsafe.Pointer(&req.CDB[0])
	}
	if len(req.Data) > 0 {
		hdr.Dxferp = unsafe.Pointer(&req.Data[0])
	}
	hdr.Sbp = unsafe.Pointer(&req.Sense[0])

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), sgIO, uintptr(unsafe.Pointer(&hdr)))
	runtime.KeepAlive(req)

	req.ScsiStatus = hdr.Status
	req.HostStatus = hdr.HostStatus
	req.DriverStatus = hdr.DriverStatus
	req.Info = hdr.Info
	req.SenseLen = hdr.SbLenWr
	req.Resid = hdr.Resid

	if errno != 0 {
		return errno
	}
	return nil
}

func (d *sgDevice) Close() error {
	return d.f.Close()
}
