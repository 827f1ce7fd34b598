package main

import (
	"fmt"
	"time"
)

// Device is an open passthrough handle. Execute blocks until the command
// completes or req.Timeout expires and fills in the status fields of req.
type Device interface {
	Execute(req *IORequest) error
	Close() error
}

// EventKind distinguishes transport events.
type EventKind int

const (
	EventSubmit EventKind = iota
	EventComplete
)

// Event describes one side of a submission. Data is only set when bytes
// move in that direction: outgoing on submit, incoming on complete.
type Event struct {
	Kind     EventKind
	CDB      CDB
	LBA      uint32
	Data     []byte
	Duration time.Duration
	Err      error
}

// Observer receives transport events. Implementations must not retain Data.
type Observer interface {
	Observe(ev Event)
}

// Transport submits commands to a single device, one at a time.
type Transport struct {
	dev       Device
	observers []Observer
	closed    bool
	now       func() time.Time
}

// NewTransport wraps dev. Observers are notified in order.
func NewTransport(dev Device, observers ...Observer) *Transport {
	return &Transport{
		dev:       dev,
		observers: observers,
		now:       time.Now,
	}
}

// Submit sends cdb with buf as the data phase and returns how long the
// device took. Read buffers are zeroed first and overwritten by the device.
// The handle is never closed here; the caller decides what a failure means.
func (t *Transport) Submit(cdb CDB, dir Direction, buf []byte) (time.Duration, error) {
	if t.closed {
		return 0, ErrDeviceClosed
	}

	var sense SenseData
	if dir == DirFromDevice {
		clear(buf)
	}

	req := &IORequest{
		Direction: dir,
		CDB:       cdb,
		Data:      buf,
		Sense:     &sense,
		Timeout:   DefaultTimeout,
	}

	ev := Event{Kind: EventSubmit, CDB: cdb, LBA: cdb.LBA()}
	if dir == DirToDevice {
		ev.Data = buf
	}
	t.emit(ev)

	start := t.now()
	err := t.dev.Execute(req)
	elapsed := t.now().Sub(start)

	if err == nil && req.short() {
		err = fmt.Errorf("%w: %d of %d bytes not transferred", ErrShortTransfer, req.Resid, len(buf))
	}
	if err != nil || req.failed() {
		terr := &TransportError{
			Op:           cdb,
			Sense:        sense,
			ScsiStatus:   req.ScsiStatus,
			HostStatus:   req.HostStatus,
			DriverStatus: req.DriverStatus,
			SenseLen:     req.SenseLen,
			Resid:        req.Resid,
			Err:          err,
		}
		t.emit(Event{Kind: EventComplete, CDB: cdb, LBA: cdb.LBA(), Duration: elapsed, Err: terr})
		return elapsed, terr
	}

	ev = Event{Kind: EventComplete, CDB: cdb, LBA: cdb.LBA(), Duration: elapsed}
	if dir == DirFromDevice {
		ev.Data = buf
	}
	t.emit(ev)
	return elapsed, nil
}

// Read issues READ(10) into buf, which must hold exactly blocks*blockSize bytes.
func (t *Transport) Read(lba uint32, blocks uint16, blockSize int, buf []byte) (time.Duration, error) {
	if len(buf) != int(blocks)*blockSize {
		return 0, fmt.Errorf("%w: have %d bytes, want %d", ErrBufferSize, len(buf), int(blocks)*blockSize)
	}
	return t.Submit(Read10CDB(lba, blocks), DirFromDevice, buf)
}

// Write issues WRITE(10) from buf, which must hold exactly blocks*blockSize bytes.
func (t *Transport) Write(lba uint32, blocks uint16, blockSize int, buf []byte) (time.Duration, error) {
	if len(buf) != int(blocks)*blockSize {
		return 0, fmt.Errorf("%w: have %d bytes, want %d", ErrBufferSize, len(buf), int(blocks)*blockSize)
	}
	return t.Submit(Write10CDB(lba, blocks), DirToDevice, buf)
}

// Inquiry issues a standard INQUIRY into buf.
func (t *Transport) Inquiry(buf []byte) (time.Duration, error) {
	return t.Submit(InquiryCDB(), DirFromDevice, buf)
}

// Close releases the device. Later submissions fail with ErrDeviceClosed.
func (t *Transport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.dev.Close()
}

// Closed reports whether Close has been called.
func (t *Transport) Closed() bool {
	return t.closed
}

func (t *Transport) emit(ev Event) {
	for _, o := range t.observers {
		o.Observe(ev)
	}
}

const (
	sgInfoOkMask = 0x1
	sgInfoOk     = 0x0
)

func (r *IORequest) failed() bool {
	return r.Info&sgInfoOkMask != sgInfoOk || r.ScsiStatus != 0 || r.HostStatus != 0 || r.DriverStatus != 0
}

// short reports a data transfer that left a residual. INQUIRY is exempt:
// its buffer is always larger than the allocation length.
func (r *IORequest) short() bool {
	if r.Direction == DirNone || r.CDB.Opcode() == opInquiry {
		return false
	}
	return r.Resid != 0
}
