package main

import (
	"errors"
	"time"
)

var errFakeIO = errors.New("fake ioctl failure")

// fakeCall is a snapshot of one request seen by fakeDevice.
type fakeCall struct {
	CDB        CDB
	Direction  Direction
	Data       []byte
	SenseClean bool
	DataClean  bool
}

// fakeDevice is an in-memory disk that answers INQUIRY, READ(10) and
// WRITE(10). fail decides per call whether to report a failure.
type fakeDevice struct {
	blockSize int
	disk      []byte
	calls     []fakeCall
	closed    bool
	closes    int

	fail  func(n int, cdb CDB) bool
	errno error
	sense SenseData
	resid int32
}

func newFakeDevice(blocks int) *fakeDevice {
	return &fakeDevice{
		blockSize: DefaultBlockSize,
		disk:      make([]byte, blocks*DefaultBlockSize),
	}
}

func (d *fakeDevice) Execute(req *IORequest) error {
	call := fakeCall{
		CDB:        append(CDB(nil), req.CDB...),
		Direction:  req.Direction,
		Data:       append([]byte(nil), req.Data...),
		SenseClean: *req.Sense == SenseData{},
		DataClean:  !containsNonZero(req.Data),
	}
	d.calls = append(d.calls, call)

	if d.closed {
		return errors.New("use of closed fake device")
	}
	if d.fail != nil && d.fail(len(d.calls), req.CDB) {
		*req.Sense = d.sense
		if d.errno != nil {
			return d.errno
		}
		req.ScsiStatus = 0x02
		req.DriverStatus = 0x08
		req.Info = 0x1
		req.SenseLen = SenseLen
		return nil
	}

	switch req.CDB.Opcode() {
	case opInquiry:
		copy(req.Data, fakeInquiry())
	case opRead10:
		off := int(req.CDB.LBA()) * d.blockSize
		copy(req.Data, d.disk[off:off+len(req.Data)])
	case opWrite10:
		off := int(req.CDB.LBA()) * d.blockSize
		copy(d.disk[off:off+len(req.Data)], req.Data)
	}
	req.Resid = d.resid
	return nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	d.closes++
	return nil
}

func (d *fakeDevice) callsFor(op byte) []fakeCall {
	var out []fakeCall
	for _, c := range d.calls {
		if c.CDB.Opcode() == op {
			out = append(out, c)
		}
	}
	return out
}

func fakeInquiry() []byte {
	data := make([]byte, 36)
	data[0] = 0x00
	data[4] = 31
	copy(data[8:16], "ACME    ")
	copy(data[16:32], "RAMDISK         ")
	copy(data[32:36], "1.0 ")
	return data
}

func containsNonZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return true
		}
	}
	return false
}

// steppingClock advances by step on every call so each submission measures
// exactly step.
func steppingClock(step time.Duration) func() time.Time {
	now := time.Unix(1700000000, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func newFakeTransport(dev *fakeDevice, step time.Duration, observers ...Observer) *Transport {
	t := NewTransport(dev, observers...)
	t.now = steppingClock(step)
	return t
}

type recordingObserver struct {
	events []Event
}

func (o *recordingObserver) Observe(ev Event) {
	ev.Data = append([]byte(nil), ev.Data...)
	o.events = append(o.events, ev)
}
