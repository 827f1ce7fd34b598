package main

import "time"

var appversion = "0.3.2"

const (
	kb = 1 << 10
	mb = 1 << 20
	gb = 1 << 30
	tb = 1 << 40
	pb = 1 << 50
)

const (
	// DefaultBlockSize is the logical block size assumed for transfers.
	DefaultBlockSize = 512

	// DefaultTimeout bounds every passthrough submission. It is not configurable.
	DefaultTimeout = 20 * time.Second

	// SenseLen is the size of the sense buffer handed to the device.
	SenseLen = 32

	// MaxTransferBlocks is the largest transfer length a 10-byte CDB can encode.
	MaxTransferBlocks = 0xFFFF

	// MaxTransferBytes caps the per-command buffer allocated by the benchmark.
	MaxTransferBytes = 32 * mb

	// inquiryBlocks sizes the INQUIRY response buffer in blocks.
	inquiryBlocks = 16

	mbrTableOffset = 0x1BE
	mbrEntrySize   = 0x10
	mbrEntries     = 4
	mbrSigOffset   = 0x1FE
	mbrSignature   = 0xAA55
)

// dataSizeNumber is a type constraint that allows any signed or unsigned integer type.
type dataSizeNumber interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~uintptr
}

// Unit represents a data size unit with its name and threshold.
type Unit struct {
	Name      string
	Threshold uint64
}

// Predefined units in ascending order.
var units = []Unit{
	{"PB", pb},
	{"TB", tb},
	{"GB", gb},
	{"MB", mb},
	{"KB", kb},
	{"bytes", 1},
}

// Direction is the data phase direction of a passthrough command.
type Direction int

const (
	DirNone Direction = iota
	DirFromDevice
	DirToDevice
)

func (d Direction) String() string {
	switch d {
	case DirFromDevice:
		return "from-device"
	case DirToDevice:
		return "to-device"
	default:
		return "none"
	}
}

// SenseData is the raw sense buffer returned by a failed command.
type SenseData [SenseLen]byte

// IORequest describes one submission to a Device. The device fills in the
// status words after Execute returns.
type IORequest struct {
	Direction Direction
	CDB       CDB
	Data      []byte
	Sense     *SenseData
	Timeout   time.Duration

	ScsiStatus   uint8
	HostStatus   uint16
	DriverStatus uint16
	Info         uint32
	SenseLen     uint8
	Resid        int32
}

// Phase identifies which command a benchmark result measures.
type Phase int

const (
	PhaseInquiry Phase = iota
	PhaseWrite
	PhaseRead
)

func (p Phase) String() string {
	switch p {
	case PhaseInquiry:
		return "INQUIRY"
	case PhaseWrite:
		return "WRITE"
	case PhaseRead:
		return "READ"
	default:
		return "UNKNOWN"
	}
}

// Result aggregates the trials run for one phase at one transfer size.
type Result struct {
	Phase         Phase
	Blocks        int
	CommandBytes  int
	TotalBytes    int64
	Trials        int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	Throughput    float64 // KB/s, NaN when undefined
	Err           error
}

// PartitionEntry is one non-empty slot of an MBR partition table.
type PartitionEntry struct {
	Slot     int
	Status   uint8
	CHS      uint8
	Type     uint8
	StartLBA uint32
	Sectors  uint32
}

// PartitionTable is the decoded legacy table from the first block.
type PartitionTable struct {
	Entries   []PartitionEntry
	Signature uint16
}

// InquiryData holds the identification strings from a standard INQUIRY response.
type InquiryData struct {
	DeviceType uint8
	Vendor     string
	Product    string
	Revision   string
}
