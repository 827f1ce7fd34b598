package main

import (
	"encoding/binary"
	"fmt"
)

// SCSI opcodes used by the benchmark.
const (
	opInquiry = 0x12
	opRead10  = 0x28
	opWrite10 = 0x2A

	read10Flags  = 0x08 // FUA
	write10Flags = 0x00

	inquiryAllocLen = 0xFF

	cdb6Len  = 6
	cdb10Len = 10
)

// CDB is an encoded SCSI command descriptor block.
type CDB []byte

// InquiryCDB returns a standard INQUIRY command asking for up to 255 bytes.
func InquiryCDB() CDB {
	return CDB{opInquiry, 0x00, 0x00, 0x00, inquiryAllocLen, 0x00}
}

// Read10CDB encodes READ(10) for blocks starting at lba.
func Read10CDB(lba uint32, blocks uint16) CDB {
	return build10(opRead10, read10Flags, lba, blocks)
}

// Write10CDB encodes WRITE(10) for blocks starting at lba.
func Write10CDB(lba uint32, blocks uint16) CDB {
	return build10(opWrite10, write10Flags, lba, blocks)
}

func build10(op, flags byte, lba uint32, blocks uint16) CDB {
	c := make(CDB, cdb10Len)
	c[0] = op
	c[1] = flags
	binary.BigEndian.PutUint32(c[2:6], lba)
	// c[6] is reserved / group number
	binary.BigEndian.PutUint16(c[7:9], blocks)
	// c[9] is the control byte
	return c
}

// Opcode returns the operation code, or 0 for an empty CDB.
func (c CDB) Opcode() byte {
	if len(c) == 0 {
		return 0
	}
	return c[0]
}

// LBA reads back the logical block address of a 10-byte CDB.
func (c CDB) LBA() uint32 {
	if len(c) < cdb10Len {
		return 0
	}
	return binary.BigEndian.Uint32(c[2:6])
}

// TransferLength reads back the block count of a 10-byte CDB.
func (c CDB) TransferLength() uint16 {
	if len(c) < cdb10Len {
		return 0
	}
	return binary.BigEndian.Uint16(c[7:9])
}

func (c CDB) String() string {
	switch c.Opcode() {
	case opInquiry:
		return "INQUIRY"
	case opRead10:
		return fmt.Sprintf("READ(10) lba=%d blocks=%d", c.LBA(), c.TransferLength())
	case opWrite10:
		return fmt.Sprintf("WRITE(10) lba=%d blocks=%d", c.LBA(), c.TransferLength())
	default:
		return fmt.Sprintf("opcode %#02x", c.Opcode())
	}
}
