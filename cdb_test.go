package main

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInquiryCDB(t *testing.T) {
	assert.Equal(t, CDB{0x12, 0x00, 0x00, 0x00, 0xFF, 0x00}, InquiryCDB())
	assert.Len(t, InquiryCDB(), cdb6Len)
}

func TestRead10Write10Layout(t *testing.T) {
	cases := []struct {
		lba    uint32
		blocks uint16
	}{
		{0, 1},
		{1, 2},
		{2048, 128},
		{0x12345678, 0xABCD},
		{0xFFFFFFFF, 0xFFFF},
	}

	for _, tc := range cases {
		for _, build := range []struct {
			name  string
			fn    func(uint32, uint16) CDB
			op    byte
			flags byte
		}{
			{"read", Read10CDB, opRead10, read10Flags},
			{"write", Write10CDB, opWrite10, write10Flags},
		} {
			c := build.fn(tc.lba, tc.blocks)
			require.Len(t, c, cdb10Len, build.name)

			assert.Equal(t, build.op, c[0], build.name)
			assert.Equal(t, build.flags, c[1], build.name)
			assert.Equal(t, tc.lba, binary.BigEndian.Uint32(c[2:6]), build.name)
			assert.Equal(t, byte(0), c[6], "reserved byte")
			assert.Equal(t, tc.blocks, binary.BigEndian.Uint16(c[7:9]), build.name)
			assert.Equal(t, byte(0), c[9], "control byte")

			assert.Equal(t, tc.lba, c.LBA())
			assert.Equal(t, tc.blocks, c.TransferLength())
		}
	}
}

func TestRead10MostSignificantByteFirst(t *testing.T) {
	c := Read10CDB(0x01020304, 0x0506)
	assert.Equal(t, CDB{0x28, 0x08, 0x01, 0x02, 0x03, 0x04, 0x00, 0x05, 0x06, 0x00}, c)
}

func TestCDBString(t *testing.T) {
	assert.Equal(t, "INQUIRY", InquiryCDB().String())
	assert.Equal(t, "READ(10) lba=8 blocks=2", Read10CDB(8, 2).String())
	assert.Equal(t, "WRITE(10) lba=0 blocks=1", Write10CDB(0, 1).String())
	assert.Equal(t, uint32(0), InquiryCDB().LBA())
	assert.Equal(t, byte(0), CDB(nil).Opcode())
}
