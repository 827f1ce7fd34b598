package main

import (
	"encoding/binary"
	"fmt"
)

// isExtendedType checks if a partition type is an extended partition type
func isExtendedType(t byte) bool {
	switch t {
	case 0x05, 0x0F, 0x85:
		return true
	default:
		return false
	}
}

// parseMBREntryFromBytes parses a 16-byte MBR slot
func parseMBREntryFromBytes(slot int, b []byte) PartitionEntry {
	return PartitionEntry{
		Slot:     slot,
		Status:   b[0],
		CHS:      b[1],
		Type:     b[4],
		StartLBA: binary.LittleEndian.Uint32(b[8:12]),
		Sectors:  binary.LittleEndian.Uint32(b[12:16]),
	}
}

// DecodePartitionTable decodes the four primary slots of an MBR. Slots whose
// start and size are both zero are skipped.
func DecodePartitionTable(block []byte) (*PartitionTable, error) {
	if len(block) < DefaultBlockSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortBlock, len(block))
	}

	table := &PartitionTable{
		Signature: binary.LittleEndian.Uint16(block[mbrSigOffset : mbrSigOffset+2]),
	}
	for i := 0; i < mbrEntries; i++ {
		off := mbrTableOffset + i*mbrEntrySize
		e := parseMBREntryFromBytes(i+1, block[off:off+mbrEntrySize])
		if e.StartLBA == 0 && e.Sectors == 0 {
			continue
		}
		table.Entries = append(table.Entries, e)
	}
	return table, nil
}

// ReadPartitionTable reads block 0 through t and decodes it. Nothing is
// returned if the read fails.
func ReadPartitionTable(t *Transport, blockSize int) (*PartitionTable, error) {
	buf := make([]byte, blockSize)
	if _, err := t.Read(0, 1, blockSize, buf); err != nil {
		return nil, fmt.Errorf("read partition table: %w", err)
	}
	return DecodePartitionTable(buf)
}

// Valid reports whether the boot signature is present.
func (p *PartitionTable) Valid() bool {
	return p.Signature == mbrSignature
}
