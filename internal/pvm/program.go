package pvm

import (
	"encoding/binary"
	"errors"
)

// ErrBadProgram is returned when a program image fails to parse (malformed
// jump-table width, truncated code, non-zero bitmask padding, ...).
var ErrBadProgram = errors.New("pvm: malformed program image")

// Program is the parsed form of a service's code blob: a jump
// table, the raw code bytes, and a bitmask marking which code offsets are
// valid instruction starts.
type Program struct {
	JumpTable       []uint32
	JumpEntryWidth  uint8
	Code            []byte
	InstructionMask []bool // one entry per code byte
}

// ParseProgram decodes a program image: jump-table length, per-entry byte
// width l in 1..4, code length, the jump table (l little-endian bytes per
// entry), the code, then an instruction-start bitmask padded to a whole
// byte with zero padding bits.
func ParseProgram(b []byte) (*Program, error) {
	if len(b) < 9 {
		return nil, ErrBadProgram
	}
	jtLen := binary.LittleEndian.Uint32(b[0:4])
	width := b[4]
	codeLen := binary.LittleEndian.Uint32(b[5:9])
	if width < 1 || width > 4 {
		return nil, ErrBadProgram
	}
	off := 9

	jt := make([]uint32, jtLen)
	for i := uint32(0); i < jtLen; i++ {
		if off+int(width) > len(b) {
			return nil, ErrBadProgram
		}
		var v uint32
		for k := 0; k < int(width); k++ {
			v |= uint32(b[off+k]) << (8 * k)
		}
		jt[i] = v
		off += int(width)
	}

	if off+int(codeLen) > len(b) {
		return nil, ErrBadProgram
	}
	code := make([]byte, codeLen)
	copy(code, b[off:off+int(codeLen)])
	off += int(codeLen)

	maskBytes := (int(codeLen) + 7) / 8
	if off+maskBytes > len(b) {
		return nil, ErrBadProgram
	}
	mask := make([]bool, codeLen)
	for i := uint32(0); i < codeLen; i++ {
		byteIdx := off + int(i/8)
		bitIdx := uint(i % 8)
		mask[i] = (b[byteIdx]>>bitIdx)&1 == 1
	}
	// Verify padding bits in the final mask byte are zero.
	if maskBytes > 0 {
		usedBits := uint(codeLen % 8)
		if usedBits != 0 {
			lastByte := b[off+maskBytes-1]
			paddingMask := byte(0xFF << usedBits)
			if lastByte&paddingMask != 0 {
				return nil, ErrBadProgram
			}
		}
	}
	off += maskBytes

	return &Program{
		JumpTable:       jt,
		JumpEntryWidth:  width,
		Code:            code,
		InstructionMask: mask,
	}, nil
}

// JumpTarget resolves a 1-based, alignment-2-scaled jump-table index to a
// code offset; 0 traps.
func (p *Program) JumpTarget(index uint32) (uint32, bool) {
	if index == 0 {
		return 0, false
	}
	slot := index / 2
	if slot == 0 || int(slot-1) >= len(p.JumpTable) {
		return 0, false
	}
	return p.JumpTable[slot-1], true
}

// IsInstructionStart reports whether offset is a valid instruction-start
// boundary.
func (p *Program) IsInstructionStart(offset uint32) bool {
	if int(offset) >= len(p.InstructionMask) {
		return false
	}
	return p.InstructionMask[offset]
}
