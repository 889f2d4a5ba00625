package growablebitmap

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// U128 is a 128-bit storage block made of two 64-bit halves.
//
// Bits [0, 64) live in Lo and bits [64, 128) in Hi, so the block encodes as
// Lo followed by Hi in little-endian order.
type U128 struct {
	Lo uint64
	Hi uint64
}

func (U128) Zero() U128 { return U128{} }

func (U128) Width() uint { return 128 }

func (b U128) Bit(offset uint) bool {
	if offset < 64 {
		return b.Lo&(1<<offset) != 0
	}
	return b.Hi&(1<<(offset-64)) != 0
}

func (b U128) SetBit(offset uint) U128 {
	if offset < 64 {
		b.Lo |= 1 << offset
	} else {
		b.Hi |= 1 << (offset - 64)
	}
	return b
}

func (b U128) ClearBit(offset uint) U128 {
	if offset < 64 {
		b.Lo &^= 1 << offset
	} else {
		b.Hi &^= 1 << (offset - 64)
	}
	return b
}

func (b U128) OnesCount() int {
	return bits.OnesCount64(b.Lo) + bits.OnesCount64(b.Hi)
}

func (b U128) AppendLE(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, b.Lo)
	return binary.LittleEndian.AppendUint64(dst, b.Hi)
}

func (U128) DecodeLE(src []byte) U128 {
	return U128{
		Lo: binary.LittleEndian.Uint64(src[0:8]),
		Hi: binary.LittleEndian.Uint64(src[8:16]),
	}
}

// String renders the block as a single 128-bit hexadecimal number.
func (b U128) String() string {
	return fmt.Sprintf("0x%016x%016x", b.Hi, b.Lo)
}

var _ = New[U128]
