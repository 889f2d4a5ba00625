package growablebitmap

import (
	"encoding/binary"
	"math/bits"
)

// Block is the capability a fixed-width unsigned block type must provide to
// back a GrowableBitMap.
//
// Blocks have value semantics: SetBit and ClearBit return the updated block
// and leave the receiver untouched. The Go zero value of every implementation
// is the all-clear block, so Zero() == *new(B).
//
// Offsets passed to Bit, SetBit and ClearBit must be in [0, Width()). The
// container never calls them with anything else.
type Block[B any] interface {
	comparable

	// Zero returns the block with every bit clear.
	Zero() B

	// Width returns the number of bits held by the block.
	Width() uint

	// Bit reports whether the bit at offset is set.
	Bit(offset uint) bool

	// SetBit returns a copy of the block with the bit at offset set to 1.
	SetBit(offset uint) B

	// ClearBit returns a copy of the block with the bit at offset set to 0.
	ClearBit(offset uint) B

	// OnesCount returns the number of set bits.
	OnesCount() int

	// AppendLE appends the little-endian encoding of the block to dst.
	AppendLE(dst []byte) []byte

	// DecodeLE decodes a block from the first Width()/8 bytes of src.
	DecodeLE(src []byte) B
}

// U8 is an 8-bit storage block. Densest growth granularity.
type U8 uint8

func (U8) Zero() U8                     { return 0 }
func (U8) Width() uint                  { return 8 }
func (b U8) Bit(offset uint) bool       { return b&(1<<offset) != 0 }
func (b U8) SetBit(offset uint) U8      { return b | 1<<offset }
func (b U8) ClearBit(offset uint) U8    { return b &^ (1 << offset) }
func (b U8) OnesCount() int             { return bits.OnesCount8(uint8(b)) }
func (b U8) AppendLE(dst []byte) []byte { return append(dst, byte(b)) }
func (U8) DecodeLE(src []byte) U8       { return U8(src[0]) }

// U16 is a 16-bit storage block.
type U16 uint16

func (U16) Zero() U16                    { return 0 }
func (U16) Width() uint                  { return 16 }
func (b U16) Bit(offset uint) bool       { return b&(1<<offset) != 0 }
func (b U16) SetBit(offset uint) U16     { return b | 1<<offset }
func (b U16) ClearBit(offset uint) U16   { return b &^ (1 << offset) }
func (b U16) OnesCount() int             { return bits.OnesCount16(uint16(b)) }
func (b U16) AppendLE(dst []byte) []byte { return binary.LittleEndian.AppendUint16(dst, uint16(b)) }
func (U16) DecodeLE(src []byte) U16      { return U16(binary.LittleEndian.Uint16(src)) }

// U32 is a 32-bit storage block.
type U32 uint32

func (U32) Zero() U32                    { return 0 }
func (U32) Width() uint                  { return 32 }
func (b U32) Bit(offset uint) bool       { return b&(1<<offset) != 0 }
func (b U32) SetBit(offset uint) U32     { return b | 1<<offset }
func (b U32) ClearBit(offset uint) U32   { return b &^ (1 << offset) }
func (b U32) OnesCount() int             { return bits.OnesCount32(uint32(b)) }
func (b U32) AppendLE(dst []byte) []byte { return binary.LittleEndian.AppendUint32(dst, uint32(b)) }
func (U32) DecodeLE(src []byte) U32      { return U32(binary.LittleEndian.Uint32(src)) }

// U64 is a 64-bit storage block. A good default: one machine word on every
// 64-bit platform, with the fewest blocks per bit.
type U64 uint64

func (U64) Zero() U64                    { return 0 }
func (U64) Width() uint                  { return 64 }
func (b U64) Bit(offset uint) bool       { return b&(1<<offset) != 0 }
func (b U64) SetBit(offset uint) U64     { return b | 1<<offset }
func (b U64) ClearBit(offset uint) U64   { return b &^ (1 << offset) }
func (b U64) OnesCount() int             { return bits.OnesCount64(uint64(b)) }
func (b U64) AppendLE(dst []byte) []byte { return binary.LittleEndian.AppendUint64(dst, uint64(b)) }
func (U64) DecodeLE(src []byte) U64      { return U64(binary.LittleEndian.Uint64(src)) }

// Block embeds comparable, so conformance is checked by instantiation.
var (
	_ = New[U8]
	_ = New[U16]
	_ = New[U32]
	_ = New[U64]
)
