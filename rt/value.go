package rt

import (
	"math"
	"unsafe"
)

// Value represents a Reed value: either a small integer encoded inline or a
// reference to a cell on some machine's heap.
//
// Encoding scheme (64-bit):
//   - Small integer: low bit set, payload in the upper 63 bits (signed).
//   - Cell reference: low bit clear, the value is the address of an 8-aligned
//     cell. Address 0 is the null value.
//
// Cells never move between machines; a Value obtained from one machine must
// not be stored into another machine's heap except through CopyTo.
type Value uint64

// NullValue is the absent value (the zero Value).
const NullValue Value = 0

// CellType discriminates the payload layout of a heap cell.
type CellType uint32

const (
	CellCon CellType = iota // constructor: packed tag+arity, inline args
	CellString
	CellStrOffset // suffix view into a string cell
	CellBigInt
	CellFloat
	CellPtr        // opaque foreign address
	CellManagedPtr // inline owned byte buffer
	CellBits8
	CellBits16
	CellBits32
	CellBits64
	CellRawData // length-prefixed arbitrary bytes
	CellCData   // handle into the finalizer-tracked C-heap
	CellFwd     // forwarding cell, collector-internal
)

func (t CellType) String() string {
	switch t {
	case CellCon:
		return "con"
	case CellString:
		return "string"
	case CellStrOffset:
		return "stroffset"
	case CellBigInt:
		return "bigint"
	case CellFloat:
		return "float"
	case CellPtr:
		return "ptr"
	case CellManagedPtr:
		return "managedptr"
	case CellBits8:
		return "bits8"
	case CellBits16:
		return "bits16"
	case CellBits32:
		return "bits32"
	case CellBits64:
		return "bits64"
	case CellRawData:
		return "rawdata"
	case CellCData:
		return "cdata"
	case CellFwd:
		return "fwd"
	}
	return "invalid"
}

// Cell memory layout. Every cell begins with an 8-byte header holding the
// CellType; the payload follows at offset 8. The chunk size word written by
// the allocator sits immediately *before* the cell.
//
//	con:        [hdr][tagArity u64][arg0][arg1]...
//	string:     [hdr][len][bytes...]
//	stroffset:  [hdr][root Value][offset]
//	bigint:     [hdr][len][sign byte + abs bytes...]
//	float:      [hdr][ieee754 bits]
//	ptr:        [hdr][addr]
//	managedptr: [hdr][len][bytes...]
//	bits8..64:  [hdr][u64]
//	rawdata:    [hdr][len][bytes...]
//	cdata:      [hdr][item addr]
//	fwd:        [hdr][new Value]
const (
	cellHeaderSize = 8
	wordSize       = 8
)

// ---------------------------------------------------------------------------
// Small integers
// ---------------------------------------------------------------------------

// FromInt encodes a small integer. The topmost payload bit is lost; values
// are 63-bit signed.
func FromInt(n int64) Value {
	return Value(uint64(n)<<1 | 1)
}

// IsInt reports whether v is an inline small integer.
func (v Value) IsInt() bool {
	return v&1 == 1
}

// Int extracts the small integer payload. The result is unspecified if v is
// not an integer.
func (v Value) Int() int64 {
	return int64(v) >> 1
}

// FromBool encodes a boolean as the conventional 0/1 integer.
func FromBool(b bool) Value {
	if b {
		return FromInt(1)
	}
	return FromInt(0)
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool {
	return v == NullValue
}

// ---------------------------------------------------------------------------
// Cell access
// ---------------------------------------------------------------------------

func (v Value) addr() uintptr {
	return uintptr(v)
}

func fromAddr(addr uintptr) Value {
	return Value(addr)
}

func (v Value) word(off uintptr) *uint64 {
	return (*uint64)(unsafe.Pointer(v.addr() + off))
}

func (v Value) byteAt(off uintptr) *byte {
	return (*byte)(unsafe.Pointer(v.addr() + off))
}

// Type returns the cell type of v. v must be a non-null cell reference.
func (v Value) Type() CellType {
	return CellType(uint32(*v.word(0)))
}

func (v Value) setType(t CellType) {
	*v.word(0) = uint64(t)
}

// IsString reports whether v is a string cell or a string-slice cell.
func (v Value) IsString() bool {
	if v.IsNull() || v.IsInt() {
		return false
	}
	t := v.Type()
	return t == CellString || t == CellStrOffset
}

// ---------------------------------------------------------------------------
// Constructor cells
// ---------------------------------------------------------------------------

// ConTag returns the constructor tag of a con cell.
func (v Value) ConTag() int {
	return int(*v.word(cellHeaderSize) >> 8)
}

// ConArity returns the number of children of a con cell.
func (v Value) ConArity() int {
	return int(*v.word(cellHeaderSize) & 0xFF)
}

// ConArg returns the i'th child of a con cell.
func (v Value) ConArg(i int) Value {
	return Value(*v.word(cellHeaderSize + wordSize + uintptr(i)*wordSize))
}

// SetConArg stores the i'th child of a con cell. The stored value must live
// on the same machine as the cell.
func (v Value) SetConArg(i int, arg Value) {
	*v.word(cellHeaderSize+wordSize+uintptr(i)*wordSize) = uint64(arg)
}

func (v Value) setTagArity(tag, arity int) {
	*v.word(cellHeaderSize) = uint64(tag)<<8 | uint64(arity)&0xFF
}

// ---------------------------------------------------------------------------
// Scalar cells
// ---------------------------------------------------------------------------

// Float extracts the payload of a float cell.
func (v Value) Float() float64 {
	return math.Float64frombits(*v.word(cellHeaderSize))
}

// Bits extracts the payload of any of the word cells (8/16/32/64 bit).
func (v Value) Bits() uint64 {
	return *v.word(cellHeaderSize)
}

// Ptr extracts the foreign address held by an opaque pointer cell.
func (v Value) Ptr() uintptr {
	return uintptr(*v.word(cellHeaderSize))
}

func (v Value) setWord(x uint64) {
	*v.word(cellHeaderSize) = x
}

// ---------------------------------------------------------------------------
// Length-prefixed cells (string, managedptr, rawdata, bigint)
// ---------------------------------------------------------------------------

func (v Value) payloadLen() uintptr {
	return uintptr(*v.word(cellHeaderSize))
}

func (v Value) setPayloadLen(n uintptr) {
	*v.word(cellHeaderSize) = uint64(n)
}

// payloadBytes returns a view of the inline bytes of a length-prefixed cell.
// The view is invalidated by any collection on the owning machine.
func (v Value) payloadBytes() []byte {
	n := v.payloadLen()
	if n == 0 {
		return nil
	}
	return unsafe.Slice(v.byteAt(cellHeaderSize+wordSize), n)
}

// StrBytes returns the bytes of a string cell (not a slice cell). The view
// is invalidated by any collection on the owning machine.
func (v Value) StrBytes() []byte {
	return v.payloadBytes()
}

// ManagedBytes returns the owned bytes of a managed pointer cell.
func (v Value) ManagedBytes() []byte {
	return v.payloadBytes()
}

// RawBytes returns the bytes of a raw data cell.
func (v Value) RawBytes() []byte {
	return v.payloadBytes()
}

// ---------------------------------------------------------------------------
// String-slice cells
// ---------------------------------------------------------------------------

// StrOffsetRoot returns the root string cell referenced by a slice cell.
// The flattening invariant guarantees the result is a string cell.
func (v Value) StrOffsetRoot() Value {
	return Value(*v.word(cellHeaderSize))
}

// StrOffset returns the byte offset of a slice cell into its root.
func (v Value) StrOffset() uintptr {
	return uintptr(*v.word(cellHeaderSize + wordSize))
}

func (v Value) setStrOffset(root Value, off uintptr) {
	*v.word(cellHeaderSize) = uint64(root)
	*v.word(cellHeaderSize+wordSize) = uint64(off)
}

// ---------------------------------------------------------------------------
// Forwarding cells
// ---------------------------------------------------------------------------

func (v Value) fwd() Value {
	return Value(*v.word(cellHeaderSize))
}

func (v Value) setFwd(to Value) {
	v.setType(CellFwd)
	*v.word(cellHeaderSize) = uint64(to)
}
