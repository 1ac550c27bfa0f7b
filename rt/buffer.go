package rt

import (
	"math"
	"unsafe"
)

// ---------------------------------------------------------------------------
// Byte-buffer primitives
// ---------------------------------------------------------------------------

// bufferAddr resolves the base address behind a pointer-like cell: the
// foreign address of an opaque pointer, or the inline payload of a managed
// pointer or raw data cell. Payload addresses are only stable until the next
// collection on the owning machine; callers finish their access before
// allocating again.
func bufferAddr(v Value) uintptr {
	switch v.Type() {
	case CellPtr:
		return v.Ptr()
	case CellManagedPtr, CellRawData:
		return v.addr() + cellHeaderSize + wordSize
	}
	panic("rt: not a buffer cell")
}

// Peek reads the byte at offset in the buffer behind v.
func Peek(v Value, offset int64) uint8 {
	return *(*uint8)(unsafe.Pointer(bufferAddr(v) + uintptr(offset)))
}

// Poke writes the byte at offset in the buffer behind v.
func Poke(v Value, offset int64, b uint8) {
	*(*uint8)(unsafe.Pointer(bufferAddr(v) + uintptr(offset))) = b
}

// Memset fills size bytes at offset with c.
func Memset(v Value, offset int64, c uint8, size int64) {
	base := bufferAddr(v) + uintptr(offset)
	buf := unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
	for i := range buf {
		buf[i] = c
	}
}

// Memmove copies size bytes between two buffers, offsets applied per side.
// Overlapping ranges are handled.
func Memmove(dest, src Value, destOffset, srcOffset, size int64) {
	d := unsafe.Slice((*byte)(unsafe.Pointer(bufferAddr(dest)+uintptr(destOffset))), size)
	s := unsafe.Slice((*byte)(unsafe.Pointer(bufferAddr(src)+uintptr(srcOffset))), size)
	copy(d, s)
}

// PeekPtr reads a pointer-sized word at byte offset and wraps it in a fresh
// opaque pointer cell.
func (m *Machine) PeekPtr(v Value, offset int64) Value {
	addr := *(*uintptr)(unsafe.Pointer(bufferAddr(v) + uintptr(offset)))
	return m.MkPtr(addr)
}

// PokePtr stores the address held by data at byte offset.
func PokePtr(v Value, offset int64, data Value) {
	*(*uintptr)(unsafe.Pointer(bufferAddr(v) + uintptr(offset))) = data.Ptr()
}

// PeekDouble reads an IEEE-754 double at byte offset.
func (m *Machine) PeekDouble(v Value, offset int64) Value {
	bits := *(*uint64)(unsafe.Pointer(bufferAddr(v) + uintptr(offset)))
	return m.MkFloat(math.Float64frombits(bits))
}

// PokeDouble stores an IEEE-754 double at byte offset.
func PokeDouble(v Value, offset int64, data Value) {
	*(*uint64)(unsafe.Pointer(bufferAddr(v) + uintptr(offset))) = math.Float64bits(data.Float())
}

// PeekSingle reads an IEEE-754 single at byte offset, widening to a float
// cell.
func (m *Machine) PeekSingle(v Value, offset int64) Value {
	bits := *(*uint32)(unsafe.Pointer(bufferAddr(v) + uintptr(offset)))
	return m.MkFloat(float64(math.Float32frombits(bits)))
}

// PokeSingle narrows a float cell to an IEEE-754 single and stores it at
// byte offset.
func PokeSingle(v Value, offset int64, data Value) {
	*(*uint32)(unsafe.Pointer(bufferAddr(v) + uintptr(offset))) = math.Float32bits(float32(data.Float()))
}
