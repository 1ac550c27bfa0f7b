package rt

import (
	"math"
	"unsafe"
)

// Cell constructors come in two flavors. The normal flavor may trigger a
// collection and is safe to call with no preparation: any Value arguments
// are rooted on the value stack across the allocation. The Guarded flavor
// must run inside a RequireAlloc/DoneAlloc window (or under the destination
// machine's allocation lock during a message copy); it never re-locks. It
// collects only when the heap has no room for the cell: never inside a
// window whose reservation covers it, but possibly during a message copy.

// ---------------------------------------------------------------------------
// Constructor cells
// ---------------------------------------------------------------------------

func (m *Machine) allocCon(tag, arity int, outer bool) Value {
	cl := m.allocate(cellHeaderSize+wordSize+uintptr(arity)*wordSize, outer)
	cl.setType(CellCon)
	cl.setTagArity(tag, arity)
	return cl
}

// MkCon builds a constructor cell with the given tag and children. Nullary
// constructors with small tags resolve to the interned global cell. The
// children are rooted on the stack while the cell is allocated.
func (m *Machine) MkCon(tag int, args ...Value) Value {
	if len(args) == 0 && tag < nullaryCount {
		return Nullary(tag)
	}
	for _, a := range args {
		m.Push(a)
	}
	cl := m.allocCon(tag, len(args), false)
	bottom := m.top - len(args)
	for i := range args {
		cl.SetConArg(i, m.valstack[bottom+i])
		m.valstack[bottom+i] = NullValue
	}
	m.top = bottom
	return cl
}

// MkConGuarded is MkCon inside an allocation guard: no collection runs, so
// the children need no rooting.
func (m *Machine) MkConGuarded(tag int, args ...Value) Value {
	if len(args) == 0 && tag < nullaryCount {
		return Nullary(tag)
	}
	cl := m.allocCon(tag, len(args), true)
	for i, a := range args {
		cl.SetConArg(i, a)
	}
	return cl
}

// ---------------------------------------------------------------------------
// Strings
// ---------------------------------------------------------------------------

func (m *Machine) mkStrBytes(s []byte, outer bool) Value {
	// One trailing NUL, excluded from the recorded length.
	cl := m.allocate(cellHeaderSize+wordSize+uintptr(len(s))+1, outer)
	cl.setType(CellString)
	cl.setPayloadLen(uintptr(len(s)))
	copy(unsafe.Slice(cl.byteAt(cellHeaderSize+wordSize), len(s)), s)
	return cl
}

// MkStr builds a string cell holding a copy of s.
func (m *Machine) MkStr(s string) Value {
	return m.mkStrBytes([]byte(s), false)
}

// MkStrBytes builds a string cell holding a copy of s.
func (m *Machine) MkStrBytes(s []byte) Value {
	return m.mkStrBytes(s, false)
}

// MkStrGuarded is MkStr inside an allocation guard.
func (m *Machine) MkStrGuarded(s []byte) Value {
	return m.mkStrBytes(s, true)
}

// mkStrOffset builds a slice cell. root must be a string cell; callers are
// responsible for flattening (see StrTail).
func (m *Machine) mkStrOffset(root Value, off uintptr, outer bool) Value {
	cl := m.allocate(cellHeaderSize+2*wordSize, outer)
	cl.setType(CellStrOffset)
	cl.setStrOffset(root, off)
	return cl
}

// ---------------------------------------------------------------------------
// Scalars
// ---------------------------------------------------------------------------

// MkFloat builds a float cell.
func (m *Machine) MkFloat(f float64) Value {
	cl := m.allocate(cellHeaderSize+wordSize, false)
	cl.setType(CellFloat)
	cl.setWord(math.Float64bits(f))
	return cl
}

// MkFloatGuarded is MkFloat inside an allocation guard.
func (m *Machine) MkFloatGuarded(f float64) Value {
	cl := m.allocate(cellHeaderSize+wordSize, true)
	cl.setType(CellFloat)
	cl.setWord(math.Float64bits(f))
	return cl
}

func (m *Machine) mkBits(t CellType, x uint64, outer bool) Value {
	cl := m.allocate(cellHeaderSize+wordSize, outer)
	cl.setType(t)
	cl.setWord(x)
	return cl
}

// MkBits8 builds an 8-bit word cell.
func (m *Machine) MkBits8(x uint8) Value { return m.mkBits(CellBits8, uint64(x), false) }

// MkBits16 builds a 16-bit word cell.
func (m *Machine) MkBits16(x uint16) Value { return m.mkBits(CellBits16, uint64(x), false) }

// MkBits32 builds a 32-bit word cell.
func (m *Machine) MkBits32(x uint32) Value { return m.mkBits(CellBits32, uint64(x), false) }

// MkBits64 builds a 64-bit word cell.
func (m *Machine) MkBits64(x uint64) Value { return m.mkBits(CellBits64, x, false) }

// MkBits8Guarded is MkBits8 inside an allocation guard.
func (m *Machine) MkBits8Guarded(x uint8) Value { return m.mkBits(CellBits8, uint64(x), true) }

// MkBits16Guarded is MkBits16 inside an allocation guard.
func (m *Machine) MkBits16Guarded(x uint16) Value { return m.mkBits(CellBits16, uint64(x), true) }

// MkBits32Guarded is MkBits32 inside an allocation guard.
func (m *Machine) MkBits32Guarded(x uint32) Value { return m.mkBits(CellBits32, uint64(x), true) }

// MkBits64Guarded is MkBits64 inside an allocation guard.
func (m *Machine) MkBits64Guarded(x uint64) Value { return m.mkBits(CellBits64, x, true) }

// ---------------------------------------------------------------------------
// Pointers and buffers
// ---------------------------------------------------------------------------

// MkPtr builds an opaque pointer cell holding a foreign address whose
// lifetime the runtime does not manage.
func (m *Machine) MkPtr(addr uintptr) Value {
	cl := m.allocate(cellHeaderSize+wordSize, false)
	cl.setType(CellPtr)
	cl.setWord(uint64(addr))
	return cl
}

// MkPtrGuarded is MkPtr inside an allocation guard.
func (m *Machine) MkPtrGuarded(addr uintptr) Value {
	cl := m.allocate(cellHeaderSize+wordSize, true)
	cl.setType(CellPtr)
	cl.setWord(uint64(addr))
	return cl
}

func (m *Machine) mkManaged(data []byte, outer bool) Value {
	cl := m.allocate(cellHeaderSize+wordSize+uintptr(len(data)), outer)
	cl.setType(CellManagedPtr)
	cl.setPayloadLen(uintptr(len(data)))
	copy(cl.payloadBytes(), data)
	return cl
}

// MkManaged builds a managed pointer cell owning a copy of data.
func (m *Machine) MkManaged(data []byte) Value {
	return m.mkManaged(data, false)
}

// MkManagedGuarded is MkManaged inside an allocation guard.
func (m *Machine) MkManagedGuarded(data []byte) Value {
	return m.mkManaged(data, true)
}

// ---------------------------------------------------------------------------
// C-heap handles
// ---------------------------------------------------------------------------

func (m *Machine) mkCData(item *CHeapItem, outer bool) Value {
	m.cheap.insertIfNeeded(item)
	cl := m.allocate(cellHeaderSize+wordSize, outer)
	cl.setType(CellCData)
	cl.setWord(uint64(uintptr(unsafe.Pointer(item))))
	return cl
}

// MkCData builds a cell referencing a finalizer-tracked C-heap item,
// registering the item with this machine's C-heap if it is not yet tracked.
func (m *Machine) MkCData(item *CHeapItem) Value {
	return m.mkCData(item, false)
}

// MkCDataGuarded is MkCData inside an allocation guard.
func (m *Machine) MkCDataGuarded(item *CHeapItem) Value {
	return m.mkCData(item, true)
}

// CData returns the C-heap item referenced by a cdata cell.
func (v Value) CData() *CHeapItem {
	return itemFromAddr(uintptr(v.Bits()))
}
