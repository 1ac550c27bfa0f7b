package rt

import (
	"fmt"
	"unsafe"
)

// ---------------------------------------------------------------------------
// Managed heap: a contiguous bump-allocated region
// ---------------------------------------------------------------------------

// heap is a machine's managed region. Live cells occupy [base, next); each
// cell is preceded by a word recording its chunk size (header included) so
// the collector can walk the region linearly.
type heap struct {
	region []byte // backing store, keeps the memory reachable
	base   uintptr
	next   uintptr
	end    uintptr
	size   uintptr // usable bytes, end - base
	target uintptr // region size for the next collection (grows under pressure)
}

// newRegion allocates a fresh 8-aligned region of usable size n.
func newRegion(n uintptr) ([]byte, uintptr) {
	region := make([]byte, n+wordSize)
	base := (uintptr(unsafe.Pointer(&region[0])) + (wordSize - 1)) &^ (wordSize - 1)
	return region, base
}

func (h *heap) init(size uintptr) {
	size = roundUp8(size)
	h.region, h.base = newRegion(size)
	h.next = h.base
	h.end = h.base + size
	h.size = size
	h.target = size
}

func (h *heap) release() {
	h.region = nil
	h.base, h.next, h.end, h.size = 0, 0, 0, 0
}

func roundUp8(n uintptr) uintptr {
	return (n + 7) &^ 7
}

// chunkSize reads the in-band size word preceding the cell at addr.
func chunkSize(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr - wordSize))
}

// ---------------------------------------------------------------------------
// Allocation
// ---------------------------------------------------------------------------

// allocate carves size payload bytes (plus the size header) off the heap and
// returns the zeroed cell as a Value. It may run a collection; at most one
// collection is attempted per request. outer is true when the caller already
// holds the allocation lock (a reservation window or a message copy).
func (m *Machine) allocate(size uintptr, outer bool) Value {
	lock := m.processes.Load() > 0 && !outer
	if lock {
		m.allocLock.Lock()
		defer m.allocLock.Unlock()
	}

	size = roundUp8(size)
	chunk := size + wordSize

	if m.heap.next+chunk > m.heap.end {
		m.collect(chunk)
		if m.heap.next+chunk > m.heap.end {
			panic(fmt.Sprintf("rt: heap full: cannot allocate %d bytes", size))
		}
	}

	m.stats.Allocations++
	m.stats.AllocatedBytes += uint64(chunk)

	*(*uintptr)(unsafe.Pointer(m.heap.next)) = chunk
	addr := m.heap.next + wordSize
	m.heap.next += chunk

	clear(unsafe.Slice((*byte)(unsafe.Pointer(addr)), size))
	return fromAddr(addr)
}

// Space reports whether size bytes (plus the header) fit without collecting.
func (m *Machine) Space(size uintptr) bool {
	return m.heap.next+roundUp8(size)+wordSize <= m.heap.end
}

// ---------------------------------------------------------------------------
// Allocation guard: reserve-then-allocate without an intervening collection
// ---------------------------------------------------------------------------

// RequireAlloc opens a reservation window of at most size bytes. If the heap
// cannot satisfy the bound, a collection runs now, so that none runs inside
// the window and raw interior pointers stay valid until DoneAlloc. With
// active peers the allocation lock is held for the whole window, keeping
// message copies out of this heap.
func (m *Machine) RequireAlloc(size uintptr) {
	if m.processes.Load() > 0 {
		m.allocLock.Lock()
		m.guardLocked = true
	}
	if !m.Space(size) {
		m.collect(roundUp8(size) + wordSize)
	}
}

// DoneAlloc closes the reservation window opened by RequireAlloc.
func (m *Machine) DoneAlloc() {
	if m.guardLocked {
		m.guardLocked = false
		m.allocLock.Unlock()
	}
}

// ---------------------------------------------------------------------------
// Generic byte allocation on the managed heap
// ---------------------------------------------------------------------------

// Alloc allocates size arbitrary bytes on the managed heap, wrapped in a raw
// data cell, and returns the cell. The bytes live at RawBytes(); they move
// with the cell on collection.
func (m *Machine) Alloc(size uintptr) Value {
	cl := m.allocate(cellHeaderSize+wordSize+size, false)
	cl.setType(CellRawData)
	cl.setPayloadLen(size)
	return cl
}

// Realloc allocates a new raw data cell of the given size and copies the old
// cell's bytes into it. The old cell is left for the collector.
func (m *Machine) Realloc(old Value, size uintptr) Value {
	m.Reg1 = old // keep old rooted across the allocation
	cl := m.Alloc(size)
	old = m.Reg1
	m.Reg1 = NullValue
	copy(cl.RawBytes(), old.RawBytes())
	return cl
}

// Free is a no-op: raw data cells are reclaimed by the collector once
// unreferenced.
func (m *Machine) Free(Value) {}
