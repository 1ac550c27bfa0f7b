package rt

import (
	"fmt"
	"unsafe"
)

// ---------------------------------------------------------------------------
// Copying collector
// ---------------------------------------------------------------------------

// collect runs a full copying collection, evacuating every live cell into a
// fresh region. Roots are the value stack below top, the Ret and Reg1
// registers, every pending inbox slot, and the C-heap items referenced by
// live cdata cells. Old cells are overwritten with forwarding cells as they
// move; no forwarding cell is reachable once collect returns.
//
// minFree is the chunk size the failing allocation needs; the new region is
// sized so the retry succeeds.
func (m *Machine) collect(minFree uintptr) {
	old := m.heap
	used := old.next - old.base

	size := old.target
	if need := roundUp8(used + minFree); size < need {
		size = need
	}

	region, base := newRegion(size)
	to := heap{region: region, base: base, next: base, end: base + size, size: size, target: old.target}

	m.cheap.clearMarks()

	// Evacuate roots.
	for i := 0; i < m.top; i++ {
		m.valstack[i] = m.evacuate(&old, &to, m.valstack[i])
	}
	m.Ret = m.evacuate(&old, &to, m.Ret)
	m.Reg1 = m.evacuate(&old, &to, m.Reg1)
	// Peers append to the inbox under inboxLock; the collector holds it
	// while relocating pending messages. Lock order is allocLock (already
	// held when peers are active) then inboxLock, same as the send path.
	m.inboxLock.Lock()
	for i := 0; i < m.inboxWrite; i++ {
		m.inbox[i].val = m.evacuate(&old, &to, m.inbox[i].val)
	}
	m.inboxLock.Unlock()

	// Cheney scan: fix embedded references of everything evacuated so far,
	// evacuating their targets in turn.
	for scan := to.base; scan < to.next; {
		cl := fromAddr(scan + wordSize)
		switch cl.Type() {
		case CellCon:
			for i := 0; i < cl.ConArity(); i++ {
				cl.SetConArg(i, m.evacuate(&old, &to, cl.ConArg(i)))
			}
		case CellStrOffset:
			cl.setStrOffset(m.evacuate(&old, &to, cl.StrOffsetRoot()), cl.StrOffset())
		case CellCData:
			itemFromAddr(uintptr(cl.Bits())).marked = true
		}
		scan += chunkSize(cl.addr())
	}

	m.cheap.sweep()

	live := to.next - to.base
	m.stats.CopiedBytes += uint64(live)
	if live*2 > size {
		to.target = size * 2
	} else {
		to.target = size
	}
	if uint64(size) > m.stats.MaxHeapBytes {
		m.stats.MaxHeapBytes = uint64(size)
	}

	m.prevRegion = old.region
	m.heap = to
	m.gcCount.Add(1)
}

// evacuate moves the cell behind v into the to-space and returns the new
// reference, installing a forwarding cell at the old location. Integers,
// null, and cells outside the old region (the interned nullary table) pass
// through untouched.
func (m *Machine) evacuate(old, to *heap, v Value) Value {
	if v.IsNull() || v.IsInt() {
		return v
	}
	addr := v.addr()
	if addr < old.base || addr >= old.next {
		return v
	}
	if v.Type() == CellFwd {
		return v.fwd()
	}

	chunk := chunkSize(addr)
	if to.next+chunk > to.end {
		panic(fmt.Sprintf("rt: collector out of space copying %d bytes", chunk))
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(addr-wordSize)), chunk)
	dst := unsafe.Slice((*byte)(unsafe.Pointer(to.next)), chunk)
	copy(dst, src)

	nv := fromAddr(to.next + wordSize)
	to.next += chunk
	v.setFwd(nv)
	return nv
}
