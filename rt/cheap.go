package rt

import "unsafe"

// ---------------------------------------------------------------------------
// C-heap: finalizer-tracked auxiliary heap
// ---------------------------------------------------------------------------

// Finalizer is run when a C-heap item becomes unreachable from the managed
// heap, and for every surviving item when the machine terminates.
type Finalizer func(data []byte)

// CHeapItem is an externally owned payload whose lifetime is tied to the
// cdata cells referencing it. Items form a singly linked list per machine.
type CHeapItem struct {
	Data      []byte
	finalizer Finalizer
	marked    bool
	linked    bool
	next      *CHeapItem
}

// cHeap is the per-machine list of finalizer-tracked items.
type cHeap struct {
	head *CHeapItem
}

func (c *cHeap) init() {
	c.head = nil
}

// insertIfNeeded links item into the list the first time a cdata cell is
// built around it.
func (c *cHeap) insertIfNeeded(item *CHeapItem) {
	if item.linked {
		return
	}
	item.linked = true
	item.next = c.head
	c.head = item
}

func (c *cHeap) clearMarks() {
	for it := c.head; it != nil; it = it.next {
		it.marked = false
	}
}

// sweep finalizes and unlinks every unmarked item. Called at the end of a
// collection, after the scan phase has marked every item referenced by a
// live cdata cell.
func (c *cHeap) sweep() {
	for pp := &c.head; *pp != nil; {
		it := *pp
		if it.marked {
			pp = &it.next
			continue
		}
		*pp = it.next
		it.next = nil
		it.linked = false
		if it.finalizer != nil {
			it.finalizer(it.Data)
		}
	}
}

// destroy finalizes every remaining item. Called from Terminate.
func (c *cHeap) destroy() {
	for it := c.head; it != nil; {
		next := it.next
		it.next = nil
		it.linked = false
		if it.finalizer != nil {
			it.finalizer(it.Data)
		}
		it = next
	}
	c.head = nil
}

// itemFromAddr recovers the item pointer stored in a cdata cell. The item is
// kept reachable by the machine's C-heap list for as long as the cell can be
// live, so the round trip through an integer is safe.
func itemFromAddr(addr uintptr) *CHeapItem {
	return (*CHeapItem)(unsafe.Pointer(addr))
}

// ---------------------------------------------------------------------------
// Public C-heap interface
// ---------------------------------------------------------------------------

// CDataAllocate allocates size external bytes under finalizer tracking and
// returns the item, ready to be wrapped by MkCData.
func CDataAllocate(size int, fin Finalizer) *CHeapItem {
	return CDataManage(make([]byte, size), fin)
}

// CDataManage places an existing buffer under finalizer tracking.
func CDataManage(data []byte, fin Finalizer) *CHeapItem {
	return &CHeapItem{Data: data, finalizer: fin}
}
