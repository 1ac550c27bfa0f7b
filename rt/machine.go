package rt

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Default machine geometry.
const (
	DefaultStackSize = 4096000
	DefaultHeapSize  = 4096000
	DefaultInboxCap  = 1024
)

// Machine is a self-contained execution context: a value stack, a managed
// heap, a finalizer-tracked auxiliary heap and, for machines with peers, a
// message inbox. Machines interact only by copying values into each other
// (CopyTo) and enqueueing the copies (Send).
//
// All operations take the machine explicitly; there is no ambient
// "current machine". A machine's stack and heap must only be touched by the
// goroutine running it, except where the inbox and allocation locks say
// otherwise.
type Machine struct {
	// ID identifies the machine in diagnostics and telemetry.
	ID uuid.UUID

	valstack []Value
	base     int
	top      int

	heap heap
	// prevRegion pins the from-space of the latest collection. A message
	// copy that raced the collector may still write through pointers into
	// it before noticing the collection counter moved; the retry discards
	// those writes, but the memory has to stay valid until then.
	prevRegion []byte
	cheap      cHeap
	stats      liveStats
	gcCount    atomic.Uint64

	// Ret and Reg1 are the result and scratch registers. Both are
	// collector roots.
	Ret  Value
	Reg1 Value

	inbox      []msgSlot
	inboxWrite int
	inboxLock  sync.Mutex
	notify     chan struct{}

	// allocLock serializes heap mutation against peer machines copying
	// messages in. The machine's own allocations take it only when
	// processes > 0; senders always take it while copying in.
	allocLock   sync.Mutex
	guardLocked bool

	maxPeers  int
	processes atomic.Int32
	active    atomic.Bool
}

// New creates a machine with the given stack size (in values), heap size
// (in bytes) and peer limit, and the default inbox capacity.
func New(stackSize, heapSize, maxPeers int) *Machine {
	return NewSized(stackSize, heapSize, maxPeers, DefaultInboxCap)
}

// NewSized is New with an explicit inbox capacity.
func NewSized(stackSize, heapSize, maxPeers, inboxCap int) *Machine {
	runtimeInit()

	m := &Machine{
		ID:       uuid.New(),
		valstack: make([]Value, stackSize),
		inbox:    make([]msgSlot, inboxCap),
		notify:   make(chan struct{}, 1),
		maxPeers: maxPeers,
	}
	m.heap.init(uintptr(heapSize))
	m.cheap.init()
	m.stats.InitAt = time.Now()
	m.stats.MaxHeapBytes = uint64(m.heap.size)
	m.active.Store(true)
	return m
}

// Active reports whether the machine is accepting messages.
func (m *Machine) Active() bool {
	return m.active.Load()
}

// Collections returns the number of collections performed so far. Safe to
// call from peer machines.
func (m *Machine) Collections() uint64 {
	return m.gcCount.Load()
}

// Terminate releases the machine's stack, heap, auxiliary heap and inbox,
// and returns the final statistics. The machine record itself is retained,
// with active cleared, so that late senders observe an inactive machine and
// drop their messages instead of crashing.
func (m *Machine) Terminate() Stats {
	stats := m.stats.snapshot(m.gcCount.Load())

	m.inboxLock.Lock()
	m.inbox = nil
	m.inboxWrite = 0
	m.inboxLock.Unlock()

	m.valstack = nil
	m.base, m.top = 0, 0
	m.Ret, m.Reg1 = NullValue, NullValue
	m.heap.release()
	m.cheap.destroy()

	m.active.Store(false)
	return stats
}

// ---------------------------------------------------------------------------
// Value stack
// ---------------------------------------------------------------------------

// Push places v on top of the value stack. Overflow is fatal.
func (m *Machine) Push(v Value) {
	if m.top >= len(m.valstack) {
		panic("rt: value stack overflow")
	}
	m.valstack[m.top] = v
	m.top++
}

// Pop removes and returns the top of the value stack.
func (m *Machine) Pop() Value {
	if m.top <= m.base {
		panic("rt: value stack underflow")
	}
	m.top--
	v := m.valstack[m.top]
	m.valstack[m.top] = NullValue
	return v
}

// Local returns the i'th slot above the current activation base.
func (m *Machine) Local(i int) Value {
	return m.valstack[m.base+i]
}

// SetLocal stores into the i'th slot above the current activation base.
func (m *Machine) SetLocal(i int, v Value) {
	m.valstack[m.base+i] = v
}

// StackDepth returns the number of live stack slots.
func (m *Machine) StackDepth() int {
	return m.top
}

// Rebase moves the activation base to the current top, starting a fresh
// activation whose locals are pushed afterwards.
func (m *Machine) Rebase() {
	m.base = m.top
}

// ---------------------------------------------------------------------------
// Spawn
// ---------------------------------------------------------------------------

// Spawn creates a peer machine with this machine's geometry, copies arg into
// it, and runs f on a new goroutine with arg as the sole stack local. The
// peer counts against this machine's process counter until f returns, at
// which point the peer is terminated.
func (m *Machine) Spawn(f func(*Machine, Value), arg Value) *Machine {
	peer := NewSized(len(m.valstack), int(m.heap.size), m.maxPeers, len(m.inbox))
	// The peer can exchange messages from its first instruction.
	peer.processes.Store(1)

	carg := CopyTo(peer, arg)
	m.processes.Add(1)

	go func() {
		peer.Rebase()
		peer.Push(carg)
		f(peer, carg)
		m.processes.Add(-1)
		peer.Terminate()
	}()
	return peer
}

// ---------------------------------------------------------------------------
// System information
// ---------------------------------------------------------------------------

// SystemInfo returns runtime identification strings: index 0 is the backend
// name, 1 the target OS, 2 the target triple-ish description.
func (m *Machine) SystemInfo(index int64) Value {
	switch index {
	case 0:
		return m.MkStr("go")
	case 1:
		return m.MkStr(targetOS())
	case 2:
		return m.MkStr(fmt.Sprintf("%s-%s", targetArch(), targetOS()))
	}
	return m.MkStr("")
}
