package rt

import "time"

// ---------------------------------------------------------------------------
// Inbox: bounded FIFO of pending messages
// ---------------------------------------------------------------------------

// recvBackstop bounds each wait inside a blocking receive. The receive loop
// re-checks the inbox on every expiry, so a lost wakeup delays delivery by
// at most this much rather than hanging the receiver. It is a liveness
// backstop, not an error signal.
const recvBackstop = 3 * time.Second

// msgSlot is one pending inbox entry.
type msgSlot struct {
	sender *Machine
	val    Value
}

// Msg is a received message, detached from the inbox.
type Msg struct {
	sender *Machine
	val    Value
}

// Value returns the message payload, a value on the receiver's heap.
func (m *Msg) Value() Value { return m.val }

// Sender returns the machine that sent the message.
func (m *Msg) Sender() *Machine { return m.sender }

// Free releases the message record. The payload itself is reclaimed by the
// receiver's collector once unreferenced.
func (m *Msg) Free() {
	m.sender = nil
	m.val = NullValue
}

// ---------------------------------------------------------------------------
// Send
// ---------------------------------------------------------------------------

// Send copies v into dest's heap and appends it to dest's inbox. It returns
// false, leaving dest untouched, if dest is no longer active: late messages
// to terminated machines are dropped, not an error.
//
// The copy runs under dest's allocation lock so dest's own threads cannot
// race the allocator. If dest collects during the copy, every pointer the
// copy produced is stale; the send repeats the copy once, on the assumption
// that the collection has made enough room for it to run undisturbed.
//
// A full inbox is fatal.
func (m *Machine) Send(dest *Machine, v Value) bool {
	if !dest.active.Load() {
		return false
	}

	gcs := dest.gcCount.Load()
	dest.allocLock.Lock()
	dmsg := CopyTo(dest, v)
	dest.allocLock.Unlock()

	if dest.gcCount.Load() > gcs {
		dest.allocLock.Lock()
		dmsg = CopyTo(dest, v)
		dest.allocLock.Unlock()
	}

	dest.inboxLock.Lock()
	if dest.inbox == nil {
		// Torn down between the active check and here; drop.
		dest.inboxLock.Unlock()
		return false
	}
	if dest.inboxWrite >= len(dest.inbox) {
		panic("rt: inbox full")
	}
	dest.inbox[dest.inboxWrite] = msgSlot{sender: m, val: dmsg}
	dest.inboxWrite++

	// Wake the receiver. The channel carries at most one pending wakeup;
	// the receive loop re-scans after every wakeup anyway.
	select {
	case dest.notify <- struct{}{}:
	default:
	}
	dest.inboxLock.Unlock()
	return true
}

// ---------------------------------------------------------------------------
// Check
// ---------------------------------------------------------------------------

// Check scans the pending messages for one sent by from (any sender if from
// is nil) and returns that sender, or nil if none is pending. The inbox is
// not modified.
func (m *Machine) Check(from *Machine) *Machine {
	m.inboxLock.Lock()
	defer m.inboxLock.Unlock()
	for i := 0; i < m.inboxWrite; i++ {
		if from == nil || m.inbox[i].sender == from {
			return m.inbox[i].sender
		}
	}
	return nil
}

// CheckTimeout is Check with a grace period: if the inbox is empty it waits
// up to delay for a message to arrive, then scans once more.
func (m *Machine) CheckTimeout(delay time.Duration) *Machine {
	if sender := m.Check(nil); sender != nil {
		return sender
	}
	select {
	case <-m.notify:
	case <-time.After(delay):
	}
	return m.Check(nil)
}

// ---------------------------------------------------------------------------
// Receive
// ---------------------------------------------------------------------------

// Recv blocks until a message from from (any sender if from is nil) is
// pending, removes it from the inbox, and returns it. Remaining messages
// slide down to fill the gap, so delivery from any single sender is FIFO.
func (m *Machine) Recv(from *Machine) *Msg {
	for {
		m.inboxLock.Lock()
		for i := 0; i < m.inboxWrite; i++ {
			if from != nil && m.inbox[i].sender != from {
				continue
			}
			msg := &Msg{sender: m.inbox[i].sender, val: m.inbox[i].val}
			copy(m.inbox[i:m.inboxWrite-1], m.inbox[i+1:m.inboxWrite])
			m.inboxWrite--
			m.inbox[m.inboxWrite] = msgSlot{}
			m.inboxLock.Unlock()
			return msg
		}
		m.inboxLock.Unlock()

		select {
		case <-m.notify:
		case <-time.After(recvBackstop):
		}
	}
}
