package rt

import "math/big"

// ---------------------------------------------------------------------------
// Arbitrary-precision integer cells
// ---------------------------------------------------------------------------

// Big integers are stored in situ: one sign byte followed by the big-endian
// magnitude, so the collector and the cross-machine copy move them as plain
// bytes.

func bigEncode(x *big.Int) []byte {
	payload := make([]byte, 1+len(x.Bytes()))
	if x.Sign() < 0 {
		payload[0] = 1
	}
	copy(payload[1:], x.Bytes())
	return payload
}

func (m *Machine) mkBigBytes(payload []byte, outer bool) Value {
	cl := m.allocate(cellHeaderSize+wordSize+uintptr(len(payload)), outer)
	cl.setType(CellBigInt)
	cl.setPayloadLen(uintptr(len(payload)))
	copy(cl.payloadBytes(), payload)
	return cl
}

// MkBig builds a bigint cell holding a copy of x.
func (m *Machine) MkBig(x *big.Int) Value {
	return m.mkBigBytes(bigEncode(x), false)
}

// MkBigGuarded is MkBig inside an allocation guard.
func (m *Machine) MkBigGuarded(x *big.Int) Value {
	return m.mkBigBytes(bigEncode(x), true)
}

// Big decodes a bigint cell into a fresh big.Int.
func (v Value) Big() *big.Int {
	payload := v.payloadBytes()
	x := new(big.Int).SetBytes(payload[1:])
	if payload[0] != 0 {
		x.Neg(x)
	}
	return x
}
