package rt

import "fmt"

// ---------------------------------------------------------------------------
// Cross-machine copy
// ---------------------------------------------------------------------------

// CopyTo deep-copies x into dest's heap and returns the copy. x lives on a
// different machine; the result is structurally identical, with interned
// nullary constructors shared rather than duplicated.
//
// All allocations run in guarded mode. Callers racing dest's own threads
// must hold dest's allocation lock (Send does) and must retry if dest's
// collection counter advances mid-copy: a collection on dest invalidates
// every pointer the traversal has produced so far.
func CopyTo(dest *Machine, x Value) Value {
	if x.IsNull() || x.IsInt() {
		return x
	}
	switch x.Type() {
	case CellCon:
		ar := x.ConArity()
		if ar == 0 && x.ConTag() < nullaryCount {
			return x // interned, shared across machines
		}
		cl := dest.allocCon(x.ConTag(), ar, true)
		for i := 0; i < ar; i++ {
			cl.SetConArg(i, CopyTo(dest, x.ConArg(i)))
		}
		return cl
	case CellString:
		return dest.MkStrGuarded(x.StrBytes())
	case CellStrOffset:
		// Copy the root and rebuild the slice; the root is a real string
		// cell by the flattening invariant.
		root := dest.MkStrGuarded(x.StrOffsetRoot().StrBytes())
		return dest.mkStrOffset(root, x.StrOffset(), true)
	case CellBigInt:
		return dest.mkBigBytes(x.payloadBytes(), true)
	case CellFloat:
		return dest.MkFloatGuarded(x.Float())
	case CellPtr:
		return dest.MkPtrGuarded(x.Ptr())
	case CellManagedPtr:
		return dest.MkManagedGuarded(x.ManagedBytes())
	case CellBits8, CellBits16, CellBits32, CellBits64:
		return dest.mkBits(x.Type(), x.Bits(), true)
	case CellRawData:
		n := x.payloadLen()
		cl := dest.allocate(cellHeaderSize+wordSize+n, true)
		cl.setType(CellRawData)
		cl.setPayloadLen(n)
		copy(cl.RawBytes(), x.RawBytes())
		return cl
	}
	panic(fmt.Sprintf("rt: cannot copy %s cell between machines", x.Type()))
}
