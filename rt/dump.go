package rt

import (
	"fmt"
	"io"
)

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

// DumpVal writes a compact rendering of v to w.
func DumpVal(w io.Writer, v Value) {
	if v.IsNull() {
		return
	}
	if v.IsInt() {
		fmt.Fprintf(w, "%d ", v.Int())
		return
	}
	switch v.Type() {
	case CellCon:
		fmt.Fprintf(w, "%d[", v.ConTag())
		for i := 0; i < v.ConArity(); i++ {
			DumpVal(w, v.ConArg(i))
		}
		fmt.Fprint(w, "] ")
	case CellString:
		fmt.Fprintf(w, "STR[%s]", GetStr(v))
	case CellStrOffset:
		fmt.Fprintf(w, "OFF[%s]", GetStr(v))
	case CellFwd:
		fmt.Fprint(w, "FWD ")
		DumpVal(w, v.fwd())
	default:
		fmt.Fprintf(w, "%s ", v.Type())
	}
}

// DumpStack writes every live stack slot and the result register to w,
// flagging values that point into the machine's own heap.
func (m *Machine) DumpStack(w io.Writer) {
	for i := 0; i < m.top; i++ {
		v := m.valstack[i]
		fmt.Fprintf(w, "%d: ", i)
		DumpVal(w, v)
		if !v.IsNull() && !v.IsInt() && v.addr() >= m.heap.base && v.addr() < m.heap.end {
			fmt.Fprint(w, "OK")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, "RET: ")
	DumpVal(w, m.Ret)
	fmt.Fprintln(w)
}
