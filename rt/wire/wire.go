// Package wire serializes value trees to canonical CBOR. Snapshots are
// machine-independent: decoding rebuilds the tree on whichever machine
// receives it, so they can be persisted or shipped between processes.
package wire

import (
	"fmt"
	"math"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/reedlang/reed/rt"
)

// cborEncMode uses canonical options so equal trees encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Node kinds.
const (
	KindInt     = "int"
	KindCon     = "con"
	KindStr     = "str"
	KindBig     = "big"
	KindFloat   = "float"
	KindManaged = "managed"
	KindRaw     = "raw"
	KindBits8   = "b8"
	KindBits16  = "b16"
	KindBits32  = "b32"
	KindBits64  = "b64"
)

// Node is the portable form of one value. Floats and word cells ride in the
// Bits field so payloads stay bit-exact through the codec.
type Node struct {
	Kind  string  `cbor:"k"`
	Int   int64   `cbor:"i,omitempty"`
	Tag   int     `cbor:"t,omitempty"`
	Args  []*Node `cbor:"a,omitempty"`
	Str   string  `cbor:"s,omitempty"`
	Bits  uint64  `cbor:"w,omitempty"`
	Bytes []byte  `cbor:"b,omitempty"`
}

// Encode converts a value tree into its portable form. Opaque pointers and
// C-heap handles are process-local and do not serialize.
func Encode(v rt.Value) (*Node, error) {
	if v.IsNull() {
		return nil, fmt.Errorf("wire: cannot encode null value")
	}
	if v.IsInt() {
		return &Node{Kind: KindInt, Int: v.Int()}, nil
	}
	switch v.Type() {
	case rt.CellCon:
		n := &Node{Kind: KindCon, Tag: v.ConTag()}
		for i := 0; i < v.ConArity(); i++ {
			arg, err := Encode(v.ConArg(i))
			if err != nil {
				return nil, err
			}
			n.Args = append(n.Args, arg)
		}
		return n, nil
	case rt.CellString, rt.CellStrOffset:
		return &Node{Kind: KindStr, Str: rt.GetStr(v)}, nil
	case rt.CellBigInt:
		return &Node{Kind: KindBig, Str: v.Big().Text(10)}, nil
	case rt.CellFloat:
		return &Node{Kind: KindFloat, Bits: v.Bits()}, nil
	case rt.CellManagedPtr:
		return &Node{Kind: KindManaged, Bytes: append([]byte(nil), v.ManagedBytes()...)}, nil
	case rt.CellRawData:
		return &Node{Kind: KindRaw, Bytes: append([]byte(nil), v.RawBytes()...)}, nil
	case rt.CellBits8:
		return &Node{Kind: KindBits8, Bits: v.Bits()}, nil
	case rt.CellBits16:
		return &Node{Kind: KindBits16, Bits: v.Bits()}, nil
	case rt.CellBits32:
		return &Node{Kind: KindBits32, Bits: v.Bits()}, nil
	case rt.CellBits64:
		return &Node{Kind: KindBits64, Bits: v.Bits()}, nil
	}
	return nil, fmt.Errorf("wire: cannot encode %s cell", v.Type())
}

// Decode rebuilds a portable node as a value tree on m. Children are rooted
// on m's stack while their siblings are built, so collections during
// decoding are safe.
func Decode(m *rt.Machine, n *Node) (rt.Value, error) {
	switch n.Kind {
	case KindInt:
		return rt.FromInt(n.Int), nil
	case KindCon:
		for _, c := range n.Args {
			v, err := Decode(m, c)
			if err != nil {
				return rt.NullValue, err
			}
			m.Push(v)
		}
		args := make([]rt.Value, len(n.Args))
		for i := len(n.Args) - 1; i >= 0; i-- {
			args[i] = m.Pop()
		}
		return m.MkCon(n.Tag, args...), nil
	case KindStr:
		return m.MkStr(n.Str), nil
	case KindBig:
		x, ok := new(big.Int).SetString(n.Str, 10)
		if !ok {
			return rt.NullValue, fmt.Errorf("wire: malformed bigint %q", n.Str)
		}
		return m.MkBig(x), nil
	case KindFloat:
		return m.MkFloat(math.Float64frombits(n.Bits)), nil
	case KindManaged:
		return m.MkManaged(n.Bytes), nil
	case KindRaw:
		cl := m.Alloc(uintptr(len(n.Bytes)))
		copy(cl.RawBytes(), n.Bytes)
		return cl, nil
	case KindBits8:
		return m.MkBits8(uint8(n.Bits)), nil
	case KindBits16:
		return m.MkBits16(uint16(n.Bits)), nil
	case KindBits32:
		return m.MkBits32(uint32(n.Bits)), nil
	case KindBits64:
		return m.MkBits64(n.Bits), nil
	}
	return rt.NullValue, fmt.Errorf("wire: unknown node kind %q", n.Kind)
}

// Marshal serializes a value tree to canonical CBOR bytes.
func Marshal(v rt.Value) ([]byte, error) {
	n, err := Encode(v)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(n)
}

// Unmarshal deserializes CBOR bytes as a value tree on m.
func Unmarshal(m *rt.Machine, data []byte) (rt.Value, error) {
	var n Node
	if err := cbor.Unmarshal(data, &n); err != nil {
		return rt.NullValue, fmt.Errorf("wire: unmarshal snapshot: %w", err)
	}
	return Decode(m, &n)
}
