package rt

import (
	"math"
	"math/big"
	"testing"
)

func TestCopyToDeepEquality(t *testing.T) {
	src := New(1024, 64*1024, 0)
	defer src.Terminate()
	dst := New(1024, 64*1024, 0)
	defer dst.Terminate()

	x, _ := new(big.Int).SetString("123456789123456789123456789", 10)
	tree := src.MkCon(400,
		FromInt(-42),
		src.MkStr("deep"),
		src.MkFloat(math.Pi),
		src.MkCon(401, src.MkBits32(0xCAFE), src.MkBig(x)),
		src.MkManaged([]byte{9, 8, 7}),
	)

	got := CopyTo(dst, tree)

	if got == tree {
		t.Fatal("copy returned the source reference")
	}
	if got.ConTag() != 400 || got.ConArity() != 5 {
		t.Fatalf("copied tag=%d arity=%d", got.ConTag(), got.ConArity())
	}
	if got.ConArg(0) != FromInt(-42) {
		t.Error("integer child must be preserved bit-exactly")
	}
	if GetStr(got.ConArg(1)) != "deep" {
		t.Error("string child corrupted")
	}
	if math.Float64bits(got.ConArg(2).Float()) != math.Float64bits(math.Pi) {
		t.Error("float child must be preserved bit-exactly")
	}
	inner := got.ConArg(3)
	if inner.ConTag() != 401 || inner.ConArg(0).Bits() != 0xCAFE {
		t.Error("nested constructor corrupted")
	}
	if inner.ConArg(1).Big().Cmp(x) != 0 {
		t.Error("bigint child corrupted")
	}
	mb := got.ConArg(4).ManagedBytes()
	if len(mb) != 3 || mb[0] != 9 || mb[2] != 7 {
		t.Error("managed child corrupted")
	}
}

func TestCopyToSharesNullaries(t *testing.T) {
	src := New(1024, 64*1024, 0)
	defer src.Terminate()
	dst := New(1024, 64*1024, 0)
	defer dst.Terminate()

	v := src.MkCon(5)
	if got := CopyTo(dst, v); got != v {
		t.Error("nullary constructor must be shared, not copied")
	}

	// Large tags are real cells and must be copied.
	wide := src.MkCon(700)
	got := CopyTo(dst, wide)
	if got == wide {
		t.Error("tag 700 must be deep-copied")
	}
	if got.ConTag() != 700 || got.ConArity() != 0 {
		t.Error("copied nullary cell corrupted")
	}
}

func TestCopyToFlattensSlices(t *testing.T) {
	src := New(1024, 64*1024, 0)
	defer src.Terminate()
	dst := New(1024, 64*1024, 0)
	defer dst.Terminate()

	tail := src.StrTail(src.StrTail(src.MkStr("abcd")))
	got := CopyTo(dst, tail)

	if GetStr(got) != "cd" {
		t.Fatalf("copied slice reads %q, want cd", GetStr(got))
	}
	if got.Type() == CellStrOffset && got.StrOffsetRoot().Type() != CellString {
		t.Error("copied slice root must be a string cell")
	}
}

func TestCopyToIntsNoAlloc(t *testing.T) {
	dst := New(1024, 64*1024, 0)
	defer dst.Terminate()

	before := dst.stats.Allocations
	if got := CopyTo(dst, FromInt(99)); got != FromInt(99) {
		t.Error("integers copy as themselves")
	}
	if dst.stats.Allocations != before {
		t.Error("integer copy must not allocate")
	}
}

func TestCopyToRawData(t *testing.T) {
	src := New(1024, 64*1024, 0)
	defer src.Terminate()
	dst := New(1024, 64*1024, 0)
	defer dst.Terminate()

	raw := src.Alloc(16)
	copy(raw.RawBytes(), []byte("bookkeeping data"))
	got := CopyTo(dst, raw)
	if string(got.RawBytes()) != "bookkeeping data" {
		t.Errorf("raw copy reads %q", got.RawBytes())
	}
}
