package rt

import (
	"bufio"
	"strings"
	"testing"
)

func TestMkStrReadBack(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	v := m.MkStr("hello")
	if v.Type() != CellString {
		t.Fatalf("Type = %v, want string", v.Type())
	}
	if got := GetStr(v); got != "hello" {
		t.Errorf("GetStr = %q, want hello", got)
	}
	if got := m.StrLen(v).Int(); got != 5 {
		t.Errorf("StrLen = %d, want 5", got)
	}
}

func TestConcat(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	v := m.Concat(m.MkStr("foo"), m.MkStr("bar"))
	if got := GetStr(v); got != "foobar" {
		t.Errorf("Concat = %q, want foobar", got)
	}
	if got := m.StrLen(v).Int(); got != 6 {
		t.Errorf("StrLen = %d, want 6", got)
	}
}

func TestStrTailFlattensSlices(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	orig := m.MkStr("abc")
	tail2 := m.StrTail(m.StrTail(orig))

	if got := GetStr(tail2); got != "c" {
		t.Fatalf("tail(tail) = %q, want c", got)
	}
	if tail2.Type() != CellStrOffset {
		t.Fatalf("tail(tail) type = %v, want stroffset", tail2.Type())
	}
	if tail2.StrOffsetRoot() != orig {
		t.Error("slice root is not the original string cell")
	}
	if tail2.StrOffset() != 2 {
		t.Errorf("slice offset = %d, want 2", tail2.StrOffset())
	}
}

func TestStrTailMultibyte(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	v := m.StrTail(m.MkStr("héllo"))
	if got := GetStr(v); got != "éllo" {
		t.Errorf("tail = %q, want éllo", got)
	}
	v2 := m.StrTail(v)
	if got := GetStr(v2); got != "llo" {
		t.Errorf("tail(tail) = %q, want llo", got)
	}
}

func TestStrHeadIndex(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	s := m.MkStr("héllo")
	if got := m.StrHead(s).Int(); got != 'h' {
		t.Errorf("head = %d, want %d", got, 'h')
	}
	if got := m.StrIndex(s, 1).Int(); got != 'é' {
		t.Errorf("index 1 = %d, want %d", got, 'é')
	}
	if got := m.StrIndex(s, 4).Int(); got != 'o' {
		t.Errorf("index 4 = %d, want %d", got, 'o')
	}
}

func TestStrCons(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	if got := GetStr(m.StrCons('a', m.MkStr("bc"))); got != "abc" {
		t.Errorf("cons ascii = %q, want abc", got)
	}
	if got := GetStr(m.StrCons('é', m.MkStr("xy"))); got != "éxy" {
		t.Errorf("cons multibyte = %q, want éxy", got)
	}
}

func TestSubstr(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	s := m.MkStr("héllo world")
	cases := []struct {
		offset, length int64
		want           string
	}{
		{0, 5, "héllo"},
		{6, 5, "world"},
		{1, 3, "éll"},
		{8, 100, "rld"},
		{100, 5, ""},
	}
	for _, c := range cases {
		if got := GetStr(m.Substr(c.offset, c.length, s)); got != c.want {
			t.Errorf("Substr(%d, %d) = %q, want %q", c.offset, c.length, got, c.want)
		}
	}
}

func TestStrRev(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	if got := GetStr(m.StrRev(m.MkStr("abc"))); got != "cba" {
		t.Errorf("rev = %q, want cba", got)
	}
	if got := GetStr(m.StrRev(m.MkStr("héllo"))); got != "olléh" {
		t.Errorf("rev multibyte = %q, want olléh", got)
	}
}

func TestStrCompare(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	a, b := m.MkStr("apple"), m.MkStr("banana")
	if m.StrLt(a, b).Int() != 1 {
		t.Error("apple < banana must hold")
	}
	if m.StrLt(b, a).Int() != 0 {
		t.Error("banana < apple must not hold")
	}
	if m.StrEq(a, m.MkStr("apple")).Int() != 1 {
		t.Error("apple == apple must hold")
	}
	if m.StrEq(a, b).Int() != 0 {
		t.Error("apple == banana must not hold")
	}
}

func TestIntCasts(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	if got := GetStr(m.CastIntStr(FromInt(42))); got != "42" {
		t.Errorf("CastIntStr(42) = %q", got)
	}
	if got := GetStr(m.CastIntStr(FromInt(-7))); got != "-7" {
		t.Errorf("CastIntStr(-7) = %q", got)
	}

	cases := []struct {
		in   string
		want int64
	}{
		{"42", 42},
		{"-13", -13},
		{"42\n", 42},
		{"  42\r", 42},
		{"42x", 0},
		{"x42", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := m.CastStrInt(m.MkStr(c.in)).Int(); got != c.want {
			t.Errorf("CastStrInt(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFloatCasts(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	if got := GetStr(m.CastFloatStr(m.MkFloat(1.5))); got != "1.5" {
		t.Errorf("CastFloatStr(1.5) = %q", got)
	}

	cases := []struct {
		in   string
		want float64
	}{
		{"1.5", 1.5},
		{"-2.25", -2.25},
		{"3e2", 300},
		{"4.5junk", 4.5},
		{"junk", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := m.CastStrFloat(m.MkStr(c.in)).Float(); got != c.want {
			t.Errorf("CastStrFloat(%q) = %g, want %g", c.in, got, c.want)
		}
	}
}

func TestBitsCasts(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	if got := GetStr(m.CastBitsStr(m.MkBits8(255))); got != "255" {
		t.Errorf("CastBitsStr(b8 255) = %q", got)
	}
	if got := GetStr(m.CastBitsStr(m.MkBits64(1 << 40))); got != "1099511627776" {
		t.Errorf("CastBitsStr(b64) = %q", got)
	}
}

func TestReadStr(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	r := bufio.NewReader(strings.NewReader("first line\nsecond"))
	if got := GetStr(m.ReadStr(r)); got != "first line\n" {
		t.Errorf("first read = %q", got)
	}
	if got := GetStr(m.ReadStr(r)); got != "second" {
		t.Errorf("second read = %q", got)
	}
	if got := GetStr(m.ReadStr(r)); got != "" {
		t.Errorf("read at EOF = %q, want empty", got)
	}
}
