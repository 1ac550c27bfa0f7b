package rt

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestArgsCapture(t *testing.T) {
	runtimeInit()
	defer SetArgs(os.Args)

	SetArgs([]string{"prog", "one", "two"})
	if NumArgs() != 3 {
		t.Errorf("NumArgs = %d, want 3", NumArgs())
	}
	if GetArg(1) != "one" {
		t.Errorf("GetArg(1) = %q", GetArg(1))
	}
	if GetArg(9) != "" {
		t.Errorf("GetArg out of range = %q, want empty", GetArg(9))
	}
}

func TestErrno(t *testing.T) {
	if got := Errno(unix.ENOENT); got != int(unix.ENOENT) {
		t.Errorf("Errno = %d, want ENOENT", got)
	}
	if got := Errno(nil); got != 0 {
		t.Errorf("Errno(nil) = %d, want 0", got)
	}
	if ShowError(int(unix.ENOENT)) == "" {
		t.Error("ShowError(ENOENT) must not be empty")
	}
	if ShowError(0) != "" {
		t.Error("ShowError(0) must be empty")
	}
}

func TestSystemInfo(t *testing.T) {
	m := testMachine()
	defer m.Terminate()

	if got := GetStr(m.SystemInfo(0)); got != "go" {
		t.Errorf("backend = %q, want go", got)
	}
	if GetStr(m.SystemInfo(1)) == "" {
		t.Error("target OS must not be empty")
	}
	if GetStr(m.SystemInfo(99)) != "" {
		t.Error("unknown index must yield empty string")
	}
}
