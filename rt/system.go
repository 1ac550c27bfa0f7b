package rt

import (
	"errors"
	"os"
	"os/signal"
	"runtime"
	"sync"

	"golang.org/x/sys/unix"
)

// ---------------------------------------------------------------------------
// Process-wide initialization
// ---------------------------------------------------------------------------

var initOnce sync.Once

// runtimeInit performs the once-per-process setup: the interned nullary
// table, program argument capture, and signal configuration. Invoked by the
// machine constructors; safe to call directly by embedders that need the
// globals before the first machine exists.
func runtimeInit() {
	initOnce.Do(func() {
		initNullaries()
		progArgs = os.Args
		// A peer writing to a torn-down pipe must surface as an error
		// return, not kill the process.
		signal.Ignore(unix.SIGPIPE)
	})
}

func targetOS() string   { return runtime.GOOS }
func targetArch() string { return runtime.GOARCH }

// ---------------------------------------------------------------------------
// Program arguments
// ---------------------------------------------------------------------------

var progArgs []string

// SetArgs overrides the captured program arguments. Embedders call this
// before handing control to runtime code.
func SetArgs(args []string) {
	progArgs = args
}

// NumArgs returns the number of captured program arguments.
func NumArgs() int {
	return len(progArgs)
}

// GetArg returns the i'th captured program argument, or "" out of range.
func GetArg(i int) string {
	if i < 0 || i >= len(progArgs) {
		return ""
	}
	return progArgs[i]
}

// ---------------------------------------------------------------------------
// Error numbers
// ---------------------------------------------------------------------------

// Errno extracts the OS error number from err, or 0 if err carries none.
func Errno(err error) int {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 0
}

// ShowError formats an OS error number as its system message.
func ShowError(errno int) string {
	if errno == 0 {
		return ""
	}
	return unix.Errno(errno).Error()
}
