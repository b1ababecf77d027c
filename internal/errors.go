package internal

import "fmt"

// FatalError is a diagnostic that cannot be recovered from within the
// program: it unwinds the dispatch loop, transitions the VM's exit status
// to failure, and stops every other thread.
type FatalError struct {
	Message   string
	Backtrace []string
}

func (e *FatalError) Error() string {
	return e.Message
}

// fatalf builds a FatalError with no backtrace attached yet; the backtrace
// is filled in by VM.reportFatal from the raising thread's call frames.
func fatalf(format string, args ...interface{}) *FatalError {
	return &FatalError{Message: fmt.Sprintf(format, args...)}
}
