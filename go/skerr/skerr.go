// Package skerr adds call-site context to errors as they propagate up the
// stack, without losing the ability to recover the original error via the
// standard errors.Is/errors.As/errors.Unwrap machinery.
package skerr

import (
	"fmt"
	"runtime"
	"strconv"
)

// StackTrace is one call-site frame recorded by Wrap/Wrapf/Fmt.
type StackTrace struct {
	File string
	Line int
}

// String renders a frame as "file.go:line".
func (s StackTrace) String() string {
	return s.File + ":" + strconv.Itoa(s.Line)
}

// CallStack returns up to n frames, skipping the innermost skip frames
// (0 = the caller of CallStack itself).
func CallStack(n, skip int) []StackTrace {
	out := make([]StackTrace, 0, n)
	for i := 0; i < n; i++ {
		_, file, line, ok := runtime.Caller(skip + 1 + i)
		if !ok {
			break
		}
		out = append(out, StackTrace{File: shortFile(file), Line: line})
	}
	return out
}

func shortFile(file string) string {
	for i := len(file) - 1; i >= 0; i-- {
		if file[i] == '/' {
			return file[i+1:]
		}
	}
	return file
}

// withContext is an error decorated with the call site it passed through.
type withContext struct {
	cause error
	frame StackTrace
	msg   string // empty unless this frame also carries a formatted message
}

func (e *withContext) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("%s. At %s", e.msg, e.frame)
	}
	return fmt.Sprintf("%s. At %s", e.cause.Error(), e.frame)
}

func (e *withContext) Unwrap() error {
	return e.cause
}

// Wrap annotates err with the caller's file and line. Returns nil if err is
// nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	frames := CallStack(1, 1)
	if len(frames) == 0 {
		return err
	}
	return &withContext{cause: err, frame: frames[0]}
}

// Wrapf is Wrap plus a formatted message prepended ahead of the existing
// error text.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	frames := CallStack(1, 1)
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	frame := StackTrace{}
	if len(frames) > 0 {
		frame = frames[0]
	}
	return &withContext{cause: err, frame: frame, msg: msg}
}

// Fmt builds a brand new error (no pre-existing cause) carrying the call
// site it was created at, analogous to fmt.Errorf but with a stack frame.
func Fmt(format string, args ...interface{}) error {
	frames := CallStack(1, 1)
	frame := StackTrace{}
	if len(frames) > 0 {
		frame = frames[0]
	}
	base := fmt.Errorf(format, args...)
	return &withContext{cause: base, frame: frame, msg: base.Error()}
}

// Unwrap walks the chain of context frames added by this package and
// returns the first error that isn't one of ours.
func Unwrap(err error) error {
	for {
		wc, ok := err.(*withContext)
		if !ok {
			return err
		}
		err = wc.cause
	}
}
