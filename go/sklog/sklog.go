// Package sklog is a thin, swappable facade over the process-wide logger.
// The core package logs sparingly through it (store and KV open/close
// only; corruption is returned as an error, not logged) rather than
// calling glog directly, so the backend can be
// swapped in tests without touching call sites.
package sklog

import "github.com/golang/glog"

// Infof logs an informational message.
func Infof(format string, args ...interface{}) {
	glog.Infof(format, args...)
}

// Warningf logs a recoverable problem.
func Warningf(format string, args ...interface{}) {
	glog.Warningf(format, args...)
}

// Errorf logs an error that the caller is about to return.
func Errorf(format string, args ...interface{}) {
	glog.Errorf(format, args...)
}
