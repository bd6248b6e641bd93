package tagindex

import (
	"errors"
	"fmt"

	"go.skia.org/tagindex/go/skerr"
)

// The four error kinds of spec §7. Callers should use errors.Is against
// these sentinels; the core always wraps the sentinel with skerr so the
// call site survives in the error text while errors.Is still matches.
var (
	// ErrAbsent marks an operation whose target has no row, e.g. Delete
	// of an object that was never added. Lookups that treat absence as a
	// valid empty result (Resolve, HasTag, Find) report it through their
	// return values, not this error. Internal invariant checks that expect
	// a row to exist use ErrCorruption instead.
	ErrAbsent = errors.New("tagindex: absent")

	// ErrKVFailure wraps a failure surfaced by the underlying KV (I/O,
	// commit conflict). The operation that returned it made no change.
	ErrKVFailure = errors.New("tagindex: kv failure")

	// ErrInvalidInput marks a malformed caller argument: an empty present
	// list on Find, a wrong-width Id, or a Blob over the configured
	// maximum size.
	ErrInvalidInput = errors.New("tagindex: invalid input")

	// ErrCorruption marks an on-disk state that violates I1–I3: a
	// posting with no matching count row, a count row that doesn't match
	// the index's idea of symmetric postings, or a schema version
	// mismatch.
	ErrCorruption = errors.New("tagindex: corruption")
)

// Wrap annotates err with ErrKVFailure and the call site, unless err is
// already one of the four sentinel kinds (possibly wrapped), in which case
// the existing kind is preserved and only the call site is added.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if isKnownKind(err) {
		return skerr.Wrap(err)
	}
	return skerr.Wrap(fmt.Errorf("%w: %v", ErrKVFailure, err))
}

// Wrapf is Wrap with a formatted prefix message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if !isKnownKind(err) {
		err = fmt.Errorf("%w: %v", ErrKVFailure, err)
	}
	return skerr.Wrapf(err, format, args...)
}

// invalidInputf builds a fresh ErrInvalidInput with a formatted message.
func invalidInputf(format string, args ...interface{}) error {
	return skerr.Wrapf(fmt.Errorf("%w", ErrInvalidInput), format, args...)
}

// corruptionf builds a fresh ErrCorruption with a formatted message.
func corruptionf(format string, args ...interface{}) error {
	return skerr.Wrapf(fmt.Errorf("%w", ErrCorruption), format, args...)
}

func isKnownKind(err error) bool {
	return errors.Is(err, ErrAbsent) || errors.Is(err, ErrKVFailure) ||
		errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrCorruption)
}
