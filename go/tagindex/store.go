package tagindex

import (
	"context"

	"go.skia.org/tagindex/go/metrics2"
	"go.skia.org/tagindex/go/sklog"
)

// Options configures a Store. The zero value is usable and applies no
// blob-size limit.
type Options struct {
	// MaxBlobSize bounds the size of a Blob accepted by Add/Find/etc. A
	// value <= 0 means unlimited (spec §7 InvalidInput: "a Blob
	// exceeding the implementation's maximum").
	MaxBlobSize int
}

// Store is the transaction façade of spec §4.6: a thin wrapper around a KV
// that opens Transactions, checks the on-disk schema version, and exposes
// Checkpoint/Clear.
type Store struct {
	kv      KV
	opts    Options
	metrics *storeMetrics
}

// Open wraps kv in a Store, writing a fresh schema-version row on first
// use and rejecting a mismatched one on subsequent opens (spec §6
// supplement).
func Open(ctx context.Context, kv KV, opts Options) (*Store, error) {
	s := &Store{kv: kv, opts: opts, metrics: newStoreMetrics()}

	tx, err := kv.Begin(ctx, true)
	if err != nil {
		return nil, Wrap(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Discard()
		}
	}()

	raw, found, err := tx.Get(schemaVersion, schemaVersionKey)
	if err != nil {
		return nil, Wrap(err)
	}
	if !found {
		if err := tx.Set(schemaVersion, schemaVersionKey, encodeCount(currentSchemaVersion)); err != nil {
			return nil, Wrap(err)
		}
	} else {
		version, err := decodeCount(raw)
		if err != nil {
			return nil, err
		}
		if version != currentSchemaVersion {
			return nil, corruptionf("schema version %d on disk, this binary expects %d", version, currentSchemaVersion)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, Wrap(err)
	}
	committed = true

	sklog.Infof("tagindex: store opened, schema version %d", currentSchemaVersion)
	return s, nil
}

// Begin opens a new Transaction. Callers must Commit it, or simply drop it
// to discard its writes (spec §4.6).
func (s *Store) Begin(ctx context.Context, writable bool) (*Transaction, error) {
	tx, err := s.kv.Begin(ctx, writable)
	if err != nil {
		return nil, Wrap(err)
	}
	s.metrics.txOpened.Inc(1)
	return &Transaction{tx: tx, opts: s.opts, metrics: s.metrics}, nil
}

// Update runs fn inside a writable transaction, committing on success and
// discarding on any error (including a panic, which is re-raised after the
// rollback).
func (s *Store) Update(ctx context.Context, fn func(*Transaction) error) (err error) {
	tx, err := s.Begin(ctx, true)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.tx.Discard()
			panic(r)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.tx.Discard()
		return err
	}
	return tx.Commit()
}

// View runs fn inside a read-only transaction, always discarding at the
// end (a read-only transaction has nothing to commit).
func (s *Store) View(ctx context.Context, fn func(*Transaction) error) error {
	tx, err := s.Begin(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = tx.tx.Discard() }()
	return fn(tx)
}

// Checkpoint forces committed data to stable storage (spec §6, used by
// benchmarks to get a steady-state measurement).
func (s *Store) Checkpoint(ctx context.Context) error {
	return Wrap(s.kv.Checkpoint(ctx))
}

// Clear wipes every table. For tests only (spec §6).
func (s *Store) Clear(ctx context.Context) error {
	return Wrap(s.kv.Clear(ctx))
}

// Close releases the underlying KV's resources.
func (s *Store) Close() error {
	sklog.Infof("tagindex: store closed")
	return Wrap(s.kv.Close())
}

type storeMetrics struct {
	txOpened       metrics2.Counter
	txCommitted    metrics2.Counter
	cursorAdvances metrics2.Counter
	absentRejects  metrics2.Counter
}

func newStoreMetrics() *storeMetrics {
	c := metrics2.New()
	return &storeMetrics{
		txOpened:       c.GetCounter("tagindex_tx_opened", nil),
		txCommitted:    c.GetCounter("tagindex_tx_committed", nil),
		cursorAdvances: c.GetCounter("tagindex_cursor_advances", nil),
		absentRejects:  c.GetCounter("tagindex_absent_filter_rejects", nil),
	}
}

// The bump* helpers are nil-receiver safe so scan functions can be
// exercised directly in tests with a nil *storeMetrics.

func (m *storeMetrics) bumpCursorAdvance() {
	if m != nil {
		m.cursorAdvances.Inc(1)
	}
}

func (m *storeMetrics) bumpAbsentReject() {
	if m != nil {
		m.absentRejects.Inc(1)
	}
}
