// Package leveldbkv implements the go.skia.org/tagindex/go/tagindex.KV
// contract on top of github.com/syndtr/goleveldb, the teacher's own
// embedded-KV dependency (previously exercised only by
// go/androidbuild's tests). LevelDB's byte-lexicographic key space, its
// single-writer OpenTransaction, and its range iterator map directly onto
// the contract spec §6 asks for.
package leveldbkv

import (
	"bytes"
	"context"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"go.skia.org/tagindex/go/sklog"
	"go.skia.org/tagindex/go/tagindex"
)

// KV wraps a single goleveldb database, partitioned into tagindex's tables
// by a one-byte prefix (goleveldb has no native notion of buckets).
type KV struct {
	db *leveldb.DB
}

// Open opens (creating if necessary) a LevelDB database at path.
func Open(path string) (*KV, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, tagindex.Wrap(err)
	}
	return &KV{db: db}, nil
}

func tableKey(table tagindex.Table, key []byte) []byte {
	out := make([]byte, 0, len(key)+1)
	out = append(out, byte(table))
	out = append(out, key...)
	return out
}

// Begin opens a new transaction. Writable transactions serialize against
// each other (goleveldb allows only one open *leveldb.Transaction at a
// time); read-only transactions are backed by a point-in-time snapshot and
// may run concurrently with a writer.
func (kv *KV) Begin(ctx context.Context, writable bool) (tagindex.Tx, error) {
	if writable {
		tr, err := kv.db.OpenTransaction()
		if err != nil {
			return nil, tagindex.Wrap(err)
		}
		return &writeTx{tr: tr}, nil
	}
	snap, err := kv.db.GetSnapshot()
	if err != nil {
		return nil, tagindex.Wrap(err)
	}
	return &readTx{snap: snap}, nil
}

// Clear removes every key in the database. For tests only (spec §6).
func (kv *KV) Clear(ctx context.Context) error {
	it := kv.db.NewIterator(nil, nil)
	defer it.Release()
	batch := new(leveldb.Batch)
	for it.Next() {
		batch.Delete(append([]byte{}, it.Key()...))
	}
	if err := it.Error(); err != nil {
		return tagindex.Wrap(err)
	}
	return tagindex.Wrap(kv.db.Write(batch, nil))
}

// Checkpoint forces committed data to stable storage by compacting the
// full key range (spec §6, used by benchmarks for steady-state numbers).
func (kv *KV) Checkpoint(ctx context.Context) error {
	return tagindex.Wrap(kv.db.CompactRange(util.Range{}))
}

// Close releases the database's resources.
func (kv *KV) Close() error {
	sklog.Infof("leveldbkv: closing")
	return tagindex.Wrap(kv.db.Close())
}

// writeTx is a writable transaction, backed by *leveldb.Transaction.
type writeTx struct {
	tr *leveldb.Transaction
}

func (t *writeTx) Get(table tagindex.Table, key []byte) ([]byte, bool, error) {
	v, err := t.tr.Get(tableKey(table, key), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, tagindex.Wrap(err)
	}
	return v, true, nil
}

func (t *writeTx) Set(table tagindex.Table, key, value []byte) error {
	return tagindex.Wrap(t.tr.Put(tableKey(table, key), value, nil))
}

func (t *writeTx) Delete(table tagindex.Table, key []byte) error {
	return tagindex.Wrap(t.tr.Delete(tableKey(table, key), nil))
}

func (t *writeTx) Cursor(table tagindex.Table, from []byte, inclusive bool) (tagindex.Cursor, error) {
	rng := util.BytesPrefix([]byte{byte(table)})
	it := t.tr.NewIterator(rng, nil)
	return newCursor(it, table, from, inclusive), nil
}

func (t *writeTx) Commit() error {
	return tagindex.Wrap(t.tr.Commit())
}

func (t *writeTx) Discard() error {
	t.tr.Discard()
	return nil
}

// readTx is a read-only transaction, backed by a point-in-time snapshot.
type readTx struct {
	snap *leveldb.Snapshot
}

func (t *readTx) Get(table tagindex.Table, key []byte) ([]byte, bool, error) {
	v, err := t.snap.Get(tableKey(table, key), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, tagindex.Wrap(err)
	}
	return v, true, nil
}

func (t *readTx) Set(table tagindex.Table, key, value []byte) error {
	return tagindex.Wrapf(tagindex.ErrInvalidInput, "write on a read-only transaction")
}

func (t *readTx) Delete(table tagindex.Table, key []byte) error {
	return tagindex.Wrapf(tagindex.ErrInvalidInput, "write on a read-only transaction")
}

func (t *readTx) Cursor(table tagindex.Table, from []byte, inclusive bool) (tagindex.Cursor, error) {
	rng := util.BytesPrefix([]byte{byte(table)})
	it := t.snap.NewIterator(rng, nil)
	return newCursor(it, table, from, inclusive), nil
}

func (t *readTx) Commit() error {
	return nil
}

func (t *readTx) Discard() error {
	t.snap.Release()
	return nil
}

// cursor adapts a goleveldb iterator.Iterator, already bounded to one
// table's key range, to tagindex.Cursor's pull-based Next semantics.
type cursor struct {
	it       iterator.Iterator
	table    tagindex.Table
	fromKey  []byte
	inclusive bool
	started  bool
}

func newCursor(it iterator.Iterator, table tagindex.Table, from []byte, inclusive bool) *cursor {
	var fromKey []byte
	if from != nil {
		fromKey = tableKey(table, from)
	}
	return &cursor{it: it, table: table, fromKey: fromKey, inclusive: inclusive}
}

func (c *cursor) Next() ([]byte, []byte, bool, error) {
	var ok bool
	if !c.started {
		c.started = true
		if c.fromKey == nil {
			ok = c.it.First()
		} else {
			ok = c.it.Seek(c.fromKey)
			if ok && !c.inclusive && bytes.Equal(c.it.Key(), c.fromKey) {
				ok = c.it.Next()
			}
		}
	} else {
		ok = c.it.Next()
	}
	if !ok {
		if err := c.it.Error(); err != nil {
			return nil, nil, false, tagindex.Wrap(err)
		}
		return nil, nil, false, nil
	}
	key := append([]byte{}, c.it.Key()[1:]...)
	value := append([]byte{}, c.it.Value()...)
	return key, value, true, nil
}

func (c *cursor) Close() error {
	c.it.Release()
	return nil
}
