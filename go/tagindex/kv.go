package tagindex

import "context"

// Table is the small integer tag addressing one of the ordered maps of
// spec §4.2. The KV is expected to keep each table's keyspace disjoint from
// every other table's (e.g. by prefixing, or by a genuinely separate
// namespace such as a LevelDB key prefix or a BoltDB bucket).
type Table uint8

const (
	// TagToObject holds keys tag_id‖object_id with empty values.
	TagToObject Table = iota
	// ObjectToTag holds keys object_id‖tag_id with empty values, the
	// symmetric mirror of TagToObject (invariant I1).
	ObjectToTag
	// IdToBlob maps an Id (tag or object) back to its original Blob.
	IdToBlob
	// TagCount maps tag_id to a big-endian uint32 posting count.
	TagCount
	// ObjectCount maps object_id to a big-endian uint32 tag count.
	ObjectCount
	// schemaVersion holds a single row recording the on-disk layout
	// version (spec §6: "an implementation should add one").
	schemaVersion
)

// KV is the contract this package consumes from the underlying ordered
// key-value store (spec §6). It is implemented for production by
// go.skia.org/tagindex/go/tagindex/leveldbkv, and is deliberately small
// enough that an in-memory or alternate-engine implementation is a
// same-day exercise.
type KV interface {
	// Begin opens a new transaction. A writable transaction observes its
	// own prior writes (spec §5) and is serializable with respect to
	// other transactions per the KV's isolation contract.
	Begin(ctx context.Context, writable bool) (Tx, error)

	// Clear wipes every table. For tests only (spec §6).
	Clear(ctx context.Context) error

	// Checkpoint forces all committed data to stable storage (spec §6).
	Checkpoint(ctx context.Context) error

	// Close releases the KV's resources. No further transactions may be
	// opened afterward.
	Close() error
}

// Tx is one transaction's view of the KV. A Tx must not be shared across
// goroutines, and no Cursor opened from it may be used after Commit or
// Discard (spec §5).
type Tx interface {
	// Get returns the value stored at key in table, or (nil, false) if
	// absent.
	Get(table Table, key []byte) (value []byte, found bool, err error)

	// Set writes key=value in table, creating or overwriting.
	Set(table Table, key, value []byte) error

	// Delete removes key from table. Deleting an absent key is not an
	// error.
	Delete(table Table, key []byte) error

	// Cursor opens an ascending iterator over table starting at from. If
	// inclusive, an entry exactly equal to from is included; otherwise
	// the first entry returned is strictly greater than from. A nil from
	// starts at the beginning of the table.
	Cursor(table Table, from []byte, inclusive bool) (Cursor, error)

	// Commit makes the transaction's writes durable and visible to
	// subsequent transactions. After Commit, the Tx and any Cursor
	// derived from it must not be used again.
	Commit() error

	// Discard abandons the transaction's writes. Safe to call after
	// Commit (a no-op then); safe to call multiple times.
	Discard() error
}

// Cursor walks one table in ascending key order.
type Cursor interface {
	// Next advances the cursor and reports whether an entry was found.
	// Once Next returns false, the cursor is exhausted and further calls
	// also return false.
	Next() (key, value []byte, ok bool, err error)

	// Close releases the cursor's resources. Safe to call multiple
	// times.
	Close() error
}
