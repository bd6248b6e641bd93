package tagindex

import "encoding/binary"

// schemaVersionKey is the single row schemaVersion holds (spec §6
// supplement: "No on-disk version marker is specified by the source; an
// implementation should add one").
var schemaVersionKey = []byte("version")

// currentSchemaVersion is bumped whenever the table layout or key/value
// encoding of spec §4.2 changes incompatibly.
const currentSchemaVersion uint32 = 1

func encodeCount(n uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n)
	return b
}

func decodeCount(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, corruptionf("count value has wrong width: %d", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}
