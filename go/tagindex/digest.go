package tagindex

import "golang.org/x/crypto/blake2b"

// Digest derives the 16-byte Id of a Blob (spec §4.1). BLAKE2b supports a
// configurable digest width natively, so this is a direct 16-byte output
// rather than a truncation of a wider hash.
func Digest(blob []byte) (Id, error) {
	h, err := blake2b.New(idLen, nil)
	if err != nil {
		// Only returns an error for an out-of-range size or a bad key;
		// both are programmer errors, not something a caller can act on.
		return Id{}, corruptionf("blake2b init: %v", err)
	}
	// Hash.Write never returns an error.
	_, _ = h.Write(blob)
	return idFromBytes(h.Sum(nil))
}
