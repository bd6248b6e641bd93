package tagindex

// Ref is the polymorphic object/tag argument spec §6 describes: either a
// raw Blob (hashed to an Id and written to the identity store on first
// use) or a pre-resolved Id (skipping both). The public surface accepts
// Ref everywhere an object or tag is expected; the interior of the
// package works exclusively in Id.
type Ref struct {
	id       Id
	blob     []byte
	resolved bool
}

// Blob builds a Ref from a raw byte blob.
func Blob(b []byte) Ref {
	return Ref{blob: b}
}

// ById builds a Ref from an already-known Id, skipping both the digest
// and any identity-store write.
func ById(id Id) Ref {
	return Ref{id: id, resolved: true}
}

// resolve turns a Ref into its Id, hashing and validating a raw blob
// against maxBlobSize if necessary.
func resolve(ref Ref, maxBlobSize int) (resolved, error) {
	if ref.resolved {
		return resolved{id: ref.id}, nil
	}
	if len(ref.blob) == 0 {
		return resolved{}, invalidInputf("blob must be non-empty")
	}
	if maxBlobSize > 0 && len(ref.blob) > maxBlobSize {
		return resolved{}, invalidInputf("blob of %d bytes exceeds maximum of %d", len(ref.blob), maxBlobSize)
	}
	id, err := Digest(ref.blob)
	if err != nil {
		return resolved{}, err
	}
	return resolved{id: id, blob: ref.blob}, nil
}
