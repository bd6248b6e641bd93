package tagindex

// putBlobIfAbsent writes id -> blob into IdToBlob, idempotently: a second
// add of the same blob (invariant I2/I5) is a no-op rather than an
// overwrite, so repeated adds never churn the KV.
func putBlobIfAbsent(tx Tx, id Id, blob []byte) error {
	_, found, err := tx.Get(IdToBlob, id.Bytes())
	if err != nil {
		return Wrap(err)
	}
	if found {
		return nil
	}
	return Wrap(tx.Set(IdToBlob, id.Bytes(), blob))
}

// getBlob resolves id back to its original Blob, returning (nil, false) if
// the identity row is absent.
func getBlob(tx Tx, id Id) ([]byte, bool, error) {
	raw, found, err := tx.Get(IdToBlob, id.Bytes())
	if err != nil {
		return nil, false, Wrap(err)
	}
	return raw, found, nil
}

// deleteBlob removes id's identity row. Deleting an absent row is not an
// error (the caller is closing the lifecycle, spec §3 "Lifecycles").
func deleteBlob(tx Tx, id Id) error {
	return Wrap(tx.Delete(IdToBlob, id.Bytes()))
}
