package tagindex

// singleTagScan implements spec §4.4: a direct range walk over TagToObject
// for the one present tag, rejecting candidates that carry any absent tag.
// absentByCardinality must already be sorted descending by cardinality
// (most common first), so a common absent tag rejects a candidate fastest.
func singleTagScan(tx Tx, present Id, absentByCardinality []Id, startAfter *Id, limit int, m *storeMetrics) ([]Id, error) {
	inclusive := true
	var fromKey []byte
	if startAfter != nil {
		fromKey = concatIds(present, *startAfter)
		inclusive = false
	} else {
		// A bare idLen-byte prefix sorts before every 32-byte posting key
		// that carries it, since all posting keys share the same width.
		fromKey = present.Bytes()
	}

	cur, err := tx.Cursor(TagToObject, fromKey, inclusive)
	if err != nil {
		return nil, Wrap(err)
	}
	defer cur.Close()

	var out []Id
	for limit < 0 || len(out) < limit {
		key, _, ok, err := cur.Next()
		m.bumpCursorAdvance()
		if err != nil {
			return nil, Wrap(err)
		}
		if !ok || !hasPrefix(key, present) {
			break
		}
		_, objID, err := splitPostingKey(key)
		if err != nil {
			return nil, err
		}

		admitted, err := admitsAbsentFilter(tx, objID, absentByCardinality, m)
		if err != nil {
			return nil, err
		}
		if admitted {
			out = append(out, objID)
		}
	}
	return out, nil
}

// admitsAbsentFilter reports whether objID carries none of the absent
// tags, short-circuiting at the first hit (spec §4.4/§4.5).
func admitsAbsentFilter(tx Tx, objID Id, absentByCardinality []Id, m *storeMetrics) (bool, error) {
	for _, a := range absentByCardinality {
		_, found, err := tx.Get(TagToObject, concatIds(a, objID))
		if err != nil {
			return false, Wrap(err)
		}
		if found {
			m.bumpAbsentReject()
			return false, nil
		}
	}
	return true, nil
}
