package tagindex

// incrCount and getCount centralise the "decrement must find a row"
// contract (spec §9) for the two count tables. Both TAG_COUNT and OBJECT_COUNT are maintained
// by the same pair of operations, parameterised only by which table and
// which id.

// incrCount adds delta (which may be negative for a decrement) to the
// count row for id in table, creating the row at delta if absent. A
// decrement that would take the count below zero, or that targets an
// absent row, indicates an I3 violation and is reported as corruption
// rather than silently clamped (spec §4.3).
func incrCount(tx Tx, table Table, id Id, delta int64) (newCount uint32, err error) {
	raw, found, err := tx.Get(table, id.Bytes())
	if err != nil {
		return 0, Wrap(err)
	}
	var current uint32
	if found {
		current, err = decodeCount(raw)
		if err != nil {
			return 0, err
		}
	} else if delta < 0 {
		return 0, corruptionf("decrement of missing count row for id %s", id)
	}

	next := int64(current) + delta
	if next < 0 {
		return 0, corruptionf("count for id %s would go negative (current=%d delta=%d)", id, current, delta)
	}

	if next == 0 {
		// Open question resolved by spec §9: remove the row at zero.
		if err := tx.Delete(table, id.Bytes()); err != nil {
			return 0, Wrap(err)
		}
		return 0, nil
	}
	if err := tx.Set(table, id.Bytes(), encodeCount(uint32(next))); err != nil {
		return 0, Wrap(err)
	}
	return uint32(next), nil
}

// getCount reads the current count for id in table, returning 0 if the row
// is absent (spec §4.3 open question: "a missing row means zero").
func getCount(tx Tx, table Table, id Id) (uint32, error) {
	raw, found, err := tx.Get(table, id.Bytes())
	if err != nil {
		return 0, Wrap(err)
	}
	if !found {
		return 0, nil
	}
	return decodeCount(raw)
}
