package tagindex

// andScan implements the multi-cursor AND-scan of spec §4.5 for k≥2
// present tags, already sorted by ascending cardinality by the caller so
// present[0] is the rarest. It never materialises a posting list: at most
// one cursor per present tag is open, plus point lookups for the absent
// filter.
func andScan(tx Tx, present []Id, absentByCardinality []Id, startAfter *Id, limit int, m *storeMetrics) ([]Id, error) {
	k := len(present)
	cursors := make([]*andCursor, k)
	defer func() {
		for _, c := range cursors {
			if c != nil {
				c.raw.Close()
			}
		}
	}()

	// Initialisation: c_0 is opened eagerly at the pagination start; every
	// other cursor is created lazily the first time i1/i2 reaches it.
	startKey := present[0].Bytes()
	inclusive := true
	if startAfter != nil {
		startKey = concatIds(present[0], *startAfter)
		inclusive = false
	}
	raw, err := tx.Cursor(TagToObject, startKey, inclusive)
	if err != nil {
		return nil, Wrap(err)
	}
	cursors[0] = &andCursor{raw: raw}
	live, err := cursors[0].advance(present[0])
	m.bumpCursorAdvance()
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, nil
	}

	ensureCreated := func(idx int) (terminated bool, err error) {
		if cursors[idx] != nil {
			return false, nil
		}
		frontier := cursors[0].objID
		for _, c := range cursors {
			if c != nil && Compare(c.objID, frontier) > 0 {
				frontier = c.objID
			}
		}
		raw, err := tx.Cursor(TagToObject, concatIds(present[idx], frontier), true)
		if err != nil {
			return false, Wrap(err)
		}
		ac := &andCursor{raw: raw}
		cursors[idx] = ac
		live, err := ac.advance(present[idx])
		m.bumpCursorAdvance()
		if err != nil {
			return false, err
		}
		return !live, nil
	}

	allMatch := func() bool {
		for _, c := range cursors {
			if c == nil || !c.live {
				return false
			}
		}
		for i := 1; i < k; i++ {
			if Compare(cursors[i].objID, cursors[0].objID) != 0 {
				return false
			}
		}
		return true
	}

	var out []Id
	i1, i2 := 0, 1
	for limit < 0 || len(out) < limit {
		if allMatch() {
			objID := cursors[0].objID
			admitted, err := admitsAbsentFilter(tx, objID, absentByCardinality, m)
			if err != nil {
				return nil, err
			}
			if admitted {
				out = append(out, objID)
			}
			live, err := cursors[0].advance(present[0])
			m.bumpCursorAdvance()
			if err != nil {
				return nil, err
			}
			if !live {
				return out, nil
			}
			i1, i2 = 0, 1
			continue
		}

		if terminated, err := ensureCreated(i1); err != nil {
			return nil, err
		} else if terminated {
			return out, nil
		}
		if terminated, err := ensureCreated(i2); err != nil {
			return nil, err
		} else if terminated {
			return out, nil
		}

		c1, c2 := cursors[i1], cursors[i2]
		terminated := false
		for Compare(c2.objID, c1.objID) < 0 {
			live, err := c2.advance(present[i2])
			m.bumpCursorAdvance()
			if err != nil {
				return nil, err
			}
			if !live {
				terminated = true
				break
			}
		}
		if terminated {
			return out, nil
		}

		if Compare(c2.objID, c1.objID) == 0 {
			i1 = (i1 + 1) % k
			i2 = (i2 + 1) % k
			continue
		}

		// c2 established a new high-water frontier: re-seat the primary.
		terminated = false
		for Compare(cursors[0].objID, c2.objID) < 0 {
			live, err := cursors[0].advance(present[0])
			m.bumpCursorAdvance()
			if err != nil {
				return nil, err
			}
			if !live {
				terminated = true
				break
			}
		}
		if terminated {
			return out, nil
		}
		i1, i2 = 0, 1
	}
	return out, nil
}

// andCursor tracks one present tag's cursor position during the AND-scan.
type andCursor struct {
	raw   Cursor
	objID Id
	live  bool
}

// advance steps the underlying cursor once and updates objID/live,
// enforcing that the cursor stays within its tag's prefix (spec §4.5's
// "while c_i is live, its leading 16 bytes equal P_i" invariant).
func (c *andCursor) advance(prefix Id) (bool, error) {
	key, _, ok, err := c.raw.Next()
	if err != nil {
		return false, Wrap(err)
	}
	if !ok || !hasPrefix(key, prefix) {
		c.live = false
		return false, nil
	}
	_, objID, err := splitPostingKey(key)
	if err != nil {
		return false, err
	}
	c.objID = objID
	c.live = true
	return true, nil
}
