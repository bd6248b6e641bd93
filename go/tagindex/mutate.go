package tagindex

// resolved is an id paired with its original blob, when known. Blob is nil
// when the caller supplied a pre-resolved Id (spec §6: object/tag
// arguments are polymorphic), in which case no identity-store write is
// attempted for it.
type resolved struct {
	id   Id
	blob []byte
}

// addObject implements transaction.add (spec §4.3). Each tag is handled
// independently — spec §9's open question is resolved against the early
// variant's whole-call short-circuit, which would break I5 on partial
// overlap.
func addObject(tx Tx, obj resolved, tags []resolved) error {
	if obj.blob != nil {
		if err := putBlobIfAbsent(tx, obj.id, obj.blob); err != nil {
			return err
		}
	}

	var newlyLinked uint32
	for _, tag := range tags {
		key := concatIds(tag.id, obj.id)
		_, found, err := tx.Get(TagToObject, key)
		if err != nil {
			return Wrap(err)
		}
		if found {
			// Invariant I5: already linked, nothing to do for this tag.
			continue
		}

		if tag.blob != nil {
			if err := putBlobIfAbsent(tx, tag.id, tag.blob); err != nil {
				return err
			}
		}
		if err := tx.Set(TagToObject, key, nil); err != nil {
			return Wrap(err)
		}
		if err := tx.Set(ObjectToTag, concatIds(obj.id, tag.id), nil); err != nil {
			return Wrap(err)
		}
		if _, err := incrCount(tx, TagCount, tag.id, 1); err != nil {
			return err
		}
		newlyLinked++
	}

	if newlyLinked > 0 {
		if _, err := incrCount(tx, ObjectCount, obj.id, int64(newlyLinked)); err != nil {
			return err
		}
	}
	return nil
}

// unlinkPosting removes one (tag,object) posting pair symmetrically and
// decrements the tag's count, removing the tag's identity row when that
// count reaches zero. The object's count is left to the caller.
func unlinkPosting(tx Tx, tagID, objID Id) error {
	if err := tx.Delete(TagToObject, concatIds(tagID, objID)); err != nil {
		return Wrap(err)
	}
	if err := tx.Delete(ObjectToTag, concatIds(objID, tagID)); err != nil {
		return Wrap(err)
	}
	newTagCount, err := incrCount(tx, TagCount, tagID, -1)
	if err != nil {
		return err
	}
	if newTagCount == 0 {
		if err := deleteBlob(tx, tagID); err != nil {
			return err
		}
	}
	return nil
}

// deleteObject implements transaction.delete(object) (spec §4.3): removes
// every posting the object participates in, then its identity row.
func deleteObject(tx Tx, objID Id) error {
	if _, found, err := tx.Get(ObjectCount, objID.Bytes()); err != nil {
		return Wrap(err)
	} else if !found {
		return Wrap(ErrAbsent)
	}

	cur, err := tx.Cursor(ObjectToTag, objID.Bytes(), true)
	if err != nil {
		return Wrap(err)
	}
	defer cur.Close()

	var tagIDs []Id
	for {
		key, _, ok, err := cur.Next()
		if err != nil {
			return Wrap(err)
		}
		if !ok || !hasPrefix(key, objID) {
			break
		}
		_, tagID, err := splitPostingKey(key)
		if err != nil {
			return err
		}
		tagIDs = append(tagIDs, tagID)
	}
	cur.Close()

	for _, tagID := range tagIDs {
		if err := unlinkPosting(tx, tagID, objID); err != nil {
			return err
		}
	}

	if err := tx.Delete(ObjectCount, objID.Bytes()); err != nil {
		return Wrap(err)
	}
	return deleteBlob(tx, objID)
}

// deleteObjectTags implements transaction.delete(object, tags) (spec
// §4.3): removes only the listed tags, then garbage-collects the object's
// identity row if no postings remain for it.
func deleteObjectTags(tx Tx, objID Id, tagIDs []Id) error {
	var removed int64
	for _, tagID := range tagIDs {
		key := concatIds(tagID, objID)
		_, found, err := tx.Get(TagToObject, key)
		if err != nil {
			return Wrap(err)
		}
		if !found {
			continue
		}
		if err := unlinkPosting(tx, tagID, objID); err != nil {
			return err
		}
		removed++
	}
	if removed == 0 {
		return nil
	}
	if _, err := incrCount(tx, ObjectCount, objID, -removed); err != nil {
		return err
	}

	// Detect whether any postings remain for objID; if none, the object's
	// lifecycle has ended and its identity row is garbage-collected
	// (spec §4.3: "iterate OBJECT_TO_TAG afterwards to detect whether any
	// postings remain").
	cur, err := tx.Cursor(ObjectToTag, objID.Bytes(), true)
	if err != nil {
		return Wrap(err)
	}
	defer cur.Close()
	key, _, ok, err := cur.Next()
	if err != nil {
		return Wrap(err)
	}
	if ok && hasPrefix(key, objID) {
		return nil
	}
	return deleteBlob(tx, objID)
}
