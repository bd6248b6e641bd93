package tagindex

import "sort"

// Transaction is the public surface of spec §6: add/delete/find/resolve,
// all observing each other's writes within the same transaction (spec §9's
// third open question), sharing one underlying KV transaction so I1–I3
// hold at the commit boundary.
type Transaction struct {
	tx      Tx
	opts    Options
	metrics *storeMetrics
}

// Add implements transaction.add (spec §4.3/§6).
func (t *Transaction) Add(object Ref, tags []Ref) error {
	obj, err := resolve(object, t.opts.MaxBlobSize)
	if err != nil {
		return err
	}
	resolvedTags := make([]resolved, len(tags))
	for i, tag := range tags {
		r, err := resolve(tag, t.opts.MaxBlobSize)
		if err != nil {
			return err
		}
		resolvedTags[i] = r
	}
	return addObject(t.tx, obj, resolvedTags)
}

// Delete implements transaction.delete(object) (spec §4.3/§6).
func (t *Transaction) Delete(object Ref) error {
	obj, err := resolve(object, t.opts.MaxBlobSize)
	if err != nil {
		return err
	}
	return deleteObject(t.tx, obj.id)
}

// DeleteTags implements transaction.delete(object, tags) (spec §4.3/§6).
func (t *Transaction) DeleteTags(object Ref, tags []Ref) error {
	obj, err := resolve(object, t.opts.MaxBlobSize)
	if err != nil {
		return err
	}
	tagIDs := make([]Id, len(tags))
	for i, tag := range tags {
		r, err := resolve(tag, t.opts.MaxBlobSize)
		if err != nil {
			return err
		}
		tagIDs[i] = r.id
	}
	return deleteObjectTags(t.tx, obj.id, tagIDs)
}

// HasTag implements transaction.has_tag (spec §6).
func (t *Transaction) HasTag(object, tag Ref) (bool, error) {
	obj, err := resolve(object, t.opts.MaxBlobSize)
	if err != nil {
		return false, err
	}
	tg, err := resolve(tag, t.opts.MaxBlobSize)
	if err != nil {
		return false, err
	}
	_, found, err := t.tx.Get(TagToObject, concatIds(tg.id, obj.id))
	if err != nil {
		return false, Wrap(err)
	}
	return found, nil
}

// GetTags implements transaction.get_tags (spec §6): a forward range scan
// over OBJECT_TO_TAG, reusing the same cursor abstraction as the
// single-tag scan.
func (t *Transaction) GetTags(object Ref) ([]Id, error) {
	obj, err := resolve(object, t.opts.MaxBlobSize)
	if err != nil {
		return nil, err
	}
	cur, err := t.tx.Cursor(ObjectToTag, obj.id.Bytes(), true)
	if err != nil {
		return nil, Wrap(err)
	}
	defer cur.Close()

	var out []Id
	for {
		key, _, ok, err := cur.Next()
		if err != nil {
			return nil, Wrap(err)
		}
		if !ok || !hasPrefix(key, obj.id) {
			break
		}
		_, tagID, err := splitPostingKey(key)
		if err != nil {
			return nil, err
		}
		out = append(out, tagID)
	}
	return out, nil
}

// Resolve implements transaction.resolve (spec §6): looks up the original
// Blob for an Id, returning found=false rather than an error if absent.
func (t *Transaction) Resolve(id Id) (blob []byte, found bool, err error) {
	return getBlob(t.tx, id)
}

// Find implements transaction.find (spec §4.4/§4.5/§6): conjunctive
// search over present, rejecting any object bearing a tag in absent,
// paginated by startAfter and bounded by limit (limit<=0 means
// unlimited).
func (t *Transaction) Find(present []Ref, absent []Ref, startAfter *Id, limit int) ([]Id, error) {
	if len(present) == 0 {
		return nil, invalidInputf("find requires at least one present tag")
	}
	if limit <= 0 {
		limit = -1
	}

	presentIDs := make([]Id, len(present))
	presentCard := make([]uint32, len(present))
	for i, p := range present {
		r, err := resolve(p, t.opts.MaxBlobSize)
		if err != nil {
			return nil, err
		}
		presentIDs[i] = r.id
		card, err := getCount(t.tx, TagCount, r.id)
		if err != nil {
			return nil, err
		}
		presentCard[i] = card
	}
	// Degenerate case (spec §4.5): a present tag with unknown/zero
	// cardinality has no postings by invariant I3, so the conjunction is
	// empty.
	for _, c := range presentCard {
		if c == 0 {
			return nil, nil
		}
	}
	sort.Sort(&byCardinality{ids: presentIDs, card: presentCard, desc: false})

	absentIDs := make([]Id, len(absent))
	absentCard := make([]uint32, len(absent))
	for i, a := range absent {
		r, err := resolve(a, t.opts.MaxBlobSize)
		if err != nil {
			return nil, err
		}
		absentIDs[i] = r.id
		card, err := getCount(t.tx, TagCount, r.id)
		if err != nil {
			return nil, err
		}
		absentCard[i] = card
	}
	sort.Sort(&byCardinality{ids: absentIDs, card: absentCard, desc: true})

	if len(presentIDs) == 1 {
		return singleTagScan(t.tx, presentIDs[0], absentIDs, startAfter, limit, t.metrics)
	}
	return andScan(t.tx, presentIDs, absentIDs, startAfter, limit, t.metrics)
}

// Commit implements transaction.commit (spec §4.6/§6).
func (t *Transaction) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return Wrap(err)
	}
	if t.metrics != nil {
		t.metrics.txCommitted.Inc(1)
	}
	return nil
}

// byCardinality sorts a parallel (ids, card) pair, ascending or descending,
// implementing spec §4.4's "absent tags pre-sorted in descending
// cardinality" and §4.5's "present tag-ids sorted by ascending
// cardinality".
type byCardinality struct {
	ids  []Id
	card []uint32
	desc bool
}

func (b *byCardinality) Len() int { return len(b.ids) }
func (b *byCardinality) Swap(i, j int) {
	b.ids[i], b.ids[j] = b.ids[j], b.ids[i]
	b.card[i], b.card[j] = b.card[j], b.card[i]
}
func (b *byCardinality) Less(i, j int) bool {
	if b.desc {
		return b.card[i] > b.card[j]
	}
	return b.card[i] < b.card[j]
}
