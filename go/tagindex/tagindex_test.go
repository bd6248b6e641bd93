package tagindex_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"go.skia.org/tagindex/go/tagindex"
	"go.skia.org/tagindex/go/tagindex/leveldbkv"
)

func newStore(t *testing.T) *tagindex.Store {
	t.Helper()
	kv, err := leveldbkv.Open(filepath.Join(t.TempDir(), "tagindex.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, kv.Close()) })
	s, err := tagindex.Open(context.Background(), kv, tagindex.Options{})
	require.NoError(t, err)
	return s
}

func idOf(t *testing.T, blob string) tagindex.Id {
	t.Helper()
	id, err := tagindex.Digest([]byte(blob))
	require.NoError(t, err)
	return id
}

func refs(blobs ...string) []tagindex.Ref {
	out := make([]tagindex.Ref, len(blobs))
	for i, b := range blobs {
		out[i] = tagindex.Blob([]byte(b))
	}
	return out
}

func requireIdsEqual(t *testing.T, want, got []tagindex.Id) {
	t.Helper()
	require.Equal(t, len(want), len(got), "want=%v got=%v", want, got)
	for i := range want {
		require.Equal(t, want[i], got[i], "index %d: want=%v got=%v", i, want, got)
	}
}

func requireIdsEqualAsSet(t *testing.T, want, got []tagindex.Id) {
	t.Helper()
	wantSet := map[tagindex.Id]bool{}
	for _, id := range want {
		wantSet[id] = true
	}
	gotSet := map[tagindex.Id]bool{}
	for _, id := range got {
		gotSet[id] = true
	}
	require.Equal(t, wantSet, gotSet)
}

// TestEndToEndScenarios replays worked scenarios 1–5 of spec §8 exactly.
func TestEndToEndScenarios(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	o1ID, o2ID, o3ID := idOf(t, "o1"), idOf(t, "o2"), idOf(t, "o3")

	// 1. add(o1,[a]); add(o2,[a,b]); add(o3,[a,b,c])
	require.NoError(t, s.Update(ctx, func(tx *tagindex.Transaction) error {
		if err := tx.Add(tagindex.Blob([]byte("o1")), refs("a")); err != nil {
			return err
		}
		if err := tx.Add(tagindex.Blob([]byte("o2")), refs("a", "b")); err != nil {
			return err
		}
		return tx.Add(tagindex.Blob([]byte("o3")), refs("a", "b", "c"))
	}))

	var found []tagindex.Id
	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find(refs("a", "b", "c"), nil, nil, 0)
		return err
	}))
	requireIdsEqual(t, []tagindex.Id{o3ID}, found)

	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find(refs("a", "b"), nil, nil, 0)
		return err
	}))
	requireIdsEqual(t, sortedIds(o2ID, o3ID), found)

	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find(refs("a"), nil, nil, 0)
		return err
	}))
	requireIdsEqualAsSet(t, []tagindex.Id{o1ID, o2ID, o3ID}, found)

	// 2. find([a],[c]) -> {o1,o2}; find([a],[a]) -> []; find([b],[a]) -> []
	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find(refs("a"), refs("c"), nil, 0)
		return err
	}))
	requireIdsEqualAsSet(t, []tagindex.Id{o1ID, o2ID}, found)

	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find(refs("a"), refs("a"), nil, 0)
		return err
	}))
	require.Empty(t, found)

	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find(refs("b"), refs("a"), nil, 0)
		return err
	}))
	require.Empty(t, found)

	// 3. find([a,b],[c]) -> [o2]
	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find(refs("a", "b"), refs("c"), nil, 0)
		return err
	}))
	requireIdsEqual(t, []tagindex.Id{o2ID}, found)

	// 4. delete(o3,[a,c]) then find([a]) -> {o1,o2}; find([b]) -> {o2,o3}; find([c]) -> []
	require.NoError(t, s.Update(ctx, func(tx *tagindex.Transaction) error {
		return tx.DeleteTags(tagindex.Blob([]byte("o3")), refs("a", "c"))
	}))
	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find(refs("a"), nil, nil, 0)
		return err
	}))
	requireIdsEqualAsSet(t, []tagindex.Id{o1ID, o2ID}, found)

	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find(refs("b"), nil, nil, 0)
		return err
	}))
	requireIdsEqualAsSet(t, []tagindex.Id{o2ID, o3ID}, found)

	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find(refs("c"), nil, nil, 0)
		return err
	}))
	require.Empty(t, found)

	// 5. delete(o2) then find([a]) -> [o1]; resolve(o1)=="o1"; has_tag(o2,a)==false; resolve(id(o2)) absent
	require.NoError(t, s.Update(ctx, func(tx *tagindex.Transaction) error {
		return tx.Delete(tagindex.Blob([]byte("o2")))
	}))
	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find(refs("a"), nil, nil, 0)
		return err
	}))
	requireIdsEqual(t, []tagindex.Id{o1ID}, found)

	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) error {
		blob, ok, err := tx.Resolve(o1ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "o1", string(blob))

		has, err := tx.HasTag(tagindex.ById(o2ID), tagindex.Blob([]byte("a")))
		require.NoError(t, err)
		require.False(t, has)

		_, ok, err = tx.Resolve(o2ID)
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	}))
}

func sortedIds(ids ...tagindex.Id) []tagindex.Id {
	out := append([]tagindex.Id{}, ids...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && tagindex.Less(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// TestAddIsIdempotent covers invariant P3: add(O,S) then add(O,S) leaves
// the store equal to the state after one add.
func TestAddIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	add := func() error {
		return s.Update(ctx, func(tx *tagindex.Transaction) error {
			return tx.Add(tagindex.Blob([]byte("o1")), refs("a", "b"))
		})
	}
	require.NoError(t, add())
	require.NoError(t, add())

	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) error {
		tags, err := tx.GetTags(tagindex.Blob([]byte("o1")))
		require.NoError(t, err)
		require.Len(t, tags, 2)
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) error {
		found, err := tx.Find(refs("a"), nil, nil, 0)
		require.NoError(t, err)
		require.Len(t, found, 1)
		return nil
	}))
}

// TestAddThenDeleteGarbageCollects covers invariant P4.
func TestAddThenDeleteGarbageCollects(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx *tagindex.Transaction) error {
		return tx.Add(tagindex.Blob([]byte("o1")), refs("a", "b"))
	}))
	require.NoError(t, s.Update(ctx, func(tx *tagindex.Transaction) error {
		return tx.DeleteTags(tagindex.Blob([]byte("o1")), refs("a", "b"))
	}))

	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) error {
		_, ok, err := tx.Resolve(idOf(t, "o1"))
		require.NoError(t, err)
		require.False(t, ok)

		found, err := tx.Find(refs("a"), nil, nil, 0)
		require.NoError(t, err)
		require.Empty(t, found)
		return nil
	}))
}

// TestDeleteAbsentObject covers spec §4.3's "no such object" result.
func TestDeleteAbsentObject(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	err := s.Update(ctx, func(tx *tagindex.Transaction) error {
		return tx.Delete(tagindex.Blob([]byte("nonexistent")))
	})
	require.ErrorIs(t, err, tagindex.ErrAbsent)
}

// TestFindEmptyPresentIsInvalid covers spec §7's InvalidInput.
func TestFindEmptyPresentIsInvalid(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	err := s.View(ctx, func(tx *tagindex.Transaction) error {
		_, err := tx.Find(nil, nil, nil, 0)
		return err
	})
	require.ErrorIs(t, err, tagindex.ErrInvalidInput)
}

// TestFindUnknownTagIsEmpty covers spec §4.5's degenerate case.
func TestFindUnknownTagIsEmpty(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx *tagindex.Transaction) error {
		return tx.Add(tagindex.Blob([]byte("o1")), refs("a"))
	}))
	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) error {
		found, err := tx.Find(refs("never-seen"), nil, nil, 0)
		require.NoError(t, err)
		require.Empty(t, found)

		found, err = tx.Find(refs("a", "never-seen"), nil, nil, 0)
		require.NoError(t, err)
		require.Empty(t, found)
		return nil
	}))
}

// TestResolveByPreResolvedId exercises the Ref tagged union's Resolved
// branch: no identity-store write, no hashing.
func TestResolveByPreResolvedId(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := idOf(t, "o1")
	require.NoError(t, s.Update(ctx, func(tx *tagindex.Transaction) error {
		return tx.Add(tagindex.ById(id), refs("a"))
	}))
	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) error {
		_, ok, err := tx.Resolve(id)
		require.NoError(t, err)
		require.False(t, ok, "a pre-resolved object ref must not create an identity row")

		found, err := tx.Find(refs("a"), nil, nil, 0)
		require.NoError(t, err)
		requireIdsEqual(t, []tagindex.Id{id}, found)
		return nil
	}))
}
