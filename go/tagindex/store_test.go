package tagindex_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"go.skia.org/tagindex/go/tagindex"
	"go.skia.org/tagindex/go/tagindex/leveldbkv"
)

func TestOpenTwiceReusesSchemaVersion(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tagindex.db")
	ctx := context.Background()

	kv1, err := leveldbkv.Open(dir)
	require.NoError(t, err)
	s1, err := tagindex.Open(ctx, kv1, tagindex.Options{})
	require.NoError(t, err)
	require.NoError(t, s1.Update(ctx, func(tx *tagindex.Transaction) error {
		return tx.Add(tagindex.Blob([]byte("o1")), []tagindex.Ref{tagindex.Blob([]byte("a"))})
	}))
	require.NoError(t, kv1.Close())

	kv2, err := leveldbkv.Open(dir)
	require.NoError(t, err)
	defer kv2.Close()
	s2, err := tagindex.Open(ctx, kv2, tagindex.Options{})
	require.NoError(t, err)

	var found []tagindex.Id
	require.NoError(t, s2.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find([]tagindex.Ref{tagindex.Blob([]byte("a"))}, nil, nil, 0)
		return err
	}))
	require.Len(t, found, 1)
}

func TestMaxBlobSizeRejectsOversizedBlob(t *testing.T) {
	kv, err := leveldbkv.Open(filepath.Join(t.TempDir(), "tagindex.db"))
	require.NoError(t, err)
	defer kv.Close()
	ctx := context.Background()
	s, err := tagindex.Open(ctx, kv, tagindex.Options{MaxBlobSize: 4})
	require.NoError(t, err)

	err = s.Update(ctx, func(tx *tagindex.Transaction) error {
		return tx.Add(tagindex.Blob([]byte("this blob is too long")), []tagindex.Ref{tagindex.Blob([]byte("a"))})
	})
	require.ErrorIs(t, err, tagindex.ErrInvalidInput)
}

func TestClearWipesEverything(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx *tagindex.Transaction) error {
		return tx.Add(tagindex.Blob([]byte("o1")), []tagindex.Ref{tagindex.Blob([]byte("a"))})
	}))
	require.NoError(t, s.Clear(ctx))

	err := s.Update(ctx, func(tx *tagindex.Transaction) error {
		// Clear wipes the schema-version row too; Find does not consult
		// it, so Find must still work against the emptied store.
		found, err := tx.Find([]tagindex.Ref{tagindex.Blob([]byte("a"))}, nil, nil, 0)
		if err != nil {
			return err
		}
		require.Empty(t, found)
		return nil
	})
	require.NoError(t, err)
}

func TestCheckpointIsANoOpOnContents(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx *tagindex.Transaction) error {
		return tx.Add(tagindex.Blob([]byte("o1")), []tagindex.Ref{tagindex.Blob([]byte("a"))})
	}))
	require.NoError(t, s.Checkpoint(ctx))

	var found []tagindex.Id
	require.NoError(t, s.View(ctx, func(tx *tagindex.Transaction) (err error) {
		found, err = tx.Find([]tagindex.Ref{tagindex.Blob([]byte("a"))}, nil, nil, 0)
		return err
	}))
	require.Len(t, found, 1)
}
