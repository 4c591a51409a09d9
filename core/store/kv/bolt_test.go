package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/heirloom/internal/testing/fake"
)

func TestBoltDB_UpdateAndView(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	defer db.Close()

	committed := false

	err = db.Update(func(txn WritableTx) error {
		bucket, err := txn.GetBucketOrCreate([]byte("state"))
		require.NoError(t, err)

		txn.OnCommit(func() { committed = true })

		return bucket.Set([]byte("key"), []byte("value"))
	})
	require.NoError(t, err)
	require.True(t, committed)

	err = db.View(func(txn ReadableTx) error {
		require.Nil(t, txn.GetBucket([]byte("unknown")))

		bucket := txn.GetBucket([]byte("state"))
		require.NotNil(t, bucket)
		require.Equal(t, []byte("value"), bucket.Get([]byte("key")))

		return nil
	})
	require.NoError(t, err)
}

func TestBoltDB_Rollback(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update(func(txn WritableTx) error {
		bucket, err := txn.GetBucketOrCreate([]byte("state"))
		require.NoError(t, err)

		require.NoError(t, bucket.Set([]byte("key"), []byte("value")))

		return fake.GetError()
	})
	require.EqualError(t, err, fake.GetError().Error())

	err = db.View(func(txn ReadableTx) error {
		require.Nil(t, txn.GetBucket([]byte("state")))
		return nil
	})
	require.NoError(t, err)
}

func TestBoltBucket_Iterate(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update(func(txn WritableTx) error {
		bucket, err := txn.GetBucketOrCreate([]byte("events"))
		require.NoError(t, err)

		require.NoError(t, bucket.Set([]byte("a1"), []byte{1}))
		require.NoError(t, bucket.Set([]byte("a2"), []byte{2}))
		require.NoError(t, bucket.Set([]byte("b1"), []byte{3}))
		require.NoError(t, bucket.Delete([]byte("b1")))

		count := 0
		err = bucket.ForEach(func(k, v []byte) error {
			count++
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 2, count)

		keys := []string{}
		err = bucket.Scan([]byte("a"), func(k, v []byte) error {
			keys = append(keys, string(k))
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []string{"a1", "a2"}, keys)

		err = bucket.Scan([]byte("a"), func(k, v []byte) error {
			return fake.GetError()
		})
		require.EqualError(t, err, fake.Err("callback failed"))

		return nil
	})
	require.NoError(t, err)
}

func TestBoltDB_Close(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	require.NoError(t, db.Close())

	err = db.View(func(ReadableTx) error { return nil })
	require.Error(t, err)
}

func TestNew_Failure(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "test.db"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open db: ")
}
