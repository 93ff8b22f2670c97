package pebblestore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Options{
		DataDir:       t.TempDir(),
		Fsync:         FsyncModeInterval,
		FsyncInterval: 2 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func put(db *DB, key, value []byte) error {
	b := db.NewBatch()
	defer b.Close()
	if err := b.Set(key, value, nil); err != nil {
		return err
	}
	return db.CommitBatch(b)
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}

func TestSetGet(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, put(db, []byte("k1"), []byte("v1")))

	got, err := db.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	_, err = db.Get([]byte("missing"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestScanOrderAndBounds(t *testing.T) {
	db := newTestDB(t)
	for _, k := range []string{"a/1", "a/2", "a/3", "b/1"} {
		require.NoError(t, put(db, []byte(k), []byte(k)))
	}

	var fwd, rev []string
	require.NoError(t, db.Scan([]byte("a/"), false, func(k, _ []byte) bool {
		fwd = append(fwd, string(k))
		return true
	}))
	require.NoError(t, db.Scan([]byte("a/"), true, func(k, _ []byte) bool {
		rev = append(rev, string(k))
		return len(rev) < 2
	}))
	assert.Equal(t, []string{"a/1", "a/2", "a/3"}, fwd)
	assert.Equal(t, []string{"a/3", "a/2"}, rev)
}

func TestDeletePrefix(t *testing.T) {
	db := newTestDB(t)
	for _, k := range []string{"m/1/a", "m/1/b", "m/2/a"} {
		require.NoError(t, put(db, []byte(k), []byte("x")))
	}
	b := db.NewBatch()
	require.NoError(t, DeletePrefix(b, []byte("m/1/")))
	require.NoError(t, db.CommitBatch(b))
	require.NoError(t, b.Close())

	var left []string
	require.NoError(t, db.Scan([]byte("m/"), false, func(k, _ []byte) bool {
		left = append(left, string(k))
		return true
	}))
	assert.Equal(t, []string{"m/2/a"}, left)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("b"), PrefixEnd([]byte("a")))
	assert.Equal(t, []byte{0x01}, PrefixEnd([]byte{0x00, 0xff}))
	assert.Nil(t, PrefixEnd([]byte{0xff, 0xff}))
}

func TestParseFsyncMode(t *testing.T) {
	m, err := ParseFsyncMode("never")
	require.NoError(t, err)
	assert.Equal(t, FsyncModeNever, m)
	_, err = ParseFsyncMode("maybe")
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Ping())
	var nilDB *DB
	assert.Error(t, nilDB.Ping())
}
