package iavl

import (
	"github.com/covault/covault/errors"
	"github.com/covault/covault/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// default number of nodes held in memory by the tree
const cacheSize = 10000

// CommitStore manages an iavl committed state
type CommitStore struct {
	tree *iavl.MutableTree
}

var _ store.CommitKVStore = CommitStore{}

// NewCommitStore creates a new store backed by a leveldb database
// in the given directory
func NewCommitStore(dir, name string) CommitStore {
	db := dbm.NewDB(name, dbm.GoLevelDBBackend, dir)
	tree := iavl.NewMutableTree(db, cacheSize)
	return CommitStore{tree: tree}
}

// MockCommitStore returns a store with in-memory backing,
// useful for tests
func MockCommitStore() CommitStore {
	tree := iavl.NewMutableTree(dbm.NewMemDB(), cacheSize)
	return CommitStore{tree: tree}
}

// Get returns the value at the last committed state.
// Returns nil if the key doesn't exist.
func (s CommitStore) Get(key []byte) ([]byte, error) {
	version := s.tree.Version()
	if version == 0 {
		return nil, nil
	}
	tree, err := s.tree.GetImmutable(version)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "cannot load version %d: %s", version, err)
	}
	_, value := tree.Get(key)
	return value, nil
}

// Commit the pending writes as the next version and return its id
func (s CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrapf(errors.ErrDatabase, "cannot save version: %s", err)
	}
	return store.CommitID{
		Version: version,
		Hash:    hash,
	}, nil
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "cannot load latest version: %s", err)
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s CommitStore) LatestVersion() (store.CommitID, error) {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// CacheWrap gives a working state on top of the committed tree.
// Writing it makes the changes part of the next commit.
func (s CommitStore) CacheWrap() store.KVCacheWrap {
	return treeWrap{tree: s.tree}
}

// treeWrap exposes the mutable working tree as a cache layer. All writes
// go directly into the tree and become part of the next SaveVersion call.
type treeWrap struct {
	tree *iavl.MutableTree
}

var _ store.KVCacheWrap = treeWrap{}

// Get returns nil if the key doesn't exist
func (c treeWrap) Get(key []byte) ([]byte, error) {
	_, value := c.tree.Get(key)
	return value, nil
}

// Has checks if a key exists
func (c treeWrap) Has(key []byte) (bool, error) {
	return c.tree.Has(key), nil
}

// Set adds a new value to the working tree
func (c treeWrap) Set(key, value []byte) error {
	c.tree.Set(key, value)
	return nil
}

// Delete removes a key from the working tree
func (c treeWrap) Delete(key []byte) error {
	c.tree.Remove(key)
	return nil
}

// NewBatch returns a batch that can write multiple ops atomically
func (c treeWrap) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(c)
}

// CacheWrap layers a btree cache on top of the working tree, so
// speculative writes can still be discarded
func (c treeWrap) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(c, c.NewBatch(), nil)
}

// Write is a noop as all writes already went into the working tree.
// The data is persisted on the next Commit call.
func (c treeWrap) Write() error {
	return nil
}

// Discard is a noop, the working tree cannot roll back. Use an extra
// CacheWrap layer when rollback support is needed.
func (c treeWrap) Discard() {}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (c treeWrap) Iterator(start, end []byte) (store.Iterator, error) {
	var res []store.Model
	c.tree.IterateRange(start, end, true, func(key, value []byte) bool {
		res = append(res, store.Model{Key: key, Value: value})
		return false
	})
	return store.NewSliceIterator(res), nil
}

// ReverseIterator over a domain of keys in descending order. End is exclusive.
func (c treeWrap) ReverseIterator(start, end []byte) (store.Iterator, error) {
	var res []store.Model
	c.tree.IterateRange(start, end, false, func(key, value []byte) bool {
		res = append(res, store.Model{Key: key, Value: value})
		return false
	})
	return store.NewSliceIterator(res), nil
}
