package iavl

import (
	"bytes"
	"testing"
)

func TestCommitStoreLifecycle(t *testing.T) {
	s := MockCommitStore()
	if err := s.LoadLatestVersion(); err != nil {
		t.Fatalf("cannot load latest version: %+v", err)
	}
	latest, err := s.LatestVersion()
	if err != nil {
		t.Fatalf("cannot read latest version: %+v", err)
	}
	if latest.Version != 0 {
		t.Fatalf("fresh store must be at version 0, got %d", latest.Version)
	}

	wrap := s.CacheWrap()
	if err := wrap.Set([]byte("alice"), []byte("100")); err != nil {
		t.Fatalf("cannot set: %+v", err)
	}
	if err := wrap.Write(); err != nil {
		t.Fatalf("cannot write: %+v", err)
	}

	// before commit, the committed state is still empty
	if v, err := s.Get([]byte("alice")); err != nil || v != nil {
		t.Fatalf("uncommitted write visible: %q %+v", v, err)
	}

	id, err := s.Commit()
	if err != nil {
		t.Fatalf("cannot commit: %+v", err)
	}
	if id.Version != 1 {
		t.Fatalf("want version 1, got %d", id.Version)
	}
	if len(id.Hash) == 0 {
		t.Fatal("commit must produce a hash")
	}

	v, err := s.Get([]byte("alice"))
	if err != nil {
		t.Fatalf("cannot get: %+v", err)
	}
	if !bytes.Equal(v, []byte("100")) {
		t.Fatalf("unexpected value: %q", v)
	}

	latest, err = s.LatestVersion()
	if err != nil {
		t.Fatalf("cannot read latest version: %+v", err)
	}
	if latest.Version != id.Version || !bytes.Equal(latest.Hash, id.Hash) {
		t.Fatalf("latest version %v does not match commit %v", latest, id)
	}
}

func TestCommitStoreCacheWrapRollback(t *testing.T) {
	s := MockCommitStore()

	wrap := s.CacheWrap()
	// an extra btree layer supports rollback
	scratch := wrap.CacheWrap()
	if err := scratch.Set([]byte("key"), []byte("value")); err != nil {
		t.Fatalf("cannot set: %+v", err)
	}
	scratch.Discard()

	if has, err := wrap.Has([]byte("key")); err != nil || has {
		t.Fatalf("discarded write leaked: %v %+v", has, err)
	}
}

func TestCommitStoreIterator(t *testing.T) {
	s := MockCommitStore()
	wrap := s.CacheWrap()
	for _, kv := range [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}} {
		if err := wrap.Set([]byte(kv[0]), []byte(kv[1])); err != nil {
			t.Fatalf("cannot set: %+v", err)
		}
	}

	iter, err := wrap.Iterator([]byte("a"), []byte("c"))
	if err != nil {
		t.Fatalf("cannot iterate: %+v", err)
	}
	defer iter.Close()

	var keys []string
	for iter.Valid() {
		keys = append(keys, string(iter.Key()))
		if err := iter.Next(); err != nil {
			t.Fatalf("cannot advance: %+v", err)
		}
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
