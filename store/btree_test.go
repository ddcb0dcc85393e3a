package store

import (
	"bytes"
	"testing"
)

func TestBTreeCacheGetSetDelete(t *testing.T) {
	base := MemStore()
	if err := base.Set([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("cannot set: %+v", err)
	}

	cache := base.CacheWrap()

	// reads fall through to the backing store
	v, err := cache.Get([]byte("a"))
	if err != nil {
		t.Fatalf("cannot get: %+v", err)
	}
	if !bytes.Equal(v, []byte("1")) {
		t.Fatalf("unexpected value: %q", v)
	}

	// writes are not visible below before Write
	if err := cache.Set([]byte("b"), []byte("2")); err != nil {
		t.Fatalf("cannot set: %+v", err)
	}
	if has, _ := base.Has([]byte("b")); has {
		t.Fatal("cache write leaked into the backing store")
	}

	// deletes shadow the backing store
	if err := cache.Delete([]byte("a")); err != nil {
		t.Fatalf("cannot delete: %+v", err)
	}
	if has, _ := cache.Has([]byte("a")); has {
		t.Fatal("deleted key still visible in cache")
	}
	if has, _ := base.Has([]byte("a")); !has {
		t.Fatal("delete leaked into the backing store")
	}

	if err := cache.Write(); err != nil {
		t.Fatalf("cannot write cache: %+v", err)
	}
	if has, _ := base.Has([]byte("a")); has {
		t.Fatal("delete was not applied on write")
	}
	v, err = base.Get([]byte("b"))
	if err != nil {
		t.Fatalf("cannot get: %+v", err)
	}
	if !bytes.Equal(v, []byte("2")) {
		t.Fatalf("set was not applied on write: %q", v)
	}
}

func TestBTreeCacheDiscard(t *testing.T) {
	base := MemStore()
	if err := base.Set([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("cannot set: %+v", err)
	}

	cache := base.CacheWrap()
	if err := cache.Set([]byte("gone"), []byte("soon")); err != nil {
		t.Fatalf("cannot set: %+v", err)
	}
	cache.Discard()

	if has, _ := base.Has([]byte("gone")); has {
		t.Fatal("discarded write leaked into the backing store")
	}
	if has, _ := base.Has([]byte("k")); !has {
		t.Fatal("backing store lost data on discard")
	}
}

func TestBTreeCacheIterator(t *testing.T) {
	cases := map[string]struct {
		base    []Model
		set     []Model
		delete  [][]byte
		start   []byte
		end     []byte
		reverse bool
		want    []Model
	}{
		"combines cache and backing store in order": {
			base: []Model{
				{Key: []byte("b"), Value: []byte("2")},
				{Key: []byte("d"), Value: []byte("4")},
			},
			set: []Model{
				{Key: []byte("a"), Value: []byte("1")},
				{Key: []byte("c"), Value: []byte("3")},
			},
			want: []Model{
				{Key: []byte("a"), Value: []byte("1")},
				{Key: []byte("b"), Value: []byte("2")},
				{Key: []byte("c"), Value: []byte("3")},
				{Key: []byte("d"), Value: []byte("4")},
			},
		},
		"cache overwrites backing store value": {
			base: []Model{
				{Key: []byte("a"), Value: []byte("old")},
			},
			set: []Model{
				{Key: []byte("a"), Value: []byte("new")},
			},
			want: []Model{
				{Key: []byte("a"), Value: []byte("new")},
			},
		},
		"deleted keys are skipped": {
			base: []Model{
				{Key: []byte("a"), Value: []byte("1")},
				{Key: []byte("b"), Value: []byte("2")},
				{Key: []byte("c"), Value: []byte("3")},
			},
			delete: [][]byte{[]byte("b")},
			want: []Model{
				{Key: []byte("a"), Value: []byte("1")},
				{Key: []byte("c"), Value: []byte("3")},
			},
		},
		"range bounds are respected": {
			base: []Model{
				{Key: []byte("a"), Value: []byte("1")},
				{Key: []byte("b"), Value: []byte("2")},
				{Key: []byte("c"), Value: []byte("3")},
			},
			start: []byte("b"),
			end:   []byte("c"),
			want: []Model{
				{Key: []byte("b"), Value: []byte("2")},
			},
		},
		"reverse iteration": {
			base: []Model{
				{Key: []byte("a"), Value: []byte("1")},
			},
			set: []Model{
				{Key: []byte("b"), Value: []byte("2")},
			},
			reverse: true,
			want: []Model{
				{Key: []byte("b"), Value: []byte("2")},
				{Key: []byte("a"), Value: []byte("1")},
			},
		},
		"reverse iteration interleaves cache and backing store": {
			base: []Model{
				{Key: []byte("b"), Value: []byte("2")},
				{Key: []byte("d"), Value: []byte("4")},
			},
			set: []Model{
				{Key: []byte("a"), Value: []byte("1")},
				{Key: []byte("c"), Value: []byte("3")},
				{Key: []byte("e"), Value: []byte("5")},
			},
			delete:  [][]byte{[]byte("d")},
			reverse: true,
			want: []Model{
				{Key: []byte("e"), Value: []byte("5")},
				{Key: []byte("c"), Value: []byte("3")},
				{Key: []byte("b"), Value: []byte("2")},
				{Key: []byte("a"), Value: []byte("1")},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base := MemStore()
			for _, m := range tc.base {
				if err := base.Set(m.Key, m.Value); err != nil {
					t.Fatalf("cannot set: %+v", err)
				}
			}
			cache := base.CacheWrap()
			for _, m := range tc.set {
				if err := cache.Set(m.Key, m.Value); err != nil {
					t.Fatalf("cannot set: %+v", err)
				}
			}
			for _, k := range tc.delete {
				if err := cache.Delete(k); err != nil {
					t.Fatalf("cannot delete: %+v", err)
				}
			}

			var (
				iter Iterator
				err  error
			)
			if tc.reverse {
				iter, err = cache.ReverseIterator(tc.start, tc.end)
			} else {
				iter, err = cache.Iterator(tc.start, tc.end)
			}
			if err != nil {
				t.Fatalf("cannot create iterator: %+v", err)
			}
			defer iter.Close()

			var got []Model
			for iter.Valid() {
				got = append(got, Model{Key: iter.Key(), Value: iter.Value()})
				if err := iter.Next(); err != nil {
					t.Fatalf("cannot advance: %+v", err)
				}
			}

			if len(got) != len(tc.want) {
				t.Fatalf("want %d models, got %d", len(tc.want), len(got))
			}
			for i := range tc.want {
				if !bytes.Equal(got[i].Key, tc.want[i].Key) {
					t.Errorf("model %d: want key %q, got %q", i, tc.want[i].Key, got[i].Key)
				}
				if !bytes.Equal(got[i].Value, tc.want[i].Value) {
					t.Errorf("model %d: want value %q, got %q", i, tc.want[i].Value, got[i].Value)
				}
			}
		})
	}
}
