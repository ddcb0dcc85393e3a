package orm

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/covault/covault/errors"
	"github.com/covault/covault/store"
)

// counter is a minimal model implementation for tests.
type counter struct {
	count int64
}

func (c *counter) Marshal() ([]byte, error) {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(c.count))
	return raw, nil
}

func (c *counter) Unmarshal(raw []byte) error {
	if len(raw) != 8 {
		return errors.Wrapf(errors.ErrInput, "invalid length: %d", len(raw))
	}
	c.count = int64(binary.BigEndian.Uint64(raw))
	return nil
}

func (c *counter) Validate() error {
	if c.count < 0 {
		return errors.Wrap(errors.ErrState, "negative counter")
	}
	return nil
}

// unknownModel is never registered with any bucket.
type unknownModel struct {
	counter
}

func TestModelBucketPutOne(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	key, err := b.Put(db, []byte("c1"), &counter{count: 42})
	if err != nil {
		t.Fatalf("cannot put: %+v", err)
	}
	if !bytes.Equal(key, []byte("c1")) {
		t.Fatalf("unexpected key: %q", key)
	}

	var c counter
	if err := b.One(db, []byte("c1"), &c); err != nil {
		t.Fatalf("cannot get: %+v", err)
	}
	if c.count != 42 {
		t.Fatalf("unexpected count: %d", c.count)
	}
}

func TestModelBucketPutGeneratesKey(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	first, err := b.Put(db, nil, &counter{count: 1})
	if err != nil {
		t.Fatalf("cannot put: %+v", err)
	}
	second, err := b.Put(db, nil, &counter{count: 2})
	if err != nil {
		t.Fatalf("cannot put: %+v", err)
	}

	if bytes.Equal(first, second) {
		t.Fatalf("generated keys must be unique: %x", first)
	}
	if bytes.Compare(first, second) >= 0 {
		t.Fatalf("keys must be ascending: %x then %x", first, second)
	}
}

func TestModelBucketOneMissing(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	var c counter
	if err := b.One(db, []byte("unknown"), &c); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found, got %+v", err)
	}
}

// tagset mimics the merge behaviour of protobuf generated models: its
// Unmarshal appends repeated entries instead of replacing them.
type tagset struct {
	tags []string
}

func (s *tagset) Marshal() ([]byte, error) {
	var raw []byte
	for _, tag := range s.tags {
		raw = append(raw, byte(len(tag)))
		raw = append(raw, tag...)
	}
	return raw, nil
}

func (s *tagset) Unmarshal(raw []byte) error {
	for len(raw) > 0 {
		n := int(raw[0])
		if len(raw) < 1+n {
			return errors.Wrap(errors.ErrInput, "truncated tag")
		}
		s.tags = append(s.tags, string(raw[1:1+n]))
		raw = raw[1+n:]
	}
	return nil
}

func (s *tagset) Validate() error {
	return nil
}

func TestModelBucketOneResetsDestination(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("tags", &tagset{})

	if _, err := b.Put(db, []byte("first"), &tagset{tags: []string{"a", "b"}}); err != nil {
		t.Fatalf("cannot put: %+v", err)
	}
	if _, err := b.Put(db, []byte("second"), &tagset{tags: []string{"c"}}); err != nil {
		t.Fatalf("cannot put: %+v", err)
	}

	// Loading into a reused destination must fully overwrite any state
	// left over from previous loads.
	var s tagset
	if err := b.One(db, []byte("first"), &s); err != nil {
		t.Fatalf("cannot get: %+v", err)
	}
	if err := b.One(db, []byte("second"), &s); err != nil {
		t.Fatalf("cannot get: %+v", err)
	}
	if len(s.tags) != 1 || s.tags[0] != "c" {
		t.Fatalf("stale state in the destination: %v", s.tags)
	}
}

func TestModelBucketWrongModelType(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	if _, err := b.Put(db, []byte("x"), &unknownModel{}); !errors.ErrType.Is(err) {
		t.Fatalf("want type error, got %+v", err)
	}

	if _, err := b.Put(db, []byte("x"), &counter{count: 9}); err != nil {
		t.Fatalf("cannot put: %+v", err)
	}
	var bad unknownModel
	if err := b.One(db, []byte("x"), &bad); !errors.ErrType.Is(err) {
		t.Fatalf("want type error, got %+v", err)
	}
}

func TestModelBucketPutValidates(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	if _, err := b.Put(db, []byte("bad"), &counter{count: -1}); !errors.ErrState.Is(err) {
		t.Fatalf("want state error, got %+v", err)
	}
}

func TestModelBucketDelete(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	if err := b.Delete(db, []byte("unknown")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found, got %+v", err)
	}

	if _, err := b.Put(db, []byte("c"), &counter{count: 1}); err != nil {
		t.Fatalf("cannot put: %+v", err)
	}
	if err := b.Delete(db, []byte("c")); err != nil {
		t.Fatalf("cannot delete: %+v", err)
	}
	if err := b.Has(db, []byte("c")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("deleted entity still present: %+v", err)
	}
}

func TestModelBucketHas(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	if _, err := b.Put(db, []byte("c"), &counter{count: 1}); err != nil {
		t.Fatalf("cannot put: %+v", err)
	}

	if err := b.Has(db, []byte("c")); err != nil {
		t.Fatalf("entity must exist: %+v", err)
	}
	if err := b.Has(db, nil); !errors.ErrNotFound.Is(err) {
		t.Fatalf("nil key must not exist: %+v", err)
	}
}

func TestModelBucketPrefixQuery(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{}).(*modelBucket)

	for i, key := range []string{"aa", "ab", "zz"} {
		if _, err := b.Put(db, []byte(key), &counter{count: int64(i)}); err != nil {
			t.Fatalf("cannot put: %+v", err)
		}
	}

	models, err := b.Query(db, "prefix", []byte("a"))
	if err != nil {
		t.Fatalf("cannot query: %+v", err)
	}
	if len(models) != 2 {
		t.Fatalf("want 2 models, got %d", len(models))
	}
}
