package orm

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/covault/covault"
	"github.com/covault/covault/errors"
)

// SeqID is a constant to use to get a default ID sequence
const SeqID = "id"

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	covault.Persistent
	Validate() error
}

// ModelBucket is a prefixed subspace of the database holding entities of a
// single type.
type ModelBucket interface {
	// One queries the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db covault.ReadOnlyKVStore, key []byte, dest Model) error

	// Put saves given model in the database. When the key is nil a new
	// one is acquired from the bucket ID sequence. The key the model was
	// stored under is returned.
	Put(db covault.KVStore, key []byte, m Model) ([]byte, error)

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db covault.KVStore, key []byte) error

	// Has returns nil if an entity with given primary key exists, or
	// ErrNotFound otherwise.
	Has(db covault.ReadOnlyKVStore, key []byte) error

	// Register registers this buckets content to be accessible via query
	// requests under the given name.
	Register(name string, r covault.QueryRouter)
}

// NewModelBucket returns a ModelBucket instance owning the `<name>:` key
// space. Given model works as a type declaration of the stored entities.
func NewModelBucket(name string, model Model) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("illegal bucket name: %q", name))
	}
	return &modelBucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		model:  reflect.TypeOf(model),
		idSeq:  NewSequence(name, SeqID),
	}
}

type modelBucket struct {
	name   string
	prefix []byte
	model  reflect.Type
	idSeq  Sequence
}

var _ ModelBucket = (*modelBucket)(nil)
var _ covault.QueryHandler = (*modelBucket)(nil)

func (b *modelBucket) One(db covault.ReadOnlyKVStore, key []byte, dest Model) error {
	raw, err := db.Get(b.dbKey(key))
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if dt := reflect.TypeOf(dest); dt != b.model {
		return errors.Wrapf(errors.ErrType, "%v cannot be represented as %v", b.model, dt)
	}
	// Protobuf unmarshal merges into whatever the destination already
	// holds, so the destination must be zeroed to fully overwrite a
	// reused instance.
	reflect.ValueOf(dest).Elem().Set(reflect.Zero(b.model.Elem()))
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "cannot unmarshal into %T", dest)
	}
	return nil
}

func (b *modelBucket) Put(db covault.KVStore, key []byte, m Model) ([]byte, error) {
	if mt := reflect.TypeOf(m); mt != b.model {
		return nil, errors.Wrapf(errors.ErrType, "%v cannot be stored as %v", mt, b.model)
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}

	if key == nil {
		var err error
		key, err = b.idSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "ID sequence")
		}
	}

	raw, err := m.Marshal()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot marshal %T", m)
	}
	if err := db.Set(b.dbKey(key), raw); err != nil {
		return nil, errors.Wrap(err, "cannot store in the database")
	}
	return key, nil
}

func (b *modelBucket) Delete(db covault.KVStore, key []byte) error {
	if err := b.Has(db, key); err != nil {
		return err
	}
	return db.Delete(b.dbKey(key))
}

func (b *modelBucket) Has(db covault.ReadOnlyKVStore, key []byte) error {
	if key == nil {
		// nil key is a special case that would point to the sequence
		return errors.ErrNotFound
	}
	ok, err := db.Has(b.dbKey(key))
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrNotFound
	}
	return nil
}

func (b *modelBucket) Register(name string, r covault.QueryRouter) {
	if name == "" {
		name = b.name
	}
	r.Register("/"+name, b)
}

// Query handles queries from the QueryRouter
func (b *modelBucket) Query(db covault.ReadOnlyKVStore, mod string, data []byte) ([]covault.Model, error) {
	switch mod {
	case covault.KeyQueryMod:
		key := b.dbKey(data)
		value, err := db.Get(key)
		if err != nil {
			return nil, err
		}
		// return nothing on miss
		if value == nil {
			return nil, nil
		}
		return []covault.Model{{Key: key, Value: value}}, nil
	case covault.PrefixQueryMod:
		return queryPrefix(db, b.dbKey(data))
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown query modifier: %q", mod)
	}
}

// dbKey is the full key stored in the db, including the bucket prefix. The
// result is always a new array, so consecutive calls never share memory.
func (b *modelBucket) dbKey(key []byte) []byte {
	out := make([]byte, len(b.prefix)+len(key))
	copy(out, b.prefix)
	copy(out[len(b.prefix):], key)
	return out
}

// queryPrefix returns all models with keys starting with the given prefix in
// ascending key order.
func queryPrefix(db covault.ReadOnlyKVStore, prefix []byte) ([]covault.Model, error) {
	iter, err := db.Iterator(prefix, prefixEnd(prefix))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var res []covault.Model
	for iter.Valid() {
		res = append(res, covault.Model{Key: iter.Key(), Value: iter.Value()})
		if err := iter.Next(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// prefixEnd returns the lowest key that is greater than any key with the
// given prefix, or nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
