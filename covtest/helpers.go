package covtest

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/covault/covault"
)

// NewCondition returns a random signature condition, as if it belonged to a
// freshly generated key.
func NewCondition() covault.Condition {
	data := make([]byte, 32)
	if _, err := rand.Read(data); err != nil {
		panic(err)
	}
	return covault.NewCondition("sigs", "ed25519", data)
}

// RandomAddr returns a valid random address generated on the fly.
func RandomAddr(t testing.TB) covault.Address {
	t.Helper()
	raw := make([]byte, covault.AddressLength)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("cannot generate a random address: %s", err)
	}
	a := covault.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("generated address is not valid: %s", err)
	}
	return a
}

// DecodeAddr takes a hex encoded address string and returns its raw
// representation as an address. This function ensures that returned value
// is a valid address.
func DecodeAddr(t testing.TB, encoded string) covault.Address {
	t.Helper()
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		t.Fatalf("cannot decode hex string: %s", err)
	}
	a := covault.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("decoded string is not a valid address: %s", err)
	}
	return a
}

// SequenceID returns an ID in the same format as IDs generated by a bucket
// sequence. This function is helpful for testing buckets that use a sequence
// for creating primary keys.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
