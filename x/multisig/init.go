package multisig

import (
	"github.com/covault/covault"
	"github.com/covault/covault/errors"
)

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ covault.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial contracts from the genesis and save them
// to the database.
func (Initializer) FromGenesis(opts covault.Options, db covault.KVStore) error {
	var contracts []struct {
		Name      string            `json:"name"`
		Signers   []covault.Address `json:"signers"`
		Threshold uint32            `json:"threshold"`
	}
	if err := opts.ReadOptions("multisig", &contracts); err != nil {
		return errors.Wrap(err, "cannot load genesis contracts")
	}

	bucket := NewContractBucket()
	for i, c := range contracts {
		key, err := contractSeq.NextVal(db)
		if err != nil {
			return errors.Wrap(err, "cannot acquire ID")
		}
		contract := Contract{
			Metadata:  &covault.Metadata{Schema: 1},
			Name:      c.Name,
			Signers:   c.Signers,
			Threshold: c.Threshold,
			Address:   MultiSigCondition(key).Address(),
		}
		if _, err := bucket.Put(db, key, &contract); err != nil {
			return errors.Wrapf(err, "cannot save contract #%d", i)
		}
	}
	return nil
}
