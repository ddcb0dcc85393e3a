package cash

import (
	"github.com/covault/covault"
	"github.com/covault/covault/coin"
	"github.com/covault/covault/errors"
)

// GenesisAccount is a pre-funded account declared in the genesis file.
type GenesisAccount struct {
	Address covault.Address `json:"address"`
	Coins   coin.Coins      `json:"coins"`
}

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ covault.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial account info from the genesis and save it
// to the database.
func (Initializer) FromGenesis(opts covault.Options, db covault.KVStore) error {
	var accounts []GenesisAccount
	if err := opts.ReadOptions("cash", &accounts); err != nil {
		return errors.Wrap(err, "cannot load genesis accounts")
	}
	bucket := NewBucket()
	for i, acc := range accounts {
		if err := acc.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account #%d address", i)
		}
		wallet := Set{
			Metadata: &covault.Metadata{Schema: 1},
			Coins:    acc.Coins.Clone(),
		}
		if _, err := bucket.Put(db, acc.Address, &wallet); err != nil {
			return errors.Wrapf(err, "account #%d wallet", i)
		}
	}
	return nil
}
