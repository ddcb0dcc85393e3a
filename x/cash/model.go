package cash

import (
	"github.com/covault/covault"
	"github.com/covault/covault/coin"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/orm"
)

var _ orm.Model = (*Set)(nil)

// Validate requires that all coins are in sorted order, with at most one
// per ticker.
func (s *Set) Validate() error {
	if err := s.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return coin.Coins(s.Coins).Validate()
}

// Copy returns a deep copy of this set.
func (s *Set) Copy() *Set {
	return &Set{
		Metadata: s.Metadata.Copy(),
		Coins:    coin.Coins(s.Coins).Clone(),
	}
}

// NewWallet creates an empty wallet for the given address.
func NewWallet() *Set {
	return &Set{
		Metadata: &covault.Metadata{Schema: 1},
	}
}

// NewBucket returns a bucket holding one Set per account address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("cash", &Set{})
}
