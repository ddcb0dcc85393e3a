package cash

import (
	"github.com/covault/covault"
	"github.com/covault/covault/coin"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/orm"
)

// Controller provides the functionality to manage account balances.
type Controller interface {
	// Balance returns the coins held by the given account. It returns
	// ErrNotFound for an account that was never funded.
	Balance(covault.ReadOnlyKVStore, covault.Address) (coin.Coins, error)

	// MoveCoins transfers the given amount from the source to the
	// destination account.
	MoveCoins(db covault.KVStore, source covault.Address, destination covault.Address, amount coin.Coin) error

	// IssueCoins creates new coins out of thin air and credits them to
	// the destination account.
	IssueCoins(db covault.KVStore, destination covault.Address, amount coin.Coin) error
}

// CashController is the standard implementation of the Controller interface,
// keeping all balances in a wallet bucket.
type CashController struct {
	bucket orm.ModelBucket
}

var _ Controller = CashController{}

// NewController returns a controller using the given bucket as the wallet
// storage.
func NewController(bucket orm.ModelBucket) CashController {
	return CashController{bucket: bucket}
}

func (c CashController) Balance(db covault.ReadOnlyKVStore, account covault.Address) (coin.Coins, error) {
	var set Set
	if err := c.bucket.One(db, account, &set); err != nil {
		return nil, errors.Wrap(err, "cannot load wallet")
	}
	return set.GetCoins(), nil
}

// MoveCoins transfers the given amount from source to destination address.
// The amount must be positive and covered by the source account balance.
func (c CashController) MoveCoins(db covault.KVStore, source covault.Address, destination covault.Address, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive transfer: %#v", &amount)
	}

	var sender Set
	if err := c.bucket.One(db, source, &sender); err != nil {
		return errors.Wrap(err, "cannot load source wallet")
	}
	if !coin.Coins(sender.Coins).Contains(amount) {
		return errors.Wrapf(errors.ErrAmount, "insufficient funds: %s", amount)
	}
	updated, err := coin.Coins(sender.Coins).Subtract(amount)
	if err != nil {
		return errors.Wrap(err, "source balance")
	}
	sender.Coins = updated
	if _, err := c.bucket.Put(db, source, &sender); err != nil {
		return errors.Wrap(err, "cannot store source wallet")
	}

	var recipient Set
	switch err := c.bucket.One(db, destination, &recipient); {
	case err == nil:
		// Wallet already exists.
	case errors.ErrNotFound.Is(err):
		recipient = *NewWallet()
	default:
		return errors.Wrap(err, "cannot load destination wallet")
	}
	combined, err := coin.Coins(recipient.Coins).Add(amount)
	if err != nil {
		return errors.Wrap(err, "destination balance")
	}
	recipient.Coins = combined
	if _, err := c.bucket.Put(db, destination, &recipient); err != nil {
		return errors.Wrap(err, "cannot store destination wallet")
	}
	return nil
}

// IssueCoins attempts to add the given amount of coins to the destination
// balance. Amount can be negative to remove coins from the account.
func (c CashController) IssueCoins(db covault.KVStore, destination covault.Address, amount coin.Coin) error {
	var set Set
	switch err := c.bucket.One(db, destination, &set); {
	case err == nil:
		// Wallet already exists.
	case errors.ErrNotFound.Is(err):
		set = *NewWallet()
	default:
		return errors.Wrap(err, "cannot load wallet")
	}
	updated, err := coin.Coins(set.Coins).Add(amount)
	if err != nil {
		return errors.Wrap(err, "balance")
	}
	set.Coins = updated
	if _, err := c.bucket.Put(db, destination, &set); err != nil {
		return errors.Wrap(err, "cannot store wallet")
	}
	return nil
}
