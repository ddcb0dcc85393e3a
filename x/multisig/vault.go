package multisig

import (
	"github.com/covault/covault"
	"github.com/covault/covault/coin"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/x/cash"
)

// Vault gates how much of the contract funds can be withdrawn. Withdrawal
// proposals and resolutions never move more than the vault clears.
type Vault interface {
	// Withdrawable returns the coins currently cleared for withdrawal
	// from the given contract.
	Withdrawable(db covault.ReadOnlyKVStore, contractID []byte, source covault.Address) (coin.Coins, error)

	// Debit reduces the withdrawable balance. It is called exactly once
	// per resolved withdrawal, before the funds are transferred.
	Debit(db covault.KVStore, contractID []byte, amount coin.Coin) error
}

// CashVault clears the full cash balance of the contract account for
// withdrawal. It is the vault of contracts without a release schedule.
type CashVault struct {
	control cash.Controller
}

var _ Vault = CashVault{}

func NewCashVault(control cash.Controller) CashVault {
	return CashVault{control: control}
}

func (v CashVault) Withdrawable(db covault.ReadOnlyKVStore, contractID []byte, source covault.Address) (coin.Coins, error) {
	balance, err := v.control.Balance(db, source)
	switch {
	case err == nil:
		return balance, nil
	case errors.ErrNotFound.Is(err):
		// An account that was never funded has nothing to withdraw.
		return nil, nil
	default:
		return nil, err
	}
}

// Debit is a no-op. The withdrawable balance is the cash balance itself
// and the transfer that follows reduces it.
func (v CashVault) Debit(db covault.KVStore, contractID []byte, amount coin.Coin) error {
	return nil
}
