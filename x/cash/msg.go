package cash

import (
	"github.com/covault/covault"
	"github.com/covault/covault/errors"
)

var _ covault.Msg = (*SendMsg)(nil)

const (
	maxMemoSize = 128
	maxRefSize  = 64

	sendTxCost int64 = 100
)

// Path returns the routing path for this message.
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible.
func (m *SendMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if m.Amount == nil {
		return errors.Wrap(errors.ErrAmount, "no amount")
	}
	if err := m.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !m.Amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive send: %#v", m.Amount)
	}
	if err := m.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := m.Destination.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	if len(m.Memo) > maxMemoSize {
		return errors.Wrap(errors.ErrInput, "memo too long")
	}
	if len(m.Ref) > maxRefSize {
		return errors.Wrap(errors.ErrInput, "ref too long")
	}
	return nil
}

// DefaultSource makes sure there is a payer. If none was set, it
// will default to the given address.
func (m *SendMsg) DefaultSource(addr []byte) *SendMsg {
	if len(m.GetSource()) != 0 {
		return m
	}
	return &SendMsg{
		Metadata:    m.Metadata,
		Source:      addr,
		Destination: m.GetDestination(),
		Amount:      m.GetAmount(),
		Memo:        m.GetMemo(),
		Ref:         m.GetRef(),
	}
}
