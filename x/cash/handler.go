package cash

import (
	"github.com/covault/covault"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/x"
)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r covault.Registry, auth x.Authenticator, control Controller) {
	r.Handle(&SendMsg{}, NewSendHandler(auth, control))
}

// RegisterQuery will register the wallet bucket under the /wallets path.
func RegisterQuery(qr covault.QueryRouter) {
	NewBucket().Register("wallets", qr)
}

// SendHandler will handle sending coins.
type SendHandler struct {
	auth    x.Authenticator
	control Controller
}

var _ covault.Handler = SendHandler{}

// NewSendHandler creates a handler for SendMsg.
func NewSendHandler(auth x.Authenticator, control Controller) SendHandler {
	return SendHandler{
		auth:    auth,
		control: control,
	}
}

// Check verifies the message is valid and the sender authorized the transfer.
func (h SendHandler) Check(ctx covault.Context, store covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &covault.CheckResult{GasAllocated: sendTxCost}, nil
}

// Deliver moves the tokens from source to destination if authorized.
func (h SendHandler) Deliver(ctx covault.Context, store covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.control.MoveCoins(store, msg.Source, msg.Destination, *msg.Amount); err != nil {
		return nil, err
	}
	return &covault.DeliverResult{}, nil
}

func (h SendHandler) validate(ctx covault.Context, tx covault.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := covault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "source did not sign the transaction")
	}
	return &msg, nil
}
