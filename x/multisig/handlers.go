package multisig

import (
	"strconv"

	"github.com/covault/covault"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/orm"
	"github.com/covault/covault/x"
	"github.com/covault/covault/x/cash"
	"github.com/tendermint/tendermint/libs/common"
)

// contractSeq allocates contract IDs. It is shared with the contract
// bucket, which uses the same sequence for nil key Put calls.
var contractSeq = orm.NewSequence("contracts", orm.SeqID)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r covault.Registry, auth x.Authenticator, control cash.Controller, vault Vault) {
	contracts := NewContractBucket()
	requests := NewRequestBucket()
	base := proposalHandler{auth: auth, contracts: contracts, requests: requests}

	r.Handle(&CreateContractMsg{}, CreateContractHandler{auth: auth, bucket: contracts})
	r.Handle(&ProposeAddSignerMsg{}, AddSignerHandler{proposalHandler: base})
	r.Handle(&ProposeRemoveSignerMsg{}, RemoveSignerHandler{proposalHandler: base})
	r.Handle(&ProposeThresholdMsg{}, ThresholdHandler{proposalHandler: base})
	r.Handle(&ProposeWithdrawMsg{}, WithdrawHandler{proposalHandler: base, vault: vault})
	r.Handle(&ApproveMsg{}, ApproveHandler{auth: auth, contracts: contracts, requests: requests, control: control, vault: vault})
	r.Handle(&CancelMsg{}, CancelHandler{auth: auth, contracts: contracts, requests: requests})
}

// RegisterQuery will register the contract and request buckets.
func RegisterQuery(qr covault.QueryRouter) {
	NewContractBucket().Register("contracts", qr)
	NewRequestBucket().Register("requests", qr)
}

// CreateContractHandler creates a new multi signature wallet.
type CreateContractHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ covault.Handler = CreateContractHandler{}

func (h CreateContractHandler) Check(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &covault.CheckResult{GasAllocated: creationCost}, nil
}

func (h CreateContractHandler) Deliver(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}

	key, err := contractSeq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire ID")
	}
	contract := Contract{
		Metadata:  &covault.Metadata{Schema: 1},
		Name:      msg.Name,
		Signers:   msg.Signers,
		Threshold: msg.Threshold,
		Address:   MultiSigCondition(key).Address(),
	}
	if _, err := h.bucket.Put(db, key, &contract); err != nil {
		return nil, errors.Wrap(err, "cannot store contract")
	}
	return &covault.DeliverResult{Data: key}, nil
}

func (h CreateContractHandler) validate(ctx covault.Context, tx covault.Tx) (*CreateContractMsg, error) {
	var msg CreateContractMsg
	if err := covault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return &msg, nil
}

// proposalHandler carries the state and checks shared by all proposal
// messages.
type proposalHandler struct {
	auth      x.Authenticator
	contracts orm.ModelBucket
	requests  orm.ModelBucket
}

// signingContract loads the contract and returns it together with the
// authenticated current signer acting on it.
func (h proposalHandler) signingContract(ctx covault.Context, db covault.ReadOnlyKVStore, contractID []byte) (*Contract, covault.Address, error) {
	var c Contract
	if err := h.contracts.One(db, contractID, &c); err != nil {
		return nil, nil, errors.Wrap(err, "cannot load contract")
	}
	for _, s := range c.Signers {
		if h.auth.HasAddress(ctx, s) {
			return &c, s, nil
		}
	}
	return nil, nil, errors.Wrap(errors.ErrUnauthorized, "not a contract signer")
}

// createRequest stores a new pending request with the proposer counted as
// the first approver. The required approval count is captured from the
// current contract threshold and never updated afterwards.
func (h proposalHandler) createRequest(db covault.KVStore, contract *Contract, contractID []byte, proposer covault.Address, req *PendingRequest) (*covault.DeliverResult, error) {
	req.Metadata = &covault.Metadata{Schema: 1}
	req.ContractId = contractID
	req.Proposer = proposer
	req.RemainingApprovals = contract.Threshold - 1
	req.Approvals = []covault.Address{proposer}

	id, err := h.requests.Put(db, nil, req)
	if err != nil {
		return nil, errors.Wrap(err, "cannot store request")
	}
	return &covault.DeliverResult{
		Data: id,
		Tags: []common.KVPair{
			{Key: []byte("multisig-id"), Value: contractID},
			{Key: []byte("request-id"), Value: id},
			{Key: []byte("proposer"), Value: []byte(proposer.String())},
		},
	}, nil
}

// AddSignerHandler proposes extending the signer set of a contract.
type AddSignerHandler struct {
	proposalHandler
}

var _ covault.Handler = AddSignerHandler{}

func (h AddSignerHandler) Check(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &covault.CheckResult{GasAllocated: proposalCost}, nil
}

func (h AddSignerHandler) Deliver(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	msg, contract, proposer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return h.createRequest(db, contract, msg.ContractId, proposer, &PendingRequest{
		AddSigner: &AddSignerAction{Signer: msg.Signer},
	})
}

func (h AddSignerHandler) validate(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*ProposeAddSignerMsg, *Contract, covault.Address, error) {
	var msg ProposeAddSignerMsg
	if err := covault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	contract, proposer, err := h.signingContract(ctx, db, msg.ContractId)
	if err != nil {
		return nil, nil, nil, err
	}
	// Run the mutation on the loaded copy to fail fast. The copy is
	// discarded, the change is applied again when the request resolves.
	if err := contract.AddSigner(msg.Signer); err != nil {
		return nil, nil, nil, err
	}
	return &msg, contract, proposer, nil
}

// RemoveSignerHandler proposes shrinking the signer set of a contract.
type RemoveSignerHandler struct {
	proposalHandler
}

var _ covault.Handler = RemoveSignerHandler{}

func (h RemoveSignerHandler) Check(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &covault.CheckResult{GasAllocated: proposalCost}, nil
}

func (h RemoveSignerHandler) Deliver(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	msg, contract, proposer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return h.createRequest(db, contract, msg.ContractId, proposer, &PendingRequest{
		RemoveSigner: &RemoveSignerAction{Signer: msg.Signer},
	})
}

func (h RemoveSignerHandler) validate(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*ProposeRemoveSignerMsg, *Contract, covault.Address, error) {
	var msg ProposeRemoveSignerMsg
	if err := covault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	contract, proposer, err := h.signingContract(ctx, db, msg.ContractId)
	if err != nil {
		return nil, nil, nil, err
	}
	// Threshold snapshot must be taken before the scratch mutation.
	scratch := *contract
	scratch.Signers = append([]covault.Address{}, contract.Signers...)
	if err := scratch.RemoveSigner(msg.Signer); err != nil {
		return nil, nil, nil, err
	}
	return &msg, contract, proposer, nil
}

// ThresholdHandler proposes a new approval threshold for a contract.
type ThresholdHandler struct {
	proposalHandler
}

var _ covault.Handler = ThresholdHandler{}

func (h ThresholdHandler) Check(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &covault.CheckResult{GasAllocated: proposalCost}, nil
}

func (h ThresholdHandler) Deliver(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	msg, contract, proposer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	action := &SetThresholdAction{
		OldThreshold: contract.Threshold,
		NewThreshold: msg.Threshold,
	}
	return h.createRequest(db, contract, msg.ContractId, proposer, &PendingRequest{
		SetThreshold: action,
	})
}

func (h ThresholdHandler) validate(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*ProposeThresholdMsg, *Contract, covault.Address, error) {
	var msg ProposeThresholdMsg
	if err := covault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	contract, proposer, err := h.signingContract(ctx, db, msg.ContractId)
	if err != nil {
		return nil, nil, nil, err
	}
	if msg.Threshold == contract.Threshold {
		return nil, nil, nil, errors.Wrap(ErrThreshold, "threshold unchanged")
	}
	if err := validateThreshold(msg.Threshold, len(contract.Signers)); err != nil {
		return nil, nil, nil, err
	}
	return &msg, contract, proposer, nil
}

// WithdrawHandler proposes moving funds out of the contract account.
type WithdrawHandler struct {
	proposalHandler
	vault Vault
}

var _ covault.Handler = WithdrawHandler{}

func (h WithdrawHandler) Check(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &covault.CheckResult{GasAllocated: proposalCost}, nil
}

func (h WithdrawHandler) Deliver(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	msg, contract, proposer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return h.createRequest(db, contract, msg.ContractId, proposer, &PendingRequest{
		Withdraw: &WithdrawAction{
			Destination: msg.Destination,
			Amount:      msg.Amount,
		},
	})
}

func (h WithdrawHandler) validate(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*ProposeWithdrawMsg, *Contract, covault.Address, error) {
	var msg ProposeWithdrawMsg
	if err := covault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	contract, proposer, err := h.signingContract(ctx, db, msg.ContractId)
	if err != nil {
		return nil, nil, nil, err
	}
	withdrawable, err := h.vault.Withdrawable(db, msg.ContractId, contract.Address)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "vault")
	}
	if !withdrawable.Contains(*msg.Amount) {
		return nil, nil, nil, errors.Wrapf(errors.ErrAmount, "withdrawable balance below %s", msg.Amount)
	}
	return &msg, contract, proposer, nil
}

// ApproveHandler collects approvals and executes the encoded action when
// the last missing approval arrives.
type ApproveHandler struct {
	auth      x.Authenticator
	contracts orm.ModelBucket
	requests  orm.ModelBucket
	control   cash.Controller
	vault     Vault
}

var _ covault.Handler = ApproveHandler{}

func (h ApproveHandler) Check(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &covault.CheckResult{GasAllocated: approvalCost}, nil
}

func (h ApproveHandler) Deliver(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	msg, req, contract, approver, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	req.Approvals = append(req.Approvals, approver)

	if req.RemainingApprovals > 1 {
		req.RemainingApprovals--
		if _, err := h.requests.Put(db, msg.RequestId, req); err != nil {
			return nil, errors.Wrap(err, "cannot store request")
		}
		return &covault.DeliverResult{
			Tags: []common.KVPair{
				{Key: []byte("request-id"), Value: msg.RequestId},
				{Key: []byte("approver"), Value: []byte(approver.String())},
			},
		}, nil
	}

	// This is the last missing approval. Execute the action and drop the
	// request, its ID is never used again.
	tags, err := h.execute(db, req, contract)
	if err != nil {
		return nil, err
	}
	if err := h.requests.Delete(db, msg.RequestId); err != nil {
		return nil, errors.Wrap(err, "cannot delete request")
	}
	tags = append(tags,
		common.KVPair{Key: []byte("request-id"), Value: msg.RequestId},
		common.KVPair{Key: []byte("approver"), Value: []byte(approver.String())},
	)
	return &covault.DeliverResult{Tags: tags}, nil
}

// execute applies the single action encoded in the request. All invariants
// are checked against the current contract state, which may have changed
// since the proposal.
func (h ApproveHandler) execute(db covault.KVStore, req *PendingRequest, contract *Contract) ([]common.KVPair, error) {
	switch {
	case req.AddSigner != nil:
		if err := contract.AddSigner(req.AddSigner.Signer); err != nil {
			return nil, err
		}
		if _, err := h.contracts.Put(db, req.ContractId, contract); err != nil {
			return nil, errors.Wrap(err, "cannot store contract")
		}
		return []common.KVPair{
			{Key: []byte("signer-added"), Value: []byte(req.AddSigner.Signer.String())},
		}, nil

	case req.RemoveSigner != nil:
		if err := contract.RemoveSigner(req.RemoveSigner.Signer); err != nil {
			return nil, err
		}
		if _, err := h.contracts.Put(db, req.ContractId, contract); err != nil {
			return nil, errors.Wrap(err, "cannot store contract")
		}
		return []common.KVPair{
			{Key: []byte("signer-removed"), Value: []byte(req.RemoveSigner.Signer.String())},
		}, nil

	case req.SetThreshold != nil:
		if err := contract.UpdateThreshold(req.SetThreshold.NewThreshold); err != nil {
			return nil, err
		}
		if _, err := h.contracts.Put(db, req.ContractId, contract); err != nil {
			return nil, errors.Wrap(err, "cannot store contract")
		}
		return []common.KVPair{
			{Key: []byte("threshold"), Value: []byte(strconv.FormatUint(uint64(contract.Threshold), 10))},
		}, nil

	case req.Withdraw != nil:
		amount := *req.Withdraw.Amount
		withdrawable, err := h.vault.Withdrawable(db, req.ContractId, contract.Address)
		if err != nil {
			return nil, errors.Wrap(err, "vault")
		}
		if !withdrawable.Contains(amount) {
			return nil, errors.Wrapf(errors.ErrAmount, "withdrawable balance below %s", amount)
		}
		if err := h.vault.Debit(db, req.ContractId, amount); err != nil {
			return nil, errors.Wrap(err, "vault debit")
		}
		if err := h.control.MoveCoins(db, contract.Address, req.Withdraw.Destination, amount); err != nil {
			return nil, errors.Wrap(err, "transfer")
		}
		return []common.KVPair{
			{Key: []byte("withdrawal-destination"), Value: []byte(req.Withdraw.Destination.String())},
			{Key: []byte("withdrawal-amount"), Value: []byte(amount.String())},
		}, nil

	default:
		// Validate on Put makes this unreachable.
		return nil, errors.Wrap(errors.ErrState, "request without an action")
	}
}

func (h ApproveHandler) validate(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*ApproveMsg, *PendingRequest, *Contract, covault.Address, error) {
	var msg ApproveMsg
	if err := covault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var req PendingRequest
	if err := h.requests.One(db, msg.RequestId, &req); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "cannot load request")
	}
	var contract Contract
	if err := h.contracts.One(db, req.ContractId, &contract); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "cannot load contract")
	}
	var approver covault.Address
	for _, s := range contract.Signers {
		if h.auth.HasAddress(ctx, s) {
			approver = s
			break
		}
	}
	if approver == nil {
		return nil, nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "not a contract signer")
	}
	if req.HasApproved(approver) {
		return nil, nil, nil, nil, errors.Wrapf(ErrAlreadyApproved, "request %d", orm.DecodeSequence(msg.RequestId))
	}
	return &msg, &req, &contract, approver, nil
}

// CancelHandler drops a pending request. Any signer who approved it,
// proposer included, can cancel without a quorum.
type CancelHandler struct {
	auth      x.Authenticator
	contracts orm.ModelBucket
	requests  orm.ModelBucket
}

var _ covault.Handler = CancelHandler{}

func (h CancelHandler) Check(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &covault.CheckResult{GasAllocated: proposalCost}, nil
}

func (h CancelHandler) Deliver(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	msg, canceller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.requests.Delete(db, msg.RequestId); err != nil {
		return nil, errors.Wrap(err, "cannot delete request")
	}
	return &covault.DeliverResult{
		Tags: []common.KVPair{
			{Key: []byte("request-id"), Value: msg.RequestId},
			{Key: []byte("canceller"), Value: []byte(canceller.String())},
		},
	}, nil
}

func (h CancelHandler) validate(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*CancelMsg, covault.Address, error) {
	var msg CancelMsg
	if err := covault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	var req PendingRequest
	if err := h.requests.One(db, msg.RequestId, &req); err != nil {
		return nil, nil, errors.Wrap(err, "cannot load request")
	}
	var contract Contract
	if err := h.contracts.One(db, req.ContractId, &contract); err != nil {
		return nil, nil, errors.Wrap(err, "cannot load contract")
	}
	var canceller covault.Address
	for _, s := range contract.Signers {
		if h.auth.HasAddress(ctx, s) {
			canceller = s
			break
		}
	}
	if canceller == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "not a contract signer")
	}
	if !req.HasApproved(canceller) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only an approver can cancel")
	}
	return &msg, canceller, nil
}
