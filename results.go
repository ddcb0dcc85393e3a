package covault

import (
	"github.com/tendermint/tendermint/libs/common"
)

// CheckResult captures any non-error abci result to make sure people
// use error for error cases.
type CheckResult struct {
	// Data is a machine-parseable return value, like id of created
	// entity.
	Data []byte
	// Log is human readable data returned to the client.
	Log string
	// GasAllocated is the maximum units of work we allow this tx to
	// perform.
	GasAllocated int64
	// GasPayment is the total fees for this tx.
	GasPayment int64
}

// NewCheck sets the gas used and the response data but no more info.
// These are the most common info needed to be set by the Handler.
func NewCheck(gasAllocated int64, log string) *CheckResult {
	return &CheckResult{
		GasAllocated: gasAllocated,
		Log:          log,
	}
}

// DeliverResult captures any non-error abci result to make sure people
// use error for error cases.
type DeliverResult struct {
	// Data is a machine-parseable return value, like id of created
	// entity.
	Data []byte
	// Log is human readable data returned to the client.
	Log string
	// Tags are used for indexing transactions by the observability
	// layer. Every state transition of interest appends tags to the
	// result, exactly once per transition.
	Tags []common.KVPair
	// GasUsed is the units of work performed.
	GasUsed int64
}
