/*
Package multisig implements threshold authorized wallets. A contract owns
a set of signers and a threshold. Sensitive operations, extending or
shrinking the signer set, changing the threshold and withdrawing funds,
are first recorded as pending requests and take effect only once
threshold many distinct signers approved them.

The proposer of a request counts as the first approver. The number of
required approvals is captured from the threshold at proposal time and is
not recomputed when the threshold changes while the request is pending.
The final approval executes the action in the same delivery. Executed and
cancelled requests are deleted and their IDs are never reused.

Funds of a contract are held on the address derived from its
MultiSigCondition. How much of them can be withdrawn is decided by a
Vault implementation, by default the full cash balance.
*/
package multisig
