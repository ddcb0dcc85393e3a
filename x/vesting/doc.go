/*
Package vesting locks multisig contract funds behind a yearly release
schedule.

A Schedule splits a total amount into equal yearly slices, one per lock
year, counted from the schedule start time. A slice matures when its year
boundary passes. Matured slices are not released automatically, a current
contract signer must submit a SweepMsg. A sweep releases every matured and
not yet released slice at once, so missed years catch up in a single
transaction.

Released funds accumulate in the withdrawable balance, which is what the
ScheduleVault clears for multisig withdrawals. Contracts without a
schedule are not restricted, the vault falls back to their cash balance.

Schedules are created from the genesis file only.
*/
package vesting
