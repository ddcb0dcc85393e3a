/*
Package cash defines a simple wallet implementation. Each account owns a
set of coins, at most one per currency, and can transfer them with a
SendMsg transaction.

Balances are maintained by the Controller, which is also the integration
point for other extensions that need to move funds on behalf of an
account.
*/
package cash
