/*
Package covault defines the common interfaces that connect the pieces
of a covault application: transactions and messages, handlers and
decorators, the key-value store abstraction and the authorization
conditions that tie a caller identity to stored state.

The actual functionality lives in the extension packages under x/. The
root package stays free of business logic so that every extension can
depend on it without import cycles.
*/
package covault
