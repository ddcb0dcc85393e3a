/*
Package covtest provides mocks and helpers for testing extensions.

Doubles declared here implement the core interfaces (authenticator, handler,
decorator, transaction, message) with behaviour that can be fully controlled
by a test case.
*/
package covtest
