/*
Package errors implements custom error interfaces for the framework.

The idea is to reuse as many errors from this package as possible and define
custom package errors when absolutely necessary. Errors declared here carry a
unique numeric code that extensions must not reuse. Use the Register function
to declare extension specific errors in the 1000+ range.
*/
package errors
