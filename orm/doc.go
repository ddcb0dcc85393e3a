/*
Package orm provides a thin persistence layer on top of a key-value store.

The state space is broken into prefixed sections called buckets. Each bucket
contains only one type of entity, addressed by a primary key. A bucket can
own sequences to generate unique primary keys and registers itself for
queries by key or by prefix.
*/
package orm
