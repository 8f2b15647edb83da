// Package flatrecord reads and writes tabular records stored in delimited
// (separator-based) or fixed-width flat files.
//
// A Schema names, orders, and types the columns of a record format. A Reader
// or Writer drives a Tokenizer (DelimitedTokenizer or FixedWindowTokenizer)
// against a Schema to convert between raw record text and typed value
// vectors. Binding those value vectors to Go structs is intentionally left to
// the caller; this package stops at []interface{}.
package flatrecord
