// Package alhash computes the content fingerprint spec.md §4.4 mandates:
// BLAKE2b with an 8-byte digest over BOM-stripped UTF-8 source, rendered as
// 16 lowercase hex characters. Every implementation of this library must
// agree byte-for-byte, which is why the algorithm is fixed rather than left
// to a generic hash.Hash choice.
package alhash
