// Package allex implements the lexical scanner primitives that every
// higher-level AL parsing routine must route through: skipping whitespace,
// comments, string literals, and quoted identifiers, and finding the
// matching close of a brace block or the terminating semicolon of a
// statement.
//
// These are the only place AL's lexical rules are encoded. No routine
// outside this package may inspect '{', '}', '\'', '"', or ';' directly
// without first consulting these primitives — doing so risks mis-associating
// a brace inside a string literal or a comment, which spec.md calls out as
// the hardest correctness requirement of the whole parser.
package allex
