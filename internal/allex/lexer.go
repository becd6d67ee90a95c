package allex

import (
	"fmt"

	"github.com/dshills/al-chunker/pkg/al"
)

// SkipWhitespaceAndComments advances past spaces, tabs, CR, LF, line
// comments ("// ... end-of-line"), and block comments ("/* ... */",
// non-nesting), starting at i. It never returns an error: on an
// unterminated block comment it simply advances to len(s), matching the
// "fails only at end of input" contract of spec.md §4.1.
func SkipWhitespaceAndComments(s string, i int) int {
	n := len(s)
	for i < n {
		switch {
		case s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n':
			i++
		case i+1 < n && s[i] == '/' && s[i+1] == '/':
			i = skipLineComment(s, i)
		case i+1 < n && s[i] == '/' && s[i+1] == '*':
			next, ok := skipBlockComment(s, i)
			if !ok {
				return n
			}
			i = next
		default:
			return i
		}
	}
	return n
}

// skipLineComment advances past a "//" comment through end-of-line
// (exclusive of the newline) or end of input. Line comments never fail to
// terminate: EOF and EOL are both valid endings.
func skipLineComment(s string, i int) int {
	n := len(s)
	for i < n && s[i] != '\n' {
		i++
	}
	return i
}

// skipBlockComment advances past a "/* ... */" comment. ok is false when no
// closing "*/" exists before end of input.
func skipBlockComment(s string, i int) (int, bool) {
	n := len(s)
	j := i + 2
	for j+1 < n {
		if s[j] == '*' && s[j+1] == '/' {
			return j + 2, true
		}
		j++
	}
	return n, false
}

// skipStringBody advances past an AL string literal starting at the opening
// '\''. AL strings use doubled '' to embed a literal quote; that sequence is
// treated as continuation, not termination. ok is false when no closing
// quote exists.
func skipStringBody(s string, i int) (int, bool) {
	n := len(s)
	j := i + 1
	for j < n {
		if s[j] == '\'' {
			if j+1 < n && s[j+1] == '\'' {
				j += 2
				continue
			}
			return j + 1, true
		}
		j++
	}
	return n, false
}

// skipQuotedIdentBody advances past a quoted identifier starting at the
// opening '"'. No escape rules apply beyond matching the closing quote.
func skipQuotedIdentBody(s string, i int) (int, bool) {
	n := len(s)
	j := i + 1
	for j < n {
		if s[j] == '"' {
			return j + 1, true
		}
		j++
	}
	return n, false
}

// SkipString advances past a single-quoted AL string literal. s[i] must be
// '\''. Returns an error wrapping al.ErrUnterminatedString if the literal is
// never closed.
func SkipString(s string, i int) (int, error) {
	next, ok := skipStringBody(s, i)
	if !ok {
		return 0, fmt.Errorf("%w: string starting at byte %d", al.ErrUnterminatedString, i)
	}
	return next, nil
}

// SkipQuotedIdentifier advances past a double-quoted identifier. s[i] must
// be '"'. spec.md §7 names no dedicated error kind for this case; an
// unterminated quoted identifier is reported as al.ErrUnterminatedString,
// the closest available sentinel, since both constructs are quote-delimited
// literals.
func SkipQuotedIdentifier(s string, i int) (int, error) {
	next, ok := skipQuotedIdentBody(s, i)
	if !ok {
		return 0, fmt.Errorf("%w: quoted identifier starting at byte %d", al.ErrUnterminatedString, i)
	}
	return next, nil
}

// SkipLineComment advances past a "//" line comment. s[i:i+2] must be "//".
func SkipLineComment(s string, i int) int {
	return skipLineComment(s, i)
}

// SkipBlockComment advances past a "/* ... */" comment. s[i:i+2] must be
// "/*". Returns an error wrapping al.ErrUnterminatedComment if never closed.
func SkipBlockComment(s string, i int) (int, error) {
	next, ok := skipBlockComment(s, i)
	if !ok {
		return 0, fmt.Errorf("%w: comment starting at byte %d", al.ErrUnterminatedComment, i)
	}
	return next, nil
}

// FindBraceBlock requires s[i] == '{'. It returns the index of the matching
// closing '}', skipping content inside strings, quoted identifiers, line
// comments, and block comments, and tracking nested brace depth. Returns an
// error wrapping al.ErrUnterminatedBlock if no matching close exists.
func FindBraceBlock(s string, i int) (int, error) {
	n := len(s)
	depth := 0
	j := i
	for j < n {
		switch ch := s[j]; {
		case ch == '\'':
			next, ok := skipStringBody(s, j)
			if !ok {
				return 0, fmt.Errorf("%w: starting at byte %d", al.ErrUnterminatedBlock, i)
			}
			j = next
		case ch == '"':
			next, ok := skipQuotedIdentBody(s, j)
			if !ok {
				return 0, fmt.Errorf("%w: starting at byte %d", al.ErrUnterminatedBlock, i)
			}
			j = next
		case ch == '/' && j+1 < n && s[j+1] == '/':
			j = skipLineComment(s, j)
		case ch == '/' && j+1 < n && s[j+1] == '*':
			next, ok := skipBlockComment(s, j)
			if !ok {
				return 0, fmt.Errorf("%w: starting at byte %d", al.ErrUnterminatedBlock, i)
			}
			j = next
		case ch == '{':
			depth++
			j++
		case ch == '}':
			depth--
			if depth == 0 {
				return j, nil
			}
			j++
		default:
			j++
		}
	}
	return 0, fmt.Errorf("%w: starting at byte %d", al.ErrUnterminatedBlock, i)
}

// FindEndSemicolon returns the index of the first ';' at the current
// logical depth starting from i, ignoring semicolons inside strings,
// comments, quoted identifiers, parentheses, and nested braces. Returns an
// error wrapping al.ErrUnterminatedStatement if none exists before end of
// input.
func FindEndSemicolon(s string, i int) (int, error) {
	n := len(s)
	depth := 0
	j := i
	for j < n {
		switch ch := s[j]; {
		case ch == '\'':
			next, ok := skipStringBody(s, j)
			if !ok {
				return 0, fmt.Errorf("%w: starting at byte %d", al.ErrUnterminatedStatement, i)
			}
			j = next
		case ch == '"':
			next, ok := skipQuotedIdentBody(s, j)
			if !ok {
				return 0, fmt.Errorf("%w: starting at byte %d", al.ErrUnterminatedStatement, i)
			}
			j = next
		case ch == '/' && j+1 < n && s[j+1] == '/':
			j = skipLineComment(s, j)
		case ch == '/' && j+1 < n && s[j+1] == '*':
			next, ok := skipBlockComment(s, j)
			if !ok {
				return 0, fmt.Errorf("%w: starting at byte %d", al.ErrUnterminatedStatement, i)
			}
			j = next
		case ch == '(' || ch == '{':
			depth++
			j++
		case ch == ')' || ch == '}':
			if depth > 0 {
				depth--
			}
			j++
		case ch == ';':
			if depth == 0 {
				return j, nil
			}
			j++
		default:
			j++
		}
	}
	return 0, fmt.Errorf("%w: starting at byte %d", al.ErrUnterminatedStatement, i)
}
