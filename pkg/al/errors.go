package al

import "errors"

// Fatal lexical/structural errors, surfaced only when the scanner primitives
// cannot recover (spec.md §7). Use errors.Is against these sentinels; the
// concrete errors returned by internal/allex and internal/alparse wrap them
// with positional context via fmt.Errorf("%w: ...", ...).
var (
	// ErrUnterminatedBlock means a `{` has no matching `}` under lexical
	// rules (string/comment/quoted-identifier skipping applied).
	ErrUnterminatedBlock = errors.New("al: unterminated block")
	// ErrUnterminatedStatement means a property has no terminating `;`.
	ErrUnterminatedStatement = errors.New("al: unterminated statement")
	// ErrUnterminatedString means a `'` is never closed.
	ErrUnterminatedString = errors.New("al: unterminated string literal")
	// ErrUnterminatedComment means a `/*` is never closed.
	ErrUnterminatedComment = errors.New("al: unterminated block comment")
	// ErrMalformedHeader means an object kind keyword was found but its
	// id/name/structure does not match the §4.2 grammar.
	ErrMalformedHeader = errors.New("al: malformed object header")
)

// Diagnostic is a non-fatal parsing problem recorded against a file while
// parsing continues past a malformed object (spec.md §7 propagation
// policy).
type Diagnostic struct {
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface so a Diagnostic can be used wherever
// an error is expected (e.g. logging, wrapping).
func (d *Diagnostic) Error() string {
	return d.Message
}

// ParseResult is the output of parsing a single AL source text: zero or
// more objects, plus any non-fatal diagnostics encountered along the way.
type ParseResult struct {
	Objects     []Object
	Diagnostics []Diagnostic
}

// HasDiagnostics reports whether any non-fatal problems were recorded.
func (r *ParseResult) HasDiagnostics() bool {
	return len(r.Diagnostics) > 0
}

// AddDiagnostic records a non-fatal parsing problem against file.
func (r *ParseResult) AddDiagnostic(file string, line, col int, msg string) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		File:    file,
		Line:    line,
		Column:  col,
		Message: msg,
	})
}
