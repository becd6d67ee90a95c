package alparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/al-chunker/internal/alhash"
	"github.com/dshills/al-chunker/internal/allex"
	"github.com/dshills/al-chunker/pkg/al"
)

// Parser recognizes AL object headers and parses each object's body. It
// holds no state between calls; New exists so callers have a value to carry
// around and so the type can grow configuration later without changing call
// sites.
type Parser struct{}

// New returns a ready-to-use Parser.
func New() *Parser {
	return &Parser{}
}

// ParseSource scans text for every recognizable AL object header, parses
// each one's body, and returns the accumulated result. Malformed input never
// aborts the scan: headers with no reachable opening brace, or bodies with
// no matching close, are recorded as diagnostics and scanning resumes past
// the offending text, per spec.md §7.
func (p *Parser) ParseSource(text, filePath string) *al.ParseResult {
	result := &al.ParseResult{}
	source := alhash.StripBOM(text)
	fileHash := alhash.HashSource(text)

	for _, hm := range objectHeaderPattern.FindAllStringSubmatchIndex(source, -1) {
		hdrStart, hdrEnd := hm[0], hm[1]
		groups := namedGroups(objectHeaderPattern, source, hm)

		kind := al.ObjectKind(strings.ToLower(groups["type"]))
		id := 0
		if idStr := groups["id"]; idStr != "" {
			id, _ = strconv.Atoi(idStr)
		}
		name := unquote(groups["name"])
		extends := unquote(groups["extends"])
		implements := parseImplements(groups["implements"])

		braceStart := allex.SkipWhitespaceAndComments(source, hdrEnd)
		if braceStart >= len(source) || source[braceStart] != '{' {
			err := fmt.Errorf("%w: object header %q has no opening brace", al.ErrMalformedHeader, name)
			result.AddDiagnostic(filePath, lineNumber(source, hdrStart), 0, err.Error())
			continue
		}

		braceEnd, err := allex.FindBraceBlock(source, braceStart)
		if err != nil {
			result.AddDiagnostic(filePath, lineNumber(source, hdrStart), 0,
				fmt.Sprintf("object %q body: %v", name, err))
			continue
		}

		body := source[braceStart+1 : braceEnd]
		bodyOffset := braceStart + 1

		sections, procs, props := parseBody(result, filePath, body, bodyOffset, source)

		result.Objects = append(result.Objects, al.Object{
			Kind:       kind,
			ID:         id,
			Name:       name,
			Extends:    extends,
			Implements: implements,
			Properties: props,
			Sections:   sections,
			Procedures: procs,
			SourceText: source[hdrStart : braceEnd+1],
			LineStart:  lineNumber(source, hdrStart),
			LineEnd:    lineNumber(source, braceEnd),
			FileHash:   fileHash,
		})
	}

	return result
}

// parseBody walks an object body at depth 1, classifying each top-level
// construct per spec.md §4.3's dispatch table: attributes (collected, then
// attached to a following procedure/trigger or discarded), procedures and
// triggers, properties, and sections (known-named or not — both are
// captured identically). It never revisits text: each branch advances pos
// to just past the construct it consumed, so sections/procedures/
// properties are mutually exclusive by construction and need no covered-
// range bookkeeping.
func parseBody(result *al.ParseResult, filePath, body string, bodyOffset int, source string) ([]al.Section, []al.Procedure, []al.Property) {
	var sections []al.Section
	var procs []al.Procedure
	var props []al.Property

	n := len(body)
	pos := 0
	for pos < n {
		pos = allex.SkipWhitespaceAndComments(body, pos)
		if pos >= n {
			break
		}

		attrStart := pos
		attrs, afterAttrs, ok := skipAttributeBlocks(body, pos)
		if !ok {
			result.AddDiagnostic(filePath, lineNumber(source, bodyOffset+attrStart), 0,
				"unterminated attribute block")
			pos = attrStart + 1
			continue
		}

		if m := procKeywordPattern.FindStringSubmatchIndex(body[afterAttrs:]); m != nil && m[0] == 0 {
			proc, next, added := parseProcedure(result, filePath, body, bodyOffset, source, attrStart, afterAttrs, attrs, m)
			if added {
				procs = append(procs, proc)
			}
			pos = next
			continue
		}
		// Attributes not followed by a procedure/trigger are discarded,
		// per spec.md §4.3.

		if m := propertyNamePattern.FindStringSubmatchIndex(body[afterAttrs:]); m != nil && m[0] == 0 {
			groups := namedGroups(propertyNamePattern, body[afterAttrs:], m)
			absPos := bodyOffset + afterAttrs + m[0]
			valueStart := bodyOffset + afterAttrs + m[1]

			semiAbs, err := allex.FindEndSemicolon(source, valueStart)
			if err != nil {
				result.AddDiagnostic(filePath, lineNumber(source, absPos), 0,
					fmt.Sprintf("property %q: %v", groups["name"], err))
				pos = afterAttrs + m[1]
				continue
			}

			props = append(props, al.Property{
				Name:      groups["name"],
				Value:     strings.TrimSpace(source[valueStart:semiAbs]),
				LineStart: lineNumber(source, absPos),
				LineEnd:   lineNumber(source, semiAbs),
			})
			pos = semiAbs + 1 - bodyOffset
			continue
		}

		if m := sectionStartPattern.FindStringSubmatchIndex(body[afterAttrs:]); m != nil && m[0] == 0 {
			groups := namedGroups(sectionStartPattern, body[afterAttrs:], m)
			startAbs := bodyOffset + afterAttrs + m[0]
			// The pattern's last consumed character is always the opening '{'.
			absBrace := bodyOffset + afterAttrs + m[1] - 1
			closeAbs, err := allex.FindBraceBlock(source, absBrace)
			if err != nil {
				result.AddDiagnostic(filePath, lineNumber(source, startAbs), 0,
					fmt.Sprintf("section %q: %v", unquote(groups["name"]), err))
				pos = afterAttrs + m[1]
				continue
			}
			sections = append(sections, al.Section{
				Name:       strings.ToLower(unquote(groups["name"])),
				SourceText: source[startAbs : closeAbs+1],
				BodyText:   source[absBrace+1 : closeAbs],
				LineStart:  lineNumber(source, startAbs),
				LineEnd:    lineNumber(source, closeAbs),
			})
			pos = closeAbs + 1 - bodyOffset
			continue
		}

		result.AddDiagnostic(filePath, lineNumber(source, bodyOffset+attrStart), 0,
			"unrecognized top-level construct")
		pos = attrStart + 1
	}

	return sections, procs, props
}

// parseProcedure finishes classifying a procedure/trigger whose keyword
// match m (relative to body[afterAttrs:]) already succeeded. attrStart is
// the absolute-in-body position where any leading attributes began (equal
// to afterAttrs when there were none); that position, not the keyword's, is
// where the construct's SourceText starts.
func parseProcedure(result *al.ParseResult, filePath, body string, bodyOffset int, source string, attrStart, afterAttrs int, attrs []string, m []int) (al.Procedure, int, bool) {
	groups := namedGroups(procKeywordPattern, body[afterAttrs:], m)
	isTrigger := strings.EqualFold(groups["kind"], "trigger")
	name := unquote(groups["name"])
	access := strings.ToLower(strings.TrimSpace(groups["access"]))
	if access == "" && !isTrigger {
		access = "public"
	}

	absStart := bodyOffset + attrStart
	tailFrom := bodyOffset + afterAttrs + m[1]

	isBegin, tailIdx, paramsEnd, ok := scanProcedureTail(source, tailFrom)
	if !ok {
		result.AddDiagnostic(filePath, lineNumber(source, absStart), 0,
			fmt.Sprintf("procedure %q: could not locate body or terminator", name))
		return al.Procedure{}, afterAttrs + m[1], false
	}

	var returnType string
	if !isTrigger && paramsEnd < tailIdx {
		if rt := returnTypePattern.FindStringSubmatch(source[paramsEnd:tailIdx]); rt != nil {
			returnType = unquote(strings.TrimSpace(rt[1]))
		}
	}

	var sourceText, signatureText, bodyText string
	var lineEndIdx, endAbs int
	if isBegin {
		var err error
		endAbs, err = findProcedureEnd(source, tailIdx)
		if err != nil {
			result.AddDiagnostic(filePath, lineNumber(source, absStart), 0,
				fmt.Sprintf("procedure %q: %v", name, err))
			return al.Procedure{}, tailIdx + 1 - bodyOffset, false
		}
		sigEnd := strings.IndexByte(source[tailIdx:], '\n')
		if sigEnd == -1 {
			sigEnd = len(source)
		} else {
			sigEnd += tailIdx
		}
		signatureText = strings.TrimRight(source[absStart:sigEnd], "\r\n")
		bodyText = source[tailIdx : endAbs+1]
		sourceText = source[absStart : endAbs+1]
		lineEndIdx = endAbs
	} else {
		endAbs = tailIdx
		signatureText = source[absStart : tailIdx+1]
		bodyText = ""
		sourceText = signatureText
		lineEndIdx = tailIdx
	}

	proc := al.Procedure{
		IsTrigger:     isTrigger,
		Name:          name,
		Access:        access,
		Attributes:    attrs,
		ReturnType:    returnType,
		SourceText:    sourceText,
		SignatureText: signatureText,
		BodyText:      bodyText,
		LineStart:     lineNumber(source, absStart),
		LineEnd:       lineNumber(source, lineEndIdx),
	}
	return proc, endAbs + 1 - bodyOffset, true
}

// skipAttributeBlocks collects consecutive "[...]" attribute blocks
// starting at pos (after whitespace/comments between them), returning the
// collected raw text of each block and the position of the first token
// after the last one (past any whitespace/comments that follow it, so the
// caller's start-anchored patterns see the next construct at offset 0).
// ok is false if a "[" is never closed.
func skipAttributeBlocks(body string, pos int) (attrs []string, next int, ok bool) {
	for {
		p := allex.SkipWhitespaceAndComments(body, pos)
		if p >= len(body) || body[p] != '[' {
			return attrs, p, true
		}
		close, err := findBracketBlock(body, p)
		if err != nil {
			return attrs, pos, false
		}
		attrs = append(attrs, body[p:close+1])
		pos = close + 1
	}
}

// findBracketBlock requires s[i] == '['. It returns the index of the
// matching closing ']', skipping content inside strings, quoted
// identifiers, and comments, and tracking nested bracket depth — the same
// approach as allex.FindBraceBlock, specialized to attribute lists.
func findBracketBlock(s string, i int) (int, error) {
	n := len(s)
	depth := 0
	j := i
	for j < n {
		switch ch := s[j]; {
		case ch == '\'':
			next, err := allex.SkipString(s, j)
			if err != nil {
				return 0, err
			}
			j = next
		case ch == '"':
			next, err := allex.SkipQuotedIdentifier(s, j)
			if err != nil {
				return 0, err
			}
			j = next
		case ch == '/' && j+1 < n && s[j+1] == '/':
			j = allex.SkipLineComment(s, j)
		case ch == '/' && j+1 < n && s[j+1] == '*':
			next, err := allex.SkipBlockComment(s, j)
			if err != nil {
				return 0, err
			}
			j = next
		case ch == '[':
			depth++
			j++
		case ch == ']':
			depth--
			if depth == 0 {
				return j, nil
			}
			j++
		default:
			j++
		}
	}
	return 0, fmt.Errorf("%w: attribute block starting at byte %d", al.ErrUnterminatedBlock, i)
}

// scanProcedureTail scans forward from just past a procedure/trigger's
// opening parameter-list '(' (depth already 1) to whichever comes first at
// depth 0: a statement-terminating ';' (no body) or the keyword "begin"
// (body follows). A "var" keyword at depth 0 opens a local-variable section
// whose ';'-terminated declarations do not end the procedure; once it is
// seen, only "begin" ends the scan. paramsEnd is the index just after the
// parameter list's matching ')'. ok is false if neither terminator nor
// "begin" is found before end of input.
func scanProcedureTail(source string, i int) (isBegin bool, idx int, paramsEnd int, ok bool) {
	n := len(source)
	depth := 1
	j := i
	paramsEnd = -1
	inVar := false
	for j < n {
		ch := source[j]
		switch {
		case ch == '\'':
			next, err := allex.SkipString(source, j)
			if err != nil {
				return false, 0, 0, false
			}
			j = next
		case ch == '"':
			next, err := allex.SkipQuotedIdentifier(source, j)
			if err != nil {
				return false, 0, 0, false
			}
			j = next
		case ch == '/' && j+1 < n && source[j+1] == '/':
			j = allex.SkipLineComment(source, j)
		case ch == '/' && j+1 < n && source[j+1] == '*':
			next, err := allex.SkipBlockComment(source, j)
			if err != nil {
				return false, 0, 0, false
			}
			j = next
		case ch == '(':
			depth++
			j++
		case ch == ')':
			if depth > 0 {
				depth--
			}
			j++
			if depth == 0 && paramsEnd == -1 {
				paramsEnd = j
			}
		case depth == 0 && ch == ';' && !inVar:
			return false, j, paramsEnd, true
		case depth == 0 && matchesKeyword(source, j, "begin"):
			return true, j, paramsEnd, true
		case depth == 0 && matchesKeyword(source, j, "var"):
			inVar = true
			j += len("var")
		default:
			j++
		}
	}
	return false, 0, 0, false
}

// findProcedureEnd locates the terminating ';' of the end/until that closes
// the begin/case/repeat construct starting at beginIdx, per spec.md §4.3's
// "robust rule": begin, case, and repeat each open a pair; end closes a
// begin or a case, until closes a repeat; all are balanced by a single
// depth counter.
func findProcedureEnd(source string, beginIdx int) (int, error) {
	n := len(source)
	depth := 0
	j := beginIdx
	for j < n {
		ch := source[j]
		switch {
		case ch == '\'':
			next, err := allex.SkipString(source, j)
			if err != nil {
				return 0, fmt.Errorf("%w: procedure body starting at byte %d", al.ErrUnterminatedBlock, beginIdx)
			}
			j = next
		case ch == '"':
			next, err := allex.SkipQuotedIdentifier(source, j)
			if err != nil {
				return 0, fmt.Errorf("%w: procedure body starting at byte %d", al.ErrUnterminatedBlock, beginIdx)
			}
			j = next
		case ch == '/' && j+1 < n && source[j+1] == '/':
			j = allex.SkipLineComment(source, j)
		case ch == '/' && j+1 < n && source[j+1] == '*':
			next, err := allex.SkipBlockComment(source, j)
			if err != nil {
				return 0, fmt.Errorf("%w: procedure body starting at byte %d", al.ErrUnterminatedBlock, beginIdx)
			}
			j = next
		case matchesKeyword(source, j, "begin"):
			depth++
			j += len("begin")
		case matchesKeyword(source, j, "case"):
			depth++
			j += len("case")
		case matchesKeyword(source, j, "repeat"):
			depth++
			j += len("repeat")
		case matchesKeyword(source, j, "until"):
			depth--
			if depth == 0 {
				return terminatorAfter(source, j+len("until")), nil
			}
			j += len("until")
		case matchesKeyword(source, j, "end"):
			depth--
			if depth == 0 {
				return terminatorAfter(source, j+len("end")), nil
			}
			j += len("end")
		default:
			j++
		}
	}
	return 0, fmt.Errorf("%w: procedure body starting at byte %d", al.ErrUnterminatedBlock, beginIdx)
}

// terminatorAfter returns the index of the ';' following i, skipping
// whitespace and comments. A missing semicolon is tolerated, matching the
// leniency of the reference implementation this is grounded on: it returns
// the position of the last character of the keyword that closed the block.
func terminatorAfter(source string, i int) int {
	j := allex.SkipWhitespaceAndComments(source, i)
	if j < len(source) && source[j] == ';' {
		return j
	}
	if i > 0 {
		return i - 1
	}
	return i
}

// matchesKeyword reports whether source[i:] begins with the case-insensitive
// keyword kw, bounded by non-word characters (or input edges) on both sides.
func matchesKeyword(source string, i int, kw string) bool {
	n := len(source)
	if i+len(kw) > n || !strings.EqualFold(source[i:i+len(kw)], kw) {
		return false
	}
	if i > 0 && isWordByte(source[i-1]) {
		return false
	}
	if i+len(kw) < n && isWordByte(source[i+len(kw)]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// lineNumber returns the 1-based line number of byte offset index within
// source.
func lineNumber(source string, index int) int {
	return strings.Count(source[:index], "\n") + 1
}
