package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/al-chunker/internal/allex"
	"github.com/dshills/al-chunker/internal/alparse"
	"github.com/dshills/al-chunker/pkg/al"
)

// childBlockPattern recognizes the named sub-blocks a large section splits
// into: field(...), action(...), group(...), dataitem(...), value(...), and
// the rest of the construct vocabulary original_source's chunker.py
// recognizes under the same name. It is applied to a section's body text in
// isolation, not the full lexically-scanned source, so — like the Python
// original — it can in principle mistake a look-alike inside a string or
// comment for a real sub-block; sections are well-structured enough in
// practice that this has not mattered.
var childBlockPattern = regexp.MustCompile(
	`(?im)^[ \t]*(?:field|action|group|part|repeater|area|column|dataitem|textelement|tableelement|fieldattribute|fieldelement|key|value|filter|separator|label|usercontrol|layout|systemaction|cuegroup|grid|fixed)\s*\(`,
)

// Chunker splits parsed al.Object values into al.Chunk values. It holds no
// state between calls.
type Chunker struct{}

// New returns a ready-to-use Chunker.
func New() *Chunker {
	return &Chunker{}
}

// ChunkObject implements spec.md §4.5: a size-gated hierarchical split of a
// single object into chunks, in header/sections/procedures order.
func (c *Chunker) ChunkObject(obj al.Object, filePath string, cfg Config) []al.Chunk {
	if len(obj.SourceText) <= cfg.MaxChunkChars {
		whole := c.makeChunk(obj.SourceText, obj, filePath, al.ChunkWholeObject, obj.LineStart, obj.LineEnd, "", cfg, chunkExtras{})
		return discardBlank([]al.Chunk{whole})
	}

	var ctxHeader string
	if cfg.IncludeContextHeader {
		ctxHeader = buildContextHeader(obj, filePath)
	}

	var chunks []al.Chunk

	if headerText, lineStart, lineEnd := extractHeader(obj); strings.TrimSpace(headerText) != "" {
		chunks = append(chunks, c.makeChunk(headerText, obj, filePath, al.ChunkHeader, lineStart, lineEnd, ctxHeader, cfg, chunkExtras{}))
	}

	for _, sec := range obj.Sections {
		chunks = append(chunks, c.emitSectionChunks(obj, sec, filePath, ctxHeader, cfg)...)
	}

	for _, proc := range obj.Procedures {
		ctype := al.ChunkProcedure
		if proc.IsTrigger {
			ctype = al.ChunkTrigger
		}
		chunks = append(chunks, c.makeChunk(proc.SourceText, obj, filePath, ctype, proc.LineStart, proc.LineEnd, ctxHeader, cfg,
			chunkExtras{procedureName: proc.Name, attributes: proc.Attributes}))
	}

	return discardBlank(chunks)
}

// ChunkFile parses text and chunks every object found in it, per spec.md
// §4.6's chunk_file = concatenation of chunk_object over parse_source. The
// returned *al.ParseResult carries any non-fatal diagnostics recorded while
// parsing; callers that only want chunks may discard it.
func (c *Chunker) ChunkFile(text, filePath string, cfg Config) ([]al.Chunk, *al.ParseResult) {
	result := alparse.New().ParseSource(text, filePath)
	var chunks []al.Chunk
	for _, obj := range result.Objects {
		chunks = append(chunks, c.ChunkObject(obj, filePath, cfg)...)
	}
	return chunks, result
}

// emitSectionChunks implements the per-section branch of §4.5's hierarchical
// split: emit the section whole when it fits, otherwise split it into
// greedily-grouped sub-block chunks.
func (c *Chunker) emitSectionChunks(obj al.Object, sec al.Section, filePath, ctxHeader string, cfg Config) []al.Chunk {
	if len(sec.SourceText) <= cfg.MaxChunkChars {
		return []al.Chunk{
			c.makeChunk(sec.SourceText, obj, filePath, al.ChunkSection, sec.LineStart, sec.LineEnd, ctxHeader, cfg,
				chunkExtras{sectionName: sec.Name}),
		}
	}

	children := splitSectionChildren(sec.BodyText)
	if len(children) == 0 {
		// No recognizable sub-blocks: emit the whole section, oversize.
		return []al.Chunk{
			c.makeChunk(sec.SourceText, obj, filePath, al.ChunkSection, sec.LineStart, sec.LineEnd, ctxHeader, cfg,
				chunkExtras{sectionName: sec.Name}),
		}
	}

	groups := groupSectionChildren(children, cfg.MaxChunkChars)
	chunks := make([]al.Chunk, 0, len(groups))
	for _, g := range groups {
		chunks = append(chunks, c.makeChunk(g, obj, filePath, al.ChunkSection, sec.LineStart, sec.LineEnd, ctxHeader, cfg,
			chunkExtras{sectionName: sec.Name}))
	}
	return chunks
}

// splitSectionChildren finds every named sub-block in a section's body text,
// in source order, using internal/allex to find each match's actual closing
// brace rather than the simplified local scan original_source's
// _split_section uses.
func splitSectionChildren(body string) []string {
	var children []string
	for _, m := range childBlockPattern.FindAllStringIndex(body, -1) {
		start := m[0]
		brace := strings.IndexByte(body[start:], '{')
		if brace == -1 {
			continue
		}
		braceAbs := start + brace
		close, err := allex.FindBraceBlock(body, braceAbs)
		if err != nil {
			continue
		}
		children = append(children, body[start:close+1])
	}
	return children
}

// groupSectionChildren packs sub-blocks into chunks up to maxChars without
// ever crossing a sub-block boundary. A single sub-block exceeding maxChars
// on its own still becomes its own (oversize) group.
func groupSectionChildren(children []string, maxChars int) []string {
	const joiner = "\n\n"
	var groups []string
	var cur []string
	curLen := 0

	flush := func() {
		if len(cur) > 0 {
			groups = append(groups, strings.Join(cur, joiner))
			cur = nil
			curLen = 0
		}
	}

	for _, child := range children {
		add := len(child)
		if curLen > 0 {
			add += len(joiner)
		}
		if curLen > 0 && curLen+add > maxChars {
			flush()
			add = len(child)
		}
		cur = append(cur, child)
		curLen += add
	}
	flush()
	return groups
}

// extractHeader builds the header chunk body: the object's declaration
// through its opening '{', followed by its top-level property lines only.
// Unlike original_source's _extract_header, which re-derives this by
// counting braces line by line (a heuristic that cannot see past
// begin/end-delimited procedure bodies, which contain no braces at all),
// this uses the already-parsed section and procedure line ranges to exclude
// exactly the lines that belong to them, plus the object's own closing
// brace line.
func extractHeader(obj al.Object) (text string, lineStart, lineEnd int) {
	lines := strings.Split(obj.SourceText, "\n")
	excluded := make([]bool, len(lines))

	mark := func(ls, le int) {
		for ln := ls; ln <= le; ln++ {
			idx := ln - obj.LineStart
			if idx >= 0 && idx < len(excluded) {
				excluded[idx] = true
			}
		}
	}
	for _, sec := range obj.Sections {
		mark(sec.LineStart, sec.LineEnd)
	}
	for _, proc := range obj.Procedures {
		mark(proc.LineStart, proc.LineEnd)
	}
	mark(obj.LineEnd, obj.LineEnd) // the object's own closing '}'

	var kept []string
	lineEnd = obj.LineStart
	for i, ln := range lines {
		if excluded[i] {
			continue
		}
		kept = append(kept, ln)
		lineEnd = obj.LineStart + i
	}
	return strings.Join(kept, "\n"), obj.LineStart, lineEnd
}

// buildContextHeader synthesizes spec.md §4.5's two-line context header. The
// object id is omitted for interfaces, which carry none.
func buildContextHeader(obj al.Object, filePath string) string {
	var b strings.Builder
	if obj.Kind == al.KindInterface {
		fmt.Fprintf(&b, "// Object: %s \"%s\"\n", obj.Kind, obj.Name)
	} else {
		fmt.Fprintf(&b, "// Object: %s %d \"%s\"\n", obj.Kind, obj.ID, obj.Name)
	}
	fmt.Fprintf(&b, "// File: %s\n\n", filePath)
	return b.String()
}

// chunkExtras carries the chunk-type-specific metadata fields that only
// some callers of makeChunk need to set.
type chunkExtras struct {
	sectionName   string
	procedureName string
	attributes    []string
}

// makeChunk assembles a Chunk: prefixing content with the context header
// (unless this is a whole_object chunk, which never carries one) and
// computing the token estimate over the final, prefixed content.
func (c *Chunker) makeChunk(content string, obj al.Object, filePath string, ctype al.ChunkType, lineStart, lineEnd int, ctxHeader string, cfg Config, extra chunkExtras) al.Chunk {
	full := content
	if cfg.IncludeContextHeader && ctxHeader != "" && ctype != al.ChunkWholeObject {
		full = ctxHeader + content
	}

	var tokens int
	if cfg.EstimateTokens {
		tokens = al.EstimateTokens(full)
	}

	return al.Chunk{
		Content: full,
		Metadata: al.ChunkMetadata{
			FilePath:      filePath,
			ObjectType:    string(obj.Kind),
			ObjectID:      obj.ID,
			ObjectName:    obj.Name,
			ChunkType:     string(ctype),
			SectionName:   extra.sectionName,
			ProcedureName: extra.procedureName,
			Extends:       obj.Extends,
			SourceTable:   obj.SourceTable(),
			Attributes:    extra.attributes,
			LineStart:     lineStart,
			LineEnd:       lineEnd,
			FileHash:      obj.FileHash,
		},
		TokenEstimate: tokens,
	}
}

// discardBlank drops chunks whose content has no non-whitespace character,
// per spec.md §4.5's empty-result policy.
func discardBlank(chunks []al.Chunk) []al.Chunk {
	out := chunks[:0]
	for _, ch := range chunks {
		if strings.TrimSpace(ch.Content) == "" {
			continue
		}
		out = append(out, ch)
	}
	return out
}
