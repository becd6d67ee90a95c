package alserialize

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/al-chunker/pkg/al"
)

// chunkDTO is the wire shape of al.Chunk, per spec.md §6.
type chunkDTO struct {
	Content       string       `json:"content"`
	TokenEstimate int          `json:"token_estimate"`
	Metadata      chunkMetaDTO `json:"metadata"`
}

// chunkMetaDTO is the wire shape of al.ChunkMetadata. Optional fields are
// pointers so an absent value serializes as JSON null, per spec.md §6,
// rather than as an empty string.
type chunkMetaDTO struct {
	FilePath      string   `json:"file_path"`
	ObjectType    string   `json:"object_type"`
	ObjectID      int      `json:"object_id"`
	ObjectName    string   `json:"object_name"`
	ChunkType     string   `json:"chunk_type"`
	SectionName   *string  `json:"section_name"`
	ProcedureName *string  `json:"procedure_name"`
	Extends       *string  `json:"extends"`
	SourceTable   *string  `json:"source_table"`
	Attributes    []string `json:"attributes"`
	LineStart     int      `json:"line_start"`
	LineEnd       int      `json:"line_end"`
	FileHash      string   `json:"file_hash"`

	// Cross-reference-only fields; omitted from spec.md §6's schema (which
	// predates the cross-reference feature) but carried through so
	// cross_reference chunks round-trip without losing the fields
	// SPEC_FULL.md §4.1 added to al.ChunkMetadata.
	RelationshipType *string `json:"relationship_type,omitempty"`
	TargetObjectType *string `json:"target_object_type,omitempty"`
	TargetObjectName *string `json:"target_object_name,omitempty"`
}

func toDTO(c al.Chunk) chunkDTO {
	m := c.Metadata
	return chunkDTO{
		Content:       c.Content,
		TokenEstimate: c.TokenEstimate,
		Metadata: chunkMetaDTO{
			FilePath:         m.FilePath,
			ObjectType:       m.ObjectType,
			ObjectID:         m.ObjectID,
			ObjectName:       m.ObjectName,
			ChunkType:        m.ChunkType,
			SectionName:      orNull(m.SectionName),
			ProcedureName:    orNull(m.ProcedureName),
			Extends:          orNull(m.Extends),
			SourceTable:      orNull(m.SourceTable),
			Attributes:       nilToEmpty(m.Attributes),
			LineStart:        m.LineStart,
			LineEnd:          m.LineEnd,
			FileHash:         m.FileHash,
			RelationshipType: orNull(m.RelationshipType),
			TargetObjectType: orNull(m.TargetObjectType),
			TargetObjectName: orNull(m.TargetObjectName),
		},
	}
}

func fromDTO(d chunkDTO) al.Chunk {
	m := d.Metadata
	return al.Chunk{
		Content:       d.Content,
		TokenEstimate: d.TokenEstimate,
		Metadata: al.ChunkMetadata{
			FilePath:         m.FilePath,
			ObjectType:       m.ObjectType,
			ObjectID:         m.ObjectID,
			ObjectName:       m.ObjectName,
			ChunkType:        m.ChunkType,
			SectionName:      fromPtr(m.SectionName),
			ProcedureName:    fromPtr(m.ProcedureName),
			Extends:          fromPtr(m.Extends),
			SourceTable:      fromPtr(m.SourceTable),
			Attributes:       nilIfEmpty(m.Attributes),
			LineStart:        m.LineStart,
			LineEnd:          m.LineEnd,
			FileHash:         m.FileHash,
			RelationshipType: fromPtr(m.RelationshipType),
			TargetObjectType: fromPtr(m.TargetObjectType),
			TargetObjectName: fromPtr(m.TargetObjectName),
		},
	}
}

func orNull(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nilToEmpty renders an unset Attributes slice as an empty JSON array rather
// than null, per spec.md §6's schema.
func nilToEmpty(s []string) []string {
	if len(s) == 0 {
		return []string{}
	}
	return s
}

// nilIfEmpty is nilToEmpty's inverse: an empty slice read back from JSON
// becomes nil again, so a round-tripped al.ChunkMetadata with no attributes
// matches the zero value the chunker itself produces.
func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

// ChunksToJSON renders chunks as an indented JSON array.
func ChunksToJSON(chunks []al.Chunk) ([]byte, error) {
	dtos := make([]chunkDTO, len(chunks))
	for i, c := range chunks {
		dtos[i] = toDTO(c)
	}
	out, err := json.MarshalIndent(dtos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("alserialize: marshaling chunks: %w", err)
	}
	return out, nil
}

// ChunksFromJSON parses a JSON array produced by ChunksToJSON.
func ChunksFromJSON(data []byte) ([]al.Chunk, error) {
	var dtos []chunkDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("alserialize: unmarshaling chunks: %w", err)
	}
	chunks := make([]al.Chunk, len(dtos))
	for i, d := range dtos {
		chunks[i] = fromDTO(d)
	}
	return chunks, nil
}

// ChunksToJSONL renders chunks as newline-delimited JSON, one object per
// line.
func ChunksToJSONL(chunks []al.Chunk) ([]byte, error) {
	var b strings.Builder
	for _, c := range chunks {
		line, err := json.Marshal(toDTO(c))
		if err != nil {
			return nil, fmt.Errorf("alserialize: marshaling chunk: %w", err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

// ChunksFromJSONL parses newline-delimited JSON produced by ChunksToJSONL.
// Blank lines are skipped.
func ChunksFromJSONL(r io.Reader) ([]al.Chunk, error) {
	var chunks []al.Chunk
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var d chunkDTO
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			return nil, fmt.Errorf("alserialize: unmarshaling chunk line: %w", err)
		}
		chunks = append(chunks, fromDTO(d))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("alserialize: scanning jsonl: %w", err)
	}
	return chunks, nil
}
