package alxref

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/al-chunker/pkg/al"
)

// eventSubscriberPattern matches [EventSubscriber(ObjectType::Table,
// Database::"Customer", 'OnAfterInsert', ...)] and captures the target
// object type, target object name, and event name.
var eventSubscriberPattern = regexp.MustCompile(
	`(?is)\[EventSubscriber\s*\(\s*ObjectType\s*::\s*(\w+)\s*,\s*(?:\w+\s*::\s*)?("[^"]*"|'[^']*'|\w+)\s*,\s*('[^']*'|"[^"]*")`,
)

// extensionBaseKind maps an extension object kind to the kind name of the
// base object it extends.
var extensionBaseKind = map[al.ObjectKind]string{
	al.KindTableExtension:         "table",
	al.KindPageExtension:          "page",
	al.KindPageCustomization:      "page",
	al.KindEnumExtension:          "enum",
	al.KindReportExtension:        "report",
	al.KindPermissionSetExtension: "permissionset",
}

// parseEventSubscriber extracts (targetObjectType, targetObjectName,
// eventName) from a single [EventSubscriber(...)] attribute string. It
// returns ok=false if attr isn't an EventSubscriber attribute or its
// arguments don't match the expected shape.
func parseEventSubscriber(attr string) (targetType, targetName, event string, ok bool) {
	m := eventSubscriberPattern.FindStringSubmatch(attr)
	if m == nil {
		return "", "", "", false
	}
	return strings.ToLower(m[1]), unquote(m[2]), unquote(m[3]), true
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// SourceObject pairs a parsed object with the file path it was parsed from.
// al.Object itself carries no file path — internal/chunker takes one as a
// call parameter per object, but cross-reference building is a batch
// operation over many files at once, so each object needs its path attached
// before the batch is scanned.
type SourceObject struct {
	Object   al.Object
	FilePath string
}

// BuildCrossReferenceChunks scans every object in a batch (typically an
// entire repository's parsed output, so relationships spanning multiple
// files resolve correctly) and emits a cross_reference chunk for each:
//
//   - an extension object's link to its base object (extends_<basekind>)
//   - each name in an object's implements clause (implements_interface)
//   - each [EventSubscriber(...)] attribute on a procedure (subscribes_to)
func BuildCrossReferenceChunks(objects []SourceObject, estimateTokens bool) []al.Chunk {
	var chunks []al.Chunk

	for _, src := range objects {
		obj := src.Object

		if baseKind, ok := extensionBaseKind[obj.Kind]; ok && obj.Extends != "" {
			desc := fmt.Sprintf(`%s %d "%s" extends %s "%s"`, obj.Kind, obj.ID, obj.Name, baseKind, obj.Extends)
			chunks = append(chunks, makeXrefChunk(src, "extends_"+baseKind, baseKind, obj.Extends, desc, estimateTokens, "", nil))
		}

		for _, iface := range obj.Implements {
			desc := fmt.Sprintf(`%s %d "%s" implements interface "%s"`, obj.Kind, obj.ID, obj.Name, iface)
			chunks = append(chunks, makeXrefChunk(src, "implements_interface", "interface", iface, desc, estimateTokens, "", nil))
		}

		for _, proc := range obj.Procedures {
			for _, attr := range proc.Attributes {
				targetType, targetName, event, ok := parseEventSubscriber(attr)
				if !ok {
					continue
				}
				desc := fmt.Sprintf(`%s %d "%s" subscribes to event '%s' on %s "%s"`,
					obj.Kind, obj.ID, obj.Name, event, targetType, targetName)
				chunks = append(chunks, makeXrefChunk(src, "subscribes_to", targetType, targetName, desc, estimateTokens, proc.Name, proc.Attributes))
			}
		}
	}

	return chunks
}

func makeXrefChunk(src SourceObject, relationshipType, targetType, targetName, description string, estimateTokens bool, procedureName string, attributes []string) al.Chunk {
	obj := src.Object
	var tokens int
	if estimateTokens {
		tokens = al.EstimateTokens(description)
	}
	return al.Chunk{
		Content: description,
		Metadata: al.ChunkMetadata{
			FilePath:         src.FilePath,
			ObjectType:       string(obj.Kind),
			ObjectID:         obj.ID,
			ObjectName:       obj.Name,
			ChunkType:        string(al.ChunkCrossReference),
			LineStart:        obj.LineStart,
			LineEnd:          obj.LineEnd,
			Extends:          obj.Extends,
			ProcedureName:    procedureName,
			Attributes:       attributes,
			RelationshipType: relationshipType,
			TargetObjectType: targetType,
			TargetObjectName: targetName,
			FileHash:         obj.FileHash,
		},
		TokenEstimate: tokens,
	}
}
