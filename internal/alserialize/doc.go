// Package alserialize converts []al.Chunk to and from the JSON/JSONL wire
// format defined in spec.md §6. The core chunk model (pkg/al) carries no
// JSON tags of its own — spec.md treats serialization as "a separate
// serialization layer" on top of the value objects the core produces — so
// this package defines its own wire structs and converts explicitly, the
// same way original_source/.../serializers.py converts through a plain
// dict rather than tagging its dataclasses for JSON.
package alserialize
