// Package indexer coordinates the discover -> parse -> chunk -> store
// pipeline that turns an alsource.FileSource into rows in an alstore.Storage.
//
// Incremental indexing: each file's content hash (internal/alhash) is
// compared against the hash recorded for that path on the previous run;
// unchanged files are skipped without re-parsing, the same skip-by-hash
// shape dshills-gocontext-mcp's indexer uses over SHA-256, but here over
// this library's own BLAKE2b-8 fingerprint.
//
// Cross-reference chunks (internal/alxref) are built once per run, after
// every changed file has been parsed, and merged into each referencing
// file's chunk set before it is written — grounded on
// original_source/.../chunker.py's chunk_objects, which appends
// build_cross_reference_chunks's output to the same flat chunk list rather
// than storing it separately.
package indexer
