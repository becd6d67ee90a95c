// Package al defines the shared domain model for Business Central AL source:
// parsed objects, their structural members, and the chunks derived from them
// for retrieval-augmented generation.
//
// # Core Types
//
// Object represents one top-level AL declaration (table, page, codeunit, ...)
// recovered from source text without a grammar:
//
//	obj := &al.Object{
//	    Kind: al.KindTable,
//	    ID:   50100,
//	    Name: "Customer Address",
//	}
//
// Chunk represents a self-contained text fragment ready for embedding:
//
//	chunk := &al.Chunk{
//	    Content: procedureBody,
//	    Metadata: al.ChunkMetadata{
//	        ChunkType:     string(al.ChunkProcedure),
//	        ProcedureName: "ValidateCity",
//	    },
//	}
//
// # Validation
//
// Domain types implement Validate methods to catch caller bugs early:
//
//	if err := obj.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package al
