// Package alxref builds cross_reference chunks describing relationships
// between parsed AL objects: an extension object's link to its base object,
// an interface implementation, and an [EventSubscriber(...)] attribute's
// link to the event it subscribes to.
//
// Unlike internal/chunker's per-object splitting, this is a batch operation
// over every object in a repository at once, since a relationship (most
// obviously an extension's base object) can live in a different file than
// the object that names it.
//
// Grounded on original_source/.../cross_references.py.
package alxref
