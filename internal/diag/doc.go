// Package diag turns a raw diagnostics capture into categorized records.
//
// Parse resolves the capture envelope, decodes it with package tlv, and
// classifies each top-level element by its context tag using the tables in
// package schema. Records keep stream order within their category.
package diag
