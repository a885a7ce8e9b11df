// Package schema owns the diagnostics tag contract: category tags, the
// per-category field tables, and the schema sets that choose between the
// categorized and single-record layouts.
package schema
