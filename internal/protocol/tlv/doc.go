// Package tlv decodes and encodes tag-length-value diagnostic elements. It
// owns element decoding, the reference encoder and decode errors.
//
// Decoding is a single pass over a complete buffer. Any failure is a
// *DecodeError matching ErrMalformedStream, and no partial tree is returned.
package tlv
