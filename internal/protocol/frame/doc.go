// Package frame owns the capture envelope: normalizing interior captures
// into a framed stream and the capture size limit.
package frame
