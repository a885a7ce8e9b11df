package main

import (
	"fmt"

	"github.com/danmuck/tlvdiag/internal/diag"
	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding so identical captures export to
// identical bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("diagctl: CBOR encoder initialization failed: " + err.Error())
	}
}

// exportCapture carries only the buckets of the capture's schema set.
type exportCapture struct {
	Source      string           `cbor:"source"`
	Framing     string           `cbor:"framing"`
	Schema      string           `cbor:"schema"`
	Error       string           `cbor:"error,omitempty"`
	Traces      []map[string]any `cbor:"traces,omitempty"`
	Metrics     []map[string]any `cbor:"metrics,omitempty"`
	Counters    []map[string]any `cbor:"counters,omitempty"`
	Diagnostics []map[string]any `cbor:"diagnostics,omitempty"`
	Skipped     []string         `cbor:"skipped,omitempty"`
}

func exportOf(out outcome) exportCapture {
	exp := exportCapture{
		Source:      out.name,
		Framing:     out.result.Framing.String(),
		Schema:      out.result.Schema.String(),
		Traces:      exportRecords(out.result.Traces),
		Metrics:     exportRecords(out.result.Metrics),
		Counters:    exportRecords(out.result.Counters),
		Diagnostics: exportRecords(out.result.Diagnostics),
	}
	if out.err != nil {
		exp.Error = out.err.Error()
	}
	for _, skipped := range out.result.Skipped {
		exp.Skipped = append(exp.Skipped, skipped.Error())
	}
	return exp
}

func exportRecords(records []diag.Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Fields())
	}
	return out
}

func encodeCBOR(outcomes []outcome) ([]byte, error) {
	captures := make([]exportCapture, 0, len(outcomes))
	for _, out := range outcomes {
		captures = append(captures, exportOf(out))
	}
	b, err := encMode.Marshal(captures)
	if err != nil {
		return nil, fmt.Errorf("encode cbor export: %w", err)
	}
	return b, nil
}

// encodeEDN renders the CBOR export in RFC 8949 diagnostic notation.
func encodeEDN(outcomes []outcome) (string, error) {
	b, err := encodeCBOR(outcomes)
	if err != nil {
		return "", err
	}
	text, err := cbor.Diagnose(b)
	if err != nil {
		return "", fmt.Errorf("render diagnostic notation: %w", err)
	}
	return text, nil
}
