package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/tlvdiag/internal/config"
	"github.com/danmuck/tlvdiag/internal/diag"
	"github.com/danmuck/tlvdiag/internal/protocol/schema"
	"github.com/gosuri/uitable"
)

const bannerWidth = 25

func render(w io.Writer, format string, outcomes []outcome) error {
	switch format {
	case config.FormatCBOR:
		b, err := encodeCBOR(outcomes)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case config.FormatEDN:
		text, err := encodeEDN(outcomes)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, text)
		return err
	default:
		for _, out := range outcomes {
			displayCapture(w, out, len(outcomes) > 1)
		}
		return nil
	}
}

func displayCapture(w io.Writer, out outcome, withHeader bool) {
	if withHeader {
		fmt.Fprintf(w, "\n== %s ==\n", out.name)
	}
	if out.err != nil && out.result.Empty() {
		fmt.Fprintf(w, "No diagnostic data available.\n")
		return
	}
	for _, c := range out.result.Schema.Categories() {
		displayBucket(w, c, out.result.Bucket(c))
	}
	if n := len(out.result.Skipped); n > 0 {
		fmt.Fprintf(w, "\n%d malformed record(s) skipped:\n", n)
		for _, skipped := range out.result.Skipped {
			fmt.Fprintf(w, "  %v\n", skipped)
		}
	}
}

func displayBucket(w io.Writer, c schema.Category, records []diag.Record) {
	name := c.Heading()
	if len(records) == 0 {
		if c == schema.CategoryDiagnostic {
			fmt.Fprintf(w, "No diagnostic data available.\n")
			return
		}
		fmt.Fprintf(w, "No %s data available.\n", name)
		return
	}
	s, _ := schema.ForCategory(c)

	table := uitable.New()
	table.Wrap = true
	table.MaxColWidth = 60

	header := make([]any, 0, len(s.Fields))
	for _, col := range s.Columns() {
		header = append(header, strings.ToUpper(col))
	}
	table.AddRow(header...)
	for _, rec := range records {
		row := make([]any, 0, len(s.Fields))
		for _, col := range rec.Columns() {
			row = append(row, col.Text)
		}
		table.AddRow(row...)
	}

	stars := strings.Repeat("*", bannerWidth)
	fmt.Fprintf(w, "\n%s %s %s\n", stars, name, stars)
	fmt.Fprintln(w, table)
	fmt.Fprintf(w, "%s\n", strings.Repeat("*", bannerWidth*2+len(name)+2))
}
