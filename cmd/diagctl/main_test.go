package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/danmuck/tlvdiag/internal/capture"
	"github.com/danmuck/tlvdiag/internal/testutil/testlog"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

const (
	traceHex   = "35 01 25 06 e8 03 2c 04 04 62 6f 6f 74 2c 03 04 69 6e 69 74 18"
	counterHex = "35 02 25 06 e9 03 2c 03 06 65 72 72 6f 72 73 24 05 03 18"
	framedHex  = "17 " + traceHex + " " + counterHex + " 18"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunTableFramedHex(t *testing.T) {
	testlog.Start(t)
	stdout, _, err := runCLI(t, "", "--hex", framedHex)
	require.NoError(t, err)
	require.Contains(t, stdout, "TRACES")
	require.Contains(t, stdout, "COUNTERS")
	require.Contains(t, stdout, "No METRICS data available.")
	require.Contains(t, stdout, "boot")
	require.Contains(t, stdout, "errors")
	require.Less(t, strings.Index(stdout, "TRACES"), strings.Index(stdout, "COUNTERS"))
}

func TestRunInteriorHexFromStdin(t *testing.T) {
	testlog.Start(t)
	stdout, _, err := runCLI(t, traceHex+"\n", "--hex", "-")
	require.NoError(t, err)
	require.Contains(t, stdout, "init")
	require.Contains(t, stdout, "No COUNTERS data available.")

	_, stderr, err := runCLI(t, traceHex, "--hex", "-", "--framing", "framed")
	require.ErrorIs(t, err, errCapturesFailed)
	require.Contains(t, stderr, "decode error")
}

func TestRunReportsInputAndDecodeErrors(t *testing.T) {
	testlog.Start(t)
	_, stderr, err := runCLI(t, "", "--hex", "17 3")
	require.ErrorIs(t, err, errCapturesFailed)
	require.Contains(t, stderr, "input error")

	stdout, stderr, err := runCLI(t, "", "--hex", "17 35 01 25 06")
	require.ErrorIs(t, err, errCapturesFailed)
	require.Contains(t, stderr, "decode error")
	require.Contains(t, stdout, "No diagnostic data available.")

	_, _, err = runCLI(t, "")
	require.ErrorIs(t, err, errNoInput)

	_, _, err = runCLI(t, "", "--hex", framedHex, "--format", "yaml")
	require.Error(t, err)
}

func TestRunRejectEmpty(t *testing.T) {
	testlog.Start(t)
	_, _, err := runCLI(t, "", "--hex", "17 18")
	require.NoError(t, err)

	_, stderr, err := runCLI(t, "", "--hex", "17 18", "--reject-empty")
	require.ErrorIs(t, err, errCapturesFailed)
	require.Contains(t, stderr, "empty result")
}

func TestRunFilesKeepOrder(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	var paths []string
	for i, text := range []string{framedHex, traceHex, "17 18"} {
		b, err := capture.DecodeHex(text)
		require.NoError(t, err)
		path := filepath.Join(dir, string(rune('a'+i))+".bin")
		require.NoError(t, os.WriteFile(path, b, 0o600))
		paths = append(paths, path)
	}

	args := append([]string{"--workers", "2"}, paths...)
	stdout, _, err := runCLI(t, "", args...)
	require.NoError(t, err)
	last := -1
	for _, path := range paths {
		idx := strings.Index(stdout, "== "+path+" ==")
		require.Greater(t, idx, last, "capture %s out of order", path)
		last = idx
	}

	_, stderr, err := runCLI(t, "", filepath.Join(dir, "missing.bin"))
	require.ErrorIs(t, err, errCapturesFailed)
	require.Contains(t, stderr, "input error")
}

func TestRunCBORExport(t *testing.T) {
	testlog.Start(t)
	stdout, _, err := runCLI(t, "", "--hex", framedHex, "--format", "cbor")
	require.NoError(t, err)

	var captures []exportCapture
	require.NoError(t, cbor.Unmarshal([]byte(stdout), &captures))
	require.Len(t, captures, 1)
	got := captures[0]
	require.Equal(t, "hex", got.Source)
	require.Equal(t, "framed", got.Framing)
	require.Len(t, got.Traces, 1)
	require.Equal(t, "boot", got.Traces[0]["Scope"])
	require.Equal(t, uint64(1000), got.Traces[0]["Timestamp"])
	require.Len(t, got.Counters, 1)
	require.Equal(t, uint64(3), got.Counters[0]["Count"])
	require.Empty(t, got.Metrics)

	again, _, err := runCLI(t, "", "--hex", framedHex, "--format", "cbor")
	require.NoError(t, err)
	require.Equal(t, stdout, again)
}

func TestRunEDNExport(t *testing.T) {
	testlog.Start(t)
	stdout, _, err := runCLI(t, "", "--hex", traceHex, "--format", "edn")
	require.NoError(t, err)
	require.Contains(t, stdout, `"interior"`)
	require.Contains(t, stdout, `"init"`)
}

func TestRunConfigAndMetricsFile(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tlvdiag.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("framing = \"framed\"\nformat = \"edn\"\n"), 0o600))
	metricsPath := filepath.Join(dir, "tlvdiag.prom")

	_, _, err := runCLI(t, "", "--config", cfgPath, "--hex", traceHex)
	require.ErrorIs(t, err, errCapturesFailed)

	stdout, _, err := runCLI(t, "", "--config", cfgPath, "--framing", "auto", "--format", "table",
		"--metrics-file", metricsPath, "--hex", traceHex)
	require.NoError(t, err)
	require.Contains(t, stdout, "TRACES")

	b, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(b), "tlvdiag_records_total")
}

const singleHex = "15 24 00 05 2c 01 01 61 24 02 07 18"

func TestRunSingleSchema(t *testing.T) {
	testlog.Start(t)
	stdout, _, err := runCLI(t, "", "--schema", "single", "--hex", singleHex)
	require.NoError(t, err)
	require.Contains(t, stdout, "DIAGNOSTIC DATA")
	require.Contains(t, stdout, "TIMESTAMP")
	require.Contains(t, stdout, "a")
	require.NotContains(t, stdout, "TRACES")

	stdout, _, err = runCLI(t, "", "--schema", "single", "--hex", "24 00 05")
	require.NoError(t, err)
	require.Contains(t, stdout, "No diagnostic data available.")
	require.Contains(t, stdout, "1 malformed record(s) skipped")

	stdout, _, err = runCLI(t, "", "--schema", "single", "--format", "cbor", "--hex", singleHex)
	require.NoError(t, err)
	var captures []exportCapture
	require.NoError(t, cbor.Unmarshal([]byte(stdout), &captures))
	require.Len(t, captures, 1)
	got := captures[0]
	require.Equal(t, "single", got.Schema)
	require.Equal(t, "interior", got.Framing)
	require.Len(t, got.Diagnostics, 1)
	require.Equal(t, "a", got.Diagnostics[0]["Label"])
	require.Equal(t, uint64(5), got.Diagnostics[0]["Timestamp"])
	require.Equal(t, uint64(7), got.Diagnostics[0]["Value"])
	require.Empty(t, got.Traces)

	_, _, err = runCLI(t, "", "--schema", "single", "--framing", "framed", "--hex", singleHex)
	require.Error(t, err)
	_, _, err = runCLI(t, "", "--schema", "flat", "--hex", singleHex)
	require.Error(t, err)
}

func TestRunInvalidTextFailsOnlyThatCapture(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	bad, err := capture.DecodeHex("17 35 01 24 06 01 2c 03 02 ff fe 18 18")
	require.NoError(t, err)
	good, err := capture.DecodeHex(framedHex)
	require.NoError(t, err)
	badPath := filepath.Join(dir, "bad.bin")
	goodPath := filepath.Join(dir, "good.bin")
	require.NoError(t, os.WriteFile(badPath, bad, 0o600))
	require.NoError(t, os.WriteFile(goodPath, good, 0o600))

	stdout, stderr, err := runCLI(t, "", "--format", "edn", badPath, goodPath)
	require.ErrorIs(t, err, errCapturesFailed)
	require.Contains(t, stderr, "invalid UTF-8 text")
	require.Contains(t, stdout, `"boot"`)
	require.True(t, utf8.ValidString(stdout))
}
