package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/tlvdiag/internal/config"
	"github.com/danmuck/tlvdiag/internal/logging"
	"github.com/danmuck/tlvdiag/internal/observability"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var errCapturesFailed = errors.New("one or more captures failed")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errCapturesFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

type flags struct {
	hex         string
	framing     string
	schema      string
	format      string
	configPath  string
	strict      bool
	rejectEmpty bool
	workers     int
	metricsFile string
}

func newFlagSet(f *flags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("diagctl", pflag.ContinueOnError)
	flagSet.StringVar(&f.hex, "hex", "", `hex-encoded capture text ("-" reads hex from stdin)`)
	flagSet.StringVar(&f.framing, "framing", "", "envelope handling: auto|framed|interior")
	flagSet.StringVar(&f.schema, "schema", "", "record layout: categorized|single (single implies interior framing)")
	flagSet.StringVar(&f.format, "format", "", "output format: table|cbor|edn")
	flagSet.StringVar(&f.configPath, "config", "", "TOML config path")
	flagSet.BoolVar(&f.strict, "strict", false, "fail on the first malformed record instead of skipping it")
	flagSet.BoolVar(&f.rejectEmpty, "reject-empty", false, "treat a capture with no records as a failure")
	flagSet.IntVar(&f.workers, "workers", 0, "parallel capture decodes")
	flagSet.StringVar(&f.metricsFile, "metrics-file", "", "write prometheus textfile metrics to this path after the run")
	flagSet.SortFlags = false
	return flagSet
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var f flags
	flagSet := newFlagSet(&f)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: diagctl [flags] [capture files...]\n\n")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := resolveConfig(flagSet, f)
	if err != nil {
		return err
	}
	logging.ConfigureWith(cfg.Logging("diagctl"))

	opts, err := cfg.DiagOptions()
	if err != nil {
		return err
	}

	sources, err := collectSources(f.hex, flagSet.Args(), stdin, cfg.MaxCaptureBytes)
	if err != nil {
		return err
	}
	log.Debug().Int("captures", len(sources)).Int("workers", cfg.Workers).Msg("diagctl.run start")

	outcomes := decodeAll(sources, opts, cfg.Workers)
	for _, out := range outcomes {
		if out.inputErr {
			observability.RecordInputError()
			continue
		}
		observability.RecordCapture(out.size, out.result, out.err)
	}

	if err := render(stdout, cfg.Format, outcomes); err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics file: %w", err)
		}
	}

	failed := 0
	for _, out := range outcomes {
		if out.err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %s\n", out.name, describeError(out))
		}
	}
	if failed > 0 {
		log.Warn().Int("failed", failed).Int("captures", len(outcomes)).Msg("diagctl.run finished with failures")
		return errCapturesFailed
	}
	return nil
}

// resolveConfig loads the config file, if any, and applies flags set on the
// command line over it.
func resolveConfig(flagSet *pflag.FlagSet, f flags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if flagSet.Changed("framing") {
		cfg.Framing = strings.TrimSpace(f.framing)
	}
	if flagSet.Changed("schema") {
		cfg.Schema = strings.TrimSpace(f.schema)
	}
	if flagSet.Changed("format") {
		cfg.Format = strings.ToLower(strings.TrimSpace(f.format))
	}
	if flagSet.Changed("strict") {
		cfg.StrictShape = f.strict
	}
	if flagSet.Changed("reject-empty") {
		cfg.RejectEmpty = f.rejectEmpty
	}
	if flagSet.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flagSet.Changed("metrics-file") {
		cfg.MetricsFile = strings.TrimSpace(f.metricsFile)
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func describeError(out outcome) string {
	if out.inputErr {
		return "input error: " + out.err.Error()
	}
	return "decode error: " + out.err.Error()
}
