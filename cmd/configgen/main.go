package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/tlvdiag/internal/config"
	"github.com/spf13/pflag"
)

const defaultPath = "tlvdiag.toml"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flagSet := pflag.NewFlagSet("configgen", pflag.ContinueOnError)
	output := flagSet.String("output", defaultPath, "output path for config template")
	validate := flagSet.Bool("validate", false, "validate an existing config file")
	input := flagSet.String("input", defaultPath, "config path for validation")
	force := flagSet.Bool("force", false, "overwrite existing config file")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if *validate {
		if _, err := config.Load(*input); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Validated config at %s\n", *input)
		return nil
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote config template to %s\n", *output)
	return nil
}
