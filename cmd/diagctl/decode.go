package main

import (
	"errors"
	"io"

	"github.com/danmuck/tlvdiag/internal/capture"
	"github.com/danmuck/tlvdiag/internal/diag"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var errNoInput = errors.New("no capture given: pass files or --hex")

type source struct {
	name string
	load func() ([]byte, error)
}

type outcome struct {
	name     string
	size     int
	result   diag.Result
	err      error
	inputErr bool
}

func collectSources(hexText string, paths []string, stdin io.Reader, limit int64) ([]source, error) {
	sources := make([]source, 0, len(paths)+1)
	switch hexText {
	case "":
	case "-":
		sources = append(sources, source{
			name: "stdin",
			load: func() ([]byte, error) { return capture.ReadHex(stdin, limit) },
		})
	default:
		sources = append(sources, source{
			name: "hex",
			load: func() ([]byte, error) { return capture.DecodeHex(hexText) },
		})
	}
	for _, path := range paths {
		path := path
		sources = append(sources, source{
			name: path,
			load: func() ([]byte, error) { return capture.ReadFile(path, limit) },
		})
	}
	if len(sources) == 0 {
		return nil, errNoInput
	}
	return sources, nil
}

// decodeAll parses every source with at most workers in flight. Outcomes
// keep source order.
func decodeAll(sources []source, opts diag.Options, workers int) []outcome {
	outcomes := make([]outcome, len(sources))
	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			outcomes[i] = decodeOne(src, opts)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func decodeOne(src source, opts diag.Options) outcome {
	out := outcome{name: src.name, result: diag.Result{Schema: opts.Schema}}
	buf, err := src.load()
	if err != nil {
		out.err = err
		out.inputErr = true
		return out
	}
	out.size = len(buf)
	out.result, out.err = diag.Parse(buf, opts)
	if out.err != nil {
		log.Debug().Err(out.err).Str("capture", src.name).Msg("diagctl.decode failed")
	}
	return out
}
