package config

import (
	"github.com/danmuck/tlvdiag/internal/diag"
	"github.com/danmuck/tlvdiag/internal/logging"
	"github.com/danmuck/tlvdiag/internal/protocol/frame"
	"github.com/danmuck/tlvdiag/internal/protocol/schema"
	"github.com/danmuck/tlvdiag/internal/protocol/tlv"
)

// DiagOptions converts cfg into parse options for diag.Parse.
func (cfg Config) DiagOptions() (diag.Options, error) {
	mode, err := frame.ParseMode(cfg.Framing)
	if err != nil {
		return diag.Options{}, err
	}
	set, err := schema.ParseSet(cfg.Schema)
	if err != nil {
		return diag.Options{}, err
	}
	return diag.Options{
		Framing:     mode,
		Schema:      set,
		Frame:       frame.Limits{MaxCaptureBytes: cfg.MaxCaptureBytes},
		Decode:      tlv.Limits{MaxDepth: cfg.MaxDepth},
		StrictShape: cfg.StrictShape,
		RejectEmpty: cfg.RejectEmpty,
	}, nil
}

// Logging converts the [log] table into a runtime logger config for app.
func (cfg Config) Logging(app string) logging.Config {
	out := logging.DefaultConfig(logging.ProfileRuntime)
	out.App = app
	if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok {
		out.Level = lvl
	}
	out.Timestamp = cfg.Log.Timestamp
	out.NoColor = cfg.Log.NoColor
	return out
}
