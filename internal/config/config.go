package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tlvdiag/internal/logging"
	"github.com/danmuck/tlvdiag/internal/protocol/frame"
	"github.com/danmuck/tlvdiag/internal/protocol/schema"
	"github.com/danmuck/tlvdiag/internal/protocol/tlv"
)

// Output formats accepted by diagctl.
const (
	FormatTable = "table"
	FormatCBOR  = "cbor"
	FormatEDN   = "edn"
)

const maxDepthCeiling = 255

type Config struct {
	Framing         string    `toml:"framing"`
	Schema          string    `toml:"schema"`
	Format          string    `toml:"format"`
	MaxCaptureBytes int64     `toml:"max_capture_bytes"`
	MaxDepth        int       `toml:"max_depth"`
	RejectEmpty     bool      `toml:"reject_empty"`
	StrictShape     bool      `toml:"strict_shape"`
	Workers         int       `toml:"workers"`
	MetricsFile     string    `toml:"metrics_file"`
	Log             LogConfig `toml:"log"`
}

type LogConfig struct {
	Level     string `toml:"level"`
	Timestamp bool   `toml:"timestamp"`
	NoColor   bool   `toml:"no_color"`
}

func Default() Config {
	return Config{
		Framing:         frame.ModeAuto.String(),
		Schema:          schema.SetCategorized.String(),
		Format:          FormatTable,
		MaxCaptureBytes: frame.DefaultLimits().MaxCaptureBytes,
		MaxDepth:        tlv.DefaultLimits().MaxDepth,
		Workers:         4,
		Log: LogConfig{
			Level:     "info",
			Timestamp: true,
		},
	}
}

// Load reads path over Default. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("framing") {
		cfg.Framing = strings.TrimSpace(raw.Framing)
	}
	if meta.IsDefined("schema") {
		cfg.Schema = strings.TrimSpace(raw.Schema)
	}
	if meta.IsDefined("format") {
		cfg.Format = strings.ToLower(strings.TrimSpace(raw.Format))
	}
	if meta.IsDefined("max_capture_bytes") {
		cfg.MaxCaptureBytes = raw.MaxCaptureBytes
	}
	if meta.IsDefined("max_depth") {
		cfg.MaxDepth = raw.MaxDepth
	}
	if meta.IsDefined("reject_empty") {
		cfg.RejectEmpty = raw.RejectEmpty
	}
	if meta.IsDefined("strict_shape") {
		cfg.StrictShape = raw.StrictShape
	}
	if meta.IsDefined("workers") {
		cfg.Workers = raw.Workers
	}
	if meta.IsDefined("metrics_file") {
		cfg.MetricsFile = strings.TrimSpace(raw.MetricsFile)
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	mode, err := frame.ParseMode(cfg.Framing)
	if err != nil {
		return err
	}
	set, err := schema.ParseSet(cfg.Schema)
	if err != nil {
		return err
	}
	if set == schema.SetSingle && mode == frame.ModeFramed {
		return fmt.Errorf("schema %q captures are interior-only; framing %q does not apply", set, mode)
	}
	switch cfg.Format {
	case FormatTable, FormatCBOR, FormatEDN:
	default:
		return fmt.Errorf("unknown format %q (want %s|%s|%s)", cfg.Format, FormatTable, FormatCBOR, FormatEDN)
	}
	if cfg.MaxCaptureBytes < 0 {
		return fmt.Errorf("max_capture_bytes must not be negative")
	}
	if cfg.MaxDepth < 1 || cfg.MaxDepth > maxDepthCeiling {
		return fmt.Errorf("max_depth must be between 1 and %d", maxDepthCeiling)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if strings.TrimSpace(cfg.Log.Level) != "" {
		if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
			return fmt.Errorf("unknown log level %q", cfg.Log.Level)
		}
	}
	return nil
}
