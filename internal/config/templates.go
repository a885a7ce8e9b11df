package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const templateHeader = `# tlvdiag configuration
# framing: auto|framed|interior   format: table|cbor|edn
# schema: categorized|single (single captures are interior-only)
# max_capture_bytes = 0 disables the capture size limit.

`

// Template renders Default as TOML.
func Template() (string, error) {
	body, err := toml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("render config template: %w", err)
	}
	return templateHeader + string(body), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
