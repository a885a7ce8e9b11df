// Package capture loads raw diagnostic bytes from files or hex text. Input
// errors are reported here so decoding never starts on partial input.
package capture

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidHexInput = errors.New("capture: invalid hex input")
	ErrUnreadableInput = errors.New("capture: unreadable input")
)

// ReadFile reads the whole capture at path. limit <= 0 means unbounded.
func ReadFile(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableInput, err)
	}
	defer f.Close()

	b, err := readLimited(f, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableInput, path, err)
	}
	log.Debug().Str("path", path).Int("bytes", len(b)).Msg("capture.ReadFile ok")
	return b, nil
}

// ReadHex reads hex text from r and decodes it with DecodeHex.
func ReadHex(r io.Reader, limit int64) ([]byte, error) {
	// two hex digits per byte plus separators
	textLimit := limit
	if limit > 0 {
		textLimit = limit*4 + 64
	}
	text, err := readLimited(r, textLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableInput, err)
	}
	b, err := DecodeHex(string(text))
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit %d", ErrUnreadableInput, len(b), limit)
	}
	return b, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("exceeds limit of %d bytes", limit)
	}
	return b, nil
}

// DecodeHex decodes capture bytes typed as hex. Whitespace between digits is
// ignored and each whitespace-separated token may carry a 0x prefix.
func DecodeHex(text string) ([]byte, error) {
	var cleaned strings.Builder
	cleaned.Grow(len(text))
	for _, token := range strings.Fields(text) {
		if len(token) >= 2 && token[0] == '0' && (token[1] == 'x' || token[1] == 'X') {
			token = token[2:]
		}
		cleaned.WriteString(token)
	}
	digits := cleaned.String()

	if digits == "" {
		return nil, fmt.Errorf("%w: empty input after stripping whitespace", ErrInvalidHexInput)
	}
	for i := 0; i < len(digits); i++ {
		if !isHexDigit(digits[i]) {
			return nil, fmt.Errorf("%w: non-hex character %q at digit %d", ErrInvalidHexInput, digits[i], i)
		}
	}
	if len(digits)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of hex digits (%d)", ErrInvalidHexInput, len(digits))
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHexInput, err)
	}
	return b, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
