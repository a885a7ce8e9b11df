package frame

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/tlvdiag/internal/protocol/tlv"
)

// Envelope markers synthesized around an interior-only capture. Some producers
// drop the top-level list open/close octets and emit only its members.
const (
	OpenMarker  byte = byte(tlv.TypeList)
	CloseMarker byte = byte(tlv.TypeEnd)
)

var (
	ErrUnknownMode     = errors.New("frame: unknown framing mode")
	ErrCaptureTooLarge = errors.New("frame: capture too large")
)

// Mode selects how a capture's outer envelope is resolved.
type Mode int

const (
	// ModeAuto decodes as-is and retries with a synthetic envelope only when
	// the decoder reports a missing envelope.
	ModeAuto Mode = iota
	ModeFramed
	ModeInterior
)

func (m Mode) String() string {
	switch m {
	case ModeFramed:
		return "framed"
	case ModeInterior:
		return "interior"
	default:
		return "auto"
	}
}

func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return ModeAuto, nil
	case "framed":
		return ModeFramed, nil
	case "interior":
		return ModeInterior, nil
	default:
		return ModeAuto, fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
}

// Limits constrains capture memory use.
type Limits struct {
	MaxCaptureBytes int64
}

func DefaultLimits() Limits {
	return Limits{MaxCaptureBytes: 8 * 1024 * 1024}
}

// Check rejects a capture larger than the configured limit.
func (l Limits) Check(b []byte) error {
	if l.MaxCaptureBytes > 0 && int64(len(b)) > l.MaxCaptureBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrCaptureTooLarge, len(b), l.MaxCaptureBytes)
	}
	return nil
}

// Wrap returns a new buffer holding b inside an anonymous list envelope.
func Wrap(b []byte) []byte {
	out := make([]byte, 0, len(b)+2)
	out = append(out, OpenMarker)
	out = append(out, b...)
	return append(out, CloseMarker)
}

// Normalize wraps b for ModeInterior and returns it unchanged otherwise.
func Normalize(b []byte, mode Mode) []byte {
	if mode == ModeInterior {
		return Wrap(b)
	}
	return b
}
