package live

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lixenwraith/spotglobe/parameter"
)

var (
	// ErrMalformedFrame covers unparsable JSON, oversized frames and missing fields
	ErrMalformedFrame = errors.New("live: malformed frame")
	// ErrUnknownType is a well-formed frame of a kind the client does not render
	ErrUnknownType = errors.New("live: unknown frame type")
)

// Frame is a parsed MIGRATION_EVENT push message
type Frame struct {
	Type   string
	Source string
	Target string
	// SentAtMillis is the sender's unix millisecond timestamp, zero when absent
	SentAtMillis int64
}

type wireFrame struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type wireMigration struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ParseFrame decodes one push-channel text frame
func ParseFrame(data []byte) (Frame, error) {
	if len(data) > parameter.LiveMaxFrameSize {
		return Frame{}, fmt.Errorf("%w: %d bytes exceeds limit", ErrMalformedFrame, len(data))
	}

	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if w.Type != parameter.LiveMigrationEventType {
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownType, w.Type)
	}

	var m wireMigration
	if len(w.Payload) == 0 {
		return Frame{}, fmt.Errorf("%w: missing payload", ErrMalformedFrame)
	}
	if err := json.Unmarshal(w.Payload, &m); err != nil {
		return Frame{}, fmt.Errorf("%w: payload: %v", ErrMalformedFrame, err)
	}
	if m.Source == "" || m.Target == "" {
		return Frame{}, fmt.Errorf("%w: payload needs source and target", ErrMalformedFrame)
	}

	return Frame{
		Type:         w.Type,
		Source:       m.Source,
		Target:       m.Target,
		SentAtMillis: w.Timestamp,
	}, nil
}

// EncodeFrame builds the wire form of a migration event
func EncodeFrame(source, target string, sentAtMillis int64) ([]byte, error) {
	payload, err := json.Marshal(wireMigration{Source: source, Target: target})
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireFrame{
		Type:      parameter.LiveMigrationEventType,
		Timestamp: sentAtMillis,
		Payload:   payload,
	})
}
