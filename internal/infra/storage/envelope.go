package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const envelopeVersion = "1.0"

// envelope is the on-disk shape of every stored value. The mobile client wrote
// the same wrapper, so data it synced up reads back unchanged.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
}

func encodeValue(v any, now time.Time) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return json.Marshal(envelope{Data: data, Timestamp: now.UTC(), Version: envelopeVersion})
}

// decodeValue unwraps an envelope into dst. Values written before the wrapper
// existed are decoded as-is.
func decodeValue(raw []byte, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err == nil {
			if data, ok := probe["data"]; ok && !bytes.Equal(data, []byte("null")) {
				return json.Unmarshal(data, dst)
			}
		}
	}
	return json.Unmarshal(trimmed, dst)
}
