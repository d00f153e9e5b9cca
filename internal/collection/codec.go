package collection

import (
	"encoding/json"
	"fmt"
)

// Marshal serializes c as the snapshot stored locally and remotely.
func Marshal(c Collection) ([]byte, error) {
	if c.Entries == nil {
		c.Entries = []Entry{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal %s snapshot: %w", c.Kind, err)
	}
	return data, nil
}

// Unmarshal decodes a snapshot written by Marshal and normalizes it for kind.
func Unmarshal(data []byte, kind Kind) (Collection, error) {
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return Collection{}, fmt.Errorf("unmarshal %s snapshot: %w", kind, err)
	}
	if c.Kind != 0 && c.Kind != kind {
		return Collection{}, fmt.Errorf("unmarshal %s snapshot: kind mismatch (got %s)", kind, c.Kind)
	}
	c.Normalize(kind)
	return c, nil
}
