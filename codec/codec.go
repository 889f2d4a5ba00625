// Package codec centralizes snapshot payload compression and manifest
// encoding.
//
// Both choices are recorded in every snapshot manifest, so a snapshot written
// with one configuration can always be read back with another. Changing the
// framing of either is a breaking change for persisted snapshots.
package codec

import "fmt"

// Codec encodes/decodes manifest values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// Snapshot pointers store the codec name next to the encoded manifest and
// select the decoder with it.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
