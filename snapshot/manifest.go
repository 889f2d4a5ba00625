package snapshot

import (
	"bytes"
	"fmt"
	"time"

	"github.com/poliorcetics/growable-bitmap/codec"
)

// Manifest describes one stored snapshot version.
type Manifest struct {
	Name        string    `json:"name"`
	Version     uint64    `json:"version"`
	BlockWidth  uint      `json:"block_width"`
	Len         uint64    `json:"len"`
	BlockCount  int       `json:"block_count"`
	// Compression is the payload algorithm name, see codec.ParseCompression.
	Compression string    `json:"compression"`
	// Checksum is the CRC32C of the uncompressed payload.
	Checksum    uint32    `json:"checksum"`
	RawSize     int64     `json:"raw_size"`
	StoredSize  int64     `json:"stored_size"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"created_at"`
}

// encodeManifest frames m as "<codec name>\n<encoded manifest>".
func encodeManifest(c codec.Codec, m Manifest) ([]byte, error) {
	body, err := c.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode manifest: %w", err)
	}
	out := make([]byte, 0, len(c.Name())+1+len(body))
	out = append(out, c.Name()...)
	out = append(out, '\n')
	return append(out, body...), nil
}

func decodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	name, body, ok := bytes.Cut(data, []byte{'\n'})
	if !ok {
		return m, fmt.Errorf("%w: missing codec line", ErrCorruptManifest)
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return m, fmt.Errorf("%w: unknown codec %q", ErrCorruptManifest, name)
	}
	if err := c.Unmarshal(body, &m); err != nil {
		return m, fmt.Errorf("%w: %w", ErrCorruptManifest, err)
	}
	return m, nil
}
