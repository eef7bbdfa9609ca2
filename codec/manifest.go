package codec

import (
	"errors"
	"fmt"
)

// ErrUnknownCodec is returned for a manifest naming no built-in codec.
var ErrUnknownCodec = errors.New("codec: unknown codec")

// Manifest is the root record of a container. It names the codec of every
// other metadata blob in the container.
type Manifest struct {
	Format  string `json:"format"`
	Version int    `json:"version"`
	Codec   string `json:"codec"`
}

// EncodeManifest encodes m with c and records c as the container codec.
func EncodeManifest(c Codec, m Manifest) ([]byte, error) {
	m.Codec = c.Name()
	return c.Marshal(m)
}

// DecodeManifest parses a manifest written by any built-in codec and
// returns the codec it names.
func DecodeManifest(data []byte) (Manifest, Codec, error) {
	// Built-in codecs all emit JSON, so any of them reads the manifest.
	var m Manifest
	if err := Default.Unmarshal(data, &m); err != nil {
		return Manifest{}, nil, err
	}
	c, ok := ByName(m.Codec)
	if !ok {
		return m, nil, fmt.Errorf("%w %q", ErrUnknownCodec, m.Codec)
	}
	return m, c, nil
}
