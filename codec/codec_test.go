package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type descriptor struct {
	Type  string   `json:"type"`
	Shape []uint64 `json:"shape"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsInterchangeable(t *testing.T) {
	in := descriptor{Type: "float32", Shape: []uint64{4, 2, 1}}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			var out descriptor
			require.NoError(t, dec.Unmarshal(MustMarshal(enc, in), &out))
			assert.Equal(t, in, out, "%s -> %s", enc.Name(), dec.Name())
		}
	}
}

func TestMustMarshal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(nil, make(chan int)) })
}

func TestManifest(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		data, err := EncodeManifest(c, Manifest{Format: "splash-container", Version: 1, Codec: "ignored"})
		require.NoError(t, err)

		m, got, err := DecodeManifest(data)
		require.NoError(t, err)
		assert.Equal(t, Manifest{Format: "splash-container", Version: 1, Codec: c.Name()}, m)
		assert.Equal(t, c.Name(), got.Name())
	}

	_, _, err := DecodeManifest([]byte(`{"format":"splash-container","version":1,"codec":"msgpack"}`))
	assert.ErrorIs(t, err, ErrUnknownCodec)

	_, _, err = DecodeManifest([]byte(`{`))
	assert.Error(t, err)
}
