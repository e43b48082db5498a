package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompress_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte(`{"id":"1","pageNumber":1,"panels":[]}`), 64)

	for _, name := range []string{NopName, GZipName, BrotliName, LZ4Name} {
		t.Run(name, func(t *testing.T) {
			c, err := ByName(name)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())

			encoded, err := c.Encode(payload)
			require.NoError(t, err)
			if name != NopName {
				assert.Less(t, len(encoded), len(payload))
			}

			decoded, err := c.Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, payload, decoded)
		})
	}
}

func TestByName(t *testing.T) {
	c, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, NopName, c.Name())

	_, err = ByName("zstd")
	assert.ErrorIs(t, err, ErrUnknownCompression)
}

func TestGZip_DecodeGarbage(t *testing.T) {
	_, err := NewGZip().Decode([]byte("not gzip"))
	assert.Error(t, err)
}
