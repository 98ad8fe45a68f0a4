package cache

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressRoundTrip(t *testing.T) {
	body := bytes.Repeat([]byte(`{"type":"Feature","properties":{"ident":"ISUNO"}},`), 500)
	c := Compress(body)
	assert.Less(t, len(c), len(body))

	got, err := Decompress(c)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestDecompressGarbage(t *testing.T) {
	_, err := Decompress([]byte("not zstd"))
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "geopma:layer:runway_v2", Key("runway_v2"))
}
