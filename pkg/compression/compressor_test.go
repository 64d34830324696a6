package compression

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lumen/pkg/errors"
)

var sample = []byte(strings.Repeat(`{"fps":59.8,"cpu_percent":12.5,"memory_mb":210.25}`, 200))

func TestRoundTrip(t *testing.T) {
	for _, algo := range Algorithms() {
		for _, level := range []Level{Fastest, Default, Best} {
			t.Run(string(algo), func(t *testing.T) {
				compressed, err := Compress(sample, algo, level)
				require.NoError(t, err)
				if algo != None {
					assert.Less(t, len(compressed), len(sample))
				}

				got, err := Decompress(compressed, algo)
				require.NoError(t, err)
				assert.Equal(t, sample, got)
			})
		}
	}
}

func TestStreaming(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Zstd, Better)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := w.Write(sample)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r, err := NewReader(&buf, Zstd)
	require.NoError(t, err)
	defer r.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, 4*len(sample), out.Len())
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, Zstd, a)

	a, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, a)

	_, err = ParseAlgorithm("brotli")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestForPath(t *testing.T) {
	tests := map[string]Algorithm{
		"history.json":     None,
		"history.json.zst": Zstd,
		"history.json.LZ4": LZ4,
		"out/h.gz":         Gzip,
		"h.sz":             Snappy,
		"h.s2":             S2,
		"noext":            None,
	}
	for path, want := range tests {
		assert.Equal(t, want, ForPath(path), path)
	}
	for _, a := range Algorithms() {
		if a != None {
			assert.Equal(t, a, ForPath("x"+a.Extension()))
		}
	}
}

func TestCorruptInput(t *testing.T) {
	_, err := Decompress([]byte("definitely not gzip"), Gzip)
	assert.Error(t, err)

	_, err = NewWriter(&bytes.Buffer{}, Algorithm("brotli"), Default)
	assert.Error(t, err)
}
