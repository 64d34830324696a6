package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfileTypes(t *testing.T) {
	assert.Equal(t, []string{"cpu", "memory"}, parseProfileTypes("cpu, mem,bogus,memory"))
	assert.Equal(t, []string{"cpu", "memory", "block", "mutex", "goroutine"}, parseProfileTypes("all"))
	assert.Empty(t, parseProfileTypes("nothing"))
}

func TestRunProfileWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runProfile("", dir, []string{"memory", "goroutine"}, 100*time.Millisecond))

	for _, name := range []string{"memory.prof", "goroutine.prof"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Error(t, runProfile("", dir, nil, time.Millisecond))
}
