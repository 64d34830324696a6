package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lumen/pkg/config"
	"github.com/ajitpratap0/lumen/pkg/export"
)

func smallConfig() *config.Config {
	cfg := config.NewDefault()
	cfg.Pool.BufferSize = 64 * 64 * 4
	cfg.Texture.MaxCachedTextures = 3
	cfg.Governor.Remediate = false
	return cfg
}

func TestRenderLoopFrames(t *testing.T) {
	loop := newRenderLoop(smallConfig(), 6)

	for n := 0; n < 20; n++ {
		render := loop.renderFrame(n)
		loop.gov.Frame(context.Background(), render+time.Millisecond, render)
	}

	stats := loop.gov.Stats()
	assert.Equal(t, uint64(20), stats.Frames)
	assert.Equal(t, 3, stats.Texture.CachedTextures)
	assert.LessOrEqual(t, stats.Pool.Allocated, stats.Pool.MaxBuffers)
	assert.Len(t, loop.gov.Tracker().History(), 20)
}

func TestRunSimulationExportsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json.zst")

	err := runSimulation(SimulateFlags{
		Duration:   300 * time.Millisecond,
		FPS:        100,
		ExportPath: path,
		Textures:   4,
	})
	require.NoError(t, err)

	doc, err := export.ReadFile(path)
	require.NoError(t, err)
	assert.Positive(t, doc.Count)
	require.NotNil(t, doc.Report)
	assert.NotEmpty(t, doc.Memory)
}

func TestRunSimulationRejectsBadFlags(t *testing.T) {
	assert.Error(t, runSimulation(SimulateFlags{FPS: 0}))
	assert.Error(t, runSimulation(SimulateFlags{FPS: 60, Watch: true}))
}

func TestCheckConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumen.yaml")
	require.NoError(t, config.Save(path, smallConfig()))

	cmd := newCheckConfigCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "buffer_size: 16384")
	assert.Contains(t, out.String(), "configuration OK")
}
