package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/annel0/voxelcore/internal/cuboid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), args, &out), strings.Join(args, " "))
	return out.String()
}

func clearEnv(t *testing.T) {
	for _, key := range []string{"GAME_CONFIG", "VOXEL_REGISTRY_BACKEND", "VOXEL_WORLD_ROOT", "VOXEL_MIN_ID", "VOXEL_MAX_ID"} {
		t.Setenv(key, "")
	}
}

func TestRegisterAndLookupPersist(t *testing.T) {
	clearEnv(t)
	world := t.TempDir()

	out := runCLI(t, "--world", world, "--config", writeConfig(t, "logging:\n  level: error\n"), "register", "Basalt")
	assert.Equal(t, "basalt 1\n", out)

	out = runCLI(t, "--world", world, "register", "obsidian", "40")
	assert.Equal(t, "obsidian 40\n", out)

	out = runCLI(t, "--world", world, "lookup", "BASALT")
	assert.Equal(t, "basalt 1\n", out)

	out = runCLI(t, "--world", world, "list")
	assert.Equal(t, "    1  basalt\n   40  obsidian\n", out)
}

func TestDigestStableAcrossRuns(t *testing.T) {
	clearEnv(t)
	world := t.TempDir()

	first := runCLI(t, "-w", world, "digest")
	second := runCLI(t, "-w", world, "digest")
	assert.Equal(t, first, second)
	assert.Len(t, strings.TrimSpace(first), 64)
}

func TestMaskCommand(t *testing.T) {
	clearEnv(t)
	out := runCLI(t, "--backend", "memory", "mask")
	assert.Contains(t, out, "wool         0x000f")
	assert.Contains(t, out, "stone        0x0000")
}

func TestGenerateToFile(t *testing.T) {
	clearEnv(t)
	target := filepath.Join(t.TempDir(), "spawn.vxmb")

	out := runCLI(t, "-b", "memory", "--size", "4", "--height", "96", "-o", target, "generate", "spawn")
	assert.True(t, strings.HasPrefix(out, "spawn: 1,536 blocks"), out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	buf, err := cuboid.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 4*96*4, buf.Len())
}

func TestGenerateIntoBufferStore(t *testing.T) {
	clearEnv(t)
	world := t.TempDir()

	runCLI(t, "-w", world, "-b", "badger", "--size", "2", "--height", "80", "generate", "tiny")
	assert.DirExists(t, filepath.Join(world, "worlds", "materials.db"))

	runCLI(t, "-w", world, "--size", "2", "--height", "80", "generate", "tiny")
	assert.DirExists(t, filepath.Join(world, "worlds", "buffers.db"))
}

func TestStatWithMetrics(t *testing.T) {
	clearEnv(t)
	cfg := writeConfig(t, "registry:\n  backend: memory\nmetrics:\n  enabled: true\n")

	out := runCLI(t, "-c", cfg, "stat")
	assert.Contains(t, out, "backend:  memory")
	assert.Contains(t, out, "names:    0")
}

func TestUsageErrors(t *testing.T) {
	clearEnv(t)
	var out bytes.Buffer

	assert.Error(t, run(context.Background(), nil, &out))
	assert.Contains(t, out.String(), "Commands:")

	assert.Error(t, run(context.Background(), []string{"-b", "memory", "explode"}, &out))
	assert.Error(t, run(context.Background(), []string{"-b", "memory", "lookup"}, &out))
	assert.Error(t, run(context.Background(), []string{"-b", "memory", "lookup", "nothing"}, &out))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
