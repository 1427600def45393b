package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codemap/internal/resolve"
)

func TestDefault_MatchesResolverDefaults(t *testing.T) {
	cfg := Default()
	fw := cfg.FrameworkConfig()
	want := resolve.DefaultFrameworkConfig()
	assert.Equal(t, len(want.Receivers), len(fw.Receivers))
	assert.Equal(t, len(want.Methods), len(fw.Methods))
}

func TestLoad_MissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesFrameworkSets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codemap.yaml")
	content := "framework:\n  receivers:\n    - myRouter\n  methods:\n    - handle\nstore:\n  backend: memory\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"myRouter"}, cfg.Framework.Receivers)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)

	fw := cfg.FrameworkConfig()
	assert.True(t, fw.Receivers["myRouter"])
	assert.True(t, fw.Methods["handle"])
}

func TestFrameworkConfig_IsFrameworkStillWorks(t *testing.T) {
	cfg := Default()
	fw := cfg.FrameworkConfig()
	assert.True(t, fw.IsFramework("app", "get"))
	assert.False(t, fw.IsFramework("notARouter", "notAMethod"))
}
