package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry_Production(t *testing.T) {
	e, err := NewEntry(Default(), VariantProduction)
	require.NoError(t, err)
	assert.Equal(t, DefaultDeployPath, e.Executable)
	assert.Nil(t, e.Build)
	assert.Empty(t, e.Sentinel, "default sentinel is not rendered")
}

func TestNewEntry_Development(t *testing.T) {
	cfg := Default()
	cfg.Build.ProjectDir = "engine"
	e, err := NewEntry(cfg, VariantDevelopment)
	require.NoError(t, err)
	require.NotNil(t, e.Build)
	assert.Equal(t, "engine", e.Build.ProjectDir)
	assert.Equal(t, filepath.Join("engine", "target", "release", DefaultBinary), e.Executable)
}

func TestNewEntry_UnknownVariant(t *testing.T) {
	_, err := NewEntry(Default(), Variant("staging"))
	assert.Error(t, err)
}

func TestEntry_MarshalParse(t *testing.T) {
	cfg := Default()
	cfg.Agent.Sentinel = "go"
	e, err := NewEntry(cfg, VariantProduction)
	require.NoError(t, err)

	data, err := e.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "variant: production")
	assert.Contains(t, string(data), "executable: "+DefaultDeployPath)
	assert.NotContains(t, string(data), "build:")

	parsed, err := ParseEntry(data)
	require.NoError(t, err)
	assert.Equal(t, e, parsed)
}

func TestEntry_MarshalDeterministic(t *testing.T) {
	e, err := NewEntry(Default(), VariantDevelopment)
	require.NoError(t, err)
	first, err := e.Marshal()
	require.NoError(t, err)
	second, err := e.Marshal()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseEntry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing variant", "executable: /bin/agent\n", "unknown variant"},
		{"unknown variant", "variant: nightly\nexecutable: x\n", "unknown variant"},
		{"production without executable", "variant: production\n", "requires executable"},
		{"production with build", "variant: production\nexecutable: x\nbuild:\n  binary: y\n", "must not carry"},
		{"development without build", "variant: development\n", "build section"},
		{"development without binary", "variant: development\nbuild:\n  project_dir: .\n", "build.binary"},
		{"unknown field", "variant: production\nexecutable: x\nexepath: y\n", "exepath"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEntry([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadEntry_ResolvesProjectDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.yaml")
	doc := "variant: development\nexecutable: target/release/engine\nbuild:\n  project_dir: engine\n  binary: engine\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	e, err := LoadEntry(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "engine"), e.Build.ProjectDir)
}

func TestLoadEntry_Missing(t *testing.T) {
	_, err := LoadEntry(filepath.Join(t.TempDir(), "main.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
