// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/gridcheck/internal/config"
	"github.com/xkilldash9x/gridcheck/internal/observability"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "gridcheck version "+Version+"\n", out)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gridcheck version "+Version)
}

func TestRootCmd_NoArgs(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "baseline grid")
	assert.Contains(t, out, "check")
}

func TestConfigCmd(t *testing.T) {
	t.Run("prints defaults", func(t *testing.T) {
		out, err := execute(t, "config")
		require.NoError(t, err)

		var cfg config.Config
		require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
		assert.Equal(t, config.DefaultSelectors, cfg.Grid.Selectors)
		assert.Equal(t, 1.0, cfg.Grid.Tolerance)
		assert.Equal(t, config.NewDefaultConfig().Network.NavigationTimeout, cfg.Network.NavigationTimeout)
	})

	t.Run("applies config file and environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gridcheck.yaml")
		require.NoError(t, os.WriteFile(path, []byte("grid:\n  size: 24\n  tolerance: 0.5\nnetwork:\n  auth:\n    username: editor\n"), 0o600))
		t.Setenv("GRIDCHECK_GRID_TOLERANCE", "0.25")
		t.Setenv("GRIDCHECK_AUTH_PASSWORD", "s3cret")

		out, err := execute(t, "config", "--config", path)
		require.NoError(t, err)

		var cfg config.Config
		require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
		assert.Equal(t, 24.0, cfg.Grid.Size)
		assert.Equal(t, 0.25, cfg.Grid.Tolerance, "environment overrides the file")
		assert.Equal(t, "editor", cfg.Network.Auth.Username)
		assert.NotContains(t, out, "s3cret", "credentials are never printed")
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		_, err := execute(t, "config", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})
}

func TestRootCmd_LogLevelFlag(t *testing.T) {
	_, err := execute(t, "--log-level", "error", "version")
	require.NoError(t, err)
}
