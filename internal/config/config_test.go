package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "test.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "test.db", cfg.Database.Path)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Empty(t, cfg.Workflow)
}

func TestLoad_WorkflowOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "test.db"
workflow:
  overtime:
    auto_approve_positions: [general_manager]
    override_positions: [hr_manager]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Contains(t, cfg.Workflow, "overtime")
	assert.Equal(t, []string{"general_manager"}, cfg.Workflow["overtime"].AutoApprovePositions)
	assert.Equal(t, []string{"hr_manager"}, cfg.Workflow["overtime"].OverridePositions)
}

func TestLoad_UnknownWorkflowKind(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "test.db"
workflow:
  travel:
    auto_approve_positions: [general_manager]
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "travel")
}

func TestLoad_InvalidPort(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 99999
database:
  path: "test.db"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
