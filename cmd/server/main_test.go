package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestMigrateThenStats(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COMMLOG_DATABASE_PATH", filepath.Join(dir, "commlog.db"))
	configPath := filepath.Join(dir, "config.yaml")

	runCmd(t, "--config", configPath, "--log-level", "error", "migrate")

	out := runCmd(t, "--config", configPath, "--log-level", "error", "stats")
	assert.JSONEq(t, `{"emails":0,"sms":0,"whatsapp":0}`, out)
	assert.FileExists(t, configPath)
}

func TestServeFlags(t *testing.T) {
	cmd := newRootCmd()

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("addr"))
	assert.NotNil(t, cmd.Flags().Lookup("addr"), "root runs serve and accepts its flags")
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}
