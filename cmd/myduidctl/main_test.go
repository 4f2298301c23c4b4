package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "ctl.db"))
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("AMQP_URL", "")
	t.Setenv("BCRYPT_COST", "4")
	return dir
}

func TestMigrate(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1 (dirty=false)")
}

func TestRegister(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "register", "--name", "Ada", "--email", "ADA@example.com", "--password", "secret1")
	require.NoError(t, err)

	var user map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotEmpty(t, user["id"])

	_, err = execute(t, "register", "--name", "Ada", "--email", "ada@example.com", "--password", "secret1")
	assert.Error(t, err)

	_, err = execute(t, "register", "--name", "Ada", "--email", "bad", "--password", "1")
	assert.Error(t, err)
}

func TestExportWritesFile(t *testing.T) {
	dir := setupEnv(t)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "export", "--user", "u1", "--format", "csv", "--range", "30", "--out", outDir, "--no-goals=false", "--no-transactions=false")
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.True(t, strings.HasSuffix(path, ".zip"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	out, err = execute(t, "export", "--user", "u1", "--format", "json", "--range", "ALL", "--out", outDir, "--no-goals")
	require.NoError(t, err)
	data, err := os.ReadFile(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"goals": null`)

	_, err = execute(t, "export", "--user", "u1", "--format", "pdf", "--no-goals=false")
	assert.Error(t, err)
}

func TestMirrorRequiresSpreadsheet(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "mirror")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_SPREADSHEET_ID")
}

func TestSheetsAuthRequiresClient(t *testing.T) {
	setupEnv(t)
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_FILE", "")
	_, err := execute(t, "sheets-auth")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing oauth client")
}
