package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestLedgerCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")

	out, err := execute(t, "ledger", "add", "--ledger", path, "abc123", "def456")
	require.NoError(t, err)
	assert.Contains(t, out, "abc123\tadded")
	assert.Contains(t, out, "now holds 2 ids")

	out, err = execute(t, "ledger", "add", "--ledger", path, "abc123")
	require.NoError(t, err)
	assert.Contains(t, out, "abc123\talready present")

	out, err = execute(t, "ledger", "check", "--ledger", path, "abc123", "zzz999")
	require.NoError(t, err)
	assert.Contains(t, out, "abc123\tprocessed")
	assert.Contains(t, out, "zzz999\tnew")

	out, err = execute(t, "ledger", "list", "--ledger", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PROCESSED VIDEOS")
	assert.Contains(t, out, "def456")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `["abc123","def456"]`, string(data))
}

func TestLedgerAdd_RejectsInvalidID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")

	_, err := execute(t, "ledger", "add", "--ledger", path, "../etc")
	assert.ErrorContains(t, err, "refusing to add")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLedgerCheck_RequiresArgs(t *testing.T) {
	_, err := execute(t, "ledger", "check", "--ledger", filepath.Join(t.TempDir(), "p.json"))
	assert.Error(t, err)
}

func TestLedgerList_CorruptLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	require.NoError(t, os.WriteFile(path, []byte(`[""]`), 0644))

	_, err := execute(t, "ledger", "list", "--ledger", path)
	assert.ErrorContains(t, err, "empty")
}
