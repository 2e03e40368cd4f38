package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-bot/internal/store"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	body := fmt.Sprintf(`attendance:
  channel: main
  timezone: UTC
ledger:
  backend: csv
  path: %s
`, filepath.Join(dir, "attendance_data.csv"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const events = `{"employee_id":"U1","employee_name":"alice","channel":"main","text":"check in","timestamp":"2024-05-06T09:00:00Z"}
{"employee_id":"U1","employee_name":"alice","channel":"main","text":"brake in","timestamp":"2024-05-06T12:00:00Z"}

{"employee_id":"U1","employee_name":"alice","channel":"main","text":"check out","timestamp":"2024-05-06T12:10:00Z"}
{"employee_id":"U1","employee_name":"alice","channel":"main","text":"break out","timestamp":"2024-05-06T12:30:00Z"}
{"employee_id":"U2","employee_name":"bob","channel":"random","text":"check in","timestamp":"2024-05-06T09:00:00Z"}
{"employee_id":"U1","employee_name":"alice","channel":"main","text":"chekc out","timestamp":"2024-05-06T17:00:00Z"}
`

func TestReplayCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	eventsPath := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(eventsPath, []byte(events), 0o644))

	out, err := execute(t, "--config", cfgPath, "replay", eventsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 6 events: 4 applied, 1 rejected, 1 ignored, 0 failed")

	rows, err := store.NewCSVBackend(filepath.Join(dir, "attendance_data.csv")).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].EmployeeName)
	assert.Equal(t, "00:30:00", rows[0].TotalBreakDuration)
	assert.Equal(t, "07:30:00", *rows[0].TotalWorkedDuration)
	assert.Equal(t, 1, rows[0].TotalBreakIns)
}

func TestReplayCommand_BadLine(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	eventsPath := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(eventsPath, []byte("{not json}\n"), 0o644))

	_, err := execute(t, "--config", cfgPath, "replay", eventsPath)
	assert.ErrorContains(t, err, "line 1")
}

func TestReplayEvents_RequiresTimestamp(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	eventsPath := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(eventsPath, []byte(`{"employee_id":"U1","employee_name":"alice","channel":"main","text":"check in"}`+"\n"), 0o644))

	_, err := execute(t, "--config", cfgPath, "replay", eventsPath)
	assert.ErrorContains(t, err, "no timestamp")
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	eventsPath := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(eventsPath, []byte(events), 0o644))
	_, err := execute(t, "--config", cfgPath, "replay", eventsPath)
	require.NoError(t, err)

	xlsxPath := filepath.Join(dir, "attendance_data.xlsx")
	out, err := execute(t, "--config", cfgPath, "convert", "--to", "xlsx", "--out", xlsxPath)
	require.NoError(t, err)
	assert.Equal(t, "Copied 1 rows from csv to xlsx", strings.TrimSpace(out))

	ctx := context.Background()
	want, err := store.NewCSVBackend(filepath.Join(dir, "attendance_data.csv")).Load(ctx)
	require.NoError(t, err)
	got, err := store.NewXLSXBackend(xlsxPath).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConvertCommand_RejectsSameTarget(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	_, err := execute(t, "--config", cfgPath, "convert", "--to", "csv", "--out", filepath.Join(dir, "attendance_data.csv"))
	assert.ErrorContains(t, err, "same")
}
