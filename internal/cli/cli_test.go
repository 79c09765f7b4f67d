package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/on-the-ground/composable_go/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := cli.NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestConfig_PrintsDefaults(t *testing.T) {
	out := run(t, "config")
	assert.Contains(t, out, "name: composable")
	assert.Contains(t, out, "level: info")
}

func TestConfig_FlagOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composable.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  name: demo\nlog:\n  level: error\n"), 0o600))

	out := run(t, "config", "--config", path, "--metrics")
	assert.Contains(t, out, "name: demo")
	assert.Contains(t, out, "metrics: true")
}

func TestConfig_InvalidFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composable.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o600))

	cmd := cli.NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "-c", path})
	assert.Error(t, cmd.Execute())
}

func TestSyncUps_AddAndDelete(t *testing.T) {
	out := run(t, "syncups", "--mock", "--add", "Standup", "--attendee", "Blob", "--attendee", "Blob Jr", "--delete", "0")

	assert.Contains(t, out, "Standup\t2 attendees\t5m0s\t0 meetings")
	assert.Contains(t, out, "Engineering")
	assert.Contains(t, out, "Product")
	assert.NotContains(t, out, "Design")
}

func TestSyncUps_MeetingIsRecordedThroughDetail(t *testing.T) {
	out := run(t, "syncups", "--mock", "--meeting", "1")

	assert.Regexp(t, `Engineering\t\d+ attendees\t\S+\t1 meetings`, out)
	assert.Regexp(t, `Design\t\d+ attendees\t\S+\t0 meetings`, out)
}

func TestSyncUps_MeetingOffsetOutOfRangeFails(t *testing.T) {
	cmd := cli.NewRootCommand()
	cmd.SetArgs([]string{"syncups", "--meeting", "3"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.ErrorContains(t, cmd.Execute(), "no sync-up at offset 3")
}

func TestSyncUps_PrintsMetrics(t *testing.T) {
	out := run(t, "syncups", "--metrics")
	assert.Contains(t, out, `composable_store_actions_total store=composable`)
}

func TestVoiceMemos_RecordsOneMemo(t *testing.T) {
	out := run(t, "voicememos", "--record", "20ms")
	assert.Contains(t, out, ".m4a")
}
