package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/data-sync/internal/status"
	"github.com/stacklok/data-sync/internal/versions"
)

// execute runs the root command with args and returns stdout. The commands
// share viper's global state, so these tests do not run in parallel.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeSettings creates a settings file for a native transfer with static
// facts, and a rules directory with one document per entry of docs
func writeSettings(t *testing.T, role string, docs map[string]string) (configPath, rulesDir string) {
	t.Helper()
	base := t.TempDir()
	rulesDir = filepath.Join(base, "rules")
	require.NoError(t, os.MkdirAll(rulesDir, 0750))
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(rulesDir, name), []byte(content), 0600))
	}

	settings := fmt.Sprintf(`rulesDir: %s
stateDir: %s
transfer:
  mode: native
redundancy:
  source: static
  static:
    role: %s
    enabled: false
`, rulesDir, filepath.Join(base, "state"), role)
	configPath = filepath.Join(base, "settings.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(settings), 0600))
	return configPath, rulesDir
}

func ruleDoc(src, dst, direction string) string {
	if dst == "" {
		return fmt.Sprintf(`{"Files": [{"Path": %q, "SyncDirection": %q, "SyncType": "Immediate"}]}`,
			src, direction)
	}
	return fmt.Sprintf(`{"Files": [{"Path": %q, "DestinationPath": %q, "SyncDirection": %q, "SyncType": "Immediate"}]}`,
		src, dst, direction)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var info versions.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, versions.GetVersionInfo(), info)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "data-syncd ")
}

func TestValidateCmd(t *testing.T) {
	tests := []struct {
		name        string
		docs        map[string]string
		wantErr     bool
		wantContain []string
	}{
		{
			name: "valid documents",
			docs: map[string]string{
				"a.json": ruleDoc("/etc/a.conf", "", "Bidirectional"),
				"b.json": ruleDoc("/etc/b.conf", "", "Active2Passive"),
			},
			wantContain: []string{"2 rules loaded", "0 documents invalid"},
		},
		{
			name: "invalid document is reported",
			docs: map[string]string{
				"a.json":   ruleDoc("/etc/a.conf", "", "Bidirectional"),
				"bad.json": `{"Files": [{"Path": "/etc/x"}]}`,
			},
			wantErr:     true,
			wantContain: []string{"INVALID", "bad.json", "1 rules loaded", "1 documents invalid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath, _ := writeSettings(t, "Active", tt.docs)

			out, err := execute(t, "validate", "--config", configPath)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			for _, want := range tt.wantContain {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestValidateCmd_ExplicitDir(t *testing.T) {
	configPath, _ := writeSettings(t, "Active", nil)
	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(other, "a.json"),
		[]byte(ruleDoc("/etc/a.conf", "", "Passive2Active")), 0600))

	out, err := execute(t, "validate", "--config", configPath, other)
	require.NoError(t, err)
	assert.Contains(t, out, "1 rules loaded from "+other)
}

func TestSyncCmd(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.conf")
	require.NoError(t, os.WriteFile(src, []byte("alpha"), 0600))

	t.Run("success copies eligible rules", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "a.conf")
		configPath, _ := writeSettings(t, "Active", map[string]string{
			"a.json": ruleDoc(src, dst, "Active2Passive"),
		})

		out, err := execute(t, "sync", "--config", configPath)
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, string(status.FullSyncCompleted), result["status"])
		assert.EqualValues(t, 1, result["launched"])

		data, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "alpha", string(data))
	})

	t.Run("failure exits with error", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "missing.conf")
		configPath, _ := writeSettings(t, "Passive", map[string]string{
			"a.json": ruleDoc(missing, filepath.Join(t.TempDir(), "x"), "Bidirectional"),
		})

		out, err := execute(t, "sync", "--config", configPath)
		require.ErrorIs(t, err, errFullSyncFailed)
		assert.Contains(t, out, string(status.FullSyncFailed))
	})
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
