package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/data-sync/internal/config"
	"github.com/stacklok/data-sync/internal/facts"
	"github.com/stacklok/data-sync/internal/status"
	"github.com/stacklok/data-sync/internal/transfer"
)

const rulesDir = "/usr/share/data-sync"

// testEnv is a source and destination tree plus a rules directory whose
// documents point from one to the other
type testEnv struct {
	src, dst string
	rulesFs  afero.Fs
	stateDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		src:      t.TempDir(),
		dst:      t.TempDir(),
		rulesFs:  afero.NewMemMapFs(),
		stateDir: t.TempDir(),
	}
	require.NoError(t, os.WriteFile(filepath.Join(env.src, "a.conf"), []byte("alpha"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(env.src, "b.conf"), []byte("beta"), 0600))

	doc := fmt.Sprintf(`{
  // synced at startup
  "Files": [
    {"Path": %q, "DestinationPath": %q, "SyncDirection": "Active2Passive", "SyncType": "Immediate"},
    {"Path": %q, "DestinationPath": %q, "SyncDirection": "Bidirectional", "SyncType": "Periodic", "PeriodicityInSec": 3600},
  ]
}`,
		filepath.Join(env.src, "a.conf"), filepath.Join(env.dst, "a.conf"),
		filepath.Join(env.src, "b.conf"), filepath.Join(env.dst, "b.conf"))
	require.NoError(t, afero.WriteFile(env.rulesFs, rulesDir+"/common.json", []byte(doc), 0600))
	return env
}

func (env *testEnv) config() *config.Config {
	return &config.Config{
		RulesDir: rulesDir,
		StateDir: env.stateDir,
		Transfer: config.TransferConfig{Mode: string(transfer.ModeNative)},
	}
}

func (env *testEnv) newApp(t *testing.T, redundancy facts.RedundancyContext, opts ...DataSyncAppOptions) *DataSyncApp {
	t.Helper()
	opts = append([]DataSyncAppOptions{
		WithConfig(env.config()),
		WithAddress("127.0.0.1:0"),
		WithRulesFs(env.rulesFs),
		WithFactsProvider(facts.NewStatic(redundancy)),
	}, opts...)
	app, err := NewDataSyncApp(context.Background(), opts...)
	require.NoError(t, err)
	return app
}

func TestNewDataSyncApp_RequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := NewDataSyncApp(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config cannot be nil")
}

func TestNewDataSyncApp_LoadsStartupState(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	app := env.newApp(t, facts.RedundancyContext{Role: facts.RoleActive, RedundancyEnabled: true})
	defer app.Close()

	components := app.Components()
	require.Len(t, components.Rules, 2)
	assert.Equal(t, filepath.Join(env.src, "a.conf"), components.Rules[0].Path)
	assert.Equal(t, time.Hour, components.Rules[1].Periodicity)
	assert.Equal(t, status.FullSyncNotStarted, components.Tracker.Get())
	assert.Equal(t, "127.0.0.1:0", app.GetHTTPServer().Addr)
	assert.Equal(t, env.stateDir, app.GetConfig().GetStateDir())
}

func TestNewDataSyncApp_StateLock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	first := env.newApp(t, facts.RedundancyContext{})

	_, err := NewDataSyncApp(context.Background(),
		WithConfig(env.config()),
		WithRulesFs(env.rulesFs),
		WithFactsProvider(facts.NewStatic(facts.RedundancyContext{})))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another data-syncd instance")

	first.Close()
	first.Close()

	second := env.newApp(t, facts.RedundancyContext{})
	second.Close()
}

func TestNewDataSyncApp_FactsFetchFails(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	cfg := env.config()
	cfg.Redundancy = config.RedundancyConfig{
		Source:       config.RedundancySourceFile,
		FactsFile:    filepath.Join(t.TempDir(), "missing.yaml"),
		FetchTimeout: "50ms",
	}

	_, err := NewDataSyncApp(context.Background(), WithConfig(cfg), WithRulesFs(env.rulesFs))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch redundancy facts")

	// the lock was released on failure
	app := env.newApp(t, facts.RedundancyContext{})
	app.Close()
}

func TestDataSyncApp_RunOnce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		role       facts.Role
		wantCopied []string
		wantAbsent []string
	}{
		{
			name:       "active pushes active and bidirectional rules",
			role:       facts.RoleActive,
			wantCopied: []string{"a.conf", "b.conf"},
		},
		{
			name:       "passive skips active rules",
			role:       facts.RolePassive,
			wantCopied: []string{"b.conf"},
			wantAbsent: []string{"a.conf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			app := env.newApp(t, facts.RedundancyContext{Role: tt.role})
			defer app.Close()

			result, err := app.RunOnce(context.Background())
			require.NoError(t, err)
			assert.Equal(t, status.FullSyncCompleted, result.Status)
			assert.Equal(t, len(tt.wantCopied), result.Launched)

			for _, name := range tt.wantCopied {
				want, err := os.ReadFile(filepath.Join(env.src, name))
				require.NoError(t, err)
				got, err := os.ReadFile(filepath.Join(env.dst, name))
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
			for _, name := range tt.wantAbsent {
				assert.NoFileExists(t, filepath.Join(env.dst, name))
			}

			record, err := status.NewFileRecordStore(env.stateDir).LoadRecord(context.Background())
			require.NoError(t, err)
			require.NotNil(t, record)
			assert.Equal(t, result.RunID, record.RunID)
		})
	}
}

func TestDataSyncApp_StartRunsStartupFullSync(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	app := env.newApp(t, facts.RedundancyContext{Role: facts.RoleActive, RedundancyEnabled: true})

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	assert.Eventually(t, func() bool {
		return app.Components().Tracker.Get() == status.FullSyncCompleted
	}, 5*time.Second, 10*time.Millisecond)
	assert.FileExists(t, filepath.Join(env.dst, "a.conf"))

	require.NoError(t, app.Stop(5*time.Second))
	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}

func TestDataSyncApp_RedundancyDisabledSkipsStartupSync(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	app := env.newApp(t, facts.RedundancyContext{Role: facts.RoleActive})

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	assert.Never(t, func() bool {
		return app.Components().Tracker.Get() != status.FullSyncNotStarted
	}, 200*time.Millisecond, 10*time.Millisecond)
	assert.NoFileExists(t, filepath.Join(env.dst, "a.conf"))

	require.NoError(t, app.Stop(5*time.Second))
	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}

func TestDataSyncApp_StopBeforeStart(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	app := env.newApp(t, facts.RedundancyContext{})
	assert.NoError(t, app.Stop(time.Second))
}
