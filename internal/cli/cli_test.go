package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/timeclock/internal/config"
	"github.com/sadopc/timeclock/internal/tracker"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "timeclock", cmd.Use)
	assert.Contains(t, cmd.Long, "time in and time out")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"in", "out", "status", "sync", "serve"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	addrFlag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, addrFlag)
	assert.Equal(t, "", addrFlag.DefValue)
}

// writeConfig writes a config file that keeps every path inside a temp dir
// and probes probeURL for connectivity.
func writeConfig(t *testing.T, probeURL string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Database = filepath.Join(dir, "timeclock.db")
	cfg.LogFile = filepath.Join(dir, "timeclock.log")
	cfg.Connectivity.ProbeURL = probeURL
	cfg.Cache.Database = filepath.Join(dir, "assets.db")

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, cfg.Save(path))
	return path
}

func onlineProbe(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func offlineProbe(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInOutOnline(t *testing.T) {
	cfgPath := writeConfig(t, onlineProbe(t))

	out, err := execute(t, "--config", cfgPath, "in")
	require.NoError(t, err)
	assert.Contains(t, out, "Clocked in at")
	assert.NotContains(t, out, "Offline")

	out, err = execute(t, "--config", cfgPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "clocked in")
	assert.Contains(t, out, "Since:")
	assert.Contains(t, out, "Network:  online")

	out, err = execute(t, "--config", cfgPath, "out")
	require.NoError(t, err)
	assert.Contains(t, out, "Clocked out at")

	out, err = execute(t, "--config", cfgPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "clocked out")
	assert.Contains(t, out, "1 entry")
	assert.Contains(t, out, "Unsynced: 0 entries")
}

func TestInTwiceIsRejected(t *testing.T) {
	cfgPath := writeConfig(t, onlineProbe(t))

	_, err := execute(t, "--config", cfgPath, "in")
	require.NoError(t, err)

	_, err = execute(t, "--config", cfgPath, "in")
	require.Error(t, err)
	assert.ErrorIs(t, err, tracker.ErrInvalidState)
}

func TestOutWithoutInIsRejected(t *testing.T) {
	cfgPath := writeConfig(t, onlineProbe(t))

	_, err := execute(t, "--config", cfgPath, "out")
	require.Error(t, err)
	assert.ErrorIs(t, err, tracker.ErrInvalidState)
}

func TestOfflineInThenSync(t *testing.T) {
	cfgPath := writeConfig(t, offlineProbe(t))

	out, err := execute(t, "--config", cfgPath, "in")
	require.NoError(t, err)
	assert.Contains(t, out, "Offline: saved locally")

	out, err = execute(t, "--config", cfgPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Network:  offline")
	assert.Contains(t, out, "Unsynced: 1 entry")

	out, err = execute(t, "--config", cfgPath, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Synced 1 entry")

	out, err = execute(t, "--config", cfgPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Unsynced: 0 entries")
}

func TestPendingSeededFromEarlierRun(t *testing.T) {
	cfgPath := writeConfig(t, offlineProbe(t))

	_, err := execute(t, "--config", cfgPath, "in")
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	e, err := openEnv(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, e.pending.Raised(), "unsynced rows from a previous run should raise pending")
	e.Close()

	_, err = execute(t, "--config", cfgPath, "sync")
	require.NoError(t, err)

	e, err = openEnv(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()
	assert.False(t, e.pending.Raised())
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[connectivity]
interval = "soon"
`), 0o644))

	_, err := execute(t, "--config", path, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestUnwritableDatabase(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Database = dir // a directory cannot be opened as a database
	cfg.LogFile = filepath.Join(dir, "timeclock.log")
	cfg.Connectivity.ProbeURL = offlineProbe(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, cfg.Save(path))

	_, err := execute(t, "--config", path, "in")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open entry store")
}

func TestLoggingWritesToFile(t *testing.T) {
	cfgPath := writeConfig(t, onlineProbe(t))

	_, err := execute(t, "--config", cfgPath, "--verbose", "in")
	require.NoError(t, err)

	logData, err := os.ReadFile(filepath.Join(filepath.Dir(cfgPath), "timeclock.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "clocked in")
	assert.Contains(t, string(logData), "config loaded")
}

func TestServeCachesManifest(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprintf(w, "asset %s", r.URL.Path)
	}))
	defer upstream.Close()

	cfg := config.DefaultConfig()
	cfg.Cache.Database = filepath.Join(t.TempDir(), "assets.db")
	cfg.Cache.Upstream = upstream.URL
	cfg.Cache.Manifest = []string{"/", "/index.html"}

	ready := make(chan string, 1)
	opts := &ServeOptions{
		RootOptions: &RootOptions{cfg: cfg},
		Addr:        "127.0.0.1:0",
		ready:       ready,
	}

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	done := make(chan error, 1)
	go func() { done <- runServe(ctx, opts, cmd) }()

	addr := <-ready
	require.EqualValues(t, 2, hits.Load())

	upstream.Close()
	resp, err := http.Get("http://" + addr + "/index.html")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), "timeclock-cache-v2")
}
