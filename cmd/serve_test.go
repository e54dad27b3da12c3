package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_chart/internal/config"
	"signal_chart/internal/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestPortFlag_AcceptedByRootAndServe(t *testing.T) {
	cfgPath := writeConfig(t, "log_level: error\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "root", args: []string{"--config", cfgPath, "--port", "9090"}, want: "9090"},
		{name: "serve", args: []string{"serve", "--config", cfgPath, "--port", "9091"}, want: "9091"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, rest, err := rootCmd.Find(tc.args)
			require.NoError(t, err)
			require.NoError(t, cmd.ParseFlags(rest))

			cfg, err := loadConfig(cmd)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.Port)
		})
	}
}

func TestStartRefresher_DoneOnlyAfterFetchReturns(t *testing.T) {
	var block atomic.Bool
	hit := make(chan struct{}, 16)
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if block.Load() {
			hit <- struct{}{}
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(`{"body":"{\"green\":1,\"yellow\":0,\"red\":0,\"black\":1}"}`))
	}))
	defer src.Close()

	cfg, err := config.Load(writeConfig(t, "log_level: error\nsource:\n  base_url: "+src.URL+"\n"), nil)
	require.NoError(t, err)
	a, err := buildApp(cfg, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, a.ctrl.Refresh(context.Background(), 2, "s", "e"))
	block.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := startRefresher(ctx, a.services.Refresher, time.Millisecond)

	select {
	case <-hit:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher never fetched")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop")
	}

	// nothing may be in flight once done is closed
	waited := make(chan struct{})
	go func() {
		a.ctrl.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("fetch still in flight after the refresher stopped")
	}
	require.NoError(t, a.close())
}
