package app

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/commlog-server/internal/config"
	"github.com/vovakirdan/commlog-server/internal/log"
	"github.com/vovakirdan/commlog-server/internal/store"
)

func TestOpenStore_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "commlog.db")

	st, err := OpenStore(context.Background(), config.DatabaseConfig{Driver: config.DriverSQLite, Path: dbPath}, log.Nop())
	require.NoError(t, err)
	defer st.Close()

	n, err := st.Count(context.Background(), store.KindEmail)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.DatabaseConfig{Driver: "mysql"}, log.Nop())
	assert.ErrorContains(t, err, `unsupported database driver "mysql"`)
}

func TestRun_ServesAndShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := config.Default()
	cfg.Addr = addr
	cfg.GinMode = "test"
	cfg.ShutdownTimeout = time.Second
	cfg.Database.Path = filepath.Join(t.TempDir(), "commlog.db")

	ctx, cancel := context.WithCancel(context.Background())
	application, err := New(ctx, &cfg, log.Nop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not shut down")
	}
}
