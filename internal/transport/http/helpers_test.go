package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/commlog-server/internal/config"
	"github.com/vovakirdan/commlog-server/internal/service/records"
	"github.com/vovakirdan/commlog-server/internal/store"
	"github.com/vovakirdan/commlog-server/internal/store/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testConfig returns a config suitable for handler tests.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.GinMode = gin.TestMode
	return &cfg
}

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}
	return st
}

// newTestRouter builds the full router over st. mutate may adjust the config.
func newTestRouter(t *testing.T, st store.Store, mutate func(*config.Config)) http.Handler {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	disabledLogger := zerolog.Nop()
	router, err := NewRouter(records.New(st), st, cfg, &disabledLogger)
	require.NoError(t, err)
	return router
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decodeBody[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", resp.Body.String(), err)
	}
	return out
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
