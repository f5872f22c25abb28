package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iffduels/overlay-server/internal/auth"
	"github.com/iffduels/overlay-server/internal/config"
	"github.com/iffduels/overlay-server/internal/core"
	"github.com/iffduels/overlay-server/internal/log"
	"github.com/iffduels/overlay-server/internal/store"
	"github.com/iffduels/overlay-server/internal/store/sqlite"
)

const testAccessKey = "test-access-key"

type testEnv struct {
	ts    *httptest.Server
	auth  *auth.Service
	store store.Store
}

func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	hash, err := auth.HashAccessKey(testAccessKey)
	if err != nil {
		t.Fatalf("hash access key: %v", err)
	}

	authService := auth.NewService(&auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}, hash)

	logger := log.Nop()
	hub := core.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(hub, authService, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, auth: authService, store: st}
}

// grantToken issues a connection token directly through the auth service.
func (e *testEnv) grantToken(t *testing.T, name string, role auth.Role) string {
	t.Helper()
	token, err := e.auth.Grant(testAccessKey, name, role)
	if err != nil {
		t.Fatalf("grant %s token: %v", role, err)
	}
	return token
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(b)
}
