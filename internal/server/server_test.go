package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/swamys/hotfoods/internal/auth"
	"github.com/swamys/hotfoods/internal/broadcast"
	"github.com/swamys/hotfoods/internal/menu"
	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/status"
	"github.com/swamys/hotfoods/internal/store/memory"
	"github.com/swamys/hotfoods/internal/storeconfig"
)

const testAdminToken = "secret-admin"

var ist = time.FixedZone("IST", status.ISTOffsetMinutes*60)

// fixedNow is a Wednesday afternoon between the morning and evening sessions.
var fixedNow = time.Date(2025, 3, 5, 14, 0, 0, 0, ist)

type testEnv struct {
	srv      *Server
	handler  http.Handler
	store    *memory.Store
	configs  *storeconfig.Service
	registry *broadcast.Registry
	auth     *auth.Service
	menu     *menu.Service
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	logger := quietLogger()
	clock := func() time.Time { return fixedNow }

	st := memory.New()
	registry := broadcast.New(broadcast.WithLogger(logger))
	configs := storeconfig.New(st, registry, storeconfig.WithClock(clock), storeconfig.WithLogger(logger))
	menuSvc := menu.New(st, menu.WithClock(clock), menu.WithLogger(logger))
	authSvc := auth.New(st, auth.WithLogger(logger))

	opts = append([]Option{WithAdminToken(testAdminToken), WithLogger(logger)}, opts...)
	srv := New(configs, registry, menuSvc, authSvc, opts...)
	return &testEnv{
		srv:      srv,
		handler:  srv.NewHTTPHandler(),
		store:    st,
		configs:  configs,
		registry: registry,
		auth:     authSvc,
		menu:     menuSvc,
	}
}

// userToken registers a user with role and returns a session token for it.
func (e *testEnv) userToken(t *testing.T, username string, role model.Role) string {
	t.Helper()
	ctx := context.Background()
	if _, err := e.auth.Register(ctx, auth.RegisterRequest{Username: username, Password: "pa55word", Role: role}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, _, err := e.auth.Login(ctx, username, "pa55word")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return sess.Token
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			r = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func TestShutdown_NoStreams(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := env.srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if n := env.srv.OpenStreams(); n != 0 {
		t.Fatalf("OpenStreams = %d", n)
	}
}
