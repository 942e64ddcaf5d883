package handlers

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/nimasrn/denitracker/internal/app"
	"github.com/nimasrn/denitracker/internal/config"
	xhttp "github.com/nimasrn/denitracker/pkg/http"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

// offlineApp builds a client whose server is never reachable, so every
// write takes the queued path.
func offlineApp(t *testing.T) *app.App {
	t.Helper()
	cfg := &config.Config{
		LocalDBPath:               filepath.Join(t.TempDir(), "device.db"),
		RemoteBaseURL:             "http://127.0.0.1:1/api",
		RemoteTimeout:             200 * time.Millisecond,
		RemoteRetryDelay:          time.Millisecond,
		RemoteBreakerThreshold:    3,
		RemoteBreakerTimeout:      time.Minute,
		ConnectivityProbeInterval: time.Minute,
		TransactionWritePolicy:    "remote",
	}
	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Load(context.Background()))
	return a
}

func newRouter(a *app.App) *xhttp.Router {
	r := xhttp.CreateDefaultRouter()
	Register(r, a)
	return r
}

// setupTestContext goes through Init so the context methods the stores
// call (Done, Err) have a server behind them.
func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if body != nil {
		req.SetBody(body)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func call(t *testing.T, r *xhttp.Router, method, path string, body any) *xhttp.RequestCtx {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	ctx := setupTestContext(method, path, raw)
	r.Handler(ctx)
	return ctx
}

func decode[T any](t *testing.T, ctx *xhttp.RequestCtx) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &out), string(ctx.Response.Body()))
	return out
}
