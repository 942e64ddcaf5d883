package xhttp

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/denitracker/pkg/logger"
	"github.com/valyala/fasthttp"
)

const (
	slowThreshold   = 2 * time.Second
	RequestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

var skipPaths = []string{"/health", "/api/health", "/metrics"}

type MiddlewareFunc func(next RequestHandler) RequestHandler
type RequestCtx = fasthttp.RequestCtx
type RequestHandler = fasthttp.RequestHandler

func TimeoutMiddleware(timeout time.Duration) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return fasthttp.TimeoutWithCodeHandler(next, timeout, StatusText(StatusRequestTimeout), StatusRequestTimeout)
	}
}

// CORSMiddleware lets a browser UI served from another origin call the local API.
func CORSMiddleware(origin string) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return func(ctx *RequestCtx) {
			ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
			ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
			ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			if ctx.IsOptions() {
				ctx.SetStatusCode(StatusNoContent)
				return
			}
			next(ctx)
		}
	}
}

func RecoverMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		defer func() {
			if err := recover(); err != nil {
				ctx.Error(StatusText(StatusInternalServerError), StatusInternalServerError)
				ctx.Logger().Printf("panic: %v", err)
				logger.Error("[xhttp] panic recovered", "error", err)
			}
		}()
		next(ctx)
	}
}

// RequestLoggerMiddleware tags every request with an id and logs the
// outcome. Probe and scrape paths get the id but no log line.
func RequestLoggerMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		rid := ensureRequestID(ctx)
		if shouldSkip(string(ctx.Path())) {
			next(ctx)
			return
		}

		start := time.Now()
		next(ctx)
		latency := time.Since(start)

		status := ctx.Response.StatusCode()
		logAt(status, latency)("http_request",
			"request_id", rid,
			"method", string(ctx.Method()),
			"path", string(ctx.Path()),
			"query", string(ctx.QueryArgs().QueryString()),
			"status", status,
			"latency", latency.String(),
			"bytes_in", len(ctx.PostBody()),
			"bytes_out", len(ctx.Response.Body()),
		)
	}
}

// logAt picks the level: server errors are errors, client errors and slow
// requests are warnings, everything else is debug.
func logAt(status int, latency time.Duration) func(string, ...any) {
	switch {
	case status >= 500:
		return logger.Error
	case status >= 400, latency > slowThreshold:
		return logger.Warn
	}
	return logger.Debug
}

func shouldSkip(p string) bool {
	for _, sp := range skipPaths {
		if strings.HasPrefix(p, sp) {
			return true
		}
	}
	return false
}

// ensureRequestID reuses the caller's request id or mints one, echoes it on
// the response and stores it on the ctx for handlers to log.
func ensureRequestID(ctx *fasthttp.RequestCtx) string {
	rid := string(ctx.Request.Header.Peek(RequestIDHeader))
	if rid == "" {
		rid = uuid.NewString()
	}
	ctx.SetUserValue(requestIDKey, rid)
	ctx.Response.Header.Set(RequestIDHeader, rid)
	return rid
}

// RequestID returns the id assigned by RequestLoggerMiddleware, if any.
func RequestID(ctx *fasthttp.RequestCtx) string {
	rid, _ := ctx.UserValue(requestIDKey).(string)
	return rid
}
