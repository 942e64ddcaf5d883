package xhttp

import (
	"github.com/fasthttp/router"
	"github.com/nimasrn/denitracker/pkg/logger"
)

type Router = router.Router

func NewRouter() *Router {
	return router.New()
}

// CreateDefaultRouter returns a router whose fallbacks answer in the same
// {"error": ...} JSON shape as the handlers, so the UI parses one format.
func CreateDefaultRouter() *Router {
	r := NewRouter()
	r.RedirectTrailingSlash = true
	r.RedirectFixedPath = true
	r.SaveMatchedRoutePath = true
	r.HandleOPTIONS = false
	r.HandleMethodNotAllowed = true
	r.NotFound = NotFoundHandler
	r.MethodNotAllowed = MethodNotAllowedHandler
	r.PanicHandler = PanicHandler
	return r
}

func NotFoundHandler(ctx *RequestCtx) {
	Error(ctx, StatusNotFound, "no route for "+string(ctx.Method())+" "+string(ctx.Path()))
}

// MethodNotAllowedHandler runs after the router has filled in the Allow header.
func MethodNotAllowedHandler(ctx *RequestCtx) {
	Error(ctx, StatusMethodNotAllowed, StatusText(StatusMethodNotAllowed))
}

func PanicHandler(ctx *RequestCtx, v interface{}) {
	logger.Error("[xhttp] handler panicked", "path", string(ctx.Path()), "panic", v)
	Error(ctx, StatusInternalServerError, StatusText(StatusInternalServerError))
}
