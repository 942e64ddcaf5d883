package remote

import (
	"context"
	"fmt"

	"github.com/valyala/fasthttp"
)

// Resource is the CRUD surface of one editable collection.
type Resource[M any, P any, W wire[M]] struct {
	client *Client
	path   string
	// listQuery is appended to the list request, e.g. to include
	// soft-deleted rows.
	listQuery string
	toWire    func(M) W
}

func (r *Resource[M, P, W]) List(ctx context.Context) ([]M, error) {
	var ws []W
	if err := r.client.do(ctx, request{method: fasthttp.MethodGet, path: r.path + r.listQuery, out: &ws}); err != nil {
		return nil, err
	}
	out := make([]M, len(ws))
	for i, w := range ws {
		out[i] = w.model()
	}
	return out, nil
}

func (r *Resource[M, P, W]) Get(ctx context.Context, id int64) (M, error) {
	var w W
	err := r.client.do(ctx, request{method: fasthttp.MethodGet, path: fmt.Sprintf("%s/%d", r.path, id), out: &w})
	if err != nil {
		var zero M
		return zero, err
	}
	return w.model(), nil
}

// Create sends the record without its local id; the answer carries the
// server-assigned one.
func (r *Resource[M, P, W]) Create(ctx context.Context, m M) (M, error) {
	var w W
	err := r.client.do(ctx, request{method: fasthttp.MethodPost, path: r.path, body: r.toWire(m), out: &w})
	if err != nil {
		var zero M
		return zero, err
	}
	return w.model(), nil
}

func (r *Resource[M, P, W]) Update(ctx context.Context, id int64, patch P) (M, error) {
	var w W
	err := r.client.do(ctx, request{method: fasthttp.MethodPatch, path: fmt.Sprintf("%s/%d", r.path, id), body: patch, out: &w})
	if err != nil {
		var zero M
		return zero, err
	}
	return w.model(), nil
}

func (r *Resource[M, P, W]) Delete(ctx context.Context, id int64) error {
	return r.client.do(ctx, request{method: fasthttp.MethodDelete, path: fmt.Sprintf("%s/%d", r.path, id)})
}
