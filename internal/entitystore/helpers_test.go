package entitystore

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/nimasrn/denitracker/internal/localstore"
	"github.com/nimasrn/denitracker/internal/remote"
	"github.com/nimasrn/denitracker/pkg/localdb"
	"github.com/stretchr/testify/require"
)

var errOffline = errors.Join(remote.ErrUnreachable, errors.New("dial tcp: connection refused"))

func setupLocal(t *testing.T) *localstore.Store {
	t.Helper()
	db, err := localdb.Open(localdb.Config{Path: filepath.Join(t.TempDir(), "local.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, localdb.Migrate(db))
	return localstore.New(db)
}

// fakeEndpoint is an in-memory server. Setting err makes every call fail.
type fakeEndpoint[T Editable[T, P], P Patch[T]] struct {
	mu     sync.Mutex
	err    error
	nextID int64
	rows   map[int64]T
	calls  []string
}

func newFakeEndpoint[T Editable[T, P], P Patch[T]](rows ...T) *fakeEndpoint[T, P] {
	f := &fakeEndpoint[T, P]{nextID: 100, rows: map[int64]T{}}
	for _, r := range rows {
		f.rows[r.Key()] = r.Confirmed()
	}
	return f
}

func (f *fakeEndpoint[T, P]) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeEndpoint[T, P]) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeEndpoint[T, P]) List(ctx context.Context) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list"); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

func (f *fakeEndpoint[T, P]) Create(ctx context.Context, rec T) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero T
	if err := f.record("create"); err != nil {
		return zero, err
	}
	f.nextID++
	rec = rec.WithKey(f.nextID).Confirmed()
	f.rows[rec.Key()] = rec
	return rec, nil
}

func (f *fakeEndpoint[T, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero T
	if err := f.record("update"); err != nil {
		return zero, err
	}
	cur, ok := f.rows[id]
	if !ok {
		return zero, &remote.RejectedError{StatusCode: 404}
	}
	cur = patch.Apply(cur)
	f.rows[id] = cur
	return cur, nil
}

func (f *fakeEndpoint[T, P]) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete"); err != nil {
		return err
	}
	if _, ok := f.rows[id]; !ok {
		return &remote.RejectedError{StatusCode: 404}
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeEndpoint[T, P]) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// brokenCollection fails writes while wrapping a working mirror.
type brokenCollection[T Record[T]] struct {
	MutableCollection[T]
	putErr error
	addErr error
}

func (b *brokenCollection[T]) Put(ctx context.Context, rec T) error {
	if b.putErr != nil {
		return b.putErr
	}
	return b.MutableCollection.Put(ctx, rec)
}

func (b *brokenCollection[T]) Add(ctx context.Context, rec T) (T, error) {
	if b.addErr != nil {
		var zero T
		return zero, b.addErr
	}
	return b.MutableCollection.Add(ctx, rec)
}
