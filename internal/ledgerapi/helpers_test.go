package ledgerapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nimasrn/denitracker/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	router  *gin.Engine
	handler *Handler
}

func setupAPI(t *testing.T, withIdempotency bool) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	deps := Dependencies{
		Customers:    repository.NewCustomerRepository(db),
		Items:        repository.NewItemRepository(db),
		Transactions: repository.NewTransactionRepository(db),
		Ping:         db.Ping,
		Log:          zerolog.Nop(),
	}
	if withIdempotency {
		deps.Idempotency, _ = setupIdempotency(t)
	}
	h := NewHandler(deps)
	return &testAPI{router: SetupRouter(h), handler: h}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func mustCreate[T any](t *testing.T, a *testAPI, path string, body any) T {
	t.Helper()
	w := a.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[T](t, w)
}
