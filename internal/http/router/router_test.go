package router

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personas-team/personas-api/internal/http/middleware"
	"github.com/personas-team/personas-api/internal/storage/sqlite"
	"github.com/personas-team/personas-api/internal/types"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "personas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(New(store, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}

	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRoot(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	assert.NotEmpty(t, body["message"])
	assert.NotEmpty(t, body["description"])
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "healthy"}, decode[map[string]string](t, resp))
}

func TestUnknownPath(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/health", "")
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}

// Walks the full lifecycle of a single person through the HTTP surface.
func TestPersonLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/personas/", `{"name":"Ana","age":30,"role":"Engineer"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[types.Person](t, resp)
	assert.Equal(t, types.Person{ID: 1, Name: "Ana", Age: 30, Role: "Engineer"}, created)

	resp = do(t, srv, http.MethodGet, "/personas/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created, decode[types.Person](t, resp))

	resp = do(t, srv, http.MethodPut, "/personas/1", `{"age":31}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[types.Person](t, resp)
	assert.Equal(t, types.Person{ID: 1, Name: "Ana", Age: 31, Role: "Engineer"}, updated)

	resp = do(t, srv, http.MethodPut, "/personas/1", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, updated, decode[types.Person](t, resp))

	resp = do(t, srv, http.MethodDelete, "/personas/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	deleted := decode[struct {
		Message string       `json:"message"`
		Deleted types.Person `json:"deleted"`
	}](t, resp)
	assert.Equal(t, updated, deleted.Deleted)
	assert.Contains(t, deleted.Message, "Ana")

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		body := ""
		if method == http.MethodPut {
			body = `{"age":1}`
		}
		resp = do(t, srv, method, "/personas/1", body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, method)
	}
}

func TestListPersons(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/personas/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]types.Person](t, resp))

	for _, name := range []string{"Ana", "Luis", "Marta"} {
		resp := do(t, srv, http.MethodPost, "/personas/", `{"name":"`+name+`","age":40,"role":"Dev"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp = do(t, srv, http.MethodGet, "/personas/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[[]types.Person](t, resp)
	require.Len(t, all, 3)
	assert.Equal(t, "Ana", all[0].Name)
	assert.Equal(t, "Marta", all[2].Name)

	resp = do(t, srv, http.MethodGet, "/personas/?skip=1&limit=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[[]types.Person](t, resp)
	require.Len(t, page, 1)
	assert.Equal(t, "Luis", page[0].Name)

	resp = do(t, srv, http.MethodGet, "/personas/?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdate_IgnoresUnknownKeys(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/personas/", `{"name":"Ana","age":30,"role":"Engineer","team":"core"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[types.Person](t, resp)

	resp = do(t, srv, http.MethodPut, "/personas/1", `{"foo":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created, decode[types.Person](t, resp))
}
