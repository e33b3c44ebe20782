package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ex2code/internal/db"
	"ex2code/pkg/binder"
)

type fixedClient string

func (c fixedClient) Generate(context.Context, string) (string, error) { return string(c), nil }

const addDoc = `functions:
  - name: add
    description: add two integers
    examples:
      - input: {a: 1, b: 2}
        output: 3
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := db.InitDB(filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(NewHandler(Options{
		DB:     store,
		Client: fixedClient("```go\nfunc add(a, b int) int { return a + b }\n```"),
		Binder: binder.New(binder.Options{}),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPrompt(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/prompt", addDoc)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []promptResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, "function", out[0].Kind)
	assert.Contains(t, out[0].Prompt, "Input: (a: 1, b: 2), Output: 3")
}

func TestPromptBadDocument(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{"functions: {", "functions: [{name: for}]", "{}"} {
		resp := do(t, http.MethodPost, srv.URL+"/api/prompt", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestGenerateAndArtifacts(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/generate", addDoc)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created []db.Artifact
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.Len(t, created, 1)
	assert.Equal(t, "bound", created[0].State)
	id := created[0].ID
	require.NotEmpty(t, id)

	resp = do(t, http.MethodGet, srv.URL+"/api/artifacts?name=add", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []db.Artifact
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list, 1)

	resp = do(t, http.MethodGet, srv.URL+"/api/artifacts/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got db.Artifact
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "add", got.Name)
	assert.Contains(t, got.Completion, "return a + b")

	resp = do(t, http.MethodDelete, srv.URL+"/api/artifacts/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/artifacts/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, http.MethodDelete, srv.URL+"/api/artifacts/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListArtifactsEmpty(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/artifacts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []db.Artifact
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.NotNil(t, list)
	assert.Empty(t, list)

	resp = do(t, http.MethodGet, srv.URL+"/api/artifacts?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/api/generate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
