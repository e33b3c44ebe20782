package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "coder", req.Model)
		assert.Equal(t, "write add", req.Prompt)
		assert.True(t, req.Stream)

		fmt.Fprintln(w, `{"response":"func add(a, b int) int {","done":false}`)
		fmt.Fprintln(w, `{"response":" return a + b }","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
	}))
	defer srv.Close()

	client, err := NewHTTPClient("", "secret")
	require.NoError(t, err)

	p := NewOllamaProvider("coder", srv.URL+"/", client)
	out, err := p.Generate(context.Background(), "write add")
	require.NoError(t, err)
	assert.Equal(t, "func add(a, b int) int { return a + b }", out)
}

func TestOllamaErrors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not found", http.StatusNotFound)
			},
			want: "model not found",
		},
		{
			name: "stream error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintln(w, `{"response":"func","done":false}`)
				fmt.Fprintln(w, `{"error":"out of memory"}`)
			},
			want: "out of memory",
		},
		{
			name: "truncated",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintln(w, `{"response":"func","done":false}`)
			},
			want: "ended before completion",
		},
		{
			name: "garbage",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintln(w, `<html>`)
			},
			want: "could not decode",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := NewOllamaProvider("", srv.URL, srv.Client()).Generate(context.Background(), "p")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestOllamaConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOllamaProvider("", url, nil).Generate(context.Background(), "p")
	require.Error(t, err)
}

func TestAnthropicGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body["model"])
		assert.EqualValues(t, 1024, body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"func add(a, b int) int { return a + b }"}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":10}}`)
	}))
	defer srv.Close()

	p := NewAnthropicProvider("claude-test", srv.URL, "test-key", 1024, srv.Client())
	out, err := p.Generate(context.Background(), "write add")
	require.NoError(t, err)
	assert.Equal(t, "func add(a, b int) int { return a + b }", out)
}

func TestAnthropicStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	_, err := NewAnthropicProvider("", srv.URL, "bad", 0, srv.Client()).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic request failed")
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "local-model", body["model"])
		assert.Len(t, body["messages"], 2)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"local-model",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"func add(a, b int) int { return a + b }\n"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("local-model", srv.URL+"/v1/", "sk-test", 0, srv.Client())
	out, err := p.Generate(context.Background(), "write add")
	require.NoError(t, err)
	assert.Equal(t, "func add(a, b int) int { return a + b }", out)
}

func TestOpenAIEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider("m", srv.URL+"/v1/", "sk-test", 0, srv.Client()).Generate(context.Background(), "p")
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	for name, want := range map[string]any{
		"":          &OllamaProvider{},
		"Ollama":    &OllamaProvider{},
		"anthropic": &AnthropicProvider{},
		"openai":    &OpenAIProvider{},
	} {
		p, err := New(Settings{Provider: name}, nil)
		require.NoError(t, err, name)
		assert.IsType(t, want, p, name)
	}

	_, err := New(Settings{Provider: "gemini"}, nil)
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = New(Settings{Proxy: "://bad"}, nil)
	assert.Error(t, err)
}
