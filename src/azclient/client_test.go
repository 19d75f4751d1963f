package azclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/nl2sql/src/aisdk"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{
		Endpoint:   srv.URL + "/",
		Deployment: "gpt-4o",
		APIKey:     "secret",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Deployment: "d", APIKey: "k"})
	assert.ErrorIs(t, err, ErrMissingEndpoint)

	_, err = NewClient(Config{Endpoint: "https://x", APIKey: "k"})
	assert.ErrorIs(t, err, ErrMissingDeployment)

	c, err := NewClient(Config{Endpoint: "https://x/", Deployment: "d", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "api-key", c.AuthKind())
	assert.Zero(t, c.httpClient.Timeout, "calls are bounded by their context only")
	assert.Equal(t, "https://x/openai/deployments/d/chat/completions?api-version=2024-10-21", c.completionsURL())
}

func TestCreateChatCompletion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-10-21", r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret", r.Header.Get("api-key"))

		var req aisdk.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "hello", req.Messages[0].Content)

		fmt.Fprint(w, `{"id":"c1","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
	})

	resp, err := c.Deployment().CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{
		Messages: []*aisdk.Message{aisdk.NewMessage(aisdk.RoleUser, "hello")},
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "hi there", resp.Choices[0].Message.Content)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestCreateChatCompletionAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("apim-request-id", "req-42")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":"401","message":"Access denied due to invalid subscription key."}}`)
	})

	_, err := c.Deployment().CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "req-42", apiErr.RequestID)
	assert.True(t, apiErr.IsAuthError())
	assert.False(t, apiErr.IsRetryable())
}

func TestCreateChatCompletionPlainTextError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream unavailable\n")
	})

	_, err := c.Deployment().CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream unavailable", apiErr.Message)
	assert.True(t, apiErr.IsRetryable())
}

func TestCreateChatCompletionEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"c1","choices":[]}`)
	})

	_, err := c.Deployment().CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCreateChatCompletionStream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req aisdk.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, `data: {"id":"s1","choices":[{"index":0,"delta":{"role":"assistant","content":"The "}}]}`+"\n\n")
		fmt.Fprint(w, `data: {"id":"s1","choices":[{"index":0,"delta":{"content":"answer"}}]}`+"\n\n")
		fmt.Fprint(w, `data: {"id":"s1","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	stream, err := c.Deployment().CreateChatCompletionStream(context.Background(), &aisdk.ChatCompletionRequest{
		Messages: []*aisdk.Message{aisdk.NewMessage(aisdk.RoleUser, "q")},
	})
	require.NoError(t, err)
	defer stream.Close()

	aggregator := aisdk.NewStreamAggregator()
	for {
		chunk, err := stream.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		aggregator.AddChunk(chunk)
	}
	resp := aggregator.ToResponse()
	assert.Equal(t, "The answer", resp.Choices[0].Message.Content)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)

	_, err = stream.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamErrorEvent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `data: {"error":{"code":"content_filter","message":"filtered"}}`+"\n\n")
	})

	stream, err := c.Deployment().CreateChatCompletionStream(context.Background(), &aisdk.ChatCompletionRequest{})
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Read()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "filtered", apiErr.Message)
}

func TestReadAfterClose(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	stream, err := c.Deployment().CreateChatCompletionStream(context.Background(), &aisdk.ChatCompletionRequest{})
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())

	_, err = stream.Read()
	assert.ErrorIs(t, err, ErrStreamClosed)
}

type staticToken struct{ calls int }

func (s *staticToken) Authorize(_ context.Context, req *http.Request) error {
	s.calls++
	req.Header.Set("Authorization", "Bearer tkn")
	return nil
}

func (s *staticToken) Kind() string { return "static" }

func TestCustomCredential(t *testing.T) {
	src := &staticToken{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("api-key"))
		fmt.Fprint(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(Config{Endpoint: srv.URL, Deployment: "d", Credential: src, HTTPClient: srv.Client()})
	require.NoError(t, err)
	assert.Equal(t, "static", c.AuthKind())

	_, err = c.Deployment().CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
}
