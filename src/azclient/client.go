// Package azclient is a chat completions client for Azure OpenAI deployments.
package azclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/elee1766/nl2sql/src/aisdk"
)

const defaultAPIVersion = "2024-10-21"

// Client is the Azure OpenAI chat completions client. Every call is attempted
// exactly once.
type Client struct {
	config     Config
	auth       TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new client. Without an API key or explicit credential
// the ambient Azure credential chain is used.
func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if config.Deployment == "" {
		return nil, ErrMissingDeployment
	}
	if config.APIVersion == "" {
		config.APIVersion = defaultAPIVersion
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "azure_openai_client")

	auth := config.Credential
	if auth == nil {
		if config.APIKey != "" {
			auth = APIKeyAuth{Key: config.APIKey}
		} else {
			credAuth, err := NewDefaultCredentialAuth()
			if err != nil {
				return nil, err
			}
			auth = credAuth
		}
	}

	// No client timeout: calls are bounded by the request context only.
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	logger.Debug("client configured", "endpoint", config.Endpoint, "deployment", config.Deployment, "auth", auth.Kind())

	return &Client{
		config:     config,
		auth:       auth,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// AuthKind names the authorization mechanism in use.
func (c *Client) AuthKind() string {
	return c.auth.Kind()
}

// Deployment returns a ModelClient bound to the configured deployment.
func (c *Client) Deployment() *DeploymentClient {
	return &DeploymentClient{
		client: c,
		model: &aisdk.ModelInfo{
			ID:       c.config.Deployment,
			Name:     c.config.Deployment,
			Provider: "azure-openai",
		},
	}
}

func (c *Client) completionsURL() string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.config.Endpoint,
		url.PathEscape(c.config.Deployment),
		url.QueryEscape(c.config.APIVersion))
}

// createChatCompletion sends a non-streaming chat completion request.
func (c *Client) createChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	logger := c.logger.With("method", "CreateChatCompletion", "deployment", c.config.Deployment)

	req.Stream = false
	req.StreamOptions = nil
	resp, err := c.do(ctx, req)
	if err != nil {
		logger.Error("request failed", "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	var result aisdk.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Error("failed to decode response", "error", err)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	logger.Debug("chat completion successful",
		"finish_reason", result.Choices[0].FinishReason,
		"usage_total", result.Usage.TotalTokens)
	return &result, nil
}

// createChatCompletionStream sends a streaming chat completion request.
func (c *Client) createChatCompletionStream(ctx context.Context, req *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	req.Stream = true
	resp, err := c.do(ctx, req)
	if err != nil {
		c.logger.Error("stream request failed", "error", err)
		return nil, err
	}
	return newSSEStream(resp.Body, c.logger), nil
}

// do marshals the request, authorizes it and returns the response when the
// status is 200.
func (c *Client) do(ctx context.Context, req *aisdk.ChatCompletionRequest) (*http.Response, error) {
	// The deployment selects the model; the field is ignored by the service.
	req.Model = ""
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if c.logger.Enabled(ctx, slog.LevelDebug) {
		c.logger.Debug("sending chat completion request", "stream", req.Stream, "messages", len(req.Messages), "tools", len(req.Tools), "bytes", len(body))
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, c.completionsURL(), body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", c.config.Endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.handleError(resp)
	}
	return resp, nil
}

// newRequest creates a new HTTP request with the appropriate headers.
func (c *Client) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.auth.Authorize(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// handleError processes error responses from the API.
func (c *Client) handleError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read error response: %w", err)
	}
	requestID := resp.Header.Get("apim-request-id")
	if requestID == "" {
		requestID = resp.Header.Get("x-request-id")
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			RequestID:  requestID,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Type:       errResp.Error.Type,
		Message:    errResp.Error.Message,
		Code:       errResp.Error.Code,
		Param:      errResp.Error.Param,
		RequestID:  requestID,
	}
}
