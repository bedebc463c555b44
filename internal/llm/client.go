package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sakif/flashcards/internal/apperror"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultTimeout = 30 * time.Second
)

// Config configures a Client. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// Referer and Title are sent as HTTP-Referer and X-Title, which OpenRouter
	// uses to attribute traffic to an application.
	Referer string
	Title   string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to one provider endpoint. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	referer    string
	title      string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, apperror.ValidationFailed("api_key", "OpenRouter API key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        20,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		timeout:    timeout,
		referer:    cfg.Referer,
		title:      cfg.Title,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Timeout bounds one call, after the default has been applied.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Complete sends req and returns the decoded completion.
//
// The request is validated before anything goes on the wire. The whole call,
// including reading the body, is bounded by the client timeout.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var resp ChatResponse
	err := c.doJSON(ctx, http.MethodPost, "/chat/completions", req, &resp)
	if err == nil {
		return &resp, nil
	}

	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return nil, statusError(httpErr, req.Model)
	case errors.Is(err, context.DeadlineExceeded):
		return nil, apperror.ServiceUnavailable(fmt.Sprintf(
			"Request timeout: Model '%s' did not respond. Try a different model.", req.Model))
	default:
		msg := fmt.Sprintf("Unexpected error with model '%s': %s. Try a different model.", req.Model, err)
		return nil, &apperror.AppError{Err: apperror.ErrServiceUnavailable, Message: msg, Cause: err}
	}
}

var schemaName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func validateRequest(req ChatRequest) error {
	if strings.TrimSpace(req.Model) == "" {
		return apperror.ValidationFailed("model", "Model name is required")
	}
	if len(req.Messages) == 0 {
		return apperror.ValidationFailed("messages", "At least one message is required")
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return apperror.ValidationFailed("temperature", "Temperature must be between 0 and 2")
	}
	if req.MaxTokens != nil && *req.MaxTokens <= 0 {
		return apperror.ValidationFailed("max_tokens", "max_tokens must be positive")
	}

	if req.ResponseFormat == nil || req.ResponseFormat.JSONSchema == nil {
		return nil
	}
	js := req.ResponseFormat.JSONSchema
	if !schemaName.MatchString(js.Name) {
		return apperror.ValidationFailed("response_format.json_schema.name",
			"Schema name must be snake_case (lowercase, underscores, no spaces)")
	}
	if js.Schema == nil {
		return apperror.ValidationFailed("response_format.json_schema.schema",
			"Schema must be a valid JSON Schema object")
	}
	if !js.Strict {
		return apperror.ValidationFailed("response_format.json_schema.strict",
			"Schema strict mode must be enabled (strict: true)")
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	c.setHeaders(req, body != nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}
}
