package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	defaultHTTPTimeout = 30 * time.Second

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	contentTypeJSON     = "application/json"
	tokenScheme         = "Token"
)

// Client-level configuration errors.
var (
	ErrInvalidBaseURL      = errors.New("invalid base url")
	ErrInvalidClientConfig = errors.New("invalid client config")
)

// TokenStore holds the auth credential shared by every outgoing request.
// The client reads it on each call and clears it when the backend rejects it.
type TokenStore interface {
	Token() (string, bool)
	SetToken(token string) error
	ClearToken() error
}

// AuthFailureHandler is invoked once per request whose failure invalidated
// the stored credential. It replaces a hard-wired login redirect so the
// client stays UI-agnostic.
type AuthFailureHandler func(apiError *APIError)

// Client is the single point of contact with the backend. Every resource
// method funnels through one request primitive.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokens        TokenStore
	onAuthFailure AuthFailureHandler
	logger        *zap.Logger
	breaker       *gobreaker.CircuitBreaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Cookie-jar setup is skipped when
// the caller supplies its own client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		client.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = timeout
	}
}

// WithTokens wires the credential store consulted on every request.
func WithTokens(tokens TokenStore) Option {
	return func(client *Client) {
		client.tokens = tokens
	}
}

// WithAuthFailureHandler wires the callback fired when a response
// invalidates the stored credential.
func WithAuthFailureHandler(handler AuthFailureHandler) Option {
	return func(client *Client) {
		client.onAuthFailure = handler
	}
}

// WithLogger wires a structured logger for request outcomes.
func WithLogger(logger *zap.Logger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithBreaker guards the request primitive with a circuit breaker. Only
// retryable failures (network, server-side) count toward tripping it.
func WithBreaker(name string) Option {
	return func(client *Client) {
		client.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				var apiError *APIError
				if errors.As(err, &apiError) {
					return !apiError.IsRetryable()
				}
				return err == nil
			},
		})
	}
}

// NewClient wires a Client against a single backend base URL.
func NewClient(baseURL string, options ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidBaseURL)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: cookie jar: %v", ErrInvalidClientConfig, err)
	}
	client := &Client{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
			Jar:     jar,
		},
		logger: zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(client)
		}
	}
	return client, nil
}

// do is the request primitive. It merges default JSON headers, attaches the
// stored token, serializes the body, decodes 2xx JSON into out, and raises a
// typed *APIError for every non-2xx response and transport failure.
func (client *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	if client.breaker != nil {
		_, breakerError := client.breaker.Execute(func() (any, error) {
			return nil, client.doOnce(ctx, method, path, body, out)
		})
		if breakerError != nil {
			var apiError *APIError
			if errors.As(breakerError, &apiError) {
				return apiError
			}
			// Open-circuit rejections never reached the network.
			return &APIError{
				Code:      ErrCodeNetwork,
				Message:   breakerError.Error(),
				URL:       client.baseURL + path,
				Timestamp: time.Now(),
				cause:     breakerError,
			}
		}
		return nil
	}
	return client.doOnce(ctx, method, path, body, out)
}

func (client *Client) doOnce(ctx context.Context, method string, path string, body any, out any) error {
	requestURL := client.baseURL + path

	var requestBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		requestBody = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, requestBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	request.Header.Set(headerContentType, contentTypeJSON)
	request.Header.Set(headerAccept, contentTypeJSON)

	tokenAttached := false
	if client.tokens != nil {
		if token, ok := client.tokens.Token(); ok && token != "" {
			request.Header.Set(headerAuthorization, tokenScheme+" "+token)
			tokenAttached = true
		}
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		// A typed error surfacing from nested handling passes through unchanged.
		var apiError *APIError
		if errors.As(err, &apiError) {
			return apiError
		}
		transportError := classifyTransport(err, requestURL)
		client.logger.Debug("request failed before response",
			zap.String("method", method),
			zap.String("url", requestURL),
			zap.String("code", string(transportError.Code)))
		return transportError
	}
	defer func() { _ = response.Body.Close() }()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return classifyTransport(err, requestURL)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(responseBody, out); err != nil {
			// A 2xx body that is not valid JSON is a contract defect, surfaced
			// rather than swallowed.
			return &APIError{
				Code:      ErrCodeUnknown,
				Message:   "malformed response body: " + err.Error(),
				Status:    response.StatusCode,
				URL:       requestURL,
				Details:   RawDetails{Body: json.RawMessage(responseBody)},
				Timestamp: time.Now(),
				cause:     err,
			}
		}
		return nil
	}

	apiError := classifyResponse(response, responseBody, requestURL, tokenAttached)
	client.handleAuthFailure(apiError)
	client.logger.Debug("request rejected",
		zap.String("method", method),
		zap.String("url", requestURL),
		zap.Int("status", apiError.Status),
		zap.String("code", string(apiError.Code)))
	return apiError
}

// handleAuthFailure clears the stored token at most once per call and fires
// the auth-failure callback for credential-invalidating responses.
func (client *Client) handleAuthFailure(apiError *APIError) {
	if !apiError.IsAuthError() {
		return
	}
	if client.tokens != nil {
		if err := client.tokens.ClearToken(); err != nil {
			client.logger.Warn("clear token", zap.Error(err))
		} else {
			client.logger.Info("stored token cleared",
				zap.String("code", string(apiError.Code)))
		}
	}
	if client.onAuthFailure != nil {
		client.onAuthFailure(apiError)
	}
}
