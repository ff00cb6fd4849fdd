package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sd155/subtasker/internal/result"
)

const (
	// DefaultEndpoint is the OpenRouter chat-completions endpoint.
	DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	// DefaultModel is the model used when none is configured.
	DefaultModel = "qwen/qwen3-235b-a22b:free"
	// DefaultConnectTimeout bounds connection establishment.
	DefaultConnectTimeout = 15 * time.Second
	// DefaultRequestTimeout bounds a whole request/response exchange.
	DefaultRequestTimeout = 60 * time.Second

	maxResponseBytes = 10 * 1024 * 1024
)

// DefaultProviders restricts routing to the provider the prompts were tuned on.
var DefaultProviders = []string{"Chutes"}

// Gateway sends a conversation to the remote model and returns its reply.
type Gateway interface {
	Send(ctx context.Context, elements []Element) result.Result[*GatewayError, Element]
}

// Config contains the settings for a Client. Credentials are passed
// explicitly; the client never reads the environment.
type Config struct {
	// Endpoint is the full chat-completions URL.
	Endpoint string
	// BearerToken is sent in the Authorization header.
	BearerToken string
	// ConnectTimeout bounds dialing the endpoint.
	ConnectTimeout time.Duration
	// RequestTimeout bounds the whole exchange, including reading the body.
	RequestTimeout time.Duration
	// ModelID is the model identifier sent with every request.
	ModelID string
	// Providers restricts which upstream providers may serve the request.
	// Empty means no restriction.
	Providers []string
	// Tracker accumulates token usage. Clients may share one; nil creates
	// a private tracker.
	Tracker *TokenTracker
}

// DefaultConfig returns a Config with the default endpoint, model and timeouts.
func DefaultConfig() Config {
	return Config{
		Endpoint:       DefaultEndpoint,
		ConnectTimeout: DefaultConnectTimeout,
		RequestTimeout: DefaultRequestTimeout,
		ModelID:        DefaultModel,
		Providers:      append([]string(nil), DefaultProviders...),
	}
}

// Client is the HTTP implementation of Gateway.
type Client struct {
	endpoint   string
	token      string
	model      string
	providers  []string
	httpClient *http.Client
	tracker    *TokenTracker
	logger     *zap.Logger
}

// NewClient creates a gateway client. A nil logger disables logging.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("llm endpoint is not configured")
	}
	if cfg.BearerToken == "" {
		return nil, errors.New("llm API key is not configured")
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModel
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = NewTokenTracker()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout

	return &Client{
		endpoint:  cfg.Endpoint,
		token:     cfg.BearerToken,
		model:     cfg.ModelID,
		providers: append([]string(nil), cfg.Providers...),
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		tracker: tracker,
		logger:  logger.With(zap.String("model", cfg.ModelID)),
	}, nil
}

// Model returns the configured model id.
func (c *Client) Model() string {
	return c.model
}

// Tracker returns the token tracker for this client.
func (c *Client) Tracker() *TokenTracker {
	return c.tracker
}

// Send posts the full context and returns the first choice's message.
//
// Every transport, status or body-shape problem yields a GatewayError.
// A reply with a role outside system/user/assistant is a defect: Send panics
// with *UnknownRoleError.
func (c *Client) Send(ctx context.Context, elements []Element) result.Result[*GatewayError, Element] {
	start := time.Now()

	body, err := json.Marshal(c.buildRequest(elements))
	if err != nil {
		return c.fail(start, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return c.fail(start, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.logger.Debug("llm request",
		zap.String("endpoint", c.endpoint),
		zap.Int("messages", len(elements)),
		zap.ByteString("body", body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(start, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.fail(start, fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("llm response",
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(start, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return c.fail(start, fmt.Errorf("decode response: %w", err))
	}
	if len(payload.Choices) == 0 {
		return c.fail(start, errors.New("response has no choices"))
	}
	msg := payload.Choices[0].Message
	if msg == nil {
		return c.fail(start, errors.New("first choice has no message"))
	}

	element, err := msg.toElement()
	if err != nil {
		return c.fail(start, err)
	}

	var input, output int64
	if payload.Usage != nil {
		input, output = payload.Usage.PromptTokens, payload.Usage.CompletionTokens
	}
	c.tracker.Add(input, output)

	c.logger.Info("llm call completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int64("prompt_tokens", input),
		zap.Int64("completion_tokens", output))

	return result.Success[*GatewayError](element)
}

func (c *Client) buildRequest(elements []Element) chatRequest {
	messages := make([]messageDTO, len(elements))
	for i, e := range elements {
		role := e.Role.String()
		text := e.Text
		messages[i] = messageDTO{Role: &role, Content: &text}
	}

	req := chatRequest{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: formatDTO{Type: "json_object"},
	}
	if len(c.providers) > 0 {
		req.Provider = &providerDTO{Only: c.providers}
	}
	return req
}

func (c *Client) fail(start time.Time, cause error) result.Result[*GatewayError, Element] {
	c.tracker.AddFailure()
	c.logger.Warn("llm call failed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(cause))
	return result.Failure[*GatewayError, Element](NewGatewayError(cause))
}
