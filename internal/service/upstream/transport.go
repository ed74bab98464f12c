package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sasusavage/SourceScout/internal/config"
	"github.com/sasusavage/SourceScout/internal/model/chat"
)

const (
	// DefaultTimeout 是单次 chat 或检索调用的超时上限。
	DefaultTimeout = 60 * time.Second

	maxResponseSize = 10 << 20
)

// Request 是与具体上游无关的 completion 请求。
type Request struct {
	Model       string
	Messages    []chat.Message
	Temperature float64
	TopP        float64
	// 合并进 JSON 请求体的额外字段，例如 web_search_options。
	Extra map[string]any
}

// Transport 是调度链上的一个上游。
type Transport interface {
	Name() string
	// Configured 决定该上游能否被选中。
	Configured() bool
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// HTTPTransport 发送 OpenAI 兼容的 chat completion 请求。
type HTTPTransport struct {
	name       string
	endpoint   string
	apiKey     string
	headers    map[string]string
	bodyFields map[string]any
	httpClient *http.Client
}

type Option func(*HTTPTransport)

// WithHeader 添加上游专用的请求头。
func WithHeader(key, value string) Option {
	return func(t *HTTPTransport) {
		t.headers[key] = value
	}
}

// WithBodyField 给每个请求体加上固定字段。
func WithBodyField(key string, value any) Option {
	return func(t *HTTPTransport) {
		t.bodyFields[key] = value
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(t *HTTPTransport) {
		t.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(t *HTTPTransport) {
		if timeout > 0 {
			t.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewHTTPTransport 为 OpenAI 兼容接口创建 transport。
func NewHTTPTransport(name, endpoint, apiKey string, opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		name:       name,
		endpoint:   strings.TrimSpace(endpoint),
		apiKey:     strings.TrimSpace(apiKey),
		headers:    map[string]string{},
		bodyFields: map[string]any{},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewOpenAI 返回首选的 chat 上游。
func NewOpenAI(cfg config.UpstreamConfig, opts ...Option) *HTTPTransport {
	opts = append([]Option{WithTimeout(cfg.ChatTimeout)}, opts...)
	return NewHTTPTransport("openai", cfg.OpenAI.URL, cfg.OpenAI.APIKey, opts...)
}

// NewOpenRouter 返回次选的 chat 上游，附带 OpenRouter 要求的来源头。
func NewOpenRouter(cfg config.UpstreamConfig, opts ...Option) *HTTPTransport {
	opts = append([]Option{
		WithTimeout(cfg.ChatTimeout),
		WithHeader("HTTP-Referer", cfg.OpenRouterSiteURL),
		WithHeader("X-Title", cfg.OpenRouterAppName),
	}, opts...)
	return NewHTTPTransport("openrouter", cfg.OpenRouter.URL, cfg.OpenRouter.APIKey, opts...)
}

// NewPerplexity 返回 web 检索上游。
func NewPerplexity(cfg config.UpstreamConfig, opts ...Option) *HTTPTransport {
	opts = append([]Option{
		WithTimeout(cfg.ChatTimeout),
		WithHeader("Accept", "application/json"),
		WithBodyField("return_citations", true),
		WithBodyField("stream", false),
	}, opts...)
	return NewHTTPTransport("perplexity", cfg.Perplexity.URL, cfg.Perplexity.APIKey, opts...)
}

func (t *HTTPTransport) Name() string {
	return t.name
}

func (t *HTTPTransport) Configured() bool {
	return t.apiKey != "" && t.endpoint != ""
}

// Complete 只发一次 POST，失败不重试。
func (t *HTTPTransport) Complete(ctx context.Context, req Request) (*Completion, error) {
	body, err := json.Marshal(t.buildBody(req))
	if err != nil {
		return nil, fmt.Errorf("upstream %s: marshal request: %w", t.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("upstream %s: create request: %w", t.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	for key, value := range t.headers {
		httpReq.Header.Set(key, value)
	}

	res, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Provider: t.name, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Provider: t.name, Err: fmt.Errorf("read response body: %w", err)}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{
			Provider:   t.name,
			StatusCode: res.StatusCode,
			Details:    errorDetails(res.StatusCode, raw),
		}
	}

	if !json.Valid(raw) {
		return nil, &HTTPError{
			Provider:   t.name,
			StatusCode: http.StatusBadGateway,
			Details:    errorDetails(http.StatusBadGateway, raw),
		}
	}

	return &Completion{Provider: t.name, Raw: raw}, nil
}

func (t *HTTPTransport) buildBody(req Request) map[string]any {
	body := map[string]any{
		"model":       req.Model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
		"top_p":       req.TopP,
	}
	for key, value := range t.bodyFields {
		body[key] = value
	}
	for key, value := range req.Extra {
		body[key] = value
	}
	return body
}
