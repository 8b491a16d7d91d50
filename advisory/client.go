// Package advisory 提供外部建议服务（AI 搭配建议）的 HTTP 客户端。
//
// 请求格式（JSON，POST Endpoint）：
//
//	{"merchant_id": "m1", "cart": [{"item": {...}, "quantity": 1}], "candidates": [{...}]}
//
// 响应格式（JSON）：
//
//	{"suggestions": [{"suggested_name": "Ayran", "compatibility": 92, "reason": "..."}]}
//
// 客户端带超时、熔断（gobreaker）与出站限流（x/time/rate）；
// 任何失败都返回 module=advisory 的 DomainError，由外部建议信号降级为空。
package advisory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/metrics"
)

const (
	defaultTimeout          = 2 * time.Second
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
	maxResponseBytes        = 1 << 20
)

// Config 是客户端配置。
type Config struct {
	// Endpoint 建议服务地址，例如 "http://advisor:8080/v1/suggest"
	Endpoint string

	// Timeout 单次请求超时，<= 0 时使用 2s
	Timeout time.Duration

	// RatePerSecond 出站限流（每秒请求数），<= 0 表示不限流
	RatePerSecond float64

	// Burst 限流桶容量，<= 0 时为 1
	Burst int

	// FailureThreshold 连续失败多少次后熔断，0 时使用 5
	FailureThreshold uint32

	// OpenTimeout 熔断打开后多久进入半开状态，<= 0 时使用 30s
	OpenTimeout time.Duration
}

// Option 配置 Client。
type Option func(*Client)

// WithHTTPClient 替换底层 HTTP 客户端。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger 设置日志。
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "advisory").Logger()
	}
}

// Client 是 core.AdvisoryService 的 HTTP 实现，可并发使用。
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[[]core.Suggestion]
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

var (
	// ErrCircuitOpen 表示熔断打开，请求未发出
	ErrCircuitOpen = core.NewDomainError(core.ModuleAdvisory, core.ErrorCodeUnavailable, "advisory: circuit open")

	// ErrMalformedResponse 表示响应格式不合法
	ErrMalformedResponse = core.NewDomainError(core.ModuleAdvisory, core.ErrorCodeInvalidInput, "advisory: malformed response")
)

// New 创建客户端。
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, core.NewDomainError(core.ModuleAdvisory, core.ErrorCodeInvalidInput, "advisory: endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = defaultFailureThreshold
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultOpenTimeout
	}

	c := &Client{
		endpoint: cfg.Endpoint,
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
		logger:   zerolog.Nop(),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]core.Suggestion](gobreaker.Settings{
		Name:        "advisory",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// 调用方主动取消不计入失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("advisory circuit breaker state changed")
		},
	})
	return c, nil
}

// State 返回熔断器状态（closed / half-open / open），用于监控。
func (c *Client) State() string {
	return c.breaker.State().String()
}

// Suggest 实现 core.AdvisoryService。
func (c *Client) Suggest(ctx context.Context, req *core.AdvisoryRequest) ([]core.Suggestion, error) {
	if req == nil {
		return []core.Suggestion{}, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.RecordAdvisory("rejected")
			return nil, core.WrapDomainError(core.ModuleAdvisory, core.ErrorCodeTimeout, "advisory: rate limit wait", err)
		}
	}

	out, err := c.breaker.Execute(func() ([]core.Suggestion, error) {
		return c.call(ctx, req)
	})
	switch {
	case err == nil:
		metrics.RecordAdvisory("success")
		return out, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordAdvisory("rejected")
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, err.Error())
	case errors.Is(err, ErrMalformedResponse):
		metrics.RecordAdvisory("malformed")
		return nil, err
	default:
		metrics.RecordAdvisory("error")
		return nil, err
	}
}

type wireRequest struct {
	MerchantID string             `json:"merchant_id"`
	Cart       []core.CartLine    `json:"cart"`
	Candidates []core.CatalogItem `json:"candidates"`
}

type wireResponse struct {
	Suggestions *[]core.Suggestion `json:"suggestions"`
}

func (c *Client) call(ctx context.Context, req *core.AdvisoryRequest) ([]core.Suggestion, error) {
	body, err := json.Marshal(toWire(req))
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleAdvisory, core.ErrorCodeInternalError, "advisory: marshal request", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleAdvisory, core.ErrorCodeInternalError, "advisory: create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, core.WrapDomainError(core.ModuleAdvisory, core.ErrorCodeTimeout, "advisory: request timeout", err)
		}
		return nil, core.WrapDomainError(core.ModuleAdvisory, core.ErrorCodeUnavailable, "advisory: request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleAdvisory, core.ErrorCodeUnavailable, "advisory: read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.NewDomainError(core.ModuleAdvisory, core.ErrorCodeUnavailable,
			fmt.Sprintf("advisory: status=%d, body=%s", resp.StatusCode, truncate(string(data), 256)))
	}

	var result wireResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}
	if result.Suggestions == nil {
		return nil, fmt.Errorf("%w: missing suggestions", ErrMalformedResponse)
	}
	return *result.Suggestions, nil
}

// toWire 复制请求并去掉无法编码的价格（NaN/Inf/负数）。
func toWire(req *core.AdvisoryRequest) wireRequest {
	w := wireRequest{
		MerchantID: req.MerchantID,
		Cart:       make([]core.CartLine, 0, len(req.Cart)),
		Candidates: make([]core.CatalogItem, 0, len(req.Candidates)),
	}
	for _, l := range req.Cart {
		l.Item = sanitizePrice(l.Item)
		w.Cart = append(w.Cart, l)
	}
	for _, it := range req.Candidates {
		w.Candidates = append(w.Candidates, sanitizePrice(it))
	}
	return w
}

func sanitizePrice(it core.CatalogItem) core.CatalogItem {
	if _, ok := it.PriceValue(); !ok {
		it.Price = nil
	}
	return it
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ core.AdvisoryService = (*Client)(nil)
