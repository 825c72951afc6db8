package runrun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"runrun-importer/runrun/domain"
	"runrun-importer/runrun/infra"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL     = "https://runrun.it/api/v1.0"
	DefaultMaxAttempts = 8

	// resetBuffer compensa arredondamento no limite do reset.
	resetBuffer  = 250 * time.Millisecond
	maxErrorBody = 1000
)

// emptySuccess é devolvido quando um 2xx vem sem corpo.
var emptySuccess = json.RawMessage(`{"ok":true}`)

type Options struct {
	BaseURL   string
	AppKey    string
	UserToken string

	// Limiter é consultado antes de cada tentativa. nil desliga o throttle.
	Limiter     domain.Limiter
	HTTPClient  *http.Client
	MaxAttempts int

	Stats  domain.StatsStore
	RunID  string
	Logger *slog.Logger

	// Now é o relógio de parede usado contra o instante de reset (UTC).
	Now func() time.Time
	// Sleep é a espera do backoff em 429.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client executa requisições à API respeitando o rate limit.
//
// Não é genérico: conhece só os endpoints usados pelo importador.
type Client struct {
	opts   Options
	tracer trace.Tracer
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = infra.SleepContext
	}
	return &Client{opts: opts, tracer: otel.Tracer("runrun-importer/runrun")}
}

// Do executa uma requisição lógica, com até MaxAttempts tentativas.
//
// Só 429 gera nova tentativa. Cabeçalho de reset ausente/ilegível aborta com
// *domain.ValidationError; outros status não-2xx abortam com *domain.APIError.
func (c *Client) Do(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error) {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload for %s %s: %w", method, endpoint, err)
		}
		body = b
	}
	url := c.opts.BaseURL + "/" + strings.TrimLeft(endpoint, "/")
	route := RouteOf(endpoint)

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if c.opts.Limiter != nil {
			if err := c.opts.Limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter wait: %w", err)
			}
		}

		status, header, data, err := c.send(ctx, method, url, route, body, attempt)
		if err != nil {
			c.record(ctx, method, route, 0, domain.OutcomeError)
			return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
		}

		switch {
		case status >= 200 && status < 300:
			c.record(ctx, method, route, status, domain.OutcomeOK)
			if len(bytes.TrimSpace(data)) == 0 {
				return emptySuccess, nil
			}
			return json.RawMessage(data), nil

		case status == http.StatusTooManyRequests:
			c.record(ctx, method, route, status, domain.OutcomeRateLimited)
			reset, err := resetTimeFromHeader(header)
			if err != nil {
				return nil, err
			}
			wait := reset.Sub(c.opts.Now().UTC())
			if wait < 0 {
				wait = 0
			}
			wait += resetBuffer
			if attempt == c.opts.MaxAttempts {
				break
			}
			c.opts.Logger.Warn("rate limited by server, waiting for reset",
				"method", method, "endpoint", endpoint, "attempt", attempt,
				"reset", reset.Format(time.RFC3339), "wait", wait)
			if err := c.opts.Sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("rate limit backoff: %w", err)
			}

		default:
			c.record(ctx, method, route, status, domain.OutcomeError)
			return nil, &domain.APIError{
				Status:   status,
				Method:   method,
				Endpoint: endpoint,
				Body:     truncate(string(data), maxErrorBody),
			}
		}
	}

	return nil, fmt.Errorf("%w: %s %s still 429 after %d attempts",
		domain.ErrRateLimitExhausted, method, endpoint, c.opts.MaxAttempts)
}

func (c *Client) send(ctx context.Context, method, url, route string, body []byte, attempt int) (int, http.Header, []byte, error) {
	ctx, span := c.tracer.Start(ctx, method+" "+route, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("runrun.endpoint", route),
		attribute.Int("runrun.attempt", attempt),
	))
	defer span.End()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, nil, nil, err
	}
	req.Header.Set("App-Key", c.opts.AppKey)
	req.Header.Set("User-Token", c.opts.UserToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, nil, nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
	}
	return resp.StatusCode, resp.Header, data, nil
}

func (c *Client) record(ctx context.Context, method, route string, status int, outcome string) {
	if c.opts.Stats == nil {
		return
	}
	err := c.opts.Stats.Record(ctx, domain.StatsEvent{
		RunID:    c.opts.RunID,
		Kind:     domain.StatsRequest,
		Outcome:  outcome,
		Method:   method,
		Endpoint: route,
		Status:   status,
		At:       time.Now(),
	})
	if err != nil {
		c.opts.Logger.Warn("stats record failed", "error", err)
	}
}

// RouteOf reduz o endpoint ao template (sem query e sem ids), para métricas
// e nomes de span: "boards/42/fields?category=custom" -> "boards/:id/fields".
func RouteOf(endpoint string) string {
	path, _, _ := strings.Cut(strings.TrimLeft(endpoint, "/"), "?")
	parts := strings.Split(path, "/")
	for i := range parts {
		if i%2 == 1 {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
