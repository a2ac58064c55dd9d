// Package authclient talks to the auth service on behalf of the storefront.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abgdnv/shophub/pkg/config"
	"github.com/abgdnv/shophub/pkg/web"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrUnavailable is returned when the auth service cannot be reached or answers with something unreadable.
var ErrUnavailable = errors.New("auth service unavailable")

// APIError is a non-2xx answer of the auth service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth service responded %d: %s", e.Status, e.Message)
}

// User is the identity returned by the auth service.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse is the body of a successful login or registration.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Client calls the auth API. Requests are never retried.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*AuthResponse]
	logger  *slog.Logger
}

// New creates a client with an instrumented transport and a circuit breaker in front of it.
func New(cfg config.HTTPClientConfig, cbCfg config.CircuitBreakerConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: newCircuitBreaker(cbCfg),
		logger:  logger.With("component", "authclient"),
	}
}

func newCircuitBreaker(cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[*AuthResponse] {
	st := gobreaker.Settings{
		Name:        "auth-service-cb",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			if cfg.ErrorRatePercent <= 0 || counts.Requests <= cfg.ConsecutiveFailures {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests)*100 > float64(cfg.ErrorRatePercent)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Rejected credentials or input are answers, not outages.
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError
		},
	}
	return gobreaker.NewCircuitBreaker[*AuthResponse](st)
}

// Login exchanges credentials for a token and the user's identity.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.post(ctx, "/api/auth/login", loginRequest{Email: email, Password: password})
}

// Register creates an account and returns its token and identity.
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	return c.post(ctx, "/api/auth/register", registerRequest{Name: name, Email: email, Password: password})
}

func (c *Client) post(ctx context.Context, path string, payload any) (*AuthResponse, error) {
	resp, err := c.breaker.Execute(func() (*AuthResponse, error) {
		return c.do(ctx, path, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.WarnContext(ctx, "circuit breaker rejected request", "path", path, "state", c.breaker.State().String())
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, path string, payload any) (*AuthResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "auth request failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var errBody web.ErrorResponse
		if err := json.Unmarshal(data, &errBody); err != nil || errBody.Message == "" {
			errBody.Message = http.StatusText(res.StatusCode)
		}
		c.logger.DebugContext(ctx, "auth request rejected", "path", path, "status", res.StatusCode, "message", errBody.Message)
		return nil, &APIError{Status: res.StatusCode, Message: errBody.Message}
	}

	var out AuthResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: response has no token", ErrUnavailable)
	}
	return &out, nil
}
