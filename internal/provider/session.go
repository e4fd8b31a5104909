package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/geoagent/geoagent/internal/provider/resilience"
)

// DefaultUserAgent identifies outbound requests when none is configured.
const DefaultUserAgent = "geoagent/1.0"

// maxBodySize caps how much of an upstream response is read.
const maxBodySize = 10 << 20

// ErrSessionClosed is returned by calls made after Session.Close.
var ErrSessionClosed = errors.New("session closed")

// SessionConfig configures a Session.
type SessionConfig struct {
	// Name identifies the upstream in errors, logs and the health registry.
	Name string

	// UserAgent is sent on every request. Defaults to DefaultUserAgent.
	UserAgent string

	// Timeout bounds each HTTP call. Defaults to 30s.
	Timeout time.Duration

	// MaxRetries enables automatic retries of network errors and 5xx. Default 0.
	MaxRetries uint64

	// Registry collects health for every session of the process (optional).
	Registry *resilience.Registry

	// Transport overrides the round tripper, mainly for tests.
	Transport http.RoundTripper

	// Traced records an OpenTelemetry client span per upstream call.
	Traced bool

	Logger zerolog.Logger
}

// Session is the HTTP resource owned by one wrapper. It must be closed when the
// wrapper is no longer needed.
type Session struct {
	name      string
	userAgent string
	client    *resilience.Client
	logger    zerolog.Logger
	closed    atomic.Bool
}

// NewSession creates a session with its own circuit breaker.
func NewSession(cfg SessionConfig) *Session {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	logger := cfg.Logger.With().Str("provider", cfg.Name).Logger()

	cbConfig := resilience.DefaultCircuitBreakerConfig(cfg.Name)
	cbConfig.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn().
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state changed")
	}

	clientCfg := resilience.DefaultClientConfig(cfg.Name)
	clientCfg.CircuitBreaker = &cbConfig
	clientCfg.MaxRetries = cfg.MaxRetries
	clientCfg.Registry = cfg.Registry
	clientCfg.Transport = cfg.Transport
	clientCfg.Traced = cfg.Traced
	if cfg.Timeout > 0 {
		clientCfg.Timeout = cfg.Timeout
	}

	return &Session{
		name:      cfg.Name,
		userAgent: cfg.UserAgent,
		client:    resilience.NewClient(clientCfg),
		logger:    logger,
	}
}

// Name returns the upstream name.
func (s *Session) Name() string {
	return s.name
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Close releases pooled connections. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.client.CloseIdleConnections()
	s.logger.Debug().Msg("session closed")
	return nil
}

// Do sends req through the circuit breaker. Network failures and timeouts come back
// as transient errors; a response of any status is returned as is.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("%s: %w", s.name, ErrSessionClosed)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err == nil {
		return resp, nil
	}

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return nil, CircuitOpenError(s.name)
	case errors.Is(err, context.Canceled):
		return nil, err
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return nil, &Error{
			Provider: s.name,
			Code:     "TIMEOUT",
			Message:  "request timed out",
			Guidance: GuidanceTimeout,
			Err:      fmt.Errorf("%w: %w", ErrTransient, err),
		}
	default:
		return nil, TransientError(s.name, err)
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// GetJSON performs a GET and decodes a 2xx JSON body into out.
func GetJSON(ctx context.Context, s *Session, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return doJSON(s, req, header, out)
}

// PostJSON encodes body as JSON, POSTs it and decodes a 2xx JSON response into out.
func PostJSON(ctx context.Context, s *Session, url string, header http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(s, req, header, out)
}

func doJSON(s *Session, req *http.Request, header http.Header, out any) error {
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.Do(req)
	if err != nil {
		s.logger.Debug().Err(err).Str("path", req.URL.Path).Msg("request failed")
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return TransientError(s.name, fmt.Errorf("reading response: %w", err))
	}

	s.logger.Debug().
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("upstream response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return APIError(s.name, resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{
			Provider: s.name,
			Code:     "INVALID_RESPONSE",
			Message:  fmt.Sprintf("malformed response: %v", err),
			Guidance: GuidanceDataError,
			Err:      ErrValidation,
		}
	}
	return nil
}
