package executor

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/studiowebux/jobbench/internal/types"
)

const (
	TCPKeepAliveInterval  = 30 * time.Second
	IdleConnTimeout       = 90 * time.Second
	ExpectContinueTimeout = 1 * time.Second
	DefaultTimeout        = 10 * time.Second
)

// Response is what the transport hands back for one request
type Response struct {
	StatusCode int
	Elapsed    time.Duration
	Body       []byte
}

// Transport sends a materialized request. Implementations must be safe for
// concurrent use by every worker.
type Transport interface {
	Do(ctx context.Context, req *types.Request) (*Response, error)
}

// Options configures the shared HTTP client
type Options struct {
	Timeout             time.Duration // connect and whole-request timeout
	MaxIdleConnsPerHost int
	InsecureSkipVerify  bool
	CAFile              string
}

// HTTPTransport is the net/http backed Transport
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport builds a transport with one pooled client shared by all
// workers
func NewHTTPTransport(opts Options) (*HTTPTransport, error) {
	client, err := buildHTTPClient(opts)
	if err != nil {
		return nil, err
	}
	return &HTTPTransport{client: client}, nil
}

// Client exposes the underlying client, mainly for tests
func (t *HTTPTransport) Client() *http.Client {
	return t.client
}

// Do sends req and reads the whole response body. Network failures and
// timeouts are returned as errors; any HTTP status is a valid response.
func (t *HTTPTransport) Do(ctx context.Context, req *types.Request) (*Response, error) {
	httpReq, err := NewHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send %s %s: %w", httpReq.Method, req.URL, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	elapsed := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Elapsed:    elapsed,
		Body:       bodyBytes,
	}, nil
}

// NewHTTPRequest converts a materialized request to an *http.Request with a
// JSON-encoded body
func NewHTTPRequest(ctx context.Context, req *types.Request) (*http.Request, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method.HTTP(), req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if bodyReader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	return httpReq, nil
}

// buildHTTPClient creates a pooled client with timeouts and optional TLS
// settings
func buildHTTPClient(opts Options) (*http.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	idle := opts.MaxIdleConnsPerHost
	if idle <= 0 {
		idle = 1
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        idle,
		MaxIdleConnsPerHost: idle,
		IdleConnTimeout:     IdleConnTimeout,
		ForceAttemptHTTP2:   true,

		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: TCPKeepAliveInterval,
		}).DialContext,

		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: ExpectContinueTimeout,
	}

	if opts.InsecureSkipVerify || opts.CAFile != "" {
		tlsCfg := &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify,
		}

		if opts.CAFile != "" {
			caCert, err := os.ReadFile(opts.CAFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read CA certificate: %w", err)
			}
			caCertPool := x509.NewCertPool()
			if !caCertPool.AppendCertsFromPEM(caCert) {
				return nil, fmt.Errorf("failed to parse CA certificate")
			}
			tlsCfg.RootCAs = caCertPool
		}

		transport.TLSClientConfig = tlsCfg
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}

// FormatDuration formats a duration as milliseconds below one second and
// seconds above
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
