package myfatoorah

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	ConnectTimeout = 10 * time.Second
	RequestTimeout = 10 * time.Second

	// maxResponseSize caps how much of a gateway reply we buffer (1MB).
	maxResponseSize = 1 << 20
)

// Transport delivers one SOAP payload and returns the raw reply body.
type Transport interface {
	Post(ctx context.Context, url, username, password string, payload []byte) ([]byte, error)
}

// HTTPTransport is the production Transport: HTTPS POST with basic auth.
type HTTPTransport struct {
	client      *http.Client
	contentType string
}

type HTTPTransportConfig struct {
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	Charset        Charset

	// InsecureSkipVerify disables certificate checks. Sandbox use only.
	InsecureSkipVerify bool
}

// NewHTTPTransport builds the transport for cfg with the fixed 10 second
// connect and overall timeouts.
func NewHTTPTransport(cfg GatewayConfig) *HTTPTransport {
	return NewHTTPTransportWithConfig(HTTPTransportConfig{
		ConnectTimeout:     ConnectTimeout,
		RequestTimeout:     RequestTimeout,
		Charset:            cfg.charset(),
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
}

func NewHTTPTransportWithConfig(config HTTPTransportConfig) *HTTPTransport {
	connectTimeout := config.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = ConnectTimeout
	}

	requestTimeout := config.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = RequestTimeout
	}

	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: connectTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: config.InsecureSkipVerify, //nolint:gosec // explicit sandbox opt-out
		},
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}

	return &HTTPTransport{
		client: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
		},
		contentType: contentType(config.Charset),
	}
}

// NewHTTPTransportWithClient wraps an existing client, e.g. one returned by
// httptest.Server.Client(). charset must match the envelopes being posted;
// empty means UTF-8.
func NewHTTPTransportWithClient(client *http.Client, charset Charset) *HTTPTransport {
	return &HTTPTransport{
		client:      client,
		contentType: contentType(charset),
	}
}

func contentType(charset Charset) string {
	if charset == "" {
		charset = CharsetUTF8
	}
	return fmt.Sprintf("text/xml; charset=%s", charset)
}

func (t *HTTPTransport) Post(ctx context.Context, url, username, password string, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{URL: url, Cause: fmt.Errorf("failed to create HTTP request: %w", err)}
	}

	httpReq.Header.Set("Content-Type", t.contentType)
	httpReq.SetBasicAuth(username, password)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{URL: url, Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("gateway returned status %d", resp.StatusCode),
		}
	}

	return body, nil
}
