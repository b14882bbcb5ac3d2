package s3

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"
)

// Response is the buffered result of a non-streaming request: status,
// headers, and a fully-read body (spec.md §4.F outcome (a)).
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Transport is the minimal contract spec.md §4.F requires: submit a
// prepared, already-signed request and come back with status+headers+
// body, or stream the body to a sink, or just the status for HEAD.
// The core depends on nothing beyond this interface; any HTTP client
// capable of sending bytes and streaming a response satisfies it. A
// Transport makes exactly one attempt per call — retrying with a
// freshly-signed request is the caller's job (bucket.go's do), because
// only the caller can rebuild the Authorization header.
type Transport interface {
	// RoundTrip executes req and returns the fully buffered response.
	RoundTrip(ctx context.Context, req *PreparedRequest) (*Response, error)
	// Stream executes req and copies the response body into sink as it
	// arrives, returning the status code once the copy finishes.
	Stream(ctx context.Context, req *PreparedRequest, sink io.Writer) (int, error)
}

// HTTPTransport is the default Transport, backed by net/http.
type HTTPTransport struct {
	Client *http.Client

	// RequestTimeout, if non-zero, is applied per attempt via
	// context.WithTimeout when the caller's context carries no deadline.
	RequestTimeout time.Duration
}

// NewHTTPTransport builds a Transport with TLS verification enabled
// and a 60s default timeout.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		Client:         &http.Client{},
		RequestTimeout: DefaultRequestTimeout,
	}
}

// WithInsecureSkipVerify toggles the bucket-level "accept invalid
// certs/hostnames" knob spec.md §4.F describes the transport honouring.
func (t *HTTPTransport) WithInsecureSkipVerify(skip bool) *HTTPTransport {
	transport, ok := t.Client.Transport.(*http.Transport)
	if !ok || transport == nil {
		transport = &http.Transport{}
	}
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	}
	transport.TLSClientConfig.InsecureSkipVerify = skip
	t.Client.Transport = transport
	return t
}

func (t *HTTPTransport) do(ctx context.Context, req *PreparedRequest) (*http.Response, error) {
	if t.RequestTimeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.RequestTimeout)
			defer cancel()
		}
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Verb, req.URL, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header = req.Headers.Clone()

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(httpReq)
}

// RoundTrip sends req once and returns the fully-buffered response,
// whatever its status code (retry decisions live in bucket.go).
func (t *HTTPTransport) RoundTrip(ctx context.Context, req *PreparedRequest) (*Response, error) {
	httpResp, err := t.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: httpResp.StatusCode, Headers: httpResp.Header, Body: body}, nil
}

// Stream sends req and copies the body into sink, returning the status
// once the copy completes. Streaming responses are never retried: a
// partially-written sink cannot be safely rewound.
func (t *HTTPTransport) Stream(ctx context.Context, req *PreparedRequest, sink io.Writer) (int, error) {
	httpResp, err := t.do(ctx, req)
	if err != nil {
		return 0, err
	}
	defer httpResp.Body.Close()

	if _, err := io.Copy(sink, httpResp.Body); err != nil {
		return 0, err
	}
	return httpResp.StatusCode, nil
}

func isRetryableStatus(status int) bool {
	return status == 429 || status >= 500
}
