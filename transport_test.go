package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPTransportRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got == "" {
			t.Errorf("expected an Authorization header on the server side")
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(200)
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	transport := NewHTTPTransport()
	req := &PreparedRequest{Verb: "GET", URL: server.URL, Headers: http.Header{"Authorization": []string{"AWS4-HMAC-SHA256 x"}}}

	resp, err := transport.RoundTrip(context.Background(), req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != "hello" {
		t.Errorf("Body = %q, want hello", resp.Body)
	}
}

func TestHTTPTransportStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = io.Copy(w, strings.NewReader("streamed-body"))
	}))
	defer server.Close()

	transport := NewHTTPTransport()
	req := &PreparedRequest{Verb: "GET", URL: server.URL, Headers: http.Header{}}

	var sink strings.Builder
	status, err := transport.Stream(context.Background(), req, &sink)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if status != 200 {
		t.Errorf("status = %d, want 200", status)
	}
	if sink.String() != "streamed-body" {
		t.Errorf("sink = %q, want streamed-body", sink.String())
	}
}

func TestIsRetryableStatus(t *testing.T) {
	cases := map[int]bool{200: false, 404: false, 429: true, 500: true, 503: true}
	for status, want := range cases {
		if got := isRetryableStatus(status); got != want {
			t.Errorf("isRetryableStatus(%d) = %v, want %v", status, got, want)
		}
	}
}
