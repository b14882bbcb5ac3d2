package s3

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"testing"
)

// recordingTransport logs every PreparedRequest it sees (by query
// string fragment) and returns a canned response keyed on the
// operation, so tests can assert exact call sequences without a real
// network.
type recordingTransport struct {
	calls []string
}

func (rt *recordingTransport) RoundTrip(_ context.Context, req *PreparedRequest) (*Response, error) {
	switch {
	case req.Verb == "POST" && bytes.Contains([]byte(req.URL), []byte("uploads")):
		rt.calls = append(rt.calls, "initiate")
		body, _ := xml.Marshal(InitiateMultipartUploadResult{UploadID: "upload-1"})
		return &Response{StatusCode: 200, Headers: http.Header{}, Body: body}, nil
	case req.Verb == "DELETE" && bytes.Contains([]byte(req.URL), []byte("uploadId")):
		rt.calls = append(rt.calls, "abort")
		return &Response{StatusCode: 204, Headers: http.Header{}}, nil
	case req.Verb == "PUT" && bytes.Contains([]byte(req.URL), []byte("uploadId")):
		rt.calls = append(rt.calls, "uploadpart")
		h := http.Header{}
		h.Set("ETag", `"part-etag"`)
		return &Response{StatusCode: 200, Headers: h}, nil
	case req.Verb == "POST" && bytes.Contains([]byte(req.URL), []byte("uploadId")):
		rt.calls = append(rt.calls, "complete")
		return &Response{StatusCode: 200, Headers: http.Header{}}, nil
	case req.Verb == "PUT":
		rt.calls = append(rt.calls, "putobject")
		return &Response{StatusCode: 200, Headers: http.Header{}}, nil
	default:
		return &Response{StatusCode: 200, Headers: http.Header{}}, nil
	}
}

func (rt *recordingTransport) Stream(context.Context, *PreparedRequest, io.Writer) (int, error) {
	return 200, nil
}

// S5: a reader smaller than one chunk triggers exactly one Initiate,
// one Abort, and one PutObject — no UploadPart, no Complete.
func TestMultipartSmallFileBypass(t *testing.T) {
	transport := &recordingTransport{}
	b := NewBucket("bucket", ParseRegion("us-east-1"), Credentials{AccessKey: "ak", SecretKey: "sk"}).
		WithTransport(transport)
	b.Retry = RetryPolicy{}

	reader := bytes.NewReader(make([]byte, 1000))
	status, err := b.PutObjectStream(context.Background(), "key.bin", reader)
	if err != nil {
		t.Fatalf("PutObjectStream: %v", err)
	}
	if status != 200 {
		t.Errorf("status = %d, want 200", status)
	}

	want := []string{"initiate", "abort", "putobject"}
	if !equalStrings(transport.calls, want) {
		t.Errorf("calls = %v, want %v", transport.calls, want)
	}
	if len(b.IncompleteUploads()) != 0 {
		t.Errorf("aborted session should not remain listed as incomplete")
	}
}

func TestMultipartFullChunkFlow(t *testing.T) {
	transport := &recordingTransport{}
	b := NewBucket("bucket", ParseRegion("us-east-1"), Credentials{AccessKey: "ak", SecretKey: "sk"}).
		WithTransport(transport)
	b.Retry = RetryPolicy{}

	reader := bytes.NewReader(make([]byte, ChunkSize+100))
	status, err := b.PutObjectStream(context.Background(), "key.bin", reader)
	if err != nil {
		t.Fatalf("PutObjectStream: %v", err)
	}
	if status != 200 {
		t.Errorf("status = %d, want 200", status)
	}

	want := []string{"initiate", "uploadpart", "uploadpart", "complete"}
	if !equalStrings(transport.calls, want) {
		t.Errorf("calls = %v, want %v", transport.calls, want)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
