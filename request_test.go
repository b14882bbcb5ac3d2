package s3

import (
	"strings"
	"testing"
	"time"
)

// S4: Range header composition for open-ended vs. bounded ranges.
func TestRangeHeaderComposition(t *testing.T) {
	cases := []struct {
		name string
		cmd  GetObjectRangeCommand
		want string
	}{
		{"open-ended", GetObjectRangeCommand{Start: 0, End: nil}, "bytes=0-"},
		{"bounded", GetObjectRangeCommand{Start: 0, End: int64Ptr(1)}, "bytes=0-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cmd.RangeHeader(); got != tc.want {
				t.Errorf("RangeHeader() = %q, want %q", got, tc.want)
			}
		})
	}
}

func int64Ptr(n int64) *int64 { return &n }

func TestBuildRequestSignsAuthorizationHeader(t *testing.T) {
	b := NewBucket("my-bucket", ParseRegion("us-east-1"), Credentials{AccessKey: "ak", SecretKey: "sk"})
	dt := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	req, err := buildRequest(b, "key.txt", GetObjectCommand{}, dt)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if req.Verb != "GET" {
		t.Errorf("Verb = %q, want GET", req.Verb)
	}
	if !strings.Contains(req.URL, "my-bucket.s3.amazonaws.com/key.txt") {
		t.Errorf("URL = %q, missing expected host/path", req.URL)
	}
	auth := req.Headers.Get("Authorization")
	if !strings.HasPrefix(auth, signingAlgorithm+" Credential=ak/") {
		t.Errorf("Authorization header = %q, missing expected prefix", auth)
	}
}

func TestBuildRequestAnonymousSkipsAuthorization(t *testing.T) {
	b := NewBucket("my-bucket", ParseRegion("us-east-1"), Credentials{})
	req, err := buildRequest(b, "key.txt", GetObjectCommand{}, time.Now())
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if req.Headers.Get("Authorization") != "" {
		t.Errorf("anonymous request should carry no Authorization header")
	}
}

// Path-style addressing must sign the same path it puts on the wire:
// the bucket name appears exactly once in both the URL and the
// canonical URI, never duplicated.
func TestBuildRequestPathStyleCanonicalURIMatchesWirePath(t *testing.T) {
	b := NewBucket("my-bucket", ParseRegion("us-east-1"), Credentials{AccessKey: "ak", SecretKey: "sk"}).WithPathStyle(true)
	dt := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	req, err := buildRequest(b, "key.txt", GetObjectCommand{}, dt)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if !strings.HasSuffix(req.URL, "/my-bucket/key.txt") {
		t.Fatalf("URL = %q, want path-style /my-bucket/key.txt suffix", req.URL)
	}
	if strings.Contains(req.URL, "/my-bucket/my-bucket/") {
		t.Fatalf("URL = %q, bucket name duplicated in path", req.URL)
	}

	wantSig := expectedSignature(t, "GET", "s3.amazonaws.com", "/my-bucket/key.txt", nil, "sk", dt)
	assertAuthorizationSignature(t, req.Headers.Get("Authorization"), wantSig)
}

// A key with a space or other reserved character must be percent-
// encoded exactly once in the canonical URI, matching the single
// encoding applied to the path actually sent on the wire.
func TestBuildRequestSpecialCharKeySignsAgainstSingleEncodedPath(t *testing.T) {
	b := NewBucket("examplebucket", ParseRegion("us-east-1"), Credentials{AccessKey: "ak", SecretKey: "sk"})
	dt := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	req, err := buildRequest(b, "my photos/beach.jpg", GetObjectCommand{}, dt)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	const wantPath = "/my%20photos/beach.jpg"
	if !strings.Contains(req.URL, wantPath) {
		t.Fatalf("URL = %q, want single-encoded path %q", req.URL, wantPath)
	}
	if strings.Contains(req.URL, "%2520") {
		t.Fatalf("URL = %q, path double-encoded", req.URL)
	}

	wantSig := expectedSignature(t, "GET", "examplebucket.s3.amazonaws.com", "/my photos/beach.jpg", nil, "sk", dt)
	assertAuthorizationSignature(t, req.Headers.Get("Authorization"), wantSig)
}

// expectedSignature recomputes the SigV4 signature directly from a raw
// (un-encoded) canonical URI, letting canonicalRequest (signer.go)
// apply uriEncode exactly once — independent of request.go/
// pathAndQuery, so it can catch regressions in either.
func expectedSignature(t *testing.T, verb, host, canonicalURI string, query map[string]string, secretKey string, dt time.Time) string {
	t.Helper()
	if query == nil {
		query = map[string]string{}
	}
	req := signableRequest{
		Verb:         verb,
		Host:         host,
		CanonicalURI: canonicalURI,
		Query:        query,
		Headers: map[string]string{
			"host":                 host,
			"x-amz-content-sha256": EmptyPayloadSHA256,
			"x-amz-date":           dt.UTC().Format(longDateFormat),
		},
		BodySHA256: EmptyPayloadSHA256,
	}
	auth := signAuthorizationHeader(req, Credentials{AccessKey: "ak", SecretKey: secretKey}, "us-east-1", dt)
	return auth[strings.LastIndex(auth, "Signature=")+len("Signature="):]
}

func assertAuthorizationSignature(t *testing.T, auth, wantSig string) {
	t.Helper()
	if !strings.HasSuffix(auth, "Signature="+wantSig) {
		t.Errorf("Authorization = %q, want signature %q", auth, wantSig)
	}
}

func TestPresignedURLIncludesExpectedQueryParams(t *testing.T) {
	b := NewBucket("my-bucket", ParseRegion("us-east-1"), Credentials{AccessKey: "ak", SecretKey: "sk"})
	dt := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	url, err := buildPresignedURL(b, "key.txt", PresignGetCommand{ExpirySecs: 3600}, dt)
	if err != nil {
		t.Fatalf("buildPresignedURL: %v", err)
	}
	for _, want := range []string{"X-Amz-Algorithm=" + signingAlgorithm, "X-Amz-Credential=ak", "X-Amz-Expires=3600", "X-Amz-Signature="} {
		if !strings.Contains(url, want) {
			t.Errorf("presigned URL %q missing %q", url, want)
		}
	}
}
