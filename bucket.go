package s3

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Bucket binds a name to a region, credentials, and the addressing/
// header/query rules every request against it shares (spec.md §3
// "Bucket (the binding context)"). It is immutable during a request;
// outside the exported fields, it changes only through the With*
// builder methods and the three mutators SetCredentials, AddHeader and
// AddQuery, matching the teacher's functional-option discipline in
// uploader.go.
type Bucket struct {
	Name        string
	Region      Region
	Credentials Credentials

	PathStyle      bool
	RequestTimeout time.Duration

	extraHeaders map[string]string
	extraQuery   map[string]string

	// FailOnErr converts any >=400 response into an error instead of
	// returning it as a normal (body, status) pair. Go has no Cargo
	// feature flags, so this replaces rust-s3's "fail-on-err" feature
	// with a per-Bucket option (see SPEC_FULL.md §4).
	FailOnErr bool

	// Retry controls the exponential-backoff retry loop around each
	// request. NewBucket sets DefaultRetryPolicy; the zero RetryPolicy
	// disables retries.
	Retry RetryPolicy

	// Sessions tracks multipart uploads in flight, so a crashed process
	// can list and reconcile what it left incomplete (spec.md §9
	// ErrMultipartIncomplete).
	Sessions *MultipartSessionStore

	transport Transport
	logger    Logger
	now       func() time.Time
}

// NewBucket constructs a Bucket bound to region and credentials, with
// virtual-host addressing and the package's default transport.
func NewBucket(name string, region Region, creds Credentials) *Bucket {
	return &Bucket{
		Name:        name,
		Region:      region,
		Credentials: creds,
		Retry:       DefaultRetryPolicy,
		Sessions:    NewMultipartSessionStore(DefaultMultipartSessionTTL),
		transport:   NewHTTPTransport(),
		logger:      &nopLogger{},
		now:         time.Now,
	}
}

// IncompleteUploads lists multipart sessions this Bucket has initiated
// but not yet completed or aborted — e.g. after a crash mid-stream.
func (b *Bucket) IncompleteUploads() []*MultipartSession {
	if b.Sessions == nil {
		return nil
	}
	return b.Sessions.Incomplete()
}

// WithRetryPolicy overrides the retry/backoff policy applied to every
// request made through this bucket.
func (b *Bucket) WithRetryPolicy(p RetryPolicy) *Bucket {
	b.Retry = p
	return b
}

// WithPathStyle switches addressing to {host}/{name} instead of the
// default {name}.{host}.
func (b *Bucket) WithPathStyle(pathStyle bool) *Bucket {
	b.PathStyle = pathStyle
	return b
}

// WithTransport overrides the Transport used to execute requests,
// e.g. to inject a test double or a client with custom TLS settings.
func (b *Bucket) WithTransport(t Transport) *Bucket {
	b.transport = t
	return b
}

// WithLogger attaches a Logger; the zero value keeps logging silent.
func (b *Bucket) WithLogger(l Logger) *Bucket {
	if l != nil {
		b.logger = l
	}
	return b
}

// WithRequestTimeout sets the per-request timeout applied by the
// default transport (spec.md §5 "Timeouts").
func (b *Bucket) WithRequestTimeout(d time.Duration) *Bucket {
	b.RequestTimeout = d
	return b
}

// WithFailOnErr toggles the fail-on-err behaviour described above.
func (b *Bucket) WithFailOnErr(fail bool) *Bucket {
	b.FailOnErr = fail
	return b
}

// SetCredentials replaces the bucket's credentials (e.g. after a
// refresh). It is the only sanctioned mutator for credentials.
func (b *Bucket) SetCredentials(creds Credentials) {
	b.Credentials = creds
}

// AddHeader merges an extra header sent (and signed) on every request.
func (b *Bucket) AddHeader(name, value string) {
	if b.extraHeaders == nil {
		b.extraHeaders = make(map[string]string)
	}
	b.extraHeaders[name] = value
}

// AddQuery adds an extra query parameter to every URL (spec.md §4.E
// "Query pairs"). An operation-specific pair with the same key wins,
// and the order of pairs in the URL is not fixed.
func (b *Bucket) AddQuery(key, value string) {
	if b.extraQuery == nil {
		b.extraQuery = make(map[string]string)
	}
	b.extraQuery[key] = value
}

// Clone returns a shallow copy safe to hand to another goroutine; per
// spec.md §5 a Bucket is meant to be cheap to share across concurrent
// calls, but extraHeaders/extraQuery are defensively copied so a
// caller's later AddHeader/AddQuery doesn't race with concurrent
// readers of the original.
func (b *Bucket) Clone() *Bucket {
	out := *b
	out.extraHeaders = copyStringMap(b.extraHeaders)
	out.extraQuery = copyStringMap(b.extraQuery)
	return &out
}

func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (b *Bucket) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}

func (b *Bucket) transportOrDefault() Transport {
	t := b.transport
	if t == nil {
		t = NewHTTPTransport()
	}
	if ht, ok := t.(*HTTPTransport); ok && b.RequestTimeout > 0 {
		withTimeout := *ht
		withTimeout.RequestTimeout = b.RequestTimeout
		return &withTimeout
	}
	return t
}

func (b *Bucket) log() Logger {
	if b.logger != nil {
		return b.logger
	}
	return &nopLogger{}
}

// do runs Command against path: builds the request, signs it, executes
// it through the transport (retrying with a freshly-signed request per
// spec.md §5), and returns the raw Response. Every façade method below
// is a thin wrapper that builds a Command and calls do, then decodes
// the Response.
func (b *Bucket) do(ctx context.Context, path string, cmd Command) (*Response, error) {
	transport := b.transportOrDefault()

	resp, err := withRetry(ctx, b.retryPolicy(), func() (*Response, error) {
		prepared, err := buildRequest(b, path, cmd, b.clock())
		if err != nil {
			return nil, err
		}
		return transport.RoundTrip(ctx, prepared)
	})
	if err != nil {
		return nil, err
	}

	if b.FailOnErr && resp.StatusCode >= 400 {
		return resp, newHTTPFail(resp.StatusCode, resp.Body)
	}

	return resp, nil
}

func (b *Bucket) retryPolicy() RetryPolicy {
	return b.Retry
}

// --- object operations (spec.md §4.G) --------------------------------

// GetObject fetches the whole object body.
func (b *Bucket) GetObject(ctx context.Context, path string) ([]byte, int, error) {
	resp, err := b.do(ctx, path, GetObjectCommand{})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}

// GetObjectRange fetches Range bytes [start, end] (end inclusive, nil
// meaning "to the end"). end must be > start when set.
func (b *Bucket) GetObjectRange(ctx context.Context, path string, start int64, end *int64) ([]byte, int, error) {
	if end != nil && *end <= start {
		return nil, 0, ErrInvalidRange
	}
	resp, err := b.do(ctx, path, GetObjectRangeCommand{Start: start, End: end})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}

// GetObjectStream streams the body into sink instead of buffering it.
func (b *Bucket) GetObjectStream(ctx context.Context, path string, sink io.Writer) (int, error) {
	prepared, err := buildRequest(b, path, GetObjectCommand{}, b.clock())
	if err != nil {
		return 0, err
	}
	status, err := b.transportOrDefault().Stream(ctx, prepared, sink)
	if err != nil {
		return 0, err
	}
	return status, nil
}

// PutObject uploads content with the default octet-stream content type.
func (b *Bucket) PutObject(ctx context.Context, path string, content []byte) ([]byte, int, error) {
	return b.PutObjectWithContentType(ctx, path, content, "")
}

// PutObjectWithContentType uploads content under the given content type.
func (b *Bucket) PutObjectWithContentType(ctx context.Context, path string, content []byte, contentType string) ([]byte, int, error) {
	resp, err := b.do(ctx, path, PutObjectCommand{Content: content, ContentTypeV: contentType})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}

// PutObjectStream drives the multipart streamer (multipart.go) over
// reader, bypassing multipart entirely for inputs smaller than one
// chunk (spec.md §4.H).
func (b *Bucket) PutObjectStream(ctx context.Context, path string, reader io.Reader) (int, error) {
	return b.PutObjectStreamWithContentTypeAndHeaders(ctx, path, reader, "", nil)
}

// PutObjectStreamWithContentTypeAndHeaders is the full extension point
// spec.md §4.H describes: contentType and headers apply only to the
// InitiateMultipartUpload call and to the single-PutObject fallback.
func (b *Bucket) PutObjectStreamWithContentTypeAndHeaders(ctx context.Context, path string, reader io.Reader, contentType string, headers map[string]string) (int, error) {
	streamer := &multipartStreamer{bucket: b, path: path, contentType: contentType, headers: headers}
	return streamer.run(ctx, reader)
}

// HeadObject parses the response headers into a HeadObjectResult;
// the body is never read (spec.md §4.G).
func (b *Bucket) HeadObject(ctx context.Context, path string) (*HeadObjectResult, int, error) {
	resp, err := b.do(ctx, path, HeadObjectCommand{})
	if err != nil {
		return nil, 0, err
	}
	return decodeHeadObjectResult(resp.Headers), resp.StatusCode, nil
}

// DeleteObject removes path; S3 returns 204 on success.
func (b *Bucket) DeleteObject(ctx context.Context, path string) ([]byte, int, error) {
	resp, err := b.do(ctx, path, DeleteObjectCommand{})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}

// CopyObjectInternal copies fromPath (within the same bucket's
// addressing, i.e. "/{bucket}/{key}") onto toPath.
func (b *Bucket) CopyObjectInternal(ctx context.Context, fromPath, toPath string) ([]byte, int, error) {
	source := fmt.Sprintf("/%s/%s", b.Name, trimLeadingSlash(fromPath))
	resp, err := b.do(ctx, toPath, CopyObjectCommand{From: source})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}

func trimLeadingSlash(s string) string {
	if len(s) > 0 && s[0] == '/' {
		return s[1:]
	}
	return s
}

// --- tagging ------------------------------------------------------------

// Tag is one (key, value) pair of an object's tag set.
type Tag struct {
	Key   string
	Value string
}

// PutObjectTagging writes the object's tag set.
func (b *Bucket) PutObjectTagging(ctx context.Context, path string, tags []Tag) ([]byte, int, error) {
	resp, err := b.do(ctx, path, PutObjectTaggingCommand{XML: encodeTaggingXML(tags)})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}

// GetObjectTagging returns the parsed tag set, or nil unless status==200.
func (b *Bucket) GetObjectTagging(ctx context.Context, path string) (*Tagging, int, error) {
	resp, err := b.do(ctx, path, GetObjectTaggingCommand{})
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != 200 {
		return nil, resp.StatusCode, nil
	}
	tagging, err := decodeTagging(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return tagging, resp.StatusCode, nil
}

// DeleteObjectTagging removes the object's tag set.
func (b *Bucket) DeleteObjectTagging(ctx context.Context, path string) ([]byte, int, error) {
	resp, err := b.do(ctx, path, DeleteObjectTaggingCommand{})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}

// GetObjectTorrent fetches the .torrent descriptor for an object.
func (b *Bucket) GetObjectTorrent(ctx context.Context, path string) ([]byte, int, error) {
	resp, err := b.do(ctx, path, GetObjectTorrentCommand{})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}

// --- listing --------------------------------------------------------------

// ListPage issues a single ListObjectsV2 request.
func (b *Bucket) ListPage(ctx context.Context, prefix, delimiter, continuationToken, startAfter string, maxKeys int) (*ListBucketResult, int, error) {
	cmd := ListObjectsV2Command{
		Prefix:            prefix,
		Delimiter:         delimiter,
		ContinuationToken: continuationToken,
		StartAfter:        startAfter,
		MaxKeys:           maxKeys,
	}
	resp, err := b.do(ctx, "", cmd)
	if err != nil {
		return nil, 0, err
	}
	result, err := decodeListBucketResult(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return result, resp.StatusCode, nil
}

// List drives ListPage to completion, threading NextContinuationToken
// through successive requests until it is empty (spec.md §4.G
// "Pagination protocol").
func (b *Bucket) List(ctx context.Context, prefix, delimiter string) ([]*ListBucketResult, error) {
	var pages []*ListBucketResult
	token := ""
	for {
		page, _, err := b.ListPage(ctx, prefix, delimiter, token, "", 0)
		if err != nil {
			return pages, err
		}
		pages = append(pages, page)
		if page.NextContinuationToken == "" {
			return pages, nil
		}
		token = page.NextContinuationToken
	}
}

// ListMultipartUploadsPage issues a single ListMultipartUploads request.
func (b *Bucket) ListMultipartUploadsPage(ctx context.Context, prefix, delimiter, keyMarker string, maxUploads int) (*ListMultipartUploadsResult, int, error) {
	cmd := ListMultipartUploadsCommand{Prefix: prefix, Delimiter: delimiter, KeyMarker: keyMarker, MaxUploads: maxUploads}
	resp, err := b.do(ctx, "", cmd)
	if err != nil {
		return nil, 0, err
	}
	result, err := decodeListMultipartUploadsResult(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return result, resp.StatusCode, nil
}

// ListMultipartUploads drives ListMultipartUploadsPage to completion.
func (b *Bucket) ListMultipartUploads(ctx context.Context, prefix, delimiter string) ([]*ListMultipartUploadsResult, error) {
	var pages []*ListMultipartUploadsResult
	marker := ""
	for {
		page, _, err := b.ListMultipartUploadsPage(ctx, prefix, delimiter, marker, 0)
		if err != nil {
			return pages, err
		}
		pages = append(pages, page)
		if !page.IsTruncated || page.NextKeyMarker == "" {
			return pages, nil
		}
		marker = page.NextKeyMarker
	}
}

// --- bucket lifecycle -------------------------------------------------

// Location fetches the bucket's region via ?location. A 200 response
// with an unparseable body yields a placeholder Custom region instead
// of an error, per spec.md §4.G.
func (b *Bucket) Location(ctx context.Context) (Region, int, error) {
	resp, err := b.do(ctx, "", GetBucketLocationCommand{})
	if err != nil {
		return Region{}, 0, err
	}
	if resp.StatusCode != 200 {
		return Region{}, resp.StatusCode, nil
	}
	result, err := decodeBucketLocationResult(resp.Body)
	if err != nil {
		return CustomRegion("unknown", "unknown"), resp.StatusCode, nil
	}
	if result.LocationConstraint == "" {
		return ParseRegion("us-east-1"), resp.StatusCode, nil
	}
	return ParseRegion(result.LocationConstraint), resp.StatusCode, nil
}

// CreateBucket creates name in region with creds and config, returning
// a Bucket bound to the new bucket plus the raw response.
func CreateBucket(ctx context.Context, name string, region Region, creds Credentials, config BucketConfiguration) (*Bucket, []byte, int, error) {
	b := NewBucket(name, region, creds)
	resp, err := b.do(ctx, "", CreateBucketCommand{Config: config})
	if err != nil {
		return nil, nil, 0, err
	}
	return b, resp.Body, resp.StatusCode, nil
}

// Delete removes the bucket itself (must be empty).
func (b *Bucket) Delete(ctx context.Context) (int, error) {
	resp, err := b.do(ctx, "", DeleteBucketCommand{})
	if err != nil {
		return 0, err
	}
	return resp.StatusCode, nil
}

// PutBucketCors uploads a CORS configuration document.
func (b *Bucket) PutBucketCors(ctx context.Context, configuration []byte) ([]byte, int, error) {
	resp, err := b.do(ctx, "", PutBucketCorsCommand{Configuration: configuration})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}

// --- multipart primitives (used directly by multipart.go) -------------

func (b *Bucket) initiateMultipartUpload(ctx context.Context, path, contentType string, headers map[string]string) (*InitiateMultipartUploadResult, int, error) {
	resp, err := b.do(ctx, path, InitiateMultipartUploadCommand{ContentTypeV: contentType, CustomHeaders: headers})
	if err != nil {
		return nil, 0, err
	}
	result, err := decodeInitiateMultipartUploadResult(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return result, resp.StatusCode, nil
}

func (b *Bucket) uploadPart(ctx context.Context, path string, partNumber int, content []byte, uploadID string) (etag string, status int, err error) {
	resp, err := b.do(ctx, path, UploadPartCommand{PartNumber: partNumber, Content: content, UploadID: uploadID})
	if err != nil {
		return "", 0, err
	}
	return resp.Headers.Get("ETag"), resp.StatusCode, nil
}

func (b *Bucket) abortMultipartUpload(ctx context.Context, path, uploadID string) (int, error) {
	resp, err := b.do(ctx, path, AbortMultipartUploadCommand{UploadID: uploadID})
	if err != nil {
		return 0, err
	}
	return resp.StatusCode, nil
}

func (b *Bucket) completeMultipartUpload(ctx context.Context, path, uploadID string, parts []Part) ([]byte, int, error) {
	resp, err := b.do(ctx, path, CompleteMultipartUploadCommand{UploadID: uploadID, Parts: parts})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}

// --- presign --------------------------------------------------------------

// PresignGet returns a GET URL valid for expirySecs, plus any custom
// query parameters the caller wants included (and signed).
func (b *Bucket) PresignGet(path string, expirySecs int64, customQueries map[string]string) (string, error) {
	if expirySecs > MaxPresignExpirySecs {
		return "", ErrMaxExpiry
	}
	return buildPresignedURL(b, path, PresignGetCommand{ExpirySecs: expirySecs, CustomQueries: customQueries}, b.clock())
}

// PresignPut returns a PUT URL valid for expirySecs. customHeaders are
// added to the signed-headers list AND must be sent on the subsequent
// PUT (spec.md §9 "Custom headers in presigned PUT").
func (b *Bucket) PresignPut(path string, expirySecs int64, customHeaders map[string]string) (string, error) {
	if expirySecs > MaxPresignExpirySecs {
		return "", ErrMaxExpiry
	}
	return buildPresignedURL(b, path, PresignPutCommand{ExpirySecs: expirySecs, CustomHeaders: customHeaders}, b.clock())
}

// PresignDelete returns a DELETE URL valid for expirySecs.
func (b *Bucket) PresignDelete(path string, expirySecs int64) (string, error) {
	if expirySecs > MaxPresignExpirySecs {
		return "", ErrMaxExpiry
	}
	return buildPresignedURL(b, path, PresignDeleteCommand{ExpirySecs: expirySecs}, b.clock())
}

// PresignPost builds a presigned POST form from policy.
func (b *Bucket) PresignPost(path string, expirySecs int64, policy *PostPolicy) (*PresignedPost, error) {
	if expirySecs > MaxPresignExpirySecs {
		return nil, ErrMaxExpiry
	}
	return buildPresignedPost(b, policy, b.clock())
}
