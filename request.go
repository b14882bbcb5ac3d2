package s3

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// PreparedRequest is the fully-signed, ready-to-send request a
// Transport executes (spec.md §4.F). It carries everything net/http
// needs without depending on *http.Request so transport.go's default
// implementation and any test double share the same shape.
type PreparedRequest struct {
	Verb    string
	URL     string
	Headers http.Header
	Body    []byte
}

// buildRequest assembles the URL, headers, and body for (bucket, path,
// cmd) and signs it (spec.md §4.E). dt is the single timestamp the
// whole call uses; retries capture a fresh one (see Bucket.do in
// bucket.go).
func buildRequest(b *Bucket, path string, cmd Command, dt time.Time) (*PreparedRequest, error) {
	urlPath, rawPath, query := pathAndQuery(b, path, cmd)
	host := hostFor(b)
	// rawPath is un-encoded; canonicalRequest (signer.go) applies
	// uriEncode exactly once when building the canonical URI.
	canonicalURI := rawPath

	bodySHA := cmd.BodySHA256()

	signHeaders := map[string]string{
		"host":                 host,
		"x-amz-content-sha256": bodySHA,
		"x-amz-date":           dt.UTC().Format(longDateFormat),
	}
	if token := b.Credentials.Token(); token != "" {
		signHeaders["x-amz-security-token"] = token
	}
	for k, v := range b.extraHeaders {
		signHeaders[strings.ToLower(k)] = v
	}
	if cc, ok := cmd.(CopyObjectCommand); ok {
		signHeaders["x-amz-copy-source"] = uriEncode(cc.From, false)
	}
	for k, v := range commandHeaders(cmd) {
		signHeaders[strings.ToLower(k)] = v
	}

	sreq := signableRequest{
		Verb:         cmd.Verb(),
		Host:         host,
		CanonicalURI: canonicalURI,
		Query:        query,
		Headers:      signHeaders,
		BodySHA256:   bodySHA,
	}

	headers := http.Header{}
	for k, v := range signHeaders {
		headers.Set(k, v)
	}

	if body := cmd.Body(); len(body) > 0 || requiresContentLength(cmd) {
		headers.Set("Content-Length", strconv.Itoa(len(body)))
		if ct := cmd.ContentType(); ct != "" {
			headers.Set("Content-Type", ct)
		}
		if needsContentMD5(cmd) {
			sum := md5.Sum(body)
			headers.Set("Content-MD5", base64.StdEncoding.EncodeToString(sum[:]))
		}
	}

	switch c := cmd.(type) {
	case GetObjectCommand:
		headers.Set("Accept", "application/octet-stream")
	case GetObjectRangeCommand:
		headers.Set("Range", c.RangeHeader())
	}

	if !b.Credentials.IsAnonymous() {
		headers.Set("Authorization", signAuthorizationHeader(sreq, b.Credentials, b.Region.DisplayName(), dt))
	}
	headers.Set("Date", dt.UTC().Format(http.TimeFormat))

	u := fmt.Sprintf("%s://%s%s", b.Region.Scheme(), host, urlPath)
	if qs := rawQueryString(query); qs != "" {
		u += "?" + qs
	}

	return &PreparedRequest{
		Verb:    cmd.Verb(),
		URL:     u,
		Headers: headers,
		Body:    cmd.Body(),
	}, nil
}

// buildPresignedURL signs a presign Command and returns the final URL
// (spec.md §4.D "Presign").
func buildPresignedURL(b *Bucket, path string, cmd Command, dt time.Time) (string, error) {
	urlPath, rawPath, query := pathAndQuery(b, path, cmd)
	host := hostFor(b)
	canonicalURI := rawPath

	signHeaders := map[string]string{"host": host}
	var expiry int64
	switch c := cmd.(type) {
	case PresignGetCommand:
		expiry = c.ExpirySecs
		for k, v := range c.CustomQueries {
			query[k] = v
		}
	case PresignPutCommand:
		expiry = c.ExpirySecs
		for k, v := range c.CustomHeaders {
			signHeaders[strings.ToLower(k)] = v
		}
	case PresignDeleteCommand:
		expiry = c.ExpirySecs
	}

	sreq := signableRequest{
		Verb:         cmd.Verb(),
		Host:         host,
		CanonicalURI: canonicalURI,
		Query:        query,
		Headers:      signHeaders,
		BodySHA256:   UnsignedPayload,
	}

	signedQuery := presignQuery(sreq, b.Credentials, b.Region.DisplayName(), dt, expiry)
	for k, v := range b.extraQuery {
		if _, exists := signedQuery[k]; !exists {
			signedQuery[k] = v
		}
	}

	signature := signedQuery["X-Amz-Signature"]
	delete(signedQuery, "X-Amz-Signature")
	u := fmt.Sprintf("%s://%s%s?%s&X-Amz-Signature=%s", b.Region.Scheme(), host, urlPath, rawQueryString(signedQuery), signature)
	return u, nil
}

func hostFor(b *Bucket) string {
	if b.PathStyle {
		return b.Region.Host()
	}
	return b.Name + "." + b.Region.Host()
}

// pathAndQuery renders the operation-specific path suffix and query
// pairs (spec.md §4.E "Path suffix" / "Query pairs") into one map that
// already holds the bucket's extra query parameters; an operation-
// specific pair overrides an extra one with the same key, and the map
// carries no order for the URL. It returns both the percent-
// encoded path used for the actual request URL and the raw (un-encoded)
// path the signer must encode exactly once when building the canonical
// URI (spec.md §4.D step 2) — encoding it here too would double-encode.
func pathAndQuery(b *Bucket, path string, cmd Command) (urlPath string, rawPath string, query map[string]string) {
	rawBase := "/"
	base := "/"
	if b.PathStyle {
		rawBase = "/" + b.Name + "/"
		base = "/" + uriEncode(b.Name, false) + "/"
	}
	rawKey := strings.TrimPrefix(path, "/")
	key := uriEncode(rawKey, false)
	urlPath = base + key
	rawPath = rawBase + rawKey

	query = map[string]string{}
	for k, v := range b.extraQuery {
		query[k] = v
	}

	switch c := cmd.(type) {
	case GetObjectTorrentCommand:
		query["torrent"] = ""
	case GetObjectTaggingCommand, PutObjectTaggingCommand, DeleteObjectTaggingCommand:
		query["tagging"] = ""
	case GetBucketLocationCommand:
		query["location"] = ""
	case InitiateMultipartUploadCommand:
		query["uploads"] = ""
	case ListMultipartUploadsCommand:
		query["uploads"] = ""
		if c.Prefix != "" {
			query["prefix"] = c.Prefix
		}
		if c.Delimiter != "" {
			query["delimiter"] = c.Delimiter
		}
		if c.KeyMarker != "" {
			query["key-marker"] = c.KeyMarker
		}
		if c.MaxUploads > 0 {
			query["max-uploads"] = strconv.Itoa(c.MaxUploads)
		}
	case AbortMultipartUploadCommand:
		query["uploadId"] = c.UploadID
	case CompleteMultipartUploadCommand:
		query["uploadId"] = c.UploadID
	case UploadPartCommand:
		query["partNumber"] = strconv.Itoa(c.PartNumber)
		query["uploadId"] = c.UploadID
	case ListObjectsCommand:
		query["prefix"] = c.Prefix
		if c.Delimiter != "" {
			query["delimiter"] = c.Delimiter
		}
		if c.Marker != "" {
			query["marker"] = c.Marker
		}
		if c.MaxKeys > 0 {
			query["max-keys"] = strconv.Itoa(c.MaxKeys)
		}
	case ListObjectsV2Command:
		query["list-type"] = "2"
		query["prefix"] = c.Prefix
		if c.Delimiter != "" {
			query["delimiter"] = c.Delimiter
		}
		if c.ContinuationToken != "" {
			query["continuation-token"] = c.ContinuationToken
		}
		if c.StartAfter != "" {
			query["start-after"] = c.StartAfter
		}
		if c.MaxKeys > 0 {
			query["max-keys"] = strconv.Itoa(c.MaxKeys)
		}
	}

	if _, ok := cmd.(ListBucketsCommand); ok {
		urlPath = "/"
		rawPath = "/"
	}

	return urlPath, rawPath, query
}

func rawQueryString(query map[string]string) string {
	if len(query) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(query))
	for k, v := range query {
		if v == "" {
			pairs = append(pairs, uriEncode(k, true))
			continue
		}
		pairs = append(pairs, uriEncode(k, true)+"="+uriEncode(v, true))
	}
	return strings.Join(pairs, "&")
}

// requiresContentLength reports whether a bodyless-but-zero-length
// write should still send Content-Length: 0 (PUT/POST verbs do; GET/
// HEAD/DELETE never send it per spec.md §4.D "Signed header set").
func requiresContentLength(cmd Command) bool {
	verb := cmd.Verb()
	return verb == "PUT" || verb == "POST"
}

// needsContentMD5 matches spec.md §4.E: PutObject, PutObjectTagging,
// and UploadPart carry a Content-MD5 header.
func needsContentMD5(cmd Command) bool {
	switch cmd.(type) {
	case PutObjectCommand, PutObjectTaggingCommand, UploadPartCommand:
		return true
	default:
		return false
	}
}

// commandHeaders surfaces any CustomHeaders a Command variant carries,
// so they get signed (and sent) alongside the standard set.
func commandHeaders(cmd Command) map[string]string {
	switch c := cmd.(type) {
	case PutObjectCommand:
		return c.CustomHeaders
	case InitiateMultipartUploadCommand:
		return c.CustomHeaders
	case CreateBucketCommand:
		return c.Config.headers()
	default:
		return nil
	}
}
