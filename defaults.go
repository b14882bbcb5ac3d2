package s3

import "time"

const (
	// ChunkSize is the size of each part streamed by the multipart
	// uploader. It sits above S3's 5 MiB minimum part size.
	ChunkSize int64 = 8 * 1024 * 1024

	// EmptyPayloadSHA256 is the SHA-256 digest of a zero-length body,
	// used as x-amz-content-sha256 on every bodyless request.
	EmptyPayloadSHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// UnsignedPayload is the sentinel body hash used for presigned URLs.
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	// MaxPresignExpirySecs is the longest expiry AWS accepts for a
	// presigned URL or POST: seven days.
	MaxPresignExpirySecs int64 = 604800

	longDateFormat  = "20060102T150405Z"
	shortDateFormat = "20060102"
)

// DefaultRequestTimeout is applied to every blocking HTTP request made
// through the default transport when a Bucket does not set its own
// RequestTimeout.
var DefaultRequestTimeout = 60 * time.Second

// DefaultMultipartSessionTTL bounds how long a MultipartSessionStore
// keeps a session around before CleanupExpired considers it stale.
var DefaultMultipartSessionTTL = 24 * time.Hour
