package s3

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
)

// Command is the closed variant set of spec.md §3/§4.C. Every public
// Bucket operation builds exactly one Command and hands it to the
// request builder; the Command alone determines HTTP verb, body,
// content type, and body hash.
type Command interface {
	// Verb is the HTTP method S3 expects for this operation.
	Verb() string
	// Body is the request payload, or nil for bodyless operations.
	Body() []byte
	// ContentType is the Content-Type header value, empty if none
	// should be sent.
	ContentType() string
	// BodySHA256 is the hex-encoded SHA-256 of Body(), or the
	// well-known empty-payload/unsigned-payload sentinel.
	BodySHA256() string
}

// bodyHash centralises the "real SHA-256 or empty-payload constant"
// rule every bodyless/body-bearing Command shares.
func bodyHash(body []byte) string {
	if len(body) == 0 {
		return EmptyPayloadSHA256
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// --- bodyless read/delete operations -------------------------------

type HeadObjectCommand struct{}

func (HeadObjectCommand) Verb() string        { return "HEAD" }
func (HeadObjectCommand) Body() []byte        { return nil }
func (HeadObjectCommand) ContentType() string { return "" }
func (HeadObjectCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

type GetObjectCommand struct{}

func (GetObjectCommand) Verb() string        { return "GET" }
func (GetObjectCommand) Body() []byte        { return nil }
func (GetObjectCommand) ContentType() string { return "" }
func (GetObjectCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

// GetObjectRangeCommand requests a byte range. End is inclusive and,
// when set, must exceed Start (spec.md §4.G get_object_range).
type GetObjectRangeCommand struct {
	Start int64
	End   *int64
}

func (GetObjectRangeCommand) Verb() string        { return "GET" }
func (GetObjectRangeCommand) Body() []byte        { return nil }
func (GetObjectRangeCommand) ContentType() string { return "" }
func (GetObjectRangeCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

// RangeHeader renders the Range header value per spec.md §4.E.
func (c GetObjectRangeCommand) RangeHeader() string {
	if c.End != nil {
		return fmt.Sprintf("bytes=%d-%d", c.Start, *c.End)
	}
	return fmt.Sprintf("bytes=%d-", c.Start)
}

type GetObjectTaggingCommand struct{}

func (GetObjectTaggingCommand) Verb() string        { return "GET" }
func (GetObjectTaggingCommand) Body() []byte        { return nil }
func (GetObjectTaggingCommand) ContentType() string { return "" }
func (GetObjectTaggingCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

type GetObjectTorrentCommand struct{}

func (GetObjectTorrentCommand) Verb() string        { return "GET" }
func (GetObjectTorrentCommand) Body() []byte        { return nil }
func (GetObjectTorrentCommand) ContentType() string { return "" }
func (GetObjectTorrentCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

type DeleteObjectCommand struct{}

func (DeleteObjectCommand) Verb() string        { return "DELETE" }
func (DeleteObjectCommand) Body() []byte        { return nil }
func (DeleteObjectCommand) ContentType() string { return "" }
func (DeleteObjectCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

type DeleteObjectTaggingCommand struct{}

func (DeleteObjectTaggingCommand) Verb() string        { return "DELETE" }
func (DeleteObjectTaggingCommand) Body() []byte        { return nil }
func (DeleteObjectTaggingCommand) ContentType() string { return "" }
func (DeleteObjectTaggingCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

// CopyObjectCommand copies From (an existing "bucket/key" path) onto
// the destination path the request is addressed to.
type CopyObjectCommand struct {
	From string
}

func (CopyObjectCommand) Verb() string        { return "PUT" }
func (CopyObjectCommand) Body() []byte        { return nil }
func (CopyObjectCommand) ContentType() string { return "" }
func (CopyObjectCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

// --- write operations ------------------------------------------------

// PutObjectCommand uploads Content in a single request. Multipart is
// handled by the streamer (multipart.go), not by this Command.
type PutObjectCommand struct {
	Content       []byte
	ContentTypeV  string
	CustomHeaders map[string]string
}

func (c PutObjectCommand) Verb() string        { return "PUT" }
func (c PutObjectCommand) Body() []byte        { return c.Content }
func (c PutObjectCommand) ContentType() string {
	if c.ContentTypeV == "" {
		return "application/octet-stream"
	}
	return c.ContentTypeV
}
func (c PutObjectCommand) BodySHA256() string { return bodyHash(c.Content) }

// PutObjectTaggingCommand sends a <Tagging> XML document.
type PutObjectTaggingCommand struct {
	XML []byte
}

func (c PutObjectTaggingCommand) Verb() string        { return "PUT" }
func (c PutObjectTaggingCommand) Body() []byte        { return c.XML }
func (c PutObjectTaggingCommand) ContentType() string { return "application/xml" }
func (c PutObjectTaggingCommand) BodySHA256() string  { return bodyHash(c.XML) }

// --- listing ----------------------------------------------------------

// ListObjectsCommand is the v1 ListObjects query.
type ListObjectsCommand struct {
	Prefix    string
	Delimiter string
	Marker    string
	MaxKeys   int
}

func (ListObjectsCommand) Verb() string        { return "GET" }
func (ListObjectsCommand) Body() []byte        { return nil }
func (ListObjectsCommand) ContentType() string { return "" }
func (ListObjectsCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

// ListObjectsV2Command is the v2 ListObjects query (spec.md §3).
type ListObjectsV2Command struct {
	Prefix            string
	Delimiter         string
	ContinuationToken string
	StartAfter        string
	MaxKeys           int
}

func (ListObjectsV2Command) Verb() string        { return "GET" }
func (ListObjectsV2Command) Body() []byte        { return nil }
func (ListObjectsV2Command) ContentType() string { return "" }
func (ListObjectsV2Command) BodySHA256() string  { return EmptyPayloadSHA256 }

type ListMultipartUploadsCommand struct {
	Prefix    string
	Delimiter string
	KeyMarker string
	MaxUploads int
}

func (ListMultipartUploadsCommand) Verb() string        { return "GET" }
func (ListMultipartUploadsCommand) Body() []byte        { return nil }
func (ListMultipartUploadsCommand) ContentType() string { return "" }
func (ListMultipartUploadsCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

// --- bucket-level ------------------------------------------------------

type GetBucketLocationCommand struct{}

func (GetBucketLocationCommand) Verb() string        { return "GET" }
func (GetBucketLocationCommand) Body() []byte        { return nil }
func (GetBucketLocationCommand) ContentType() string { return "" }
func (GetBucketLocationCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

type CreateBucketCommand struct {
	Config BucketConfiguration
}

func (c CreateBucketCommand) Verb() string { return "PUT" }
func (c CreateBucketCommand) Body() []byte { return c.Config.locationConstraintXML() }
func (c CreateBucketCommand) ContentType() string {
	if c.Body() == nil {
		return ""
	}
	return "application/xml"
}
func (c CreateBucketCommand) BodySHA256() string { return bodyHash(c.Body()) }

type DeleteBucketCommand struct{}

func (DeleteBucketCommand) Verb() string        { return "DELETE" }
func (DeleteBucketCommand) Body() []byte        { return nil }
func (DeleteBucketCommand) ContentType() string { return "" }
func (DeleteBucketCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

type ListBucketsCommand struct{}

func (ListBucketsCommand) Verb() string        { return "GET" }
func (ListBucketsCommand) Body() []byte        { return nil }
func (ListBucketsCommand) ContentType() string { return "" }
func (ListBucketsCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

type PutBucketCorsCommand struct {
	Configuration []byte
}

func (c PutBucketCorsCommand) Verb() string        { return "PUT" }
func (c PutBucketCorsCommand) Body() []byte        { return c.Configuration }
func (c PutBucketCorsCommand) ContentType() string { return "application/xml" }
func (c PutBucketCorsCommand) BodySHA256() string  { return bodyHash(c.Configuration) }

// --- multipart ----------------------------------------------------------

type InitiateMultipartUploadCommand struct {
	ContentTypeV  string
	CustomHeaders map[string]string
}

func (c InitiateMultipartUploadCommand) Verb() string { return "POST" }
func (c InitiateMultipartUploadCommand) Body() []byte { return nil }
func (c InitiateMultipartUploadCommand) ContentType() string {
	if c.ContentTypeV == "" {
		return "application/octet-stream"
	}
	return c.ContentTypeV
}
func (c InitiateMultipartUploadCommand) BodySHA256() string { return EmptyPayloadSHA256 }

type UploadPartCommand struct {
	PartNumber int
	Content    []byte
	UploadID   string
}

func (c UploadPartCommand) Verb() string        { return "PUT" }
func (c UploadPartCommand) Body() []byte        { return c.Content }
func (c UploadPartCommand) ContentType() string { return "application/octet-stream" }
func (c UploadPartCommand) BodySHA256() string  { return bodyHash(c.Content) }

type AbortMultipartUploadCommand struct {
	UploadID string
}

func (AbortMultipartUploadCommand) Verb() string        { return "DELETE" }
func (AbortMultipartUploadCommand) Body() []byte        { return nil }
func (AbortMultipartUploadCommand) ContentType() string { return "" }
func (AbortMultipartUploadCommand) BodySHA256() string  { return EmptyPayloadSHA256 }

// CompleteMultipartUploadCommand serialises Parts in order per
// spec.md §3's CompleteMultipartUploadData invariant.
type CompleteMultipartUploadCommand struct {
	UploadID string
	Parts    []Part
}

// Part is one entry of a CompleteMultipartUpload body: 1-based,
// strictly increasing PartNumber and the server-returned ETag,
// quoting preserved exactly as received.
type Part struct {
	PartNumber int    `xml:"PartNumber"`
	ETag       string `xml:"ETag"`
}

type completeMultipartUploadXML struct {
	XMLName xml.Name `xml:"CompleteMultipartUpload"`
	Parts   []Part   `xml:"Part"`
}

func (c CompleteMultipartUploadCommand) Verb() string { return "POST" }

func (c CompleteMultipartUploadCommand) Body() []byte {
	doc := completeMultipartUploadXML{Parts: c.Parts}
	out, err := xml.Marshal(doc)
	if err != nil {
		// Part/ETag are plain strings; marshalling cannot fail.
		return nil
	}
	return out
}

func (c CompleteMultipartUploadCommand) ContentType() string { return "application/xml" }
func (c CompleteMultipartUploadCommand) BodySHA256() string  { return bodyHash(c.Body()) }

// --- presign --------------------------------------------------------------

type PresignGetCommand struct {
	ExpirySecs    int64
	CustomQueries map[string]string
}

func (PresignGetCommand) Verb() string        { return "GET" }
func (PresignGetCommand) Body() []byte        { return nil }
func (PresignGetCommand) ContentType() string { return "" }
func (PresignGetCommand) BodySHA256() string  { return UnsignedPayload }

type PresignPutCommand struct {
	ExpirySecs    int64
	CustomHeaders map[string]string
}

func (PresignPutCommand) Verb() string        { return "PUT" }
func (PresignPutCommand) Body() []byte        { return nil }
func (PresignPutCommand) ContentType() string { return "" }
func (PresignPutCommand) BodySHA256() string  { return UnsignedPayload }

type PresignDeleteCommand struct {
	ExpirySecs int64
}

func (PresignDeleteCommand) Verb() string        { return "DELETE" }
func (PresignDeleteCommand) Body() []byte        { return nil }
func (PresignDeleteCommand) ContentType() string { return "" }
func (PresignDeleteCommand) BodySHA256() string  { return UnsignedPayload }

type PresignPostCommand struct {
	ExpirySecs int64
	Policy     *PostPolicy
}

func (PresignPostCommand) Verb() string        { return "POST" }
func (PresignPostCommand) Body() []byte        { return nil }
func (PresignPostCommand) ContentType() string { return "" }
func (PresignPostCommand) BodySHA256() string  { return UnsignedPayload }

// noSignedBody reports whether a Command's operation signs no body
// headers beyond host/content-sha/date/security-token (spec.md §4.D
// "Signed header set"): every read-only/listing/location operation.
func noSignedBody(cmd Command) bool {
	switch cmd.(type) {
	case HeadObjectCommand, GetObjectCommand, GetObjectRangeCommand,
		GetObjectTaggingCommand, GetObjectTorrentCommand,
		ListObjectsCommand, ListObjectsV2Command, ListMultipartUploadsCommand,
		GetBucketLocationCommand, ListBucketsCommand,
		DeleteObjectCommand, DeleteObjectTaggingCommand, DeleteBucketCommand,
		AbortMultipartUploadCommand:
		return true
	default:
		return false
	}
}
