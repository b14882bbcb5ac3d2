package s3

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// AwsError is the parsed <Error> document S3 returns alongside a >=400
// status (spec.md §4.G "Error body").
type AwsError struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	Resource  string   `xml:"Resource"`
	RequestID string   `xml:"RequestId"`
}

// decodeAwsError parses body as an AwsError. It returns an error only
// when body is non-empty and still fails to parse as XML; an empty
// body is not an error (some responses have none).
func decodeAwsError(body []byte) (*AwsError, error) {
	var parsed AwsError
	if len(body) == 0 {
		return &parsed, nil
	}
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("s3: decode error body: %w", err)
	}
	return &parsed, nil
}

// HeadObjectResult surfaces the headers HeadObject callers typically
// want, without forcing them to parse http.Header directly.
type HeadObjectResult struct {
	ContentLength int64
	ContentType   string
	ETag          string
	LastModified  string
	Metadata      map[string]string
}

func decodeHeadObjectResult(h http.Header) *HeadObjectResult {
	result := &HeadObjectResult{
		ContentType:  h.Get("Content-Type"),
		ETag:         h.Get("ETag"),
		LastModified: h.Get("Last-Modified"),
	}
	if cl := h.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			result.ContentLength = n
		}
	}
	for key := range h {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "x-amz-meta-") {
			if result.Metadata == nil {
				result.Metadata = map[string]string{}
			}
			result.Metadata[strings.TrimPrefix(lower, "x-amz-meta-")] = h.Get(key)
		}
	}
	return result
}

// Tagging is the parsed <Tagging><TagSet> response to GetObjectTagging.
type Tagging struct {
	XMLName xml.Name `xml:"Tagging"`
	TagSet  []Tag    `xml:"TagSet>Tag"`
}

func decodeTagging(body []byte) (*Tagging, error) {
	var t Tagging
	if err := xml.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("s3: decode tagging: %w", err)
	}
	return &t, nil
}

type taggingXML struct {
	XMLName xml.Name `xml:"Tagging"`
	TagSet  []Tag    `xml:"TagSet>Tag"`
}

// encodeTaggingXML renders the <Tagging> document PutObjectTagging
// sends.
func encodeTaggingXML(tags []Tag) []byte {
	doc := taggingXML{TagSet: tags}
	out, err := xml.Marshal(doc)
	if err != nil {
		return nil
	}
	return out
}

// ObjectSummary is one <Contents> entry of a ListBucketResult.
type ObjectSummary struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

// CommonPrefix is one <CommonPrefixes> entry, present when Delimiter
// is set.
type CommonPrefix struct {
	Prefix string `xml:"Prefix"`
}

// ListBucketResult is the parsed ListObjectsV2 response (spec.md §3).
type ListBucketResult struct {
	XMLName               xml.Name        `xml:"ListBucketResult"`
	Name                  string          `xml:"Name"`
	Prefix                string          `xml:"Prefix"`
	KeyCount              int             `xml:"KeyCount"`
	MaxKeys               int             `xml:"MaxKeys"`
	IsTruncated           bool            `xml:"IsTruncated"`
	Contents              []ObjectSummary `xml:"Contents"`
	CommonPrefixes        []CommonPrefix  `xml:"CommonPrefixes"`
	NextContinuationToken string          `xml:"NextContinuationToken"`
}

func decodeListBucketResult(body []byte) (*ListBucketResult, error) {
	var result ListBucketResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("s3: decode list bucket result: %w", err)
	}
	return &result, nil
}

// MultipartUpload is one <Upload> entry of a ListMultipartUploadsResult.
type MultipartUpload struct {
	Key      string `xml:"Key"`
	UploadID string `xml:"UploadId"`
	Initiated string `xml:"Initiated"`
}

// ListMultipartUploadsResult is the parsed ListMultipartUploads response.
type ListMultipartUploadsResult struct {
	XMLName            xml.Name           `xml:"ListMultipartUploadsResult"`
	Bucket             string             `xml:"Bucket"`
	KeyMarker          string             `xml:"KeyMarker"`
	NextKeyMarker      string             `xml:"NextKeyMarker"`
	IsTruncated        bool               `xml:"IsTruncated"`
	Uploads            []MultipartUpload  `xml:"Upload"`
}

func decodeListMultipartUploadsResult(body []byte) (*ListMultipartUploadsResult, error) {
	var result ListMultipartUploadsResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("s3: decode list multipart uploads result: %w", err)
	}
	return &result, nil
}

// BucketLocationResult is the parsed GetBucketLocation response. An
// empty LocationConstraint means us-east-1 (spec.md §4.G "Location").
type BucketLocationResult struct {
	XMLName            xml.Name `xml:"LocationConstraint"`
	LocationConstraint string   `xml:",chardata"`
}

func decodeBucketLocationResult(body []byte) (*BucketLocationResult, error) {
	var result BucketLocationResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("s3: decode bucket location result: %w", err)
	}
	return &result, nil
}

// InitiateMultipartUploadResult is the parsed InitiateMultipartUpload
// response.
type InitiateMultipartUploadResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadID string   `xml:"UploadId"`
}

func decodeInitiateMultipartUploadResult(body []byte) (*InitiateMultipartUploadResult, error) {
	var result InitiateMultipartUploadResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("s3: decode initiate multipart upload result: %w", err)
	}
	return &result, nil
}
