package s3

import (
	"net/http"
	"testing"
)

func TestDecodeHeadObjectResult(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Length", "42")
	h.Set("Content-Type", "text/plain")
	h.Set("ETag", `"etag-value"`)
	h.Set("X-Amz-Meta-Owner", "alice")

	result := decodeHeadObjectResult(h)
	if result.ContentLength != 42 {
		t.Errorf("ContentLength = %d, want 42", result.ContentLength)
	}
	if result.ContentType != "text/plain" {
		t.Errorf("ContentType = %q, want text/plain", result.ContentType)
	}
	if result.ETag != `"etag-value"` {
		t.Errorf("ETag = %q, want quoted etag-value", result.ETag)
	}
	if result.Metadata["owner"] != "alice" {
		t.Errorf("Metadata[owner] = %q, want alice", result.Metadata["owner"])
	}
}

func TestTaggingRoundTrip(t *testing.T) {
	tags := []Tag{{Key: "env", Value: "prod"}, {Key: "team", Value: "storage"}}
	encoded := encodeTaggingXML(tags)

	decoded, err := decodeTagging(encoded)
	if err != nil {
		t.Fatalf("decodeTagging: %v", err)
	}
	if len(decoded.TagSet) != 2 {
		t.Fatalf("TagSet length = %d, want 2", len(decoded.TagSet))
	}
	if decoded.TagSet[0] != tags[0] || decoded.TagSet[1] != tags[1] {
		t.Errorf("TagSet = %+v, want %+v", decoded.TagSet, tags)
	}
}

func TestDecodeListBucketResult(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult>
  <Name>my-bucket</Name>
  <Prefix>uploads/</Prefix>
  <KeyCount>1</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents>
    <Key>uploads/file.txt</Key>
    <LastModified>2020-01-01T00:00:00.000Z</LastModified>
    <ETag>"abc"</ETag>
    <Size>123</Size>
    <StorageClass>STANDARD</StorageClass>
  </Contents>
</ListBucketResult>`)

	result, err := decodeListBucketResult(body)
	if err != nil {
		t.Fatalf("decodeListBucketResult: %v", err)
	}
	if result.Name != "my-bucket" || len(result.Contents) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Contents[0].Key != "uploads/file.txt" || result.Contents[0].Size != 123 {
		t.Errorf("unexpected content entry: %+v", result.Contents[0])
	}
}

func TestDecodeBucketLocationResultEmptyMeansUSEast1(t *testing.T) {
	result, err := decodeBucketLocationResult([]byte(`<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></LocationConstraint>`))
	if err != nil {
		t.Fatalf("decodeBucketLocationResult: %v", err)
	}
	if result.LocationConstraint != "" {
		t.Errorf("LocationConstraint = %q, want empty (implying us-east-1)", result.LocationConstraint)
	}
}

func TestCreateBucketConfigurationXML(t *testing.T) {
	usEast := BucketConfiguration{LocationConstraint: ParseRegion("us-east-1")}
	if got := usEast.locationConstraintXML(); got != nil {
		t.Errorf("us-east-1 should produce a nil body, got %s", got)
	}

	euWest := BucketConfiguration{LocationConstraint: ParseRegion("eu-west-1")}
	body := euWest.locationConstraintXML()
	if body == nil {
		t.Fatalf("eu-west-1 should produce a LocationConstraint body")
	}
}

func TestBucketConfigurationHeaders(t *testing.T) {
	cfg := BucketConfiguration{
		ACL:               "private",
		ObjectLockEnabled: true,
		Grants: []Grant{
			{Kind: GrantRead, Grantee: "uri=http://acs.amazonaws.com/groups/global/AllUsers"},
		},
	}
	headers := cfg.headers()
	if headers["x-amz-acl"] != "private" {
		t.Errorf("x-amz-acl = %q, want private", headers["x-amz-acl"])
	}
	if headers["x-amz-bucket-object-lock-enabled"] != "true" {
		t.Errorf("x-amz-bucket-object-lock-enabled = %q, want true", headers["x-amz-bucket-object-lock-enabled"])
	}
	if headers["x-amz-grant-read"] == "" {
		t.Errorf("expected x-amz-grant-read to be set")
	}
}
