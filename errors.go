package s3

import (
	"fmt"

	gerrors "github.com/goliatone/go-errors"
)

var (
	// ErrNoCredentials is returned when every source in the credential
	// chain (explicit, environment, profile file, instance metadata)
	// fails to produce an access key and secret key pair.
	ErrNoCredentials = gerrors.New("no credentials resolvable", gerrors.CategoryAuthz).
				WithCode(401).
				WithTextCode("NO_CREDENTIALS")

	// ErrInvalidRegion marks a region string/endpoint combination that
	// cannot be turned into a usable host.
	ErrInvalidRegion = gerrors.New("invalid region", gerrors.CategoryBadInput).
				WithCode(400).
				WithTextCode("INVALID_REGION")

	// ErrMissingProfile is returned when the requested INI profile
	// section does not exist in the credentials file.
	ErrMissingProfile = gerrors.New("credentials profile not found", gerrors.CategoryNotFound).
				WithCode(404).
				WithTextCode("MISSING_PROFILE")

	// ErrMaxExpiry is returned when a presign call requests an expiry
	// beyond the 7-day ceiling AWS enforces.
	ErrMaxExpiry = gerrors.New("presign expiry exceeds 7 days", gerrors.CategoryBadInput).
			WithCode(400).
			WithTextCode("MAX_EXPIRY")

	// ErrMismatchedCondition is returned by PostPolicy.AddCondition when
	// a Range value is paired with a non-ContentLengthRange field, or a
	// non-Range value is paired with ContentLengthRange.
	ErrMismatchedCondition = gerrors.New("mismatched post-policy condition", gerrors.CategoryBadInput).
				WithCode(400).
				WithTextCode("MISMATCHED_CONDITION")

	// ErrInvalidRange marks a GetObjectRange call where start >= end.
	ErrInvalidRange = gerrors.New("invalid byte range", gerrors.CategoryBadInput).
				WithCode(400).
				WithTextCode("INVALID_RANGE")

	// ErrEmptyReader is returned by the multipart streamer when the
	// source reader yields no bytes at all.
	ErrEmptyReader = gerrors.New("reader produced no data", gerrors.CategoryBadInput).
			WithCode(400).
			WithTextCode("EMPTY_READER")

	// ErrMultipartIncomplete marks a multipart session that was
	// abandoned (neither completed nor aborted) by the caller.
	ErrMultipartIncomplete = gerrors.New("multipart upload left incomplete", gerrors.CategoryInternal).
				WithCode(500).
				WithTextCode("MULTIPART_INCOMPLETE")
)

// HTTPError wraps a non-2xx S3 response. Status is always populated;
// Body/Decoded are populated when the response carried a body that the
// transport could read (see the FailOnErr handling in Bucket.do,
// bucket.go).
type HTTPError struct {
	Status  int
	Body    string
	Decoded *AwsError
}

func (e *HTTPError) Error() string {
	if e.Decoded != nil && e.Decoded.Message != "" {
		return fmt.Sprintf("s3: http %d: %s (%s)", e.Status, e.Decoded.Message, e.Decoded.Code)
	}
	if e.Body != "" {
		return fmt.Sprintf("s3: http %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("s3: http %d", e.Status)
}

// newHTTPFail builds the HttpFailWithBody/HttpFail variant from spec.md
// §7 depending on whether a body could be read and decoded.
func newHTTPFail(status int, body []byte) error {
	if len(body) == 0 {
		return &HTTPError{Status: status}
	}
	herr := &HTTPError{Status: status, Body: string(body)}
	if decoded, derr := decodeAwsError(body); derr == nil {
		herr.Decoded = decoded
	}
	return herr
}
