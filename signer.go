package s3

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// signingAlgorithm is the fixed SigV4 algorithm tag used throughout.
const signingAlgorithm = "AWS4-HMAC-SHA256"

// signableRequest is the pure-function input to the SigV4 pipeline
// (spec.md §4.D): a method, path, query, header set, and body hash,
// bound to a region/credentials/timestamp. request.go builds one of
// these from a (Bucket, path, Command) triple; signer.go never touches
// Bucket or Command directly, keeping the signing code reusable from
// both the normal and presign paths.
type signableRequest struct {
	Verb        string
	Host        string
	CanonicalURI string
	Query       map[string]string
	Headers     map[string]string // signed headers only, pre-lowercased names not required
	BodySHA256  string
}

// scope returns "{yyyymmdd}/{region}/s3/aws4_request" (spec.md §4.D).
func scope(dt time.Time, region string) string {
	return fmt.Sprintf("%s/%s/s3/aws4_request", dt.UTC().Format(shortDateFormat), region)
}

// signingKey derives k_sign via the four-step HMAC chain (spec.md
// §4.D Signing key), grounded on the teacher's deriveSigningKey in
// provider_aws.go and generalised to take an explicit service name so
// post_policy.go (service "s3") and any future STS use (service "sts")
// share it.
func signingKey(secret string, dt time.Time, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), dt.UTC().Format(shortDateFormat))
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// uriEncode implements spec.md §4.D's URI encoding rule: identity on
// unreserved characters, "/" preserved only when encodeSlash is false,
// everything else percent-encoded as uppercase %XX over UTF-8 bytes.
func uriEncode(s string, encodeSlash bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		if c == '/' && !encodeSlash {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '_' || c == '-' || c == '~' || c == '.'
}

// canonicalQueryString sorts (k,v) pairs by their encoded "k=v" form
// and joins with "&" (spec.md §4.D step 3, §8 property 2).
func canonicalQueryString(query map[string]string) string {
	if len(query) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(query))
	for k, v := range query {
		pairs = append(pairs, uriEncode(k, true)+"="+uriEncode(v, true))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// canonicalHeaders renders the sorted "name:value\n" block plus the
// trailing blank line, and the matching ";"-joined signed-header list
// (spec.md §4.D steps 4-5, §8 property 3).
func canonicalHeaders(headers map[string]string) (block string, signedList string) {
	names := make([]string, 0, len(headers))
	lower := make(map[string]string, len(headers))
	for name := range headers {
		l := strings.ToLower(name)
		names = append(names, l)
		lower[l] = strings.TrimSpace(headers[name])
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(lower[name])
		b.WriteByte('\n')
	}
	return b.String(), strings.Join(names, ";")
}

// canonicalRequest builds the newline-joined canonical request string
// (spec.md §4.D "Canonical request").
func canonicalRequest(r signableRequest) (canonical string, signedHeaders string) {
	headerBlock, signedList := canonicalHeaders(r.Headers)
	parts := []string{
		r.Verb,
		uriEncode(r.CanonicalURI, false),
		canonicalQueryString(r.Query),
		headerBlock,
		signedList,
		r.BodySHA256,
	}
	return strings.Join(parts, "\n"), signedList
}

// stringToSign builds "AWS4-HMAC-SHA256\n{date}\n{scope}\n{hash}"
// (spec.md §4.D "String-to-sign").
func stringToSign(dt time.Time, scopeStr, canonicalReq string) string {
	return strings.Join([]string{
		signingAlgorithm,
		dt.UTC().Format(longDateFormat),
		scopeStr,
		sha256Hex([]byte(canonicalReq)),
	}, "\n")
}

// signAuthorizationHeader computes the canonical request, string-to-sign,
// signing key, and signature, returning the finished Authorization
// header value (spec.md §4.D "Authorization header").
func signAuthorizationHeader(r signableRequest, creds Credentials, region string, dt time.Time) string {
	canonical, signedHeaders := canonicalRequest(r)
	scopeStr := scope(dt, region)
	sts := stringToSign(dt, scopeStr, canonical)
	key := signingKey(creds.SecretKey, dt, region, "s3")
	signature := hex.EncodeToString(hmacSHA256(key, sts))

	return fmt.Sprintf(
		"%s Credential=%s/%s,SignedHeaders=%s,Signature=%s",
		signingAlgorithm, creds.AccessKey, scopeStr, signedHeaders, signature,
	)
}

// presignQuery computes the presigned-URL query parameters (spec.md
// §4.D "Presign"): the canonical request's body hash is always
// UNSIGNED-PAYLOAD, the signed header set is restricted to "host" plus
// any caller-supplied extras, and the signature is returned under
// X-Amz-Signature for the caller (buildPresignedURL) to append last to
// the final URL.
func presignQuery(r signableRequest, creds Credentials, region string, dt time.Time, expirySecs int64) map[string]string {
	scopeStr := scope(dt, region)
	_, signedHeaders := canonicalHeaders(r.Headers)

	query := make(map[string]string, len(r.Query)+6)
	for k, v := range r.Query {
		query[k] = v
	}
	query["X-Amz-Algorithm"] = signingAlgorithm
	query["X-Amz-Credential"] = creds.AccessKey + "/" + scopeStr
	query["X-Amz-Date"] = dt.UTC().Format(longDateFormat)
	query["X-Amz-Expires"] = fmt.Sprintf("%d", expirySecs)
	query["X-Amz-SignedHeaders"] = signedHeaders
	if token := creds.Token(); token != "" {
		query["X-Amz-Security-Token"] = token
	}

	r.Query = query
	canonical, _ := canonicalRequest(r)
	sts := stringToSign(dt, scopeStr, canonical)
	key := signingKey(creds.SecretKey, dt, region, "s3")
	signature := hex.EncodeToString(hmacSHA256(key, sts))

	query["X-Amz-Signature"] = signature
	return query
}
