package s3

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// ConditionField enumerates the post-policy fields spec.md §3 names.
type ConditionField int

const (
	FieldKey ConditionField = iota
	FieldAcl
	FieldTagging
	FieldSuccessActionRedirect
	FieldSuccessActionStatus
	FieldCacheControl
	FieldContentLengthRange
	FieldContentType
	FieldContentDisposition
	FieldContentEncoding
	FieldExpires
	FieldAmzServerSideEncryption
	FieldAmzStorageClass
	FieldAmzChecksumAlgorithm
	FieldAmzMeta
	FieldAmzCredential
	FieldAmzAlgorithm
	FieldAmzDate
	FieldAmzSecurityToken
	FieldBucket
	FieldCustom
)

// fieldName renders a ConditionField (plus its AmzChecksumAlgorithm/
// AmzMeta/Custom argument) as the wire form the policy JSON and the
// form fields expect.
func (f ConditionField) fieldName(arg string) string {
	switch f {
	case FieldKey:
		return "key"
	case FieldAcl:
		return "acl"
	case FieldTagging:
		return "tagging"
	case FieldSuccessActionRedirect:
		return "success_action_redirect"
	case FieldSuccessActionStatus:
		return "success_action_status"
	case FieldCacheControl:
		return "Cache-Control"
	case FieldContentLengthRange:
		return "content-length-range"
	case FieldContentType:
		return "Content-Type"
	case FieldContentDisposition:
		return "Content-Disposition"
	case FieldContentEncoding:
		return "Content-Encoding"
	case FieldExpires:
		return "Expires"
	case FieldAmzServerSideEncryption:
		return "x-amz-server-side-encryption"
	case FieldAmzStorageClass:
		return "x-amz-storage-class"
	case FieldAmzChecksumAlgorithm:
		return "x-amz-checksum-" + arg
	case FieldAmzMeta:
		return "x-amz-meta-" + arg
	case FieldAmzCredential:
		return "x-amz-credential"
	case FieldAmzAlgorithm:
		return "x-amz-algorithm"
	case FieldAmzDate:
		return "x-amz-date"
	case FieldAmzSecurityToken:
		return "x-amz-security-token"
	case FieldBucket:
		return "bucket"
	case FieldCustom:
		return arg
	default:
		return arg
	}
}

// ConditionValueKind tags which shape a ConditionValue carries.
type ConditionValueKind int

const (
	ValueAnything ConditionValueKind = iota
	ValueStartsWith
	ValueRange
	ValueExact
)

// ConditionValue is one of Anything/StartsWith(prefix)/Range(lo,hi)/
// Exact(s), per spec.md §3.
type ConditionValue struct {
	Kind   ConditionValueKind
	Prefix string
	Lo, Hi int64
	Exact  string
}

func Anything() ConditionValue                { return ConditionValue{Kind: ValueAnything} }
func StartsWith(prefix string) ConditionValue { return ConditionValue{Kind: ValueStartsWith, Prefix: prefix} }
func RangeValue(lo, hi int64) ConditionValue  { return ConditionValue{Kind: ValueRange, Lo: lo, Hi: hi} }
func Exact(s string) ConditionValue           { return ConditionValue{Kind: ValueExact, Exact: s} }

// Condition is one (field, value) entry of a PostPolicy.
type Condition struct {
	Field ConditionField
	Arg   string // AmzChecksumAlgorithm's algorithm name / AmzMeta's key / Custom's name
	Value ConditionValue
}

// PostPolicy accumulates conditions for a presigned POST, validating
// that Range values only ever pair with ContentLengthRange and vice
// versa (spec.md §3 invariant, §8 property 10).
type PostPolicy struct {
	Expiration time.Time
	Conditions []Condition
}

// NewPostPolicy starts an empty policy expiring at expiration.
func NewPostPolicy(expiration time.Time) *PostPolicy {
	return &PostPolicy{Expiration: expiration}
}

// AddCondition validates and appends one condition.
func (p *PostPolicy) AddCondition(field ConditionField, arg string, value ConditionValue) error {
	isRange := value.Kind == ValueRange
	isLengthRange := field == FieldContentLengthRange
	if isRange != isLengthRange {
		return ErrMismatchedCondition
	}
	p.Conditions = append(p.Conditions, Condition{Field: field, Arg: arg, Value: value})
	return nil
}

// PresignedPost is the finished presigned-POST form: the URL to post
// to, the exact (Exact-valued) form fields the caller fills in
// verbatim, the dynamic fields a form builder must still render an
// input for, and the policy's expiration.
type PresignedPost struct {
	URL           string
	Fields        map[string]string
	DynamicFields []Condition
	Expiration    time.Time
}

// policyDocument is the {expiration, conditions:[...]} JSON shape S3
// expects the base64-encoded Policy field to decode to.
type policyDocument struct {
	Expiration string `json:"expiration"`
	Conditions []any  `json:"conditions"`
}

// buildPresignedPost enriches policy with Bucket/AmzAlgorithm/
// AmzCredential/AmzDate/AmzSecurityToken (spec.md §4.I "build"),
// encodes+signs it, and splits the conditions into fields vs.
// dynamic_fields for the form builder.
func buildPresignedPost(b *Bucket, policy *PostPolicy, now time.Time) (*PresignedPost, error) {
	now = now.UTC()
	scopeStr := scope(now, b.Region.DisplayName())
	credential := b.Credentials.AccessKey + "/" + scopeStr

	enriched := *policy
	enriched.Conditions = append([]Condition{}, policy.Conditions...)
	enriched.Conditions = append(enriched.Conditions,
		Condition{Field: FieldBucket, Value: Exact(b.Name)},
		Condition{Field: FieldAmzAlgorithm, Value: Exact(signingAlgorithm)},
		Condition{Field: FieldAmzCredential, Value: Exact(credential)},
		Condition{Field: FieldAmzDate, Value: Exact(now.Format(longDateFormat))},
	)
	if token := b.Credentials.Token(); token != "" {
		enriched.Conditions = append(enriched.Conditions, Condition{Field: FieldAmzSecurityToken, Value: Exact(token)})
	}

	doc := policyDocument{
		Expiration: enriched.Expiration.UTC().Format(time.RFC3339),
		Conditions: make([]any, 0, len(enriched.Conditions)),
	}
	for _, c := range enriched.Conditions {
		doc.Conditions = append(doc.Conditions, conditionJSON(c))
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("s3: marshal post policy: %w", err)
	}
	policyBase64 := base64.StdEncoding.EncodeToString(raw)

	key := signingKey(b.Credentials.SecretKey, now, b.Region.DisplayName(), "s3")
	signature := hex.EncodeToString(hmacSHA256(key, policyBase64))

	fields := map[string]string{"Policy": policyBase64, "X-Amz-Signature": signature}
	var dynamic []Condition
	for _, c := range enriched.Conditions {
		if c.Value.Kind == ValueExact {
			fields[c.Field.fieldName(c.Arg)] = c.Value.Exact
		} else {
			dynamic = append(dynamic, c)
		}
	}

	return &PresignedPost{
		URL:           fmt.Sprintf("%s://%s", b.Region.Scheme(), hostFor(b)),
		Fields:        fields,
		DynamicFields: dynamic,
		Expiration:    enriched.Expiration,
	}, nil
}

func conditionJSON(c Condition) any {
	name := c.Field.fieldName(c.Arg)
	switch c.Value.Kind {
	case ValueExact:
		return map[string]string{name: c.Value.Exact}
	case ValueRange:
		return []any{name, c.Value.Lo, c.Value.Hi}
	case ValueStartsWith:
		return []any{"starts-with", "$" + name, c.Value.Prefix}
	default:
		return []any{"eq", "$" + name, ""}
	}
}
