package s3

import "encoding/xml"

// Grant is one ACL grantee entry (spec.md §3 CreateBucket "Grant
// headers"). Kind selects which x-amz-grant-* header the grantee
// belongs under.
type Grant struct {
	Kind     GrantKind
	Grantee  string
}

// GrantKind names the x-amz-grant-* header family a Grant targets.
type GrantKind int

const (
	GrantFullControl GrantKind = iota
	GrantRead
	GrantReadACP
	GrantWrite
	GrantWriteACP
)

func (k GrantKind) headerName() string {
	switch k {
	case GrantFullControl:
		return "x-amz-grant-full-control"
	case GrantRead:
		return "x-amz-grant-read"
	case GrantReadACP:
		return "x-amz-grant-read-acp"
	case GrantWrite:
		return "x-amz-grant-write"
	case GrantWriteACP:
		return "x-amz-grant-write-acp"
	default:
		return ""
	}
}

// BucketConfiguration carries CreateBucket's optional ACL, object lock,
// grants, and location constraint (spec.md §3).
type BucketConfiguration struct {
	ACL               string
	ObjectLockEnabled bool
	Grants            []Grant

	// LocationConstraint is the target region. Omitted entirely for
	// us-east-1, which has no LocationConstraint element (S3 rejects
	// an explicit "us-east-1" constraint).
	LocationConstraint Region
}

type createBucketConfigurationXML struct {
	XMLName            xml.Name `xml:"CreateBucketConfiguration"`
	LocationConstraint  string   `xml:"LocationConstraint,omitempty"`
}

// locationConstraintXML renders the request body CreateBucketCommand
// sends: nil for us-east-1 or an unset region, otherwise a
// CreateBucketConfiguration document naming the target region.
func (c BucketConfiguration) locationConstraintXML() []byte {
	name := c.LocationConstraint.DisplayName()
	if name == "" || name == "us-east-1" {
		return nil
	}
	doc := createBucketConfigurationXML{LocationConstraint: name}
	out, err := xml.Marshal(doc)
	if err != nil {
		return nil
	}
	return out
}

// headers renders ACL/object-lock/grant fields as the x-amz-* headers
// S3 expects on CreateBucket (spec.md §4.E "Path suffix" note on
// CreateBucket headers).
func (c BucketConfiguration) headers() map[string]string {
	out := map[string]string{}
	if c.ACL != "" {
		out["x-amz-acl"] = c.ACL
	}
	if c.ObjectLockEnabled {
		out["x-amz-bucket-object-lock-enabled"] = "true"
	}
	for _, g := range c.Grants {
		name := g.Kind.headerName()
		if name == "" {
			continue
		}
		if existing, ok := out[name]; ok {
			out[name] = existing + ", " + g.Grantee
		} else {
			out[name] = g.Grantee
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
