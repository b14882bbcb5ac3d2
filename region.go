package s3

import (
	"os"
	"strings"
)

// Region names the symbolic region a Bucket talks to. The set of named
// regions is closed; anything unrecognised becomes Custom, so parsing
// is total (spec.md §9 "Open variants for Region").
type Region struct {
	// name is the named-region tag ("us-east-1", "r2", "custom") used
	// to select the host/scheme table below. For Custom it is "custom".
	name string

	// displayName is the signing-scope region id of a named region and
	// is set only for those; DisplayName() returns "auto" for R2 and
	// the caller-supplied region string for Custom.
	displayName string

	// r2Account is set only for R2 regions.
	r2Account string

	// customRegion/customEndpoint are set only for Custom regions.
	customRegion   string
	customEndpoint string
}

// region table: tag -> (displayName, host). scheme is https for all of
// these; Custom handles its own scheme.
var namedRegions = map[string]struct {
	displayName string
	host        string
}{
	"us-east-1":      {"us-east-1", "s3.amazonaws.com"},
	"us-east-2":      {"us-east-2", "s3.us-east-2.amazonaws.com"},
	"us-west-1":      {"us-west-1", "s3.us-west-1.amazonaws.com"},
	"us-west-2":      {"us-west-2", "s3.us-west-2.amazonaws.com"},
	"ca-central-1":   {"ca-central-1", "s3.ca-central-1.amazonaws.com"},
	"eu-west-1":      {"eu-west-1", "s3.eu-west-1.amazonaws.com"},
	"eu-west-2":      {"eu-west-2", "s3.eu-west-2.amazonaws.com"},
	"eu-west-3":      {"eu-west-3", "s3.eu-west-3.amazonaws.com"},
	"eu-central-1":   {"eu-central-1", "s3.eu-central-1.amazonaws.com"},
	"eu-north-1":     {"eu-north-1", "s3.eu-north-1.amazonaws.com"},
	"eu-south-1":     {"eu-south-1", "s3.eu-south-1.amazonaws.com"},
	"ap-south-1":     {"ap-south-1", "s3.ap-south-1.amazonaws.com"},
	"ap-southeast-1": {"ap-southeast-1", "s3.ap-southeast-1.amazonaws.com"},
	"ap-southeast-2": {"ap-southeast-2", "s3.ap-southeast-2.amazonaws.com"},
	"ap-northeast-1": {"ap-northeast-1", "s3.ap-northeast-1.amazonaws.com"},
	"ap-northeast-2": {"ap-northeast-2", "s3.ap-northeast-2.amazonaws.com"},
	"ap-northeast-3": {"ap-northeast-3", "s3.ap-northeast-3.amazonaws.com"},
	"sa-east-1":      {"sa-east-1", "s3.sa-east-1.amazonaws.com"},
	"me-south-1":     {"me-south-1", "s3.me-south-1.amazonaws.com"},
	"af-south-1":     {"af-south-1", "s3.af-south-1.amazonaws.com"},
	"cn-north-1":     {"cn-north-1", "s3.cn-north-1.amazonaws.com.cn"},
	"cn-northwest-1":  {"cn-northwest-1", "s3.cn-northwest-1.amazonaws.com.cn"},
	"us-gov-east-1":  {"us-gov-east-1", "s3.us-gov-east-1.amazonaws.com"},
	"us-gov-west-1":  {"us-gov-west-1", "s3.us-gov-west-1.amazonaws.com"},

	// Wasabi.
	"wa-us-east-1": {"us-east-1", "s3.wasabisys.com"},
	"wa-us-east-2": {"us-east-2", "s3.us-east-2.wasabisys.com"},
	"wa-us-west-1": {"us-west-1", "s3.us-west-1.wasabisys.com"},
	"wa-eu-central-1": {"eu-central-1", "s3.eu-central-1.wasabisys.com"},

	// DigitalOcean Spaces.
	"nyc3": {"nyc3", "nyc3.digitaloceanspaces.com"},
	"ams3": {"ams3", "ams3.digitaloceanspaces.com"},
	"sgp1": {"sgp1", "sgp1.digitaloceanspaces.com"},
	"fra1": {"fra1", "fra1.digitaloceanspaces.com"},

	// Yandex Object Storage.
	"ru-central1": {"ru-central1", "storage.yandexcloud.net"},
	"yandex":      {"ru-central1", "storage.yandexcloud.net"},
}

// ParseRegion parses a region tag per spec.md §4.A. Unknown strings
// become Custom{region: s, endpoint: s} — parsing never fails.
func ParseRegion(s string) Region {
	if strings.HasPrefix(s, "r2::") {
		return Region{name: "r2", r2Account: strings.TrimPrefix(s, "r2::")}
	}
	if def, ok := namedRegions[s]; ok {
		return Region{name: s, displayName: def.displayName}
	}
	return Region{name: "custom", customRegion: s, customEndpoint: s}
}

// CustomRegion builds a Region with an independent region tag and
// endpoint, for S3-compatible services that don't fit the named table.
func CustomRegion(region, endpoint string) Region {
	return Region{name: "custom", customRegion: region, customEndpoint: endpoint}
}

// R2Region builds a Cloudflare R2 region bound to an account id.
func R2Region(accountID string) Region {
	return Region{name: "r2", r2Account: accountID}
}

// RegionFromEnv mirrors rust-s3's Region::from_default_env: AWS_REGION
// selects a named region, AWS_ENDPOINT (if set) overrides it with a
// Custom endpoint sharing the same display name.
func RegionFromEnv() Region {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	if endpoint := os.Getenv("AWS_ENDPOINT"); endpoint != "" {
		return CustomRegion(region, endpoint)
	}
	return ParseRegion(region)
}

// String reconstructs the tag a region was parsed from, satisfying
// spec.md §8 property 7: ParseRegion(r).String() == r for named
// regions.
func (r Region) String() string {
	switch r.name {
	case "r2":
		return "r2::" + r.r2Account
	case "custom":
		return r.customRegion
	default:
		return r.name
	}
}

// DisplayName is the string used in the SigV4 signing scope.
func (r Region) DisplayName() string {
	switch r.name {
	case "r2":
		return "auto"
	case "custom":
		return r.customRegion
	default:
		return r.displayName
	}
}

// Host returns the DNS name with no scheme prefix.
func (r Region) Host() string {
	switch r.name {
	case "r2":
		return r.r2Account + ".r2.cloudflarestorage.com"
	case "custom":
		return stripScheme(r.customEndpoint)
	default:
		return namedRegions[r.name].host
	}
}

// Scheme returns "http" or "https". Named regions (including R2) are
// always https; Custom honours an explicit "scheme://" prefix on its
// endpoint and defaults to https otherwise.
func (r Region) Scheme() string {
	if r.name == "custom" {
		if scheme, ok := schemeOf(r.customEndpoint); ok {
			return scheme
		}
	}
	return "https"
}

func schemeOf(endpoint string) (string, bool) {
	if idx := strings.Index(endpoint, "://"); idx >= 0 {
		return endpoint[:idx], true
	}
	return "", false
}

func stripScheme(endpoint string) string {
	if idx := strings.Index(endpoint, "://"); idx >= 0 {
		return endpoint[idx+3:]
	}
	return endpoint
}

// IsCustom reports whether this region was produced from an unrecognised
// tag (as opposed to a named region or R2).
func (r Region) IsCustom() bool {
	return r.name == "custom"
}
