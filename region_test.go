package s3

import "testing"

// S3: virtual-host vs. path-style Host header composition, plus the
// scheme carried by an explicit "scheme://" prefix on a Custom region.
func TestVirtualHostVsPathStyleHost(t *testing.T) {
	region := CustomRegion("custom-region", "custom-region")
	creds := Credentials{AccessKey: "ak", SecretKey: "sk"}

	virtualHost := NewBucket("my-first-bucket", region, creds)
	if got, want := hostFor(virtualHost), "my-first-bucket.custom-region"; got != want {
		t.Errorf("virtual-host Host = %q, want %q", got, want)
	}

	pathStyle := NewBucket("my-first-bucket", region, creds).WithPathStyle(true)
	if got, want := hostFor(pathStyle), "custom-region"; got != want {
		t.Errorf("path-style Host = %q, want %q", got, want)
	}
}

func TestCustomRegionSchemePrefix(t *testing.T) {
	region := CustomRegion("custom-region", "http://custom-region")
	if got, want := region.Scheme(), "http"; got != want {
		t.Errorf("Scheme() = %q, want %q", got, want)
	}
	if got, want := region.Host(), "custom-region"; got != want {
		t.Errorf("Host() = %q, want %q", got, want)
	}
}

func TestParseRegionIsTotal(t *testing.T) {
	r := ParseRegion("some-unknown-region")
	if !r.IsCustom() {
		t.Errorf("ParseRegion of an unknown string should produce a Custom region")
	}
	if r.DisplayName() != "some-unknown-region" || r.Host() != "some-unknown-region" {
		t.Errorf("unknown region should carry identical region/endpoint, got display=%q host=%q", r.DisplayName(), r.Host())
	}
}

func TestParseRegionNamedRoundTrip(t *testing.T) {
	r := ParseRegion("eu-central-1")
	if got, want := r.String(), "eu-central-1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := r.Host(), "s3.eu-central-1.amazonaws.com"; got != want {
		t.Errorf("Host() = %q, want %q", got, want)
	}
}

func TestR2RegionHost(t *testing.T) {
	r := R2Region("abc123")
	if got, want := r.Host(), "abc123.r2.cloudflarestorage.com"; got != want {
		t.Errorf("Host() = %q, want %q", got, want)
	}
	if got, want := r.DisplayName(), "auto"; got != want {
		t.Errorf("DisplayName() = %q, want %q", got, want)
	}
}
