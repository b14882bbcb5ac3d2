package s3

import "testing"

func TestCredentialsTokenPrefersSessionToken(t *testing.T) {
	c := Credentials{SessionToken: "session", SecurityToken: "legacy"}
	if got := c.Token(); got != "session" {
		t.Errorf("Token() = %q, want session", got)
	}

	c2 := Credentials{SecurityToken: "legacy"}
	if got := c2.Token(); got != "legacy" {
		t.Errorf("Token() = %q, want legacy", got)
	}
}

func TestCredentialsIsAnonymous(t *testing.T) {
	if !(Credentials{}).IsAnonymous() {
		t.Errorf("zero-value Credentials should be anonymous")
	}
	if (Credentials{AccessKey: "ak", SecretKey: "sk"}).IsAnonymous() {
		t.Errorf("complete Credentials should not be anonymous")
	}
	if !(Credentials{AccessKey: "ak"}).IsAnonymous() {
		t.Errorf("a missing secret key should still count as anonymous")
	}
}

func TestResolveExplicitCredentialsShortCircuits(t *testing.T) {
	explicit := Credentials{AccessKey: "explicit-ak", SecretKey: "explicit-sk"}
	provider := NewCredentialsProvider(explicit, "")

	got, err := provider.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != explicit {
		t.Errorf("Resolve() = %+v, want the explicit credentials unchanged", got)
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "env-ak")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "env-sk")
	t.Setenv("AWS_SESSION_TOKEN", "env-token")

	creds, ok := credentialsFromEnv()
	if !ok {
		t.Fatalf("credentialsFromEnv: expected ok")
	}
	if creds.AccessKey != "env-ak" || creds.SecretKey != "env-sk" || creds.SessionToken != "env-token" {
		t.Errorf("credentialsFromEnv() = %+v, unexpected values", creds)
	}
}

func TestCredentialsFromEnvIncompleteFails(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "only-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	if _, ok := credentialsFromEnv(); ok {
		t.Errorf("credentialsFromEnv should fail when the secret key is missing")
	}
}
