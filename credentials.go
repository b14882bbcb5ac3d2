package s3

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Credentials holds the access key pair and optional session token used
// to sign requests. A zero-value Credentials represents anonymous
// access: requests are sent unsigned.
type Credentials struct {
	AccessKey     string
	SecretKey     string
	SecurityToken string
	SessionToken  string
}

// Token returns the effective session token, preferring SessionToken
// over the legacy SecurityToken field per spec.md §3.
func (c Credentials) Token() string {
	if c.SessionToken != "" {
		return c.SessionToken
	}
	return c.SecurityToken
}

// IsAnonymous reports whether no access key/secret pair is present.
func (c Credentials) IsAnonymous() bool {
	return c.AccessKey == "" || c.SecretKey == ""
}

// complete reports whether both halves of the key pair are present;
// used to decide whether a chain source counts as "having credentials".
func (c Credentials) complete() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// CredentialsProvider resolves a Credentials value, trying each source
// in spec.md §4.B's order and swallowing intermediate failures.
type CredentialsProvider struct {
	// Explicit, if non-zero, is tried first.
	Explicit Credentials
	// Profile names the ~/.aws/credentials section to read; defaults
	// to "default".
	Profile string
	// Logger receives a Debug line for every source that was tried and
	// skipped, per spec.md §7's "errors from earlier sources are
	// swallowed" propagation policy.
	Logger Logger

	httpClient *http.Client
}

// NewCredentialsProvider builds a chain that tries, in order: the given
// explicit credentials, environment variables, the named (or "default")
// profile file, then EC2/ECS instance metadata.
func NewCredentialsProvider(explicit Credentials, profile string) *CredentialsProvider {
	if profile == "" {
		profile = "default"
	}
	return &CredentialsProvider{
		Explicit:   explicit,
		Profile:    profile,
		Logger:     &nopLogger{},
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}
}

// Resolve runs the chain and returns the first complete credentials
// found, or ErrNoCredentials if every source failed.
func (p *CredentialsProvider) Resolve() (Credentials, error) {
	if p.Logger == nil {
		p.Logger = &nopLogger{}
	}

	if p.Explicit.complete() {
		return p.Explicit, nil
	}
	p.Logger.Debug("explicit credentials absent, trying environment")

	if creds, ok := credentialsFromEnv(); ok {
		return creds, nil
	}
	p.Logger.Debug("environment credentials absent, trying profile file")

	if creds, err := p.credentialsFromProfile(); err == nil {
		return creds, nil
	} else {
		p.Logger.Debug("profile credentials unavailable: %v", err)
	}

	if creds, err := p.credentialsFromInstanceMetadata(); err == nil {
		return creds, nil
	} else {
		p.Logger.Debug("instance metadata credentials unavailable: %v", err)
	}

	return Credentials{}, ErrNoCredentials
}

func credentialsFromEnv() (Credentials, bool) {
	access := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if access == "" || secret == "" {
		return Credentials{}, false
	}
	return Credentials{
		AccessKey:     access,
		SecretKey:     secret,
		SecurityToken: os.Getenv("AWS_SECURITY_TOKEN"),
		SessionToken:  os.Getenv("AWS_SESSION_TOKEN"),
	}, true
}

func (p *CredentialsProvider) credentialsFromProfile() (Credentials, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Credentials{}, fmt.Errorf("resolve home directory: %w", err)
	}

	path := filepath.Join(home, ".aws", "credentials")
	cfg, err := ini.Load(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("load credentials file %s: %w", path, err)
	}

	section, err := cfg.GetSection(p.Profile)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %s", ErrMissingProfile, p.Profile)
	}

	access := section.Key("aws_access_key_id").String()
	secret := section.Key("aws_secret_access_key").String()
	if access == "" || secret == "" {
		return Credentials{}, fmt.Errorf("profile %s missing access key or secret key", p.Profile)
	}

	return Credentials{
		AccessKey:     access,
		SecretKey:     secret,
		SecurityToken: section.Key("aws_security_token").String(),
		SessionToken:  section.Key("aws_session_token").String(),
	}, nil
}

// instanceMetadataDoc is the JSON shape returned by both the ECS
// container credentials endpoint and the EC2 IMDS security-credentials
// endpoint.
type instanceMetadataDoc struct {
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	Token           string `json:"Token"`
}

func (p *CredentialsProvider) credentialsFromInstanceMetadata() (Credentials, error) {
	if uri := os.Getenv("AWS_CONTAINER_CREDENTIALS_RELATIVE_URI"); uri != "" {
		return p.fetchMetadataDoc("http://169.254.170.2" + uri)
	}

	if !looksLikeEC2() {
		return Credentials{}, fmt.Errorf("not running on EC2 and no container credentials URI set")
	}

	infoBody, err := p.getMetadata("http://169.254.169.254/latest/meta-data/iam/info")
	if err != nil {
		return Credentials{}, fmt.Errorf("fetch iam info: %w", err)
	}

	var info struct {
		InstanceProfileArn string `json:"InstanceProfileArn"`
	}
	if err := json.Unmarshal(infoBody, &info); err != nil {
		return Credentials{}, fmt.Errorf("decode iam info: %w", err)
	}

	parts := strings.Split(info.InstanceProfileArn, "/")
	role := parts[len(parts)-1]
	if role == "" {
		return Credentials{}, fmt.Errorf("empty role name derived from %q", info.InstanceProfileArn)
	}

	return p.fetchMetadataDoc("http://169.254.169.254/latest/meta-data/iam/security-credentials/" + role)
}

func (p *CredentialsProvider) fetchMetadataDoc(url string) (Credentials, error) {
	body, err := p.getMetadata(url)
	if err != nil {
		return Credentials{}, err
	}

	var doc instanceMetadataDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return Credentials{}, fmt.Errorf("decode instance metadata from %s: %w", url, err)
	}
	if doc.AccessKeyID == "" || doc.SecretAccessKey == "" {
		return Credentials{}, fmt.Errorf("instance metadata at %s missing access key or secret", url)
	}

	return Credentials{
		AccessKey:    doc.AccessKeyID,
		SecretKey:    doc.SecretAccessKey,
		SessionToken: doc.Token,
	}, nil
}

func (p *CredentialsProvider) getMetadata(url string) ([]byte, error) {
	client := p.httpClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// looksLikeEC2 checks the two filesystem markers spec.md §4.B names:
// the hypervisor UUID prefix and the DMI board vendor string.
func looksLikeEC2() bool {
	if data, err := os.ReadFile("/sys/hypervisor/uuid"); err == nil {
		if strings.HasPrefix(string(data), "ec2") {
			return true
		}
	}
	if data, err := os.ReadFile("/sys/class/dmi/id/board_vendor"); err == nil {
		if strings.HasPrefix(strings.TrimSpace(string(data)), "Amazon EC2") {
			return true
		}
	}
	return false
}
