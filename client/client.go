// Package client provides a high-level API for single sign-on access to
// version-control HTTP remotes.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/smnsjas/go-ssoauth/auth"
	"github.com/smnsjas/go-ssoauth/hgrc"
	"github.com/smnsjas/go-ssoauth/transport"
)

// AuthType specifies the authentication mechanism.
type AuthType int

const (
	// AuthNegotiate uses Kerberos/SPNEGO (the default).
	AuthNegotiate AuthType = iota
	// AuthNTLM uses NTLM authentication.
	AuthNTLM
	// AuthBasic uses HTTP Basic authentication.
	AuthBasic
)

// Config holds configuration for an SSO client.
type Config struct {
	// AuthType specifies the authentication type.
	AuthType AuthType

	// Principal is the Kerberos identity in user@REALM form. Required
	// when a keytab is configured.
	Principal string

	// Realm overrides the principal's realm and the krb5.conf default.
	Realm string

	// Keytab is a keytab file path, used when the credential cache holds
	// no valid ticket.
	Keytab string

	// CCache is the credential cache path. Empty means $KRB5CCNAME or the
	// per-uid default.
	CCache string

	// Krb5Conf is the krb5.conf path.
	Krb5Conf string

	// SPN overrides the service principal name derived from the remote's
	// canonical host name.
	SPN string

	// Password is used for NTLM/Basic, or as the Kerberos last resort.
	Password string

	// Domain is the NTLM domain.
	Domain string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification.
	// WARNING: Only use for testing.
	InsecureSkipVerify bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AuthType: AuthNegotiate,
		Timeout:  hgrc.DefaultTimeout,
	}
}

// FromHgrc converts loaded config-file settings into a client Config.
func FromHgrc(rc *hgrc.Config) Config {
	cfg := DefaultConfig()
	cfg.Principal = rc.Principal
	cfg.Realm = rc.Realm
	cfg.Keytab = rc.Keytab
	cfg.CCache = rc.CCache
	cfg.Krb5Conf = rc.Krb5Conf
	cfg.SPN = rc.SPN
	cfg.Timeout = rc.Timeout
	cfg.InsecureSkipVerify = rc.InsecureSkipVerify

	switch rc.AuthScheme {
	case hgrc.SchemeNTLM:
		cfg.AuthType = AuthNTLM
	case hgrc.SchemeBasic:
		cfg.AuthType = AuthBasic
	default:
		cfg.AuthType = AuthNegotiate
	}
	return cfg
}

// LoadConfig reads the Mercurial-style config files (see package hgrc) and
// converts them. An empty path means the default locations.
func LoadConfig(path string) (Config, error) {
	rc, err := hgrc.Load(path)
	if err != nil {
		return Config{}, err
	}
	return FromHgrc(rc), nil
}

// Validate checks that the configuration is valid for its auth type.
func (c *Config) Validate() error {
	switch c.AuthType {
	case AuthNTLM, AuthBasic:
		if c.Principal == "" && c.Password == "" {
			return errors.New("username and password are required")
		}
	case AuthNegotiate:
		// All credential sources are optional here; the provider resolves
		// ccache/keytab/password at handshake time.
	default:
		return fmt.Errorf("unknown auth type %d", c.AuthType)
	}
	if c.Keytab != "" && c.Principal == "" {
		return errors.New("keytab configured without a principal")
	}
	return nil
}

// Client wraps an authenticated HTTP client for one remote.
type Client struct {
	mu sync.Mutex

	remote   *url.URL
	config   Config
	spn      string
	provider auth.SecurityProvider

	transport *transport.HTTPTransport
	closed    bool
}

// spnLookupTimeout bounds the DNS canonicalization done at construction.
const spnLookupTimeout = 5 * time.Second

// New creates a client for the given remote URL. For Negotiate, the
// credential source (cached ticket, keytab, password) is resolved here, so a
// missing or invalid keytab fails fast.
func New(remote string, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	u, err := url.Parse(remote)
	if err != nil {
		return nil, fmt.Errorf("parse remote url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported remote scheme %q", u.Scheme)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = hgrc.DefaultTimeout
	}

	tr := transport.NewHTTPTransport(
		transport.WithTimeout(cfg.Timeout),
		transport.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
	)

	c := &Client{
		remote:    u,
		config:    cfg,
		transport: tr,
	}

	authenticator, err := c.buildAuthenticator()
	if err != nil {
		return nil, err
	}
	tr.Client().Transport = authenticator.Transport(tr.Client().Transport)

	return c, nil
}

// buildAuthenticator wires the configured scheme onto the transport.
func (c *Client) buildAuthenticator() (auth.Authenticator, error) {
	user, realm := "", c.config.Realm
	if c.config.Principal != "" {
		var err error
		var prealm string
		user, prealm, err = hgrc.SplitPrincipal(c.config.Principal)
		if err != nil {
			return nil, err
		}
		if realm == "" {
			realm = prealm
		}
	}

	creds := auth.Credentials{
		Username: user,
		Password: c.config.Password,
		Domain:   c.config.Domain,
	}

	switch c.config.AuthType {
	case AuthNTLM:
		return auth.NewNTLMAuth(creds), nil

	case AuthBasic:
		return auth.NewBasicAuth(creds), nil

	default:
		ctx, cancel := context.WithTimeout(context.Background(), spnLookupTimeout)
		defer cancel()

		c.spn = c.config.SPN
		if c.spn == "" {
			c.spn = auth.DeriveSPN(ctx, c.remote.Host)
		}

		var credsPtr *auth.Credentials
		if creds.Username != "" || creds.Password != "" {
			credsPtr = &creds
		}

		provider, err := auth.NewKerberosProvider(auth.KerberosProviderConfig{
			TargetSPN:    c.spn,
			Realm:        realm,
			Krb5ConfPath: c.config.Krb5Conf,
			KeytabPath:   c.config.Keytab,
			CCachePath:   c.config.CCache,
			Credentials:  credsPtr,
		})
		if err != nil {
			return nil, fmt.Errorf("create kerberos provider: %w", err)
		}
		c.provider = provider
		return auth.NewNegotiateAuth(provider), nil
	}
}

// SPN returns the service principal name the client authenticates against.
// Empty for non-Negotiate auth types.
func (c *Client) SPN() string {
	return c.spn
}

// HTTPClient returns the authenticated *http.Client for direct use.
func (c *Client) HTTPClient() *http.Client {
	return c.transport.Client()
}

// Get fetches a path relative to the remote and returns the body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}
	return c.transport.Get(ctx, c.remote.ResolveReference(ref).String())
}

// Check probes the remote with one authenticated request, the way the host
// tool's first wire-protocol call would. It returns nil when the handshake
// succeeded, transport.ErrUnauthorized (wrapped) when the server refused the
// credentials, and other errors for transport-level failures.
func (c *Client) Check(ctx context.Context) error {
	probe := *c.remote
	q := probe.Query()
	q.Set("cmd", "capabilities")
	probe.RawQuery = q.Encode()

	_, err := c.transport.Get(ctx, probe.String())
	if err != nil {
		return fmt.Errorf("check %s: %w", redactURL(&probe), err)
	}
	return nil
}

// Close releases the security context and idle connections.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.transport.CloseIdleConnections()
	if c.provider != nil {
		return c.provider.Close()
	}
	return nil
}

// redactURL strips userinfo from a URL for error messages.
func redactURL(u *url.URL) string {
	if u.User == nil {
		return u.String()
	}
	cp := *u
	cp.User = nil
	return cp.String()
}
