package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-krb5/krb5/client"
	"github.com/go-krb5/krb5/config"
	"github.com/go-krb5/krb5/credentials"
	"github.com/go-krb5/krb5/keytab"
	"github.com/go-krb5/krb5/spnego"
)

// PureKerberosProvider implements SecurityProvider using the pure Go
// Kerberos library. HTTP Negotiate with plain Kerberos is single-leg: one
// Step(nil) call yields the whole SPNEGO token. The server's mutual-auth
// token, if any, is checked through VerifyServerToken.
type PureKerberosProvider struct {
	client       *client.Client
	spnegoClient *spnego.SPNEGO
	targetSPN    string
	isComplete   bool
}

// PureKerberosConfig holds the configuration for the PureKerberosProvider.
type PureKerberosConfig struct {
	// Realm is the Kerberos realm (e.g. EXAMPLE.COM). If empty, the
	// default realm from krb5.conf is used.
	Realm string

	// Krb5ConfPath is the path to the krb5.conf file.
	Krb5ConfPath string

	// Source selects where credentials come from (see ResolveCredentialSource).
	Source CredentialSource

	// Credentials supply the principal name, and the password when
	// Source.Kind is SourcePassword.
	Credentials *Credentials
}

// NewPureKerberosProvider creates a new pure Go Kerberos provider.
func NewPureKerberosProvider(cfg PureKerberosConfig, targetSPN string) (*PureKerberosProvider, error) {
	// Load krb5.conf
	if cfg.Krb5ConfPath == "" {
		cfg.Krb5ConfPath = os.Getenv("KRB5_CONFIG")
		if cfg.Krb5ConfPath == "" {
			cfg.Krb5ConfPath = "/etc/krb5.conf"
		}
	}
	conf, err := config.Load(cfg.Krb5ConfPath)
	if err != nil {
		return nil, fmt.Errorf("load krb5.conf from %s: %w", cfg.Krb5ConfPath, err)
	}

	realm := cfg.Realm
	if realm == "" {
		realm = conf.LibDefaults.DefaultRealm
	}

	var cl *client.Client

	switch cfg.Source.Kind {
	case SourceCCache:
		cc, err := credentials.LoadCCache(cfg.Source.CCachePath)
		if err != nil {
			return nil, fmt.Errorf("load ccache from %s: %w", cfg.Source.CCachePath, err)
		}
		cl, err = client.NewFromCCache(cc, conf, client.DisablePAFXFAST(true))
		if err != nil {
			return nil, fmt.Errorf("create client from ccache: %w", err)
		}

	case SourceKeytab:
		if cfg.Credentials == nil || cfg.Credentials.Username == "" {
			return nil, fmt.Errorf("keytab source requires a principal")
		}
		kt, err := keytab.Load(cfg.Source.KeytabPath)
		if err != nil {
			return nil, fmt.Errorf("load keytab from %s: %w", cfg.Source.KeytabPath, err)
		}
		cl = client.NewWithKeytab(cfg.Credentials.Username, realm, kt, conf, client.DisablePAFXFAST(true))

	case SourcePassword:
		if cfg.Credentials == nil {
			return nil, ErrNoCredentials
		}
		cl = client.NewWithPassword(
			cfg.Credentials.Username,
			realm,
			cfg.Credentials.Password,
			conf,
			client.DisablePAFXFAST(true),
		)

	default:
		return nil, ErrNoCredentials
	}

	slog.Debug("kerberos provider created",
		"source", cfg.Source.Kind.String(), "realm", realm, "spn", targetSPN)

	return &PureKerberosProvider{
		client:    cl,
		targetSPN: targetSPN,
	}, nil
}

// Step performs a GSS-API/SPNEGO step.
func (p *PureKerberosProvider) Step(ctx context.Context, inputToken []byte) ([]byte, bool, error) {
	if len(inputToken) > 0 {
		// Plain Kerberos is single-leg. A 401 carrying a token after we
		// already sent ours means the server did not accept the context.
		if p.isComplete {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("unexpected server token before client token was sent")
	}

	if err := p.client.Login(); err != nil {
		return nil, false, fmt.Errorf("kerberos login: %w", err)
	}

	if p.spnegoClient == nil {
		p.spnegoClient = spnego.SPNEGOClient(p.client, p.targetSPN)
	}

	tkn, err := p.spnegoClient.InitSecContext()
	if err != nil {
		return nil, false, fmt.Errorf("init security context: %w", err)
	}
	token, err := tkn.Marshal()
	if err != nil {
		return nil, false, fmt.Errorf("marshal token: %w", err)
	}

	p.isComplete = true
	return token, false, nil
}

// VerifyServerToken checks the mutual-authentication token the server sends
// with a successful response, making sure the response came from the server
// the ticket was issued for.
func (p *PureKerberosProvider) VerifyServerToken(ctx context.Context, token []byte) error {
	var st spnego.SPNEGOToken
	if err := st.Unmarshal(token); err != nil {
		return fmt.Errorf("unmarshal server token: %w", err)
	}
	if !st.Resp {
		return fmt.Errorf("server sent a negotiation token of the wrong type")
	}
	if st.NegTokenResp.State() == spnego.NegStateReject {
		return fmt.Errorf("server rejected the security context")
	}
	return nil
}

// Complete returns true if the context is established.
func (p *PureKerberosProvider) Complete() bool {
	return p.isComplete
}

// Close releases resources.
func (p *PureKerberosProvider) Close() error {
	p.client.Destroy()
	return nil
}
