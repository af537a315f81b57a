package auth

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-krb5/krb5/credentials"
)

// SourceKind identifies where Kerberos credentials come from.
type SourceKind int

const (
	// SourceCCache uses an existing ticket from a credential cache.
	SourceCCache SourceKind = iota
	// SourceKeytab obtains a fresh ticket with a keytab's long-term key.
	SourceKeytab
	// SourcePassword obtains a fresh ticket with an explicit password.
	SourcePassword
)

// String returns the source kind name for logging.
func (k SourceKind) String() string {
	switch k {
	case SourceCCache:
		return "ccache"
	case SourceKeytab:
		return "keytab"
	case SourcePassword:
		return "password"
	default:
		return "unknown"
	}
}

// CredentialSource is the resolved credential source for one handshake.
type CredentialSource struct {
	Kind       SourceKind
	CCachePath string
	KeytabPath string
}

// expiryLeeway avoids picking a cached ticket that expires mid-handshake.
const expiryLeeway = time.Minute

// ResolveCredentialSource picks the credential source for a handshake.
// A valid, unexpired ticket in the credential cache always wins; the keytab
// is only consulted when the cache is missing, unreadable, or expired, and
// an explicit password is the last resort.
func ResolveCredentialSource(cfg KerberosProviderConfig, clk Clock) (CredentialSource, error) {
	ccachePath := cfg.CCachePath
	if ccachePath == "" {
		if cfg.KeytabPath != "" {
			// With a keytab configured the cache location is pinned to the
			// per-uid file, so the ticket obtained from the keytab and the
			// freshness check always look at the same cache regardless of
			// what $KRB5CCNAME says.
			ccachePath = fmt.Sprintf("/tmp/krb5cc_%d", os.Geteuid())
		} else {
			ccachePath = DefaultCCachePath()
		}
	}

	if CCacheHasValidTGT(ccachePath, clk) {
		return CredentialSource{Kind: SourceCCache, CCachePath: ccachePath}, nil
	}

	if cfg.KeytabPath != "" {
		if _, err := os.Stat(cfg.KeytabPath); err != nil {
			return CredentialSource{}, fmt.Errorf("keytab %s: %w", cfg.KeytabPath, err)
		}
		if cfg.Credentials == nil || cfg.Credentials.Username == "" {
			return CredentialSource{}, fmt.Errorf("keytab %s configured without a principal", cfg.KeytabPath)
		}
		return CredentialSource{Kind: SourceKeytab, KeytabPath: cfg.KeytabPath}, nil
	}

	if cfg.Credentials != nil && cfg.Credentials.Password != "" {
		return CredentialSource{Kind: SourcePassword}, nil
	}

	return CredentialSource{}, ErrNoCredentials
}

// DefaultCCachePath returns the credential cache the platform tools (kinit,
// klist) would use: $KRB5CCNAME if set, otherwise the per-uid file cache.
func DefaultCCachePath() string {
	if name := os.Getenv("KRB5CCNAME"); name != "" {
		// Only FILE caches are supported; other types (API, KCM) fall
		// through to the per-uid default.
		if strings.HasPrefix(name, "FILE:") {
			return strings.TrimPrefix(name, "FILE:")
		}
		if !strings.Contains(name, ":") {
			return name
		}
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Geteuid())
}

// CCacheHasValidTGT reports whether the cache at path holds a ticket-granting
// ticket that is still valid (with a small leeway so the ticket does not
// expire mid-handshake).
func CCacheHasValidTGT(path string, clk Clock) bool {
	cc, err := credentials.LoadCCache(path)
	if err != nil {
		return false
	}
	deadline := clk.Now().Add(expiryLeeway)
	for _, cred := range cc.Credentials {
		names := cred.Server.PrincipalName.NameString
		if len(names) == 0 || names[0] != "krbtgt" {
			continue
		}
		if cred.EndTime.After(deadline) {
			return true
		}
	}
	return false
}
