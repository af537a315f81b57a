package auth

const (
	// SSPIPackageNegotiate selects the SPNEGO package on Windows.
	SSPIPackageNegotiate = "Negotiate"
	// SSPIPackageKerberos disables NTLM fallback for Kerberos-only auth.
	SSPIPackageKerberos = "Kerberos"
)

// KerberosProviderConfig holds unified config for any Kerberos provider.
// This type is shared across all platforms.
type KerberosProviderConfig struct {
	// TargetSPN is the Service Principal Name (e.g., "HTTP/hg.example.com").
	TargetSPN string

	// Realm is the Kerberos realm (e.g., "EXAMPLE.COM").
	// If empty, derived from krb5.conf.
	Realm string

	// Krb5ConfPath is the path to krb5.conf (default: /etc/krb5.conf).
	Krb5ConfPath string

	// KeytabPath is the path to a keytab file (optional). The keytab is
	// only used when the credential cache holds no valid ticket.
	KeytabPath string

	// CCachePath is the path to a credential cache (optional). If empty,
	// $KRB5CCNAME or the per-uid default cache is used.
	CCachePath string

	// Credentials are username/password credentials (optional). The
	// username doubles as the keytab principal's name part.
	Credentials *Credentials

	// SSPIPackage selects the SSPI package on Windows (default: Negotiate).
	// Use "Kerberos" to disable NTLM fallback for Kerberos-only auth.
	// Ignored on non-Windows platforms.
	SSPIPackage string
}
