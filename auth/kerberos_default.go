//go:build !windows

package auth

// NewKerberosProvider creates the appropriate Kerberos provider for the
// platform. On non-Windows, this uses the pure Go implementation with the
// credential source resolution order: valid cached ticket, keytab, password.
func NewKerberosProvider(cfg KerberosProviderConfig) (SecurityProvider, error) {
	src, err := ResolveCredentialSource(cfg, SystemClock())
	if err != nil {
		return nil, err
	}
	return NewPureKerberosProvider(PureKerberosConfig{
		Realm:        cfg.Realm,
		Krb5ConfPath: cfg.Krb5ConfPath,
		Source:       src,
		Credentials:  cfg.Credentials,
	}, cfg.TargetSPN)
}

// SupportsSSO returns true if the platform supports SSO without kinit.
func SupportsSSO() bool {
	return false
}
