// Package auth provides client-side authentication for HTTP version-control
// remotes.
//
// # Supported Authentication Methods
//
//   - Negotiate: SPNEGO challenge-response (RFC 4559), Kerberos-backed
//   - NTLM: NT LAN Manager authentication (via github.com/Azure/go-ntlmssp)
//   - Basic: HTTP Basic authentication (use only over TLS)
//
// # Platform Support
//
// On Windows, Negotiate authentication uses the native SSPI API and can do
// Single Sign-On (SSO) with the logged-in user's credentials.
//
// On other platforms (macOS, Linux), the pure Go Kerberos implementation is
// used. Credentials are resolved in order: a valid ticket in the credential
// cache (kinit), a configured keytab file, an explicit password.
//
// # Usage
//
// Kerberos with a keytab:
//
//	provider, _ := auth.NewKerberosProvider(auth.KerberosProviderConfig{
//	    TargetSPN:  "HTTP/hg.example.com",
//	    Realm:      "EXAMPLE.COM",
//	    KeytabPath: "/home/alice/.keytabs/alice.keytab",
//	    Credentials: &auth.Credentials{Username: "alice"},
//	})
//	a := auth.NewNegotiateAuth(provider)
//	httpClient.Transport = a.Transport(httpClient.Transport)
//
// Kerberos with the default credential cache (SSO after kinit):
//
//	provider, _ := auth.NewKerberosProvider(auth.KerberosProviderConfig{
//	    TargetSPN: "HTTP/hg.example.com",
//	    Realm:     "EXAMPLE.COM",
//	})
//	a := auth.NewNegotiateAuth(provider)
package auth
