// Package ssoauth provides transparent Kerberos/SPNEGO single sign-on for
// version-control HTTP remotes protected by Negotiate authentication
// (e.g. Mercurial or Git servers behind Active Directory).
//
// Instead of prompting for a username and password, the client answers the
// server's "WWW-Authenticate: Negotiate" challenge with a Kerberos token.
// Credentials come from the user's credential cache (kinit), or from a keytab
// configured in a Mercurial-style config file:
//
//	[krb]
//	keytab = ~/.keytabs/alice.keytab
//	principal = alice@EXAMPLE.COM
//
// # Architecture
//
// The library is organized into layers:
//
//	┌─────────────────────────────────────────────────────────┐
//	│  client/     High-level convenience API                 │
//	├─────────────────────────────────────────────────────────┤
//	│  auth/       Negotiate/NTLM/Basic authenticators and    │
//	│              Kerberos/SSPI security providers           │
//	├─────────────────────────────────────────────────────────┤
//	│  hgrc/       Mercurial-style config file loading        │
//	├─────────────────────────────────────────────────────────┤
//	│  transport/  HTTP client construction (TLS, timeouts)   │
//	└─────────────────────────────────────────────────────────┘
//
// # Quick Start
//
//	cfg, err := client.LoadConfig("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, err := client.New("https://hg.example.com/repo", cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	if err := c.Check(ctx); err != nil {
//	    log.Fatal(err)
//	}
package ssoauth
