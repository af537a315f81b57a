package auth

import (
	"net/http"

	"github.com/Azure/go-ntlmssp"
)

// NTLMAuth implements NTLM authentication. It is the fallback for servers
// that offer NTLM but not Kerberos.
type NTLMAuth struct {
	creds Credentials
}

// NewNTLMAuth creates a new NTLM authentication handler.
func NewNTLMAuth(creds Credentials) *NTLMAuth {
	return &NTLMAuth{creds: creds}
}

// Name returns the authentication scheme name.
func (a *NTLMAuth) Name() string {
	return "NTLM"
}

// Transport wraps an http.RoundTripper with NTLM authentication.
// Uses github.com/Azure/go-ntlmssp for the NTLM handshake. The negotiator
// reads credentials from the request's Basic auth header, so the wrapper
// injects them on every request.
func (a *NTLMAuth) Transport(base http.RoundTripper) http.RoundTripper {
	return &ntlmTransport{
		creds: a.creds,
		next: ntlmssp.Negotiator{
			RoundTripper: base,
		},
	}
}

type ntlmTransport struct {
	creds Credentials
	next  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *ntlmTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCopy := req.Clone(req.Context())

	user := t.creds.Username
	if t.creds.Domain != "" {
		user = t.creds.Domain + `\` + t.creds.Username
	}
	reqCopy.SetBasicAuth(user, t.creds.Password)

	return t.next.RoundTrip(reqCopy)
}

// GetCredentials returns the credentials for the NTLM negotiator.
func (a *NTLMAuth) GetCredentials() (string, string, string) {
	return a.creds.Domain, a.creds.Username, a.creds.Password
}
