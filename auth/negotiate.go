package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// maxNegotiateLegs is the maximum number of challenge-response legs per
// exchange. This prevents infinite loops from malicious servers. Plain
// Kerberos needs one leg; NTLM wrapped in SPNEGO needs three.
const maxNegotiateLegs = 5

// NegotiateAuth implements SPNEGO authentication using a pluggable SecurityProvider.
type NegotiateAuth struct {
	provider SecurityProvider
}

// NewNegotiateAuth creates a new Negotiate authenticator.
func NewNegotiateAuth(provider SecurityProvider) *NegotiateAuth {
	return &NegotiateAuth{
		provider: provider,
	}
}

// Name returns the scheme name.
func (a *NegotiateAuth) Name() string {
	return "Negotiate"
}

// Transport wraps the base transport with Negotiate authentication logic.
func (a *NegotiateAuth) Transport(base http.RoundTripper) http.RoundTripper {
	return &negotiateRoundTripper{
		base:     base,
		provider: a.provider,
	}
}

type negotiateRoundTripper struct {
	base     http.RoundTripper
	provider SecurityProvider
}

func (rt *negotiateRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// Buffer the request body upfront so every leg can replay it. Streamed
	// bodies (ContentLength -1 or 0-with-body) are buffered too; sending a
	// truncated body on the authenticated retry would corrupt the request.
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		_ = req.Body.Close() // Error intentionally ignored; body already read
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		// Reset body for initial request
		req.ContentLength = int64(len(bodyBytes))
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(bodyBytes)), nil
		}
	}

	exchange := uuid.NewString()

	var resp *http.Response
	var serverToken []byte
	var clientToken []byte

	// Bounded retry loop for multi-leg SPNEGO
	for leg := 0; leg < maxNegotiateLegs; leg++ {
		// Clone request to avoid data races
		reqClone := req.Clone(req.Context())
		if bodyBytes != nil {
			reqClone.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			reqClone.ContentLength = int64(len(bodyBytes))
		}

		// Add auth header if we have a token from provider
		if clientToken != nil {
			reqClone.Header.Set("Authorization",
				fmt.Sprintf("Negotiate %s", base64.StdEncoding.EncodeToString(clientToken)))
		}

		// Execute request
		var err error
		resp, err = rt.base.RoundTrip(reqClone)
		if err != nil {
			return nil, err
		}

		// Success - verify the server's mutual auth token (if any) and return
		if resp.StatusCode != http.StatusUnauthorized {
			if err := rt.verifyMutualAuth(req, resp, exchange); err != nil {
				_ = resp.Body.Close()
				return nil, err
			}
			return resp, nil
		}

		// Fall back to the caller's own auth if the server never offers Negotiate
		schemes := challengeSchemes(resp.Header)
		if !containsScheme(schemes, "Negotiate") {
			slog.Debug("server does not offer Negotiate, passing 401 through",
				"exchange", exchange, "schemes", strings.Join(schemes, ","))
			return resp, nil
		}

		serverToken = challengeToken(resp.Header, "Negotiate")
		slog.Debug("negotiate challenge received",
			"exchange", exchange, "leg", leg, "serverTokenLen", len(serverToken))

		// Providers that support channel binding read the TLS server
		// certificate hash from the context.
		stepCtx := req.Context()
		if hash := channelBindingHash(resp.TLS); hash != nil {
			stepCtx = context.WithValue(stepCtx, ContextKeyChannelBindings, hash)
		}

		// Generate our response token
		var continueNeeded bool
		clientToken, continueNeeded, err = rt.provider.Step(stepCtx, serverToken)
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("negotiate step failed: %w", err)
		}

		// Close response body before retry
		_ = resp.Body.Close()

		// If no more steps needed and we already sent a token, we're done
		if !continueNeeded && leg > 0 {
			// Auth complete but server still returning 401 - fail
			return nil, fmt.Errorf("negotiate authentication failed: server did not accept the security context")
		}
	}

	return nil, fmt.Errorf("negotiate authentication failed after %d attempts", maxNegotiateLegs)
}

// verifyMutualAuth checks the WWW-Authenticate token of a successful response
// against the established context, when the provider supports it. This makes
// sure the response came from the server we authenticated to.
func (rt *negotiateRoundTripper) verifyMutualAuth(req *http.Request, resp *http.Response, exchange string) error {
	mv, ok := rt.provider.(MutualVerifier)
	if !ok {
		return nil
	}
	token := challengeToken(resp.Header, "Negotiate")
	if len(token) == 0 {
		return nil
	}
	if err := mv.VerifyServerToken(req.Context(), token); err != nil {
		return fmt.Errorf("server authentication failed: %w", err)
	}
	slog.Debug("mutual authentication verified", "exchange", exchange)
	return nil
}

// challengeSchemes extracts the scheme names offered in WWW-Authenticate
// headers. Servers may send several headers or one comma-separated list.
func challengeSchemes(h http.Header) []string {
	var schemes []string
	for _, v := range h.Values("Www-Authenticate") {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			// "Negotiate <token>" -> "Negotiate"; "realm=..." continuation
			// parts of a previous challenge carry '=' and are skipped.
			name := part
			if i := strings.IndexByte(part, ' '); i > 0 {
				name = part[:i]
			}
			if strings.ContainsRune(name, '=') {
				continue
			}
			schemes = append(schemes, name)
		}
	}
	return schemes
}

func containsScheme(schemes []string, want string) bool {
	for _, s := range schemes {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

// challengeToken returns the decoded token accompanying the given scheme in
// the WWW-Authenticate headers, or nil if the scheme carries no token.
func challengeToken(h http.Header, scheme string) []byte {
	for _, v := range h.Values("Www-Authenticate") {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			fields := strings.SplitN(part, " ", 2)
			if len(fields) != 2 || !strings.EqualFold(fields[0], scheme) {
				continue
			}
			token, err := base64.StdEncoding.DecodeString(strings.TrimSpace(fields[1]))
			if err != nil {
				// Decode errors ignored: server may send scheme params
				// that are not base64 tokens.
				continue
			}
			return token
		}
	}
	return nil
}
