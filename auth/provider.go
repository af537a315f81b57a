package auth

import "context"

// SecurityProvider handles the low-level authentication token exchange.
// It abstracts the differences between the pure Go Kerberos implementation
// and Windows SSPI.
//
// # Thread Safety
//
// SecurityProvider implementations are NOT safe for concurrent use.
// Each handshake should use its own provider instance. The provider
// maintains internal state during the authentication handshake and is
// discarded after use.
//
// # Authentication Flow
//
// The typical flow is:
//  1. Client calls Step(nil) -> returns Initial Token
//  2. Client sends Token to Server
//  3. Server responds with Server Token (Challenge)
//  4. Client calls Step(Server Token) -> returns Response Token
//  5. Repeat until Complete() returns true.
//
// Plain Kerberos over HTTP is usually single-leg: one Step(nil) call
// produces the whole token.
type SecurityProvider interface {
	// Step processes an input token (challenge) and produces an output token (response).
	// On the first call, inputToken should be nil.
	// Returns:
	// - outputToken: The bytes to send to the server
	// - continueNeeded: True if more steps are expected (GSS_S_CONTINUE_NEEDED)
	// - err: Any error that occurred
	Step(ctx context.Context, inputToken []byte) (outputToken []byte, continueNeeded bool, err error)

	// Complete returns true if the security context has been successfully established.
	Complete() bool

	// Close releases any resources associated with the context (e.g. handles).
	Close() error
}

// MutualVerifier is implemented by providers that can verify the server's
// final mutual-authentication token. When a provider implements it, the
// Negotiate round-tripper feeds the WWW-Authenticate token of a successful
// response back for verification and fails the exchange if it does not
// check out.
type MutualVerifier interface {
	VerifyServerToken(ctx context.Context, token []byte) error
}
