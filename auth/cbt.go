package auth

import (
	"crypto/sha256"
	"crypto/tls"
)

type contextKey string

// ContextKeyChannelBindings carries the tls-server-end-point hash of the
// server certificate (RFC 5929) through Step's context. Providers that
// support channel binding (SSPI) pick it up; others ignore it.
const ContextKeyChannelBindings = contextKey("channelBindings")

// channelBindingHash computes the tls-server-end-point hash for the server
// certificate of an established TLS connection. Per RFC 5929 the hash is the
// certificate's signature hash, upgraded to SHA-256 for MD5/SHA-1; SHA-256
// covers the certificates seen in practice.
func channelBindingHash(cs *tls.ConnectionState) []byte {
	if cs == nil || len(cs.PeerCertificates) == 0 {
		return nil
	}
	sum := sha256.Sum256(cs.PeerCertificates[0].Raw)
	return sum[:]
}
