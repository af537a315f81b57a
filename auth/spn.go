package auth

import (
	"context"
	"net"
	"strings"
)

// DeriveSPN returns the service principal name for an HTTP remote, in the
// form "HTTP/<canonical-host>". The canonical host is resolved through DNS
// (CNAME records chased) so that a remote reached through an alias still
// maps onto the SPN the service ticket was issued for. A port, if present,
// is stripped. When resolution fails the literal host is used.
func DeriveSPN(ctx context.Context, host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	cname, err := net.DefaultResolver.LookupCNAME(ctx, host)
	if err == nil && cname != "" {
		host = strings.TrimSuffix(cname, ".")
	}

	return "HTTP/" + host
}
