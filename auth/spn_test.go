package auth

import (
	"context"
	"testing"
)

func TestDeriveSPN_StripsPort(t *testing.T) {
	// An IP literal never resolves to a CNAME, so the literal is kept.
	spn := DeriveSPN(context.Background(), "192.0.2.7:8080")
	if spn != "HTTP/192.0.2.7" {
		t.Errorf("DeriveSPN = %s; want HTTP/192.0.2.7", spn)
	}
}

func TestDeriveSPN_NoPort(t *testing.T) {
	spn := DeriveSPN(context.Background(), "192.0.2.7")
	if spn != "HTTP/192.0.2.7" {
		t.Errorf("DeriveSPN = %s; want HTTP/192.0.2.7", spn)
	}
}
