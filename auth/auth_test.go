package auth

import "testing"

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"valid", Credentials{Username: "alice", Password: "secret"}, false},
		{"missing username", Credentials{Password: "secret"}, true},
		{"missing password", Credentials{Username: "alice"}, true},
		{"empty", Credentials{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCredentials_ValidateForKerberos(t *testing.T) {
	// Password is optional with ccache/keytab sources
	creds := Credentials{Username: "alice"}
	if err := creds.ValidateForKerberos(); err != nil {
		t.Errorf("ValidateForKerberos() error = %v; want nil", err)
	}

	empty := Credentials{}
	if err := empty.ValidateForKerberos(); err == nil {
		t.Error("ValidateForKerberos() = nil; want error for empty username")
	}
}

func TestSourceKind_String(t *testing.T) {
	if SourceCCache.String() != "ccache" || SourceKeytab.String() != "keytab" || SourcePassword.String() != "password" {
		t.Error("SourceKind names changed")
	}
}
