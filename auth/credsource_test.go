package auth

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// mockClock implements Clock with manual time control (tests only)
type mockClock struct {
	mu      sync.Mutex
	current time.Time
}

func (m *mockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func newMockClock(start time.Time) *mockClock {
	return &mockClock{current: start}
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveCredentialSource_KeytabWhenNoCache(t *testing.T) {
	kt := writeTempFile(t, "user.keytab", []byte{0x05, 0x02})

	cfg := KerberosProviderConfig{
		CCachePath:  filepath.Join(t.TempDir(), "nonexistent"),
		KeytabPath:  kt,
		Credentials: &Credentials{Username: "alice"},
	}

	src, err := ResolveCredentialSource(cfg, newMockClock(time.Now()))
	if err != nil {
		t.Fatalf("ResolveCredentialSource failed: %v", err)
	}
	if src.Kind != SourceKeytab {
		t.Errorf("Kind = %s; want keytab", src.Kind)
	}
	if src.KeytabPath != kt {
		t.Errorf("KeytabPath = %s; want %s", src.KeytabPath, kt)
	}
}

func TestResolveCredentialSource_KeytabMissingFile(t *testing.T) {
	cfg := KerberosProviderConfig{
		CCachePath:  filepath.Join(t.TempDir(), "nonexistent"),
		KeytabPath:  filepath.Join(t.TempDir(), "missing.keytab"),
		Credentials: &Credentials{Username: "alice"},
	}

	_, err := ResolveCredentialSource(cfg, newMockClock(time.Now()))
	if err == nil {
		t.Fatal("expected error for missing keytab")
	}
}

func TestResolveCredentialSource_KeytabWithoutPrincipal(t *testing.T) {
	kt := writeTempFile(t, "user.keytab", []byte{0x05, 0x02})

	cfg := KerberosProviderConfig{
		CCachePath: filepath.Join(t.TempDir(), "nonexistent"),
		KeytabPath: kt,
	}

	_, err := ResolveCredentialSource(cfg, newMockClock(time.Now()))
	if err == nil {
		t.Fatal("expected error for keytab without principal")
	}
}

func TestResolveCredentialSource_PasswordFallback(t *testing.T) {
	cfg := KerberosProviderConfig{
		CCachePath:  filepath.Join(t.TempDir(), "nonexistent"),
		Credentials: &Credentials{Username: "alice", Password: "secret"},
	}

	src, err := ResolveCredentialSource(cfg, newMockClock(time.Now()))
	if err != nil {
		t.Fatalf("ResolveCredentialSource failed: %v", err)
	}
	if src.Kind != SourcePassword {
		t.Errorf("Kind = %s; want password", src.Kind)
	}
}

func TestResolveCredentialSource_NoCredentials(t *testing.T) {
	cfg := KerberosProviderConfig{
		CCachePath: filepath.Join(t.TempDir(), "nonexistent"),
	}

	_, err := ResolveCredentialSource(cfg, newMockClock(time.Now()))
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("error = %v; want ErrNoCredentials", err)
	}
}

func TestCCacheHasValidTGT_MissingOrGarbage(t *testing.T) {
	clk := newMockClock(time.Now())

	if CCacheHasValidTGT(filepath.Join(t.TempDir(), "nonexistent"), clk) {
		t.Error("missing cache reported as valid")
	}

	garbage := writeTempFile(t, "krb5cc", []byte("not a ccache"))
	if CCacheHasValidTGT(garbage, clk) {
		t.Error("garbage cache reported as valid")
	}
}

func TestDefaultCCachePath(t *testing.T) {
	t.Setenv("KRB5CCNAME", "FILE:/tmp/krb5cc_test")
	if got := DefaultCCachePath(); got != "/tmp/krb5cc_test" {
		t.Errorf("DefaultCCachePath = %s; want /tmp/krb5cc_test", got)
	}

	t.Setenv("KRB5CCNAME", "/tmp/krb5cc_plain")
	if got := DefaultCCachePath(); got != "/tmp/krb5cc_plain" {
		t.Errorf("DefaultCCachePath = %s; want /tmp/krb5cc_plain", got)
	}

	// Non-file cache types fall back to the per-uid default
	t.Setenv("KRB5CCNAME", "KCM:12345")
	if got := DefaultCCachePath(); got == "KCM:12345" {
		t.Errorf("DefaultCCachePath = %s; KCM caches are not supported", got)
	}
}
