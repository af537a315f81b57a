package hgrc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hgrc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_KrbSection(t *testing.T) {
	kt := filepath.Join(t.TempDir(), "alice.keytab")
	require.NoError(t, os.WriteFile(kt, []byte{0x05, 0x02}, 0600))

	path := writeConfig(t, `
[krb]
keytab = `+kt+`
principal = alice@EXAMPLE.COM
realm = EXAMPLE.COM
spn = HTTP/hg.example.com

[web]
timeout = 90
insecure = true
loglevel = debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, kt, cfg.Keytab)
	assert.Equal(t, "alice@EXAMPLE.COM", cfg.Principal)
	assert.Equal(t, "EXAMPLE.COM", cfg.Realm)
	assert.Equal(t, "HTTP/hg.example.com", cfg.SPN)
	assert.Equal(t, SchemeNegotiate, cfg.AuthScheme)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent"))
	require.NoError(t, err)
	assert.Equal(t, SchemeNegotiate, cfg.AuthScheme)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestLoad_KeytabWithoutPrincipal(t *testing.T) {
	kt := filepath.Join(t.TempDir(), "alice.keytab")
	require.NoError(t, os.WriteFile(kt, []byte{0x05, 0x02}, 0600))

	path := writeConfig(t, "[krb]\nkeytab = "+kt+"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a principal")
}

func TestLoad_KeytabMissingFile(t *testing.T) {
	path := writeConfig(t, `
[krb]
keytab = /nonexistent/alice.keytab
principal = alice@EXAMPLE.COM
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_UnknownScheme(t *testing.T) {
	path := writeConfig(t, "[krb]\nauth = digest\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown auth scheme")
}

func TestParseTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, parseTimeout(""))
	assert.Equal(t, 90*time.Second, parseTimeout("90"))
	assert.Equal(t, 2*time.Minute, parseTimeout("2m"))
	assert.Equal(t, DefaultTimeout, parseTimeout("-5"))
	assert.Equal(t, DefaultTimeout, parseTimeout("soon"))
}

func TestSplitPrincipal(t *testing.T) {
	user, realm, err := SplitPrincipal("alice@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "EXAMPLE.COM", realm)

	user, realm, err = SplitPrincipal("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
	assert.Empty(t, realm)

	_, _, err = SplitPrincipal("")
	require.Error(t, err)

	_, _, err = SplitPrincipal("@EXAMPLE.COM")
	require.Error(t, err)
}

func TestDefaultPaths_HGRCPATHReplacesDefaults(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")

	t.Setenv("HGRCPATH", a+string(os.PathListSeparator)+b)
	assert.Equal(t, []string{a, b}, DefaultPaths())

	// Set but empty means no config files, as with Mercurial.
	t.Setenv("HGRCPATH", "")
	assert.Empty(t, DefaultPaths())

	// Unset falls back to the system and user locations.
	t.Setenv("HGRCPATH", "placeholder")
	require.NoError(t, os.Unsetenv("HGRCPATH"))
	paths := DefaultPaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, filepath.Join("/etc", "mercurial", "hgrc"), paths[0])
}

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".keytabs", "a.keytab"), ExpandUser("~/.keytabs/a.keytab"))
	assert.Equal(t, home, ExpandUser("~"))
	assert.Equal(t, "/etc/krb5.conf", ExpandUser("/etc/krb5.conf"))
	assert.Equal(t, "~bob/x", ExpandUser("~bob/x"))
	assert.Empty(t, ExpandUser(""))
}
