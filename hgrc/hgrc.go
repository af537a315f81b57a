// Package hgrc loads Kerberos single sign-on settings from Mercurial-style
// configuration files.
//
// The recognized section is [krb]:
//
//	[krb]
//	keytab = ~/.keytabs/alice.keytab
//	principal = alice@EXAMPLE.COM
//	realm = EXAMPLE.COM
//	krb5conf = /etc/krb5.conf
//	ccache = /tmp/krb5cc_1000
//	spn = HTTP/hg.example.com
//	auth = negotiate
//
// plus a few [web] keys consumed by the CLI (timeout, insecure, logfile,
// loglevel). Files are merged the way Mercurial does: /etc/mercurial/hgrc,
// then ~/.hgrc, with later files overriding earlier ones; if $HGRCPATH is
// set, its entries are read instead of those locations. Missing files are
// skipped.
package hgrc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Scheme names accepted by the auth key.
const (
	SchemeNegotiate = "negotiate"
	SchemeNTLM      = "ntlm"
	SchemeBasic     = "basic"
)

// DefaultTimeout applies when the config file sets none.
const DefaultTimeout = 60 * time.Second

// Config holds the settings read from the config files.
type Config struct {
	// Keytab is the path to a keytab file, used when the credential cache
	// holds no valid ticket. Optional.
	Keytab string

	// Principal is the Kerberos identity the keytab belongs to, in
	// user@REALM form. Required when Keytab is set.
	Principal string

	// Realm overrides the realm part of Principal and the krb5.conf
	// default realm. Optional.
	Realm string

	// Krb5Conf is the path to krb5.conf. Optional.
	Krb5Conf string

	// CCache is the path to the credential cache. Optional; defaults to
	// $KRB5CCNAME or the per-uid cache.
	CCache string

	// SPN overrides the derived service principal name. Optional.
	SPN string

	// AuthScheme selects the authentication scheme: negotiate (default),
	// ntlm, or basic.
	AuthScheme string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	// Only for testing.
	InsecureSkipVerify bool

	// LogFile, if set, receives debug logs (rotated).
	LogFile string

	// LogLevel is one of debug, info, warn, error. Empty disables logging.
	LogLevel string
}

// DefaultPaths returns the config files to read, in increasing precedence.
// A set $HGRCPATH replaces the usual locations entirely, as with Mercurial
// itself; set-but-empty means no config files at all.
func DefaultPaths() []string {
	if rcPath, ok := os.LookupEnv("HGRCPATH"); ok {
		return filepath.SplitList(rcPath)
	}

	paths := []string{filepath.Join("/etc", "mercurial", "hgrc")}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".hgrc"))
	}

	return paths
}

// Load reads the configuration. With an explicit path only that file is
// read; with an empty path the default locations are merged. Missing files
// are not errors.
func Load(path string) (*Config, error) {
	var paths []string
	if path != "" {
		paths = []string{path}
	} else {
		paths = DefaultPaths()
	}
	if len(paths) == 0 {
		return defaults(), nil
	}

	others := make([]interface{}, len(paths)-1)
	for i, p := range paths[1:] {
		others[i] = p
	}

	f, err := ini.LoadSources(ini.LoadOptions{Loose: true}, paths[0], others...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg := defaults()

	krb := f.Section("krb")
	cfg.Keytab = ExpandUser(krb.Key("keytab").String())
	cfg.Principal = krb.Key("principal").String()
	cfg.Realm = krb.Key("realm").String()
	cfg.Krb5Conf = ExpandUser(krb.Key("krb5conf").String())
	cfg.CCache = ExpandUser(krb.Key("ccache").String())
	cfg.SPN = krb.Key("spn").String()
	cfg.AuthScheme = strings.ToLower(krb.Key("auth").MustString(SchemeNegotiate))

	web := f.Section("web")
	cfg.Timeout = parseTimeout(web.Key("timeout").String())
	cfg.InsecureSkipVerify = web.Key("insecure").MustBool(false)
	cfg.LogFile = ExpandUser(web.Key("logfile").String())
	cfg.LogLevel = strings.ToLower(web.Key("loglevel").String())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseTimeout accepts either a Go duration ("90s") or, like Mercurial,
// a bare number of seconds ("90").
func parseTimeout(s string) time.Duration {
	if s == "" {
		return DefaultTimeout
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return DefaultTimeout
}

func defaults() *Config {
	return &Config{
		AuthScheme: SchemeNegotiate,
		Timeout:    DefaultTimeout,
	}
}

// Validate checks the joint keytab/principal invariant and the scheme name.
func (c *Config) Validate() error {
	if c.Keytab != "" {
		if _, err := os.Stat(c.Keytab); err != nil {
			return fmt.Errorf("keytab %s: %w", c.Keytab, err)
		}
		if c.Principal == "" {
			return fmt.Errorf("keytab %s configured without a principal", c.Keytab)
		}
	}
	if c.Principal != "" {
		if _, _, err := SplitPrincipal(c.Principal); err != nil {
			return err
		}
	}
	switch c.AuthScheme {
	case SchemeNegotiate, SchemeNTLM, SchemeBasic:
	default:
		return fmt.Errorf("unknown auth scheme %q", c.AuthScheme)
	}
	return nil
}

// SplitPrincipal splits a user@REALM principal into its parts. The realm may
// be omitted (alice), in which case realm is empty.
func SplitPrincipal(principal string) (user, realm string, err error) {
	if principal == "" {
		return "", "", errors.New("empty principal")
	}
	i := strings.LastIndexByte(principal, '@')
	if i < 0 {
		return principal, "", nil
	}
	user, realm = principal[:i], principal[i+1:]
	if user == "" {
		return "", "", fmt.Errorf("invalid principal %q", principal)
	}
	return user, realm, nil
}

// ExpandUser replaces a leading ~ with the current user's home directory,
// the way Mercurial treats paths in its config files.
func ExpandUser(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	// ~otheruser is not expanded
	return path
}
