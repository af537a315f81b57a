// Command hg-ssoauth authenticates to version-control HTTP remotes with
// Kerberos/SPNEGO single sign-on.
//
// Settings come from the Mercurial-style config files ([krb] section; see
// package hgrc), overridable per flag. Password for the NTLM/Basic fallback
// schemes can be provided via:
//   - -pass flag (least secure, visible in process list)
//   - SSOAUTH_PASSWORD environment variable (recommended)
//   - stdin prompt (if neither flag nor env var is set)
//
// Usage:
//
//	# Probe a remote: did the Negotiate handshake work?
//	hg-ssoauth -remote https://hg.example.com/repo -check
//
//	# Print the Authorization header for scripting
//	hg-ssoauth -remote https://hg.example.com/repo -print-header
//
//	# Local proxy that injects Negotiate for tools that cannot
//	hg-ssoauth -remote https://hg.example.com -listen 127.0.0.1:8999
//
// Exit codes: 0 success, 1 transport or usage error, 2 authentication
// refused by the server.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/smnsjas/go-ssoauth/auth"
	"github.com/smnsjas/go-ssoauth/client"
	"github.com/smnsjas/go-ssoauth/hgrc"
	intlog "github.com/smnsjas/go-ssoauth/internal/log"
	"github.com/smnsjas/go-ssoauth/transport"
)

const (
	exitOK        = 0
	exitTransport = 1
	exitAuth      = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	remote := flag.String("remote", "", "Remote repository URL (e.g. https://hg.example.com/repo)")
	configPath := flag.String("config", "", "Config file path (default: hgrc locations)")
	check := flag.Bool("check", false, "Probe the remote with one authenticated request")
	printHeader := flag.Bool("print-header", false, "Print the initial Authorization header and exit")
	listen := flag.String("listen", "", "Serve a local SSO-injecting proxy on this address")

	authScheme := flag.String("auth", "", "Auth scheme: negotiate, ntlm, basic (default: from config)")
	principal := flag.String("principal", "", "Kerberos principal (user@REALM)")
	keytab := flag.String("keytab", "", "Path to keytab file")
	ccache := flag.String("ccache", "", "Path to Kerberos credential cache (e.g. /tmp/krb5cc_1000)")
	realm := flag.String("realm", "", "Kerberos realm (e.g. EXAMPLE.COM)")
	krb5Conf := flag.String("krb5conf", "", "Path to krb5.conf file")
	spn := flag.String("spn", "", "Service Principal Name (e.g. HTTP/hg.example.com)")
	password := flag.String("pass", "", "Password (use SSOAUTH_PASSWORD env var instead)")
	domain := flag.String("domain", "", "Domain for NTLM authentication")

	timeout := flag.Duration("timeout", 0, "HTTP timeout (default: from config, 60s)")
	insecure := flag.Bool("insecure", false, "Skip TLS certificate verification")
	logLevel := flag.String("loglevel", "", "Log level: debug, info, warn, error (empty = from config)")
	logFile := flag.String("logfile", "", "Log to this file (rotated) instead of stderr")
	flag.Parse()

	rc, err := hgrc.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hg-ssoauth: %v\n", err)
		return exitTransport
	}
	cfg := client.FromHgrc(rc)

	if *logLevel == "" {
		*logLevel = rc.LogLevel
	}
	if *logFile == "" {
		*logFile = rc.LogFile
	}
	closeLogs, err := setupLogging(*logLevel, *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hg-ssoauth: %v\n", err)
		return exitTransport
	}
	defer closeLogs()

	// Flag overrides on top of config file values
	if *principal != "" {
		cfg.Principal = *principal
	}
	if *keytab != "" {
		cfg.Keytab = hgrc.ExpandUser(*keytab)
	}
	if *ccache != "" {
		cfg.CCache = hgrc.ExpandUser(*ccache)
	}
	if *realm != "" {
		cfg.Realm = *realm
	}
	if *krb5Conf != "" {
		cfg.Krb5Conf = hgrc.ExpandUser(*krb5Conf)
	}
	if *spn != "" {
		cfg.SPN = *spn
	}
	if *domain != "" {
		cfg.Domain = *domain
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *insecure {
		cfg.InsecureSkipVerify = true
	}
	switch strings.ToLower(*authScheme) {
	case "":
	case hgrc.SchemeNegotiate:
		cfg.AuthType = client.AuthNegotiate
	case hgrc.SchemeNTLM:
		cfg.AuthType = client.AuthNTLM
	case hgrc.SchemeBasic:
		cfg.AuthType = client.AuthBasic
	default:
		fmt.Fprintf(os.Stderr, "hg-ssoauth: unknown auth scheme %q\n", *authScheme)
		return exitTransport
	}

	if cfg.AuthType == client.AuthNegotiate {
		cfg.Password = negotiatePassword(*password)
	} else {
		cfg.Password = resolvePassword(*password)
	}

	if *remote == "" {
		fmt.Fprintln(os.Stderr, "hg-ssoauth: -remote is required")
		flag.Usage()
		return exitTransport
	}

	switch {
	case *printHeader:
		return runPrintHeader(*remote, cfg)
	case *listen != "":
		return runProxy(*listen, *remote, cfg)
	case *check:
		return runCheck(*remote, cfg)
	default:
		// -check is the default action
		return runCheck(*remote, cfg)
	}
}

// runCheck performs one authenticated probe against the remote.
func runCheck(remote string, cfg client.Config) int {
	c, err := client.New(remote, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hg-ssoauth: %v\n", err)
		return exitAuth
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := c.Check(ctx); err != nil {
		if errors.Is(err, transport.ErrUnauthorized) {
			fmt.Fprintf(os.Stderr, "hg-ssoauth: server refused the credentials: %v\n", err)
			return exitAuth
		}
		fmt.Fprintf(os.Stderr, "hg-ssoauth: %v\n", err)
		return exitTransport
	}

	if c.SPN() != "" {
		fmt.Printf("authentication OK (%s)\n", c.SPN())
	} else {
		fmt.Println("authentication OK")
	}
	return exitOK
}

// runPrintHeader produces the initial Negotiate token for scripting, e.g.
// curl -H "Authorization: $(hg-ssoauth -remote ... -print-header)".
func runPrintHeader(remote string, cfg client.Config) int {
	u, err := url.Parse(remote)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hg-ssoauth: parse remote url: %v\n", err)
		return exitTransport
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	targetSPN := cfg.SPN
	if targetSPN == "" {
		targetSPN = auth.DeriveSPN(ctx, u.Host)
	}

	user, prealm, err := hgrc.SplitPrincipal(cfg.Principal)
	if cfg.Principal != "" && err != nil {
		fmt.Fprintf(os.Stderr, "hg-ssoauth: %v\n", err)
		return exitTransport
	}
	realm := cfg.Realm
	if realm == "" {
		realm = prealm
	}

	var creds *auth.Credentials
	if user != "" || cfg.Password != "" {
		creds = &auth.Credentials{Username: user, Password: cfg.Password, Domain: cfg.Domain}
	}

	provider, err := auth.NewKerberosProvider(auth.KerberosProviderConfig{
		TargetSPN:    targetSPN,
		Realm:        realm,
		Krb5ConfPath: cfg.Krb5Conf,
		KeytabPath:   cfg.Keytab,
		CCachePath:   cfg.CCache,
		Credentials:  creds,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "hg-ssoauth: %v\n", err)
		return exitAuth
	}
	defer provider.Close()

	token, _, err := provider.Step(ctx, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hg-ssoauth: %v\n", err)
		return exitAuth
	}

	fmt.Printf("Negotiate %s\n", base64Encode(token))
	return exitOK
}

// runProxy serves a local reverse proxy that injects Negotiate toward one
// remote, for tools that cannot do SPNEGO themselves.
func runProxy(listenAddr, remote string, cfg client.Config) int {
	c, err := client.New(remote, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hg-ssoauth: %v\n", err)
		return exitAuth
	}
	defer c.Close()

	u, err := url.Parse(remote)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hg-ssoauth: parse remote url: %v\n", err)
		return exitTransport
	}

	proxy := httputil.NewSingleHostReverseProxy(u)
	// The security provider holds per-handshake state, so requests are
	// serialized through it.
	proxy.Transport = &serialTransport{next: c.HTTPClient().Transport}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Error("proxy request failed", "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusBadGateway)
	}

	slog.Info("proxy listening", "addr", listenAddr, "remote", redactedRemote(u))
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           proxy,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "hg-ssoauth: %v\n", err)
		return exitTransport
	}
	return exitOK
}

// serialTransport serializes round trips; the Negotiate provider is not safe
// for concurrent handshakes.
type serialTransport struct {
	mu   sync.Mutex
	next http.RoundTripper
}

func (t *serialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next.RoundTrip(req)
}

// negotiatePassword returns the last-resort Kerberos password. Platforms
// with native SSO (SSPI) never need one; elsewhere it comes from the flag or
// the environment, never a prompt, since a cached ticket or keytab usually
// serves.
func negotiatePassword(flagValue string) string {
	if auth.SupportsSSO() {
		return ""
	}
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("SSOAUTH_PASSWORD")
}

// resolvePassword returns the password from flag, environment, or prompt.
func resolvePassword(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("SSOAUTH_PASSWORD"); env != "" {
		return env
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ""
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(pw)
}

// setupLogging installs the default slog logger with redaction, writing to
// stderr or to a rotating file. The returned func flushes and closes sinks.
func setupLogging(level, file string) (func(), error) {
	closer := func() {}

	if level == "" {
		// No logging requested; drop everything below Error.
		slog.SetDefault(slog.New(intlog.NewRedactingHandler(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))))
		return closer, nil
	}

	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return closer, fmt.Errorf("unknown log level %q", level)
	}

	var w io.Writer = os.Stderr
	if file != "" {
		rf, err := intlog.NewRotatingFile(file, 5*1024*1024, 3)
		if err != nil {
			return closer, err
		}
		w = rf
		closer = func() { _ = rf.Close() }
	}

	handler := intlog.NewRedactingHandler(
		slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(slog.New(handler))
	return closer, nil
}

func redactedRemote(u *url.URL) string {
	cp := *u
	cp.User = nil
	return cp.String()
}

func base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
