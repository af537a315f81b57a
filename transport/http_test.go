package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("capabilities"))
	}))
	defer srv.Close()

	tr := NewHTTPTransport()
	body, err := tr.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(body) != "capabilities" {
		t.Errorf("body = %q; want capabilities", body)
	}
}

func TestGet_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Www-Authenticate", "Negotiate")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := NewHTTPTransport()
	_, err := tr.Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v; want ErrUnauthorized", err)
	}
}

func TestGet_NegotiateNotOffered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Www-Authenticate", `Basic realm="hg"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := NewHTTPTransport()
	_, err := tr.Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrNegotiateNotSupported) {
		t.Errorf("error = %v; want ErrNegotiateNotSupported", err)
	}
	// The specific sentinel still matches the general one.
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v; want ErrUnauthorized match as well", err)
	}
}

func TestGet_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tr := NewHTTPTransport()
	_, err := tr.Get(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("error = %v; want 403 error", err)
	}
}

func TestGet_ServerErrorIncludesBodyPreview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	tr := NewHTTPTransport()
	_, err := tr.Get(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("error = %v; want body preview", err)
	}
}

func TestWithTimeout(t *testing.T) {
	tr := NewHTTPTransport(WithTimeout(5 * time.Second))
	if tr.Client().Timeout != 5*time.Second {
		t.Errorf("Timeout = %v; want 5s", tr.Client().Timeout)
	}
}

func TestWithTLSConfig_EnforcesMinVersion(t *testing.T) {
	tr := NewHTTPTransport(WithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS10}))

	ht, ok := tr.Client().Transport.(*http.Transport)
	if !ok {
		t.Fatal("transport is not *http.Transport")
	}
	if ht.TLSClientConfig.MinVersion < tls.VersionTLS12 {
		t.Errorf("MinVersion = %x; want at least TLS 1.2", ht.TLSClientConfig.MinVersion)
	}
}

func TestWithInsecureSkipVerify(t *testing.T) {
	tr := NewHTTPTransport(WithInsecureSkipVerify(true))

	ht := tr.Client().Transport.(*http.Transport)
	if !ht.TLSClientConfig.InsecureSkipVerify {
		t.Error("InsecureSkipVerify not set")
	}
}
