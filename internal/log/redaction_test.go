package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := NewRedactingHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return slog.New(h), &buf
}

func TestRedactingHandler_RedactsSensitiveKeys(t *testing.T) {
	logger, buf := newTestLogger()

	logger.Info("authenticating",
		"password", "hunter2",
		"keytabPath", "/home/alice/.keytabs/alice.keytab",
		"serverToken", "oYGzMIGw",
		"principal", "alice@EXAMPLE.COM",
	)

	out := buf.String()
	for _, leaked := range []string{"hunter2", "alice.keytab", "oYGzMIGw"} {
		if strings.Contains(out, leaked) {
			t.Errorf("output leaked %q: %s", leaked, out)
		}
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("no redaction marker in output: %s", out)
	}
	if !strings.Contains(out, "alice@EXAMPLE.COM") {
		t.Errorf("non-sensitive attribute was dropped: %s", out)
	}
}

func TestRedactingHandler_WithAttrs(t *testing.T) {
	logger, buf := newTestLogger()

	logger.With("ticket", "krbtgt-blob").Info("got ticket", "host", "hg.example.com")

	out := buf.String()
	if strings.Contains(out, "krbtgt-blob") {
		t.Errorf("With() attribute leaked: %s", out)
	}
	if !strings.Contains(out, "hg.example.com") {
		t.Errorf("plain attribute missing: %s", out)
	}
}

func TestRedactingHandler_Groups(t *testing.T) {
	logger, buf := newTestLogger()

	logger.Info("exchange",
		slog.Group("request",
			slog.String("authHeader", "Negotiate YII..."),
			slog.String("method", "GET"),
		),
	)

	out := buf.String()
	if strings.Contains(out, "YII") {
		t.Errorf("grouped attribute leaked: %s", out)
	}
	if !strings.Contains(out, "GET") {
		t.Errorf("grouped plain attribute missing: %s", out)
	}
}
