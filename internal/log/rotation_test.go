package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestRotatingFile_RotatesAtSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssoauth.log")

	rf, err := NewRotatingFile(path, 32, 2)
	if err != nil {
		t.Fatalf("NewRotatingFile failed: %v", err)
	}
	defer rf.Close()

	line := bytes.Repeat([]byte("x"), 20)
	for i := 0; i < 3; i++ {
		if _, err := rf.Write(line); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected rotated backup: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat current log: %v", err)
	}
	if info.Size() > 32 {
		t.Errorf("current log size = %d; want <= 32", info.Size())
	}
}

func TestRotatingFile_DropsOldestBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssoauth.log")

	rf, err := NewRotatingFile(path, 8, 2)
	if err != nil {
		t.Fatalf("NewRotatingFile failed: %v", err)
	}
	defer rf.Close()

	for i := 0; i < 5; i++ {
		if _, err := rf.Write([]byte("0123456789")); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(path + ".3"); err == nil {
		t.Error("backup beyond maxBackups was kept")
	}
}
