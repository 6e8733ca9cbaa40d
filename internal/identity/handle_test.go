package identity

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

var handlePattern = regexp.MustCompile(`^anon-[0-9a-z]{3}$`)

func TestGetOrCreateHandleFormat(t *testing.T) {
	h, err := GetOrCreateHandle(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !handlePattern.MatchString(h) {
		t.Fatalf("handle %q does not match anon-xxx", h)
	}
}

func TestGetOrCreateHandleStable(t *testing.T) {
	dir := t.TempDir()

	first, err := GetOrCreateHandle(dir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := GetOrCreateHandle(dir)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("handle changed across loads: %q vs %q", first, second)
	}
}

func TestGetOrCreateHandlePreservesExisting(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, handleFile), []byte("night-owl\n"), 0600); err != nil {
		t.Fatal(err)
	}

	h, err := GetOrCreateHandle(dir)
	if err != nil {
		t.Fatal(err)
	}
	if h != "night-owl" {
		t.Fatalf("existing handle not honored: %q", h)
	}
}
