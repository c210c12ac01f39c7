package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUniqueConfigPath(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "tp.config.toml")

	if got := uniqueConfigPath(base); got != base {
		t.Fatalf("uniqueConfigPath = %q, want base when free", got)
	}

	if err := os.WriteFile(base, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	first := filepath.Join(dir, "tp.config (1).toml")
	if got := uniqueConfigPath(base); got != first {
		t.Fatalf("uniqueConfigPath = %q, want %q", got, first)
	}

	if err := os.WriteFile(first, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	second := filepath.Join(dir, "tp.config (2).toml")
	if got := uniqueConfigPath(base); got != second {
		t.Fatalf("uniqueConfigPath = %q, want %q", got, second)
	}
}

func TestKeyPaths(t *testing.T) {
	private, public, err := keyPaths("/home/u/.ssh/id_ed25519")
	if err != nil {
		t.Fatalf("keyPaths: %v", err)
	}
	if private != "/home/u/.ssh/id_ed25519" || public != "/home/u/.ssh/id_ed25519.pub" {
		t.Fatalf("keyPaths = %q, %q", private, public)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	private, public, err = keyPaths("~/.ssh/id_ed25519")
	if err != nil {
		t.Fatalf("keyPaths: %v", err)
	}
	want := filepath.Join(home, ".ssh", "id_ed25519")
	if private != want || public != want+".pub" {
		t.Fatalf("keyPaths = %q, %q", private, public)
	}
}
