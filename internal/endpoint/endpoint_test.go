package endpoint

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDeriveDeterministic(t *testing.T) {
	first, err := deriveFor("/home/dev/project", "linux")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	second, err := deriveFor("/home/dev/project", "linux")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	if first != second {
		t.Errorf("Expected identical addresses for the same root, got %q and %q", first, second)
	}
}

func TestDeriveDistinctWorkspaces(t *testing.T) {
	a, _ := deriveFor("/home/dev/project-a", "linux")
	b, _ := deriveFor("/home/dev/project-b", "linux")

	if a == b {
		t.Errorf("Expected distinct addresses for distinct roots, both %q", a)
	}
}

func TestDeriveCaseSensitivity(t *testing.T) {
	// Case-insensitive platform: two spellings agree on one address.
	darwinA, _ := deriveFor("/Users/Dev/Project", "darwin")
	darwinB, _ := deriveFor("/users/dev/project", "darwin")
	if darwinA != darwinB {
		t.Errorf("Expected case-insensitive match on darwin, got %q and %q", darwinA, darwinB)
	}

	// Case-sensitive platform: different spellings are different workspaces.
	linuxA, _ := deriveFor("/home/Dev/Project", "linux")
	linuxB, _ := deriveFor("/home/dev/project", "linux")
	if linuxA == linuxB {
		t.Errorf("Expected case-sensitive mismatch on linux, both %q", linuxA)
	}
}

func TestDeriveWindowsPipeName(t *testing.T) {
	addr, err := deriveFor(`C:\Users\dev\project`, "windows")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	if !strings.HasPrefix(addr, `\\.\pipe\cib-`) {
		t.Errorf("Expected named pipe path, got %q", addr)
	}
	suffix := strings.TrimPrefix(addr, `\\.\pipe\cib-`)
	if len(suffix) != 8 {
		t.Errorf("Expected 8 hex character suffix, got %q", suffix)
	}
}

func TestDeriveUnixSocketPath(t *testing.T) {
	addr, err := deriveFor("/home/dev/project", "linux")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	base := filepath.Base(addr)
	if !strings.HasPrefix(base, "cib-") || !strings.HasSuffix(base, ".sock") {
		t.Errorf("Expected cib-<hash>.sock, got %q", base)
	}
	hash := strings.TrimSuffix(strings.TrimPrefix(base, "cib-"), ".sock")
	if len(hash) != 8 {
		t.Errorf("Expected 8 hex character hash, got %q", hash)
	}
	for _, c := range hash {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("Expected lowercase hex hash, got %q", hash)
			break
		}
	}
}

func TestDeriveNoWorkspaceFallback(t *testing.T) {
	a, err := deriveFor("", "linux")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	b, err := deriveFor("", "linux")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	// No determinism guarantee without a workspace; two calls should
	// essentially never agree.
	if a == b {
		t.Errorf("Expected random suffixes to differ, both %q", a)
	}
}

func TestNormalizeCleansPath(t *testing.T) {
	a := normalize("/home/dev/project/", "linux")
	b := normalize("/home/dev//project", "linux")
	if a != b {
		t.Errorf("Expected cleaned paths to agree, got %q and %q", a, b)
	}
}
