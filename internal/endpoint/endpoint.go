// Package endpoint derives the local transport address for a workspace.
//
// A client and server started independently must agree on the address
// without coordination, so the address is a pure function of the
// normalized workspace root. With no workspace open a random suffix is
// used instead; that mode is only suitable for a single ad hoc session.
package endpoint

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appPrefix = "cib-"

// Derive computes the transport address for the given workspace root.
// An empty root selects the non-deterministic fallback.
func Derive(workspaceRoot string) (string, error) {
	return deriveFor(workspaceRoot, runtime.GOOS)
}

// deriveFor is Derive with the platform made explicit for tests
func deriveFor(workspaceRoot, goos string) (string, error) {
	var suffix string

	if workspaceRoot == "" {
		var err error
		suffix, err = randomSuffix()
		if err != nil {
			return "", fmt.Errorf("failed to generate random endpoint suffix: %w", err)
		}
	} else {
		suffix = hashSuffix(normalize(workspaceRoot, goos))
	}

	if goos == "windows" {
		return `\\.\pipe\` + appPrefix + suffix, nil
	}
	return filepath.Join(os.TempDir(), appPrefix+suffix+".sock"), nil
}

// normalize canonicalizes a workspace root for hashing. Paths are
// lowercased on platforms whose default filesystems are case-insensitive
// so that two spellings of the same directory agree on an address.
func normalize(workspaceRoot, goos string) string {
	path := filepath.Clean(workspaceRoot)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	if caseInsensitiveFS(goos) {
		path = strings.ToLower(path)
	}

	return path
}

// caseInsensitiveFS reports whether the platform's default filesystem
// ignores case (NTFS, APFS)
func caseInsensitiveFS(goos string) bool {
	return goos == "windows" || goos == "darwin"
}

// hashSuffix renders a stable 8-hex-character digest of the normalized
// path. 32 bits is enough for the handful of workspaces concurrently
// open on one machine; collisions are accepted as out of scope.
func hashSuffix(normalized string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalized))
	return fmt.Sprintf("%08x", h.Sum32())
}

// randomSuffix returns 8 random hex characters
func randomSuffix() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
