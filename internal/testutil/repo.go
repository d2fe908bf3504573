package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// CreateBareRepo creates a bare git repository whose main branch holds a
// single initial commit with a README.md. Returns the path to the bare repo.
func CreateBareRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	bare := filepath.Join(dir, "vault.git")

	// Create a working repo first, then clone it bare.
	work := filepath.Join(dir, "work")
	Git(t, dir, "init", "-b", "main", work)
	configureIdentity(t, work)

	WriteFile(t, work, "README.md", "# vault\n")
	Git(t, work, "add", ".")
	Git(t, work, "commit", "-m", "initial commit")

	Git(t, dir, "clone", "--bare", work, bare)
	return bare
}

// CloneVault clones bare into a fresh temp directory with a test identity
// configured. Returns the path to the working tree.
func CloneVault(t *testing.T, bare string) string {
	t.Helper()
	dest := filepath.Join(t.TempDir(), "vault")
	Git(t, ".", "clone", bare, dest)
	configureIdentity(t, dest)
	return dest
}

// InitVault creates a standalone repository on main with one commit and no remote.
func InitVault(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "vault")
	Git(t, ".", "init", "-b", "main", dir)
	configureIdentity(t, dir)
	WriteFile(t, dir, "README.md", "# vault\n")
	Git(t, dir, "add", ".")
	Git(t, dir, "commit", "-m", "initial commit")
	return dir
}

// WriteFile writes content to rel under dir, creating parent directories.
func WriteFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil { //nolint:gosec // test file
		t.Fatal(err)
	}
}

// CommitAll stages everything in dir and commits it with msg.
func CommitAll(t *testing.T, dir, msg string) {
	t.Helper()
	Git(t, dir, "add", "-A")
	Git(t, dir, "commit", "-m", msg)
}

// RevParse returns the trimmed output of git rev-parse ref in dir.
func RevParse(t *testing.T, dir, ref string) string {
	t.Helper()
	return strings.TrimSpace(Output(t, dir, "rev-parse", ref))
}

// CommitCount returns the number of commits reachable from ref.
func CommitCount(t *testing.T, dir, ref string) string {
	t.Helper()
	return strings.TrimSpace(Output(t, dir, "rev-list", "--count", ref))
}

// Git runs a git command in dir and fails the test on error.
func Git(t *testing.T, dir string, args ...string) {
	t.Helper()
	Output(t, dir, args...)
}

// Output runs a git command in dir and returns its stdout.
func Output(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = string(ee.Stderr)
		}
		t.Fatalf("git %v failed: %v\n%s", args, err, stderr)
	}
	return string(out)
}

func configureIdentity(t *testing.T, dir string) {
	t.Helper()
	Git(t, dir, "config", "user.email", "test@example.com")
	Git(t, dir, "config", "user.name", "Test")
}
