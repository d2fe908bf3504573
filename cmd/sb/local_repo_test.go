package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elidholm/sb-cli/internal/git"
	"github.com/elidholm/sb-cli/internal/testutil"
	"github.com/elidholm/sb-cli/internal/vault"
)

func scanDir(t *testing.T, dir string) *vault.Snapshot {
	t.Helper()
	root, err := vault.OpenRoot(dir)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := vault.Scan(root, vault.DefaultLayout())
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestInitVaultRepo(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "1_Projects/plan.md", "# Plan\n")
	snap := scanDir(t, dir)

	setup, err := initVaultRepo(context.Background(), snap, "origin", "", nil)
	if err != nil {
		t.Fatalf("initVaultRepo failed: %v", err)
	}
	if !setup.Initialized || !setup.Committed || setup.RemoteAdded {
		t.Errorf("setup = %+v", setup)
	}
	if !git.IsRepo(dir) {
		t.Fatal("expected a git repository")
	}
	if _, err := os.Stat(filepath.Join(dir, "1_Projects", ".gitkeep")); !os.IsNotExist(err) {
		t.Error("folders holding notes need no .gitkeep")
	}
	tracked := testutil.Output(t, dir, "ls-files")
	for _, want := range []string{".gitignore", "0_Inbox/.gitkeep", "1_Projects/plan.md", "4_Archive/.gitkeep"} {
		if !strings.Contains(tracked, want) {
			t.Errorf("%s not tracked:\n%s", want, tracked)
		}
	}
	if msg := strings.TrimSpace(testutil.Output(t, dir, "log", "-1", "--format=%s")); msg != "Initialize vault" {
		t.Errorf("commit message = %q", msg)
	}
}

func TestInitVaultRepo_existingRepo(t *testing.T) {
	dir := testutil.InitVault(t)
	testutil.WriteFile(t, dir, ".gitignore", "custom\n")
	testutil.CommitAll(t, dir, "custom ignore")
	snap := scanDir(t, dir)

	setup, err := initVaultRepo(context.Background(), snap, "backup", "/srv/vault.git", nil)
	if err != nil {
		t.Fatalf("initVaultRepo failed: %v", err)
	}
	if setup.Initialized {
		t.Error("existing repository should not be re-initialized")
	}
	if !setup.RemoteAdded {
		t.Error("remote should be added")
	}
	data, _ := os.ReadFile(filepath.Join(dir, ".gitignore")) //nolint:gosec // test file
	if string(data) != "custom\n" {
		t.Errorf("existing .gitignore overwritten: %q", data)
	}
	if url := strings.TrimSpace(testutil.Output(t, dir, "remote", "get-url", "backup")); url != "/srv/vault.git" {
		t.Errorf("backup = %q", url)
	}

	setup, err = initVaultRepo(context.Background(), snap, "backup", "/other.git", nil)
	if err != nil {
		t.Fatal(err)
	}
	if setup.Committed || setup.RemoteAdded {
		t.Errorf("second run should change nothing: %+v", setup)
	}
}
