package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/elidholm/sb-cli/internal/git"
	"github.com/elidholm/sb-cli/internal/vault"
)

const defaultBranch = "main"

const vaultGitignore = `.DS_Store
.obsidian/workspace*.json
.trash/
*.swp
`

// repoSetup reports what initVaultRepo changed.
type repoSetup struct {
	Initialized bool
	Committed   bool
	RemoteAdded bool
}

// initVaultRepo makes the vault a git repository with every PARA folder
// tracked. It is safe to run on an existing repository: only missing pieces
// are added. remoteURL, when set, is registered as remote unless a remote of
// that name already exists.
func initVaultRepo(ctx context.Context, snap *vault.Snapshot, remote, remoteURL string, logger *slog.Logger) (repoSetup, error) {
	var setup repoSetup
	dir := snap.Root().Path()

	if !git.IsRepo(dir) {
		if err := git.Init(ctx, dir, defaultBranch); err != nil {
			return setup, fmt.Errorf("git init in %s: %w", dir, err)
		}
		setup.Initialized = true
	}

	if err := writeIfMissing(filepath.Join(dir, ".gitignore"), vaultGitignore); err != nil {
		return setup, err
	}
	for _, st := range snap.All() {
		if !st.Empty() {
			continue
		}
		if err := writeIfMissing(filepath.Join(st.Dir, ".gitkeep"), ""); err != nil {
			return setup, err
		}
	}

	repo, err := git.Open(ctx, dir, logger)
	if err != nil {
		return setup, err
	}
	if err := repo.AddAll(ctx); err != nil {
		return setup, fmt.Errorf("staging vault: %w", err)
	}
	if setup.Committed, err = repo.Commit(ctx, "Initialize vault"); err != nil {
		return setup, fmt.Errorf("initial commit: %w", err)
	}

	if remoteURL != "" && !repo.HasRemote(ctx, remote) {
		if err := repo.AddRemote(ctx, remote, remoteURL); err != nil {
			return setup, fmt.Errorf("adding remote %s: %w", remote, err)
		}
		setup.RemoteAdded = true
	}
	return setup, nil
}

func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec // tracked vault files need to be readable
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
