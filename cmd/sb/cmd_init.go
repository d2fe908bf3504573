package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/elidholm/sb-cli/internal/config"
	"github.com/elidholm/sb-cli/internal/git"
	"github.com/elidholm/sb-cli/internal/vault"
	"github.com/elidholm/sb-cli/internal/workspace"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the vault folders and its git repository",
		Long: `Create the vault directory with the five PARA folders, initialize a git
repository with an initial commit and optionally register a remote.

With --clone the vault is cloned from an existing repository first.
Running init on an existing vault only adds what is missing.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
	cmd.Flags().String("remote", "", "URL of the remote to register")
	cmd.Flags().String("clone", "", "Clone the vault from this URL instead of creating it")
	cmd.Flags().Bool("save-config", false, "Write the config file if it does not exist yet")
	cmd.Flags().Bool("no-git", false, "Skip git repository initialization")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	remoteURL, _ := cmd.Flags().GetString("remote")
	cloneURL, _ := cmd.Flags().GetString("clone")
	saveConfig, _ := cmd.Flags().GetBool("save-config")
	noGit, _ := cmd.Flags().GetBool("no-git")

	if cloneURL != "" && noGit {
		return fmt.Errorf("--clone and --no-git cannot be combined")
	}

	cfg, cfgPath, err := workspace.LoadConfig(workspaceOptions(cmd))
	if err != nil {
		return err
	}
	dir, err := vault.ExpandHome(cfg.VaultPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	logger := slog.Default()

	if cloneURL != "" {
		if !isEmptyDir(dir) {
			return fmt.Errorf("cannot clone into %s: directory is not empty", dir)
		}
		_, _ = fmt.Fprintf(out, "Cloning %s into %s...\n", cloneURL, dir)
		if err := git.Clone(cmd.Context(), cloneURL, dir); err != nil {
			return err
		}
	} else if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // vault dir needs to be world-readable
		return fmt.Errorf("creating vault directory: %w", err)
	}

	ws, err := workspace.New(cfg, cfgPath)
	if err != nil {
		return err
	}
	snap, err := ws.Scan(logger)
	if err != nil {
		return err
	}
	for _, f := range snap.Created() {
		_, _ = fmt.Fprintf(out, "Created %s/\n", snap.Layout().Dir(f))
	}

	if !noGit {
		if !git.IsGitInstalled() {
			return fmt.Errorf("git is not installed; rerun with --no-git to skip repository setup")
		}
		setup, err := initVaultRepo(cmd.Context(), snap, cfg.Remote, remoteURL, logger)
		if err != nil {
			return err
		}
		if setup.Initialized {
			_, _ = fmt.Fprintf(out, "Initialized git repository on branch %s\n", defaultBranch)
		}
		if setup.Committed {
			_, _ = fmt.Fprintln(out, "Committed vault layout")
		}
		if setup.RemoteAdded {
			_, _ = fmt.Fprintf(out, "Added remote %s -> %s\n", cfg.Remote, remoteURL)
		}
	}

	if saveConfig {
		if _, err := os.Stat(cfgPath); err == nil {
			_, _ = fmt.Fprintf(out, "Keeping existing config %s\n", cfgPath)
		} else if errors.Is(err, fs.ErrNotExist) {
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Wrote config %s\n", cfgPath)
		} else {
			return err
		}
	}

	_, _ = fmt.Fprintf(out, "Vault ready at %s\n", ws.Root)
	return nil
}

func isEmptyDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	return err == nil && len(entries) == 0
}
