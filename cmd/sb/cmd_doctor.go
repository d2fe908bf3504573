package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/elidholm/sb-cli/internal/apperr"
	"github.com/elidholm/sb-cli/internal/git"
	"github.com/elidholm/sb-cli/internal/report"
	"github.com/elidholm/sb-cli/internal/repostate"
	"github.com/elidholm/sb-cli/internal/ui"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the environment, the vault and its remote",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

type checker struct {
	out    io.Writer
	failed int
}

func (c *checker) ok(label, detail string) {
	_, _ = fmt.Fprintf(c.out, "%s %s: %s\n", ui.OK.Render("ok  "), label, detail)
}

func (c *checker) warn(label, detail string) {
	_, _ = fmt.Fprintf(c.out, "%s %s: %s\n", ui.Warn.Render("warn"), label, detail)
}

func (c *checker) fail(label string, err error) {
	c.failed++
	_, _ = fmt.Fprintf(c.out, "%s %s: %v\n", ui.Error.Render("FAIL"), label, err)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c := &checker{out: cmd.OutOrStdout()}
	logger := slog.Default()

	gitOK := git.IsGitInstalled()
	if !gitOK {
		c.fail("git", errors.New("not found in PATH; install it from https://git-scm.com/"))
	} else if ver, err := git.Version(ctx); err != nil {
		c.fail("git", err)
		gitOK = false
	} else {
		c.ok("git", ver)
	}

	ws, err := loadWorkspace(cmd)
	if err != nil {
		c.fail("config", err)
		return c.result()
	}
	c.ok("config", ws.ConfigPath)

	snap, err := ws.Scan(logger)
	if err != nil {
		c.fail("vault", err)
		return c.result()
	}
	c.ok("vault", fmt.Sprintf("%s (%d notes)", ws.Root, snap.TotalNotes()))
	if !gitOK {
		return c.result()
	}

	repo, err := ws.OpenRepo(ctx, logger)
	if errors.Is(err, apperr.ErrNotARepository) {
		c.warn("repository", "vault is not under version control; run sb init")
		return c.result()
	}
	if err != nil {
		c.fail("repository", err)
		return c.result()
	}
	st, err := repostate.Inspect(ctx, ws.Root.Path(), repo)
	if err != nil {
		c.fail("repository", err)
		return c.result()
	}
	sum := report.Build(snap, st)
	if st.HasConflict {
		c.fail("repository", &apperr.ConflictError{Branch: st.Branch, Files: st.Conflicts})
	} else {
		c.ok("repository", sum.SyncLabel())
	}

	remote := ws.Config.Remote
	url, err := repo.RemoteURL(ctx, remote)
	if err != nil {
		c.warn("remote", fmt.Sprintf("no remote named %s; sync will fail until one is added", remote))
		return c.result()
	}
	rctx, cancel := context.WithTimeout(ctx, ws.Config.NetworkTimeout)
	defer cancel()
	if err := repo.LsRemote(rctx, remote); err != nil {
		c.fail("remote", fmt.Errorf("%s (%s): %w: %w", remote, url, apperr.ErrRemoteUnreachable, err))
	} else {
		c.ok("remote", fmt.Sprintf("%s (%s) reachable", remote, url))
	}
	return c.result()
}

func (c *checker) result() error {
	if c.failed == 0 {
		_, _ = fmt.Fprintln(c.out, "\nAll checks passed.")
		return nil
	}
	_, _ = fmt.Fprintln(c.out, "\nSome checks failed. See above for details.")
	return fmt.Errorf("doctor: %d check(s) failed", c.failed)
}
