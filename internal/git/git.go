package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	// ErrNotRepository is returned when the directory is not inside a git work tree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrRemoteRefMissing is returned by Fetch when the branch does not exist on the remote yet.
	ErrRemoteRefMissing = errors.New("remote ref not found")
	// ErrPushRejected is returned by Push when the remote refuses the update (e.g. non-fast-forward).
	ErrPushRejected = errors.New("push rejected by remote")
)

// CommandError carries the arguments and captured stderr of a failed git invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("git %s: %v: %s", strings.Join(e.Args, " "), e.Err, msg)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Repo runs git commands with Dir as the working directory.
type Repo struct {
	Dir    string
	Logger *slog.Logger

	top  string // repository top-level directory
	base string // Dir with symlinks resolved
}

// Open returns a Repo for dir, or ErrNotRepository when dir is not inside a work tree.
func Open(ctx context.Context, dir string, logger *slog.Logger) (*Repo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repo{Dir: dir, Logger: logger}
	out, err := r.output(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		var ce *CommandError
		if errors.As(err, &ce) && strings.Contains(ce.Stderr, "not a git repository") {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotRepository)
		}
		return nil, err
	}
	r.top = strings.TrimSpace(out)
	if r.base, err = filepath.EvalSymlinks(dir); err != nil {
		r.base = dir
	}
	return r, nil
}

// Status returns the porcelain status of the paths under Dir. Entry paths
// are relative to Dir.
func (r *Repo) Status(ctx context.Context) (*Status, error) {
	out, err := r.output(ctx, "status", "--porcelain=v2", "--branch", "-z", "--untracked-files=all", "--", ".")
	if err != nil {
		return nil, err
	}
	st, err := ParseStatus(out)
	if err != nil {
		return nil, err
	}
	for i := range st.Entries {
		st.Entries[i].Path = r.relative(st.Entries[i].Path)
		if st.Entries[i].OrigPath != "" {
			st.Entries[i].OrigPath = r.relative(st.Entries[i].OrigPath)
		}
	}
	return st, nil
}

// relative converts a top-level-relative path into a Dir-relative one.
func (r *Repo) relative(p string) string {
	if r.top == "" {
		return p
	}
	rel, err := filepath.Rel(r.base, filepath.Join(r.top, filepath.FromSlash(p)))
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

// Head returns the full SHA of HEAD, or an empty string before the first commit.
func (r *Repo) Head(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "rev-parse", "--verify", "--quiet", "HEAD")
	if err != nil {
		if isExitError(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// AddAll stages every change (including deletions and untracked files) under Dir.
func (r *Repo) AddAll(ctx context.Context) error {
	return r.run(ctx, "add", "-A", "--", ".")
}

// Commit commits the staged changes. It reports false without error when
// nothing is staged and no merge is in progress; an in-progress merge is
// concluded even when its result equals HEAD. If user.name or user.email is
// not configured, repo-local fallback values are set first.
func (r *Repo) Commit(ctx context.Context, message string) (bool, error) {
	err := r.run(ctx, "diff", "--cached", "--quiet")
	if err != nil && !isExitError(err) {
		return false, err
	}
	if err == nil {
		merging, err := r.MergeInProgress(ctx)
		if err != nil {
			return false, err
		}
		if !merging {
			return false, nil
		}
	}
	if err := r.ensureCommitIdentity(ctx); err != nil {
		return false, fmt.Errorf("setting commit identity: %w", err)
	}
	if err := r.run(ctx, "commit", "-m", message); err != nil {
		return false, err
	}
	return true, nil
}

// MergeInProgress reports whether a merge has been started but not yet
// committed, i.e. whether MERGE_HEAD exists.
func (r *Repo) MergeInProgress(ctx context.Context) (bool, error) {
	_, err := r.output(ctx, "rev-parse", "-q", "--verify", "MERGE_HEAD")
	if err != nil {
		if isExitError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Fetch updates refs/remotes/<remote>/<branch> from the remote.
func (r *Repo) Fetch(ctx context.Context, remote, branch string) error {
	refspec := fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, remote, branch)
	err := r.run(ctx, "fetch", remote, refspec)
	var ce *CommandError
	if errors.As(err, &ce) && strings.Contains(ce.Stderr, "couldn't find remote ref") {
		return fmt.Errorf("%s/%s: %w", remote, branch, ErrRemoteRefMissing)
	}
	return err
}

// Merge merges ref into the current branch, fast-forwarding when possible.
// A non-nil error does not by itself mean a conflict; callers inspect the
// working tree to decide.
func (r *Repo) Merge(ctx context.Context, ref string) error {
	if err := r.ensureCommitIdentity(ctx); err != nil {
		return fmt.Errorf("setting commit identity: %w", err)
	}
	return r.run(ctx, "merge", "--no-edit", ref)
}

// Push pushes branch to remote, optionally recording it as the upstream.
func (r *Repo) Push(ctx context.Context, remote, branch string, setUpstream bool) error {
	args := []string{"push"}
	if setUpstream {
		args = append(args, "--set-upstream")
	}
	args = append(args, remote, branch)
	err := r.run(ctx, args...)
	var ce *CommandError
	if errors.As(err, &ce) && isRejection(ce.Stderr) {
		return fmt.Errorf("%w: %w", ErrPushRejected, err)
	}
	return err
}

func isRejection(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "[rejected]") ||
		strings.Contains(s, "[remote rejected]") ||
		strings.Contains(s, "non-fast-forward") ||
		strings.Contains(s, "fetch first")
}

// Checkout switches to branch. A branch that only exists as
// refs/remotes/<remote>/<branch> is created tracking it.
func (r *Repo) Checkout(ctx context.Context, branch string) error {
	return r.run(ctx, "checkout", branch)
}

// HasRemote reports whether the named remote is configured.
func (r *Repo) HasRemote(ctx context.Context, remote string) bool {
	_, err := r.output(ctx, "remote", "get-url", remote)
	return err == nil
}

// RemoteURL returns the URL of the named remote.
func (r *Repo) RemoteURL(ctx context.Context, remote string) (string, error) {
	out, err := r.output(ctx, "remote", "get-url", remote)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// LsRemote reports whether the named remote (or URL) is reachable. It runs
// in Dir so remotes with relative URLs resolve the way fetch and push do.
func (r *Repo) LsRemote(ctx context.Context, remote string) error {
	return r.run(ctx, "ls-remote", "--quiet", remote)
}

// AddRemote registers a remote.
func (r *Repo) AddRemote(ctx context.Context, name, url string) error {
	return r.run(ctx, "remote", "add", name, url)
}

// ensureCommitIdentity sets repo-local user.name/user.email if they are not configured.
func (r *Repo) ensureCommitIdentity(ctx context.Context) error {
	if _, err := r.output(ctx, "config", "user.name"); err != nil {
		if err2 := r.run(ctx, "config", "user.name", "sb"); err2 != nil {
			return err2
		}
	}
	if _, err := r.output(ctx, "config", "user.email"); err != nil {
		if err2 := r.run(ctx, "config", "user.email", "sb@localhost"); err2 != nil {
			return err2
		}
	}
	return nil
}

// run executes a git command in Dir, discarding stdout.
func (r *Repo) run(ctx context.Context, args ...string) error {
	_, err := r.output(ctx, args...)
	return err
}

// output executes a git command in Dir and returns its stdout.
// Stderr is captured and included in the error on failure.
func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	return execGit(ctx, r.Dir, r.Logger, args...)
}

func execGit(ctx context.Context, dir string, logger *slog.Logger, args ...string) (string, error) {
	if logger != nil {
		logger.Debug("executing git", "args", args, "dir", dir)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &CommandError{Args: args, Stderr: stderr.String(), Err: ctxErr}
		}
		return "", &CommandError{Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}

// Init runs git init in dir with the given initial branch.
func Init(ctx context.Context, dir, branch string) error {
	_, err := execGit(ctx, dir, nil, "init", "-b", branch)
	return err
}

// Clone clones url into dest.
func Clone(ctx context.Context, url, dest string) error {
	if _, err := execGit(ctx, ".", nil, "clone", url, dest); err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	return nil
}

// Version returns the output of git version, e.g. "git version 2.43.0".
func Version(ctx context.Context) (string, error) {
	out, err := execGit(ctx, ".", nil, "version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsRepo returns true if dir contains a .git entry.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// IsGitInstalled returns true if git is available on the system PATH.
func IsGitInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func isExitError(err error) bool {
	var ee *exec.ExitError
	return errors.As(err, &ee)
}
