// Package syncengine synchronizes a vault with its remote repository. A sync
// runs as a linear state machine (stage, commit, fetch, reconcile, push) that
// never retries and never resolves conflicts on the user's behalf; any step
// may abort, leaving local commits intact.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/elidholm/sb-cli/internal/apperr"
	"github.com/elidholm/sb-cli/internal/git"
	"github.com/elidholm/sb-cli/internal/repostate"
)

// VCS is the version-control capability the engine drives.
type VCS interface {
	repostate.Querier
	AddAll(ctx context.Context) error
	Commit(ctx context.Context, message string) (bool, error)
	Fetch(ctx context.Context, remote, branch string) error
	Merge(ctx context.Context, ref string) error
	Push(ctx context.Context, remote, branch string, setUpstream bool) error
	Checkout(ctx context.Context, branch string) error
}

// Defaults.
const (
	DefaultRemote  = "origin"
	DefaultTimeout = 60 * time.Second
)

// Request describes one sync invocation. Empty fields select defaults: the
// current branch and a timestamped commit message.
type Request struct {
	Branch  string
	Message string
}

// Engine runs syncs for a single vault root.
type Engine struct {
	root    string
	vcs     VCS
	remote  string
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
	onStep  func(Step)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRemote sets the remote name (default "origin").
func WithRemote(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.remote = name
		}
	}
}

// WithTimeout bounds each network operation (fetch, push).
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the clock used for default commit messages.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithStepObserver registers fn to be called after each completed step.
func WithStepObserver(fn func(Step)) Option {
	return func(e *Engine) { e.onStep = fn }
}

// New returns an Engine operating on the work tree at root through vcs.
func New(root string, vcs VCS, opts ...Option) *Engine {
	e := &Engine{
		root:    root,
		vcs:     vcs,
		remote:  DefaultRemote,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultMessage returns the commit message used when none is supplied.
func DefaultMessage(t time.Time) string {
	return "sync: " + t.Format(time.RFC3339)
}

// Sync runs the full sequence. The returned Result is always non-nil; on
// failure it records the state the engine aborted in and err describes why.
// A conflict yields Status Conflict and an *apperr.ConflictError.
func (e *Engine) Sync(ctx context.Context, req Request) (*Result, error) {
	r := &run{Engine: e, res: &Result{State: Idle}}
	return r.res, r.sync(ctx, req)
}

type run struct {
	*Engine
	res *Result
}

func (r *run) sync(ctx context.Context, req Request) error {
	st, err := repostate.Inspect(ctx, r.root, r.vcs)
	if err != nil {
		return r.fail(err)
	}
	r.res.Branch = st.Branch
	r.res.CommitHash = st.Head
	if st.HasConflict {
		return r.conflict(st.Conflicts)
	}

	if req.Branch != "" && req.Branch != st.Branch {
		if st, err = r.switchBranch(ctx, st, req.Branch); err != nil {
			return r.fail(err)
		}
	}
	if st.Branch == "" {
		return r.fail(errors.New("HEAD is detached; pass the branch to sync"))
	}
	branch := st.Branch

	if err := r.stageAndCommit(ctx, st, req.Message); err != nil {
		return r.fail(err)
	}

	r.enter(Fetching)
	remoteRef := r.remote + "/" + branch
	remoteMissing := false
	if err := r.withTimeout(ctx, func(ctx context.Context) error {
		return r.vcs.Fetch(ctx, r.remote, branch)
	}); err != nil {
		if !errors.Is(err, git.ErrRemoteRefMissing) {
			return r.fail(fmt.Errorf("fetching %s: %w: %w", remoteRef, apperr.ErrRemoteUnreachable, r.explain(err)))
		}
		remoteMissing = true
		r.step(Fetching, true, remoteRef+" does not exist yet")
	} else {
		r.step(Fetching, false, "fetched "+remoteRef)
	}

	r.enter(Reconciling)
	if remoteMissing {
		r.step(Reconciling, true, "nothing to merge")
	} else {
		if st, err = r.reconcile(ctx, remoteRef); err != nil {
			return err
		}
	}

	r.enter(Pushing)
	upToDate := st.Upstream == remoteRef && st.Ahead == 0
	if upToDate && !remoteMissing {
		r.step(Pushing, true, remoteRef+" is up to date")
	} else {
		setUpstream := st.Upstream != remoteRef
		if err := r.withTimeout(ctx, func(ctx context.Context) error {
			return r.vcs.Push(ctx, r.remote, branch, setUpstream)
		}); err != nil {
			if errors.Is(err, git.ErrPushRejected) {
				return r.fail(fmt.Errorf("pushing %s to %s: %w: %w", branch, r.remote, apperr.ErrRemoteRejected, err))
			}
			return r.fail(fmt.Errorf("pushing %s to %s: %w: %w", branch, r.remote, apperr.ErrRemoteUnreachable, r.explain(err)))
		}
		r.res.Pushed = true
		r.step(Pushing, false, "pushed to "+remoteRef)
	}

	head, err := r.vcs.Head(ctx)
	if err != nil {
		return r.fail(fmt.Errorf("reading HEAD: %w", err))
	}
	r.res.CommitHash = head
	r.res.State = Done
	r.res.Status = Success
	r.res.Message = r.summary()
	r.logger.Debug("sync complete", "branch", branch, "head", head, "committed", r.res.Committed, "pushed", r.res.Pushed)
	return nil
}

// switchBranch checks out branch. It refuses to touch anything while the
// working tree has uncommitted changes or a merge is unfinished.
func (r *run) switchBranch(ctx context.Context, st *repostate.Status, branch string) (*repostate.Status, error) {
	if st.Dirty || st.Merging {
		return nil, fmt.Errorf("cannot switch from %q to %q: %w", st.Branch, branch, apperr.ErrDirtyWorkingTree)
	}
	r.logger.Info("switching branch", "from", st.Branch, "to", branch)
	if err := r.vcs.Checkout(ctx, branch); err != nil {
		return nil, fmt.Errorf("checking out %s: %w", branch, err)
	}
	r.res.Branch = branch
	st, err := repostate.Inspect(ctx, r.root, r.vcs)
	if err != nil {
		return nil, err
	}
	r.res.CommitHash = st.Head
	return st, nil
}

// stageAndCommit commits local changes. A resolved merge is committed even
// when it changes nothing relative to HEAD.
func (r *run) stageAndCommit(ctx context.Context, st *repostate.Status, message string) error {
	r.enter(Staging)
	if !st.Dirty && !st.Merging {
		r.step(Staging, true, "working tree clean")
		r.enter(Committing)
		r.step(Committing, true, "nothing to commit")
		return nil
	}
	if err := r.vcs.AddAll(ctx); err != nil {
		return fmt.Errorf("staging changes in %s: %w", r.root, err)
	}
	r.step(Staging, false, "staged changes")

	r.enter(Committing)
	if message == "" {
		message = DefaultMessage(r.now())
	}
	committed, err := r.vcs.Commit(ctx, message)
	if err != nil {
		return fmt.Errorf("committing on %s: %w", st.Branch, err)
	}
	r.res.Committed = committed
	if committed {
		r.step(Committing, false, message)
	} else {
		r.step(Committing, true, "nothing staged")
	}
	return nil
}

// reconcile merges the fetched remote branch and re-reads the state. The
// working tree is left exactly as the merge left it.
func (r *run) reconcile(ctx context.Context, ref string) (*repostate.Status, error) {
	mergeErr := r.vcs.Merge(ctx, ref)
	st, err := repostate.Inspect(ctx, r.root, r.vcs)
	if err != nil {
		return nil, r.fail(err)
	}
	r.res.CommitHash = st.Head
	if st.HasConflict {
		return nil, r.conflict(st.Conflicts)
	}
	if mergeErr != nil {
		return nil, r.fail(fmt.Errorf("merging %s: %w", ref, mergeErr))
	}
	r.step(Reconciling, false, "merged "+ref)
	return st, nil
}

func (r *run) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return fn(ctx)
}

func (r *run) explain(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", r.timeout, err)
	}
	return err
}

func (r *run) enter(s State) {
	r.res.State = s
	r.logger.Debug("sync state", "state", s.String())
}

func (r *run) step(s State, skipped bool, detail string) {
	if r.onStep != nil {
		r.onStep(Step{State: s, Skipped: skipped, Detail: detail})
	}
}

func (r *run) fail(err error) error {
	r.res.FailedAt = r.res.State
	r.res.State = Aborted
	r.res.Status = Failed
	r.res.Message = err.Error()
	r.logger.Debug("sync aborted", "state", r.res.FailedAt.String(), "error", err)
	return err
}

func (r *run) conflict(files []string) error {
	cerr := &apperr.ConflictError{Branch: r.res.Branch, Files: files}
	r.res.FailedAt = r.res.State
	r.res.State = Aborted
	r.res.Status = Conflict
	r.res.Conflicts = files
	r.res.Message = cerr.Error()
	r.logger.Debug("sync aborted on conflict", "state", r.res.FailedAt.String(), "files", files)
	return cerr
}

func (r *run) summary() string {
	short := shortHash(r.res.CommitHash)
	switch {
	case r.res.Committed && r.res.Pushed:
		return fmt.Sprintf("committed %s and pushed %s to %s", short, r.res.Branch, r.remote)
	case r.res.Pushed:
		return fmt.Sprintf("pushed %s to %s at %s", r.res.Branch, r.remote, short)
	default:
		return fmt.Sprintf("%s is up to date at %s", r.res.Branch, short)
	}
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
