package syncengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elidholm/sb-cli/internal/apperr"
	"github.com/elidholm/sb-cli/internal/git"
)

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T, f *fakeVCS, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(f.root, f, opts...)
}

func TestSync_cleanAndUpToDate(t *testing.T) {
	f := newFake(t.TempDir())

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, Success, res.Status)
	assert.Equal(t, Done, res.State)
	assert.False(t, res.Committed)
	assert.False(t, res.Pushed)
	assert.Equal(t, "base000000", res.CommitHash)
	assert.Equal(t, []string{"fetch origin/main", "merge origin/main"}, f.calls)
}

func TestSync_dirtyCommitsAndPushes(t *testing.T) {
	f := newFake(t.TempDir())
	f.dirty = true

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, Success, res.Status)
	assert.True(t, res.Committed)
	assert.True(t, res.Pushed)
	assert.Equal(t, "local00001", res.CommitHash)
	assert.Equal(t, 1, f.commits)
	assert.Equal(t, []string{"sync: 2026-10-17T09:30:00Z"}, f.messages)
	assert.Equal(t, []string{"add", "commit", "fetch origin/main", "merge origin/main", "push origin/main"}, f.calls)
	assert.Equal(t, 0, f.ahead)
	assert.Equal(t, []bool{false}, f.pushes)
}

func TestSync_customMessageAndRemote(t *testing.T) {
	f := newFake(t.TempDir())
	f.dirty = true
	f.upstream = "backup/main"

	res, err := newTestEngine(t, f, WithRemote("backup")).Sync(context.Background(), Request{Message: "weekly review"})
	require.NoError(t, err)
	assert.Equal(t, []string{"weekly review"}, f.messages)
	assert.Contains(t, f.calls, "push backup/main")
	assert.Contains(t, res.Message, "pushed main to backup")
}

func TestSync_behindFastForwards(t *testing.T) {
	f := newFake(t.TempDir())
	f.behind = 2

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, Success, res.Status)
	assert.Equal(t, "remote0000", res.CommitHash)
	assert.False(t, res.Pushed, "fast-forward leaves nothing to push")
}

func TestSync_dirtyBranchSwitchTouchesNothing(t *testing.T) {
	f := newFake(t.TempDir())
	f.dirty = true

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{Branch: "drafts"})
	require.ErrorIs(t, err, apperr.ErrDirtyWorkingTree)

	assert.Empty(t, f.calls, "no git operation may run before the dirty check")
	assert.Equal(t, "main", f.branch)
	assert.Zero(t, f.commits)
	assert.Equal(t, Aborted, res.State)
	assert.Equal(t, Idle, res.FailedAt)
	assert.Equal(t, Failed, res.Status)
}

func TestSync_cleanBranchSwitch(t *testing.T) {
	f := newFake(t.TempDir())

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{Branch: "drafts"})
	require.NoError(t, err)
	assert.Equal(t, "drafts", res.Branch)
	assert.Equal(t, []string{"checkout drafts", "fetch origin/drafts", "merge origin/drafts", "push origin/drafts"}, f.calls)
	assert.Equal(t, []bool{true}, f.pushes, "a branch without upstream gets one on push")
}

func TestSync_sameBranchIsNotASwitch(t *testing.T) {
	f := newFake(t.TempDir())
	f.dirty = true

	_, err := newTestEngine(t, f).Sync(context.Background(), Request{Branch: "main"})
	require.NoError(t, err)
	assert.NotContains(t, f.calls, "checkout main")
}

func TestSync_checkoutFailure(t *testing.T) {
	f := newFake(t.TempDir())
	f.checkoutErr = errors.New("pathspec 'nope' did not match")

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{Branch: "nope"})
	require.Error(t, err)
	assert.Equal(t, Idle, res.FailedAt)
	assert.Equal(t, apperr.ExitGeneric, apperr.ExitCode(err))
}

func TestSync_detachedHead(t *testing.T) {
	f := newFake(t.TempDir())
	f.branch = ""

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detached")
	assert.Empty(t, f.calls)
	assert.Equal(t, Aborted, res.State)
}

func TestSync_fetchFailureKeepsLocalCommit(t *testing.T) {
	f := newFake(t.TempDir())
	f.dirty = true
	f.fetchErr = &git.CommandError{Args: []string{"fetch"}, Stderr: "Could not resolve host", Err: errors.New("exit status 128")}

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{})
	require.ErrorIs(t, err, apperr.ErrRemoteUnreachable)
	assert.Contains(t, err.Error(), "Could not resolve host")

	assert.Equal(t, Fetching, res.FailedAt)
	assert.True(t, res.Committed)
	assert.Equal(t, 1, f.commits, "local commit must survive")
	assert.NotContains(t, f.calls, "merge origin/main")
	assert.NotContains(t, f.calls, "push origin/main")
}

func TestSync_networkTimeout(t *testing.T) {
	f := newFake(t.TempDir())
	f.blockNetwork = true

	res, err := newTestEngine(t, f, WithTimeout(20*time.Millisecond)).Sync(context.Background(), Request{})
	require.ErrorIs(t, err, apperr.ErrRemoteUnreachable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out after 20ms")
	assert.Equal(t, Fetching, res.FailedAt)
}

func TestSync_newRemoteBranchIsPushed(t *testing.T) {
	f := newFake(t.TempDir())
	f.upstream = ""
	f.fetchErr = fmt.Errorf("origin/main: %w", git.ErrRemoteRefMissing)

	var steps []Step
	res, err := newTestEngine(t, f, WithStepObserver(func(s Step) { steps = append(steps, s) })).
		Sync(context.Background(), Request{})
	require.NoError(t, err)

	assert.True(t, res.Pushed)
	assert.NotContains(t, f.calls, "merge origin/main")
	assert.Equal(t, []bool{true}, f.pushes)
	require.Len(t, steps, Steps)
	assert.True(t, steps[2].Skipped)
	assert.True(t, steps[3].Skipped)
}

func TestSync_mergeConflict(t *testing.T) {
	f := newFake(t.TempDir())
	f.dirty = true
	f.behind = 1
	f.conflictOnMerge = []string{"1_Projects/plan.md", "0_Inbox/idea.md"}

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{})
	require.ErrorIs(t, err, apperr.ErrConflict)

	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"0_Inbox/idea.md", "1_Projects/plan.md"}, ce.Files)
	assert.Equal(t, "main", ce.Branch)

	assert.Equal(t, Conflict, res.Status)
	assert.Equal(t, Aborted, res.State)
	assert.Equal(t, Reconciling, res.FailedAt)
	assert.Equal(t, ce.Files, res.Conflicts)
	assert.Equal(t, "local00001", res.CommitHash, "local commit stays untouched")
	assert.NotContains(t, f.calls, "push origin/main", "no push after a conflict")
}

func TestSync_existingConflictAbortsBeforeStaging(t *testing.T) {
	f := newFake(t.TempDir())
	f.conflictOnMerge = []string{"2_Areas/health.md"}
	require.Error(t, f.Merge(context.Background(), "origin/main"))
	f.calls = nil

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, Idle, res.FailedAt)
	assert.Empty(t, f.calls, "marker files must never be staged")
}

func TestSync_unmergedPathWithoutMarkersAbortsAtIdle(t *testing.T) {
	f := newFake(t.TempDir())
	// modify/delete: the index is unmerged but no file holds markers
	f.unmerged = []string{"0_Inbox/gone.md"}
	f.merging = true

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, Conflict, res.Status)
	assert.Equal(t, Idle, res.FailedAt)
	assert.Equal(t, []string{"0_Inbox/gone.md"}, res.Conflicts)
	assert.Empty(t, f.calls, "nothing is staged, fetched or pushed")
}

func TestSync_resolvedMergeIsConcluded(t *testing.T) {
	f := newFake(t.TempDir())
	// The user resolved every path to HEAD's content and staged it.
	f.merging = true
	f.behind = 1

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{Message: "resolve"})
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.True(t, res.Pushed)
	assert.False(t, f.merging)
	assert.Equal(t, []string{"resolve"}, f.messages)
	assert.Equal(t, []string{"add", "commit", "fetch origin/main", "merge origin/main", "push origin/main"}, f.calls)
}

func TestSync_branchSwitchRefusedDuringMerge(t *testing.T) {
	f := newFake(t.TempDir())
	f.merging = true

	_, err := newTestEngine(t, f).Sync(context.Background(), Request{Branch: "drafts"})
	require.ErrorIs(t, err, apperr.ErrDirtyWorkingTree)
	assert.NotContains(t, f.calls, "checkout drafts")
}

func TestSync_mergeFailureWithoutConflict(t *testing.T) {
	f := newFake(t.TempDir())
	f.mergeErr = errors.New("untracked working tree files would be overwritten by merge")

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), "would be overwritten")
	assert.Equal(t, Reconciling, res.FailedAt)
	assert.Equal(t, Failed, res.Status)
}

func TestSync_pushRejected(t *testing.T) {
	f := newFake(t.TempDir())
	f.dirty = true
	f.pushErr = fmt.Errorf("%w: ! [rejected] main -> main (fetch first)", git.ErrPushRejected)

	res, err := newTestEngine(t, f).Sync(context.Background(), Request{})
	require.ErrorIs(t, err, apperr.ErrRemoteRejected)
	assert.Equal(t, Pushing, res.FailedAt)
	assert.Equal(t, 1, f.commits)
	assert.Equal(t, 1, f.ahead, "unpushed commit stays local")
}

func TestSync_pushUnreachable(t *testing.T) {
	f := newFake(t.TempDir())
	f.dirty = true
	f.pushErr = errors.New("ssh: connect to host example.com port 22: Connection refused")

	_, err := newTestEngine(t, f).Sync(context.Background(), Request{})
	require.ErrorIs(t, err, apperr.ErrRemoteUnreachable)
	assert.NotErrorIs(t, err, apperr.ErrRemoteRejected)
}

func TestSync_stepsReported(t *testing.T) {
	f := newFake(t.TempDir())
	f.dirty = true

	var steps []Step
	_, err := newTestEngine(t, f, WithStepObserver(func(s Step) { steps = append(steps, s) })).
		Sync(context.Background(), Request{})
	require.NoError(t, err)

	require.Len(t, steps, Steps)
	want := []State{Staging, Committing, Fetching, Reconciling, Pushing}
	for i, s := range steps {
		assert.Equal(t, want[i], s.State)
		assert.False(t, s.Skipped, s.State.String())
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "reconciling", Reconciling.String())
	assert.Equal(t, "aborted", Aborted.String())
	assert.Equal(t, "State(42)", State(42).String())
	assert.Equal(t, "conflict", Conflict.String())
}

func TestResult_JSONRoundTrip(t *testing.T) {
	in := Result{Status: Conflict, State: Aborted, FailedAt: Reconciling, Branch: "main", Conflicts: []string{"a.md"}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"conflict"`)
	assert.Contains(t, string(data), `"failed_at":"reconciling"`)

	var out Result
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	assert.Error(t, json.Unmarshal([]byte(`{"state":"sleeping"}`), &out))
}
