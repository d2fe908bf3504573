package syncengine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/elidholm/sb-cli/internal/git"
)

// fakeVCS is an in-memory repository with a single remote. Local and remote
// history are modelled as commit counters; conflicts are simulated by
// writing marker files into root.
type fakeVCS struct {
	root string

	branch   string
	upstream string
	head     string
	dirty    bool
	staged   bool
	ahead    int
	behind   int
	unmerged []string
	merging  bool
	commits  int

	conflictOnMerge []string
	fetchErr        error
	mergeErr        error
	pushErr         error
	checkoutErr     error
	blockNetwork    bool

	calls    []string
	messages []string
	pushes   []bool // setUpstream per push
}

func newFake(root string) *fakeVCS {
	return &fakeVCS{root: root, branch: "main", upstream: "origin/main", head: "base000000"}
}

func (f *fakeVCS) Status(context.Context) (*git.Status, error) {
	st := &git.Status{Branch: f.branch, Upstream: f.upstream, Ahead: f.ahead, Behind: f.behind}
	if f.branch == "" {
		st.Detached = true
	}
	if f.dirty {
		st.Entries = append(st.Entries, git.Entry{Kind: git.Untracked, Path: "0_Inbox/new.md"})
	}
	for _, p := range f.unmerged {
		st.Entries = append(st.Entries, git.Entry{Kind: git.Unmerged, XY: "UU", Path: p})
	}
	return st, nil
}

func (f *fakeVCS) Head(context.Context) (string, error) { return f.head, nil }

func (f *fakeVCS) MergeInProgress(context.Context) (bool, error) { return f.merging, nil }

func (f *fakeVCS) AddAll(context.Context) error {
	f.calls = append(f.calls, "add")
	if f.dirty {
		f.staged = true
	}
	f.unmerged = nil
	return nil
}

func (f *fakeVCS) Commit(_ context.Context, message string) (bool, error) {
	f.calls = append(f.calls, "commit")
	if !f.staged && !f.merging {
		return false, nil
	}
	f.commits++
	f.messages = append(f.messages, message)
	f.head = fmt.Sprintf("local%05d", f.commits)
	f.ahead++
	f.dirty, f.staged = false, false
	if f.merging {
		f.merging = false
		f.behind = 0
		f.ahead++
	}
	return true, nil
}

func (f *fakeVCS) Fetch(ctx context.Context, remote, branch string) error {
	f.calls = append(f.calls, "fetch "+remote+"/"+branch)
	if f.blockNetwork {
		<-ctx.Done()
		return &git.CommandError{Args: []string{"fetch"}, Err: ctx.Err()}
	}
	return f.fetchErr
}

func (f *fakeVCS) Merge(_ context.Context, ref string) error {
	f.calls = append(f.calls, "merge "+ref)
	if len(f.conflictOnMerge) > 0 {
		for _, p := range f.conflictOnMerge {
			full := filepath.Join(f.root, filepath.FromSlash(p))
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return err
			}
			content := "<<<<<<< HEAD\nlocal\n=======\nremote\n>>>>>>> " + ref + "\n"
			if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
				return err
			}
		}
		f.unmerged = f.conflictOnMerge
		f.merging = true
		return fmt.Errorf("merge %s: exit status 1", ref)
	}
	if f.mergeErr != nil {
		return f.mergeErr
	}
	if f.behind > 0 {
		f.behind = 0
		if f.ahead > 0 {
			f.ahead++ // merge commit
			f.head = "merge00000"
		} else {
			f.head = "remote0000"
		}
	}
	return nil
}

func (f *fakeVCS) Push(ctx context.Context, remote, branch string, setUpstream bool) error {
	f.calls = append(f.calls, "push "+remote+"/"+branch)
	f.pushes = append(f.pushes, setUpstream)
	if f.blockNetwork {
		<-ctx.Done()
		return &git.CommandError{Args: []string{"push"}, Err: ctx.Err()}
	}
	if f.pushErr != nil {
		return f.pushErr
	}
	f.ahead = 0
	f.upstream = remote + "/" + branch
	return nil
}

func (f *fakeVCS) Checkout(_ context.Context, branch string) error {
	f.calls = append(f.calls, "checkout "+branch)
	if f.checkoutErr != nil {
		return f.checkoutErr
	}
	f.branch = branch
	f.upstream = ""
	return nil
}
