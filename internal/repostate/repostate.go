// Package repostate reports the version-control state of a vault: branch,
// dirty/clean, ahead/behind against the upstream, and unresolved conflicts.
package repostate

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/elidholm/sb-cli/internal/apperr"
	"github.com/elidholm/sb-cli/internal/git"
)

// Querier is the read-only half of the git capability.
type Querier interface {
	Status(ctx context.Context) (*git.Status, error)
	Head(ctx context.Context) (string, error)
	MergeInProgress(ctx context.Context) (bool, error)
}

// Status is the repository state observed at one point in time.
type Status struct {
	Branch      string   `json:"branch,omitempty"`
	Detached    bool     `json:"detached,omitempty"`
	Head        string   `json:"head,omitempty"`
	Upstream    string   `json:"upstream,omitempty"`
	Dirty       bool     `json:"dirty"`
	Ahead       int      `json:"ahead"`
	Behind      int      `json:"behind"`
	Merging     bool     `json:"merging,omitempty"` // a merge is waiting to be committed
	HasConflict bool     `json:"has_conflict"`
	Conflicts   []string `json:"conflicts,omitempty"` // unmerged paths plus files holding conflict markers
	Unmerged    []string `json:"unmerged,omitempty"`  // paths the index records as unmerged
}

// HasUpstream reports whether the current branch tracks a remote branch.
func (s *Status) HasUpstream() bool { return s.Upstream != "" }

// Inspect queries q for the state of the repository whose work tree is root.
// Conflicts are only looked for while a merge is in progress. A path counts
// as conflicted while the index still records it as unmerged, which covers
// modify/delete and binary conflicts that leave no markers, or while the
// file still contains conflict markers, so staging an unedited file does not
// resolve it.
func Inspect(ctx context.Context, root string, q Querier) (*Status, error) {
	st, err := q.Status(ctx)
	if err != nil {
		if errors.Is(err, git.ErrNotRepository) {
			return nil, fmt.Errorf("%s: %w", root, apperr.ErrNotARepository)
		}
		return nil, fmt.Errorf("reading git status of %s: %w", root, err)
	}
	head, err := q.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading HEAD of %s: %w", root, err)
	}
	merging, err := q.MergeInProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking for a merge in %s: %w", root, err)
	}

	s := &Status{
		Branch:   st.Branch,
		Detached: st.Detached,
		Head:     head,
		Upstream: st.Upstream,
		Dirty:    st.Dirty(),
		Merging:  merging,
	}
	if s.HasUpstream() {
		s.Ahead, s.Behind = st.Ahead, st.Behind
	}

	s.Unmerged = st.Unmerged()
	if merging || len(s.Unmerged) > 0 {
		marked, err := markedFiles(root, st.Tracked())
		if err != nil {
			return nil, err
		}
		conflicts := append(marked, s.Unmerged...)
		slices.Sort(conflicts)
		s.Conflicts = slices.Compact(conflicts)
		s.HasConflict = len(s.Conflicts) > 0
	}
	return s, nil
}

// markedFiles returns the paths under root that contain conflict markers, sorted.
func markedFiles(root string, paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		marked, err := HasConflictMarkers(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			return nil, err
		}
		if marked {
			out = append(out, p)
		}
	}
	return out, nil
}

// sniffLen is how much of a file is checked for NUL bytes before it is
// treated as binary, the same window git uses.
const sniffLen = 8000

// HasConflictMarkers reports whether the file at path contains a complete
// set of merge conflict markers. A missing file has none, and neither has a
// binary file. Lines of any length are read.
func HasConflictMarkers(path string) (bool, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from git status of the vault
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking %s for conflict markers: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if head, _ := br.Peek(sniffLen); bytes.IndexByte(head, 0) >= 0 {
		return false, nil
	}

	const (
		start = iota
		ours
		theirs
	)
	state := start
	for {
		line, more, err := br.ReadLine()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("checking %s for conflict markers: %w", path, err)
		}
		switch {
		case state == start && bytes.HasPrefix(line, []byte("<<<<<<< ")):
			state = ours
		case state == ours && !more && string(line) == "=======":
			state = theirs
		case state == theirs && bytes.HasPrefix(line, []byte(">>>>>>> ")):
			return true, nil
		}
		// Skip the rest of an overlong line; only its start can be a marker.
		for more {
			if _, more, err = br.ReadLine(); err != nil {
				if errors.Is(err, io.EOF) {
					return false, nil
				}
				return false, fmt.Errorf("checking %s for conflict markers: %w", path, err)
			}
		}
	}
}
