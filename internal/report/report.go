// Package report summarizes a vault for display: per-folder note counts,
// the inbox backlog and the synchronization state of the repository.
package report

import (
	"fmt"
	"time"

	"github.com/elidholm/sb-cli/internal/repostate"
	"github.com/elidholm/sb-cli/internal/vault"
)

// ReviewThreshold is the inbox size above which a review is suggested.
const ReviewThreshold = 5

// FolderLine is one row of the folder table.
type FolderLine struct {
	Folder       string    `json:"folder"`
	Dir          string    `json:"dir"`
	Notes        int       `json:"notes"`
	LastModified time.Time `json:"last_modified,omitzero"`
	Created      bool      `json:"created,omitempty"`
}

// Sync is the repository part of a Summary.
type Sync struct {
	Tracked     bool     `json:"tracked"`
	Branch      string   `json:"branch,omitempty"`
	Upstream    string   `json:"upstream,omitempty"`
	Dirty       bool     `json:"dirty"`
	Ahead       int      `json:"ahead"`
	Behind      int      `json:"behind"`
	Merging     bool     `json:"merging,omitempty"`
	HasConflict bool     `json:"has_conflict"`
	Conflicts   []string `json:"conflicts,omitempty"`
}

// Summary is the full report for one vault.
type Summary struct {
	Vault           string       `json:"vault"`
	Folders         []FolderLine `json:"folders"`
	TotalNotes      int          `json:"total_notes"`
	InboxNotes      int          `json:"inbox_notes"`
	ReviewSuggested bool         `json:"review_suggested"`
	Sync            Sync         `json:"sync"`
}

// Build assembles a Summary. status is nil when the vault is not a git
// repository.
func Build(snap *vault.Snapshot, status *repostate.Status) Summary {
	s := Summary{
		Vault:      snap.Root().Path(),
		TotalNotes: snap.TotalNotes(),
		InboxNotes: snap.Stats(vault.Inbox).Notes,
	}
	s.ReviewSuggested = s.InboxNotes > ReviewThreshold

	for _, st := range snap.All() {
		s.Folders = append(s.Folders, FolderLine{
			Folder:       st.Folder.String(),
			Dir:          st.Name,
			Notes:        st.Notes,
			LastModified: st.LastModified,
			Created:      st.Created,
		})
	}

	if status != nil {
		s.Sync = Sync{
			Tracked:     true,
			Branch:      status.Branch,
			Upstream:    status.Upstream,
			Dirty:       status.Dirty,
			Ahead:       status.Ahead,
			Behind:      status.Behind,
			Merging:     status.Merging,
			HasConflict: status.HasConflict,
			Conflicts:   status.Conflicts,
		}
	}
	return s
}

// SyncLabel describes the sync state in a few words.
func (s Summary) SyncLabel() string {
	y := s.Sync
	var state string
	switch {
	case !y.Tracked:
		return "not tracked"
	case y.HasConflict:
		state = fmt.Sprintf("conflict (%d %s)", len(y.Conflicts), plural(len(y.Conflicts), "file", "files"))
	case y.Merging:
		state = "merge pending"
	case y.Dirty:
		state = "dirty"
	default:
		state = "clean"
	}
	if y.Upstream == "" {
		return state + ", no upstream"
	}
	return fmt.Sprintf("%s, ahead %d, behind %d", state, y.Ahead, y.Behind)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
