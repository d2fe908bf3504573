package git

import (
	"fmt"
	"strconv"
	"strings"
)

// EntryKind classifies a porcelain v2 status entry.
type EntryKind int

const (
	Changed EntryKind = iota
	Renamed
	Unmerged
	Untracked
	Ignored
)

// Entry is a single path reported by git status.
type Entry struct {
	Kind     EntryKind
	XY       string
	Path     string
	OrigPath string // set for renames and copies
}

// Status is the parsed output of git status --porcelain=v2 --branch.
type Status struct {
	OID      string // empty before the first commit
	Branch   string // empty when detached
	Detached bool
	Upstream string // empty when no upstream is configured
	Ahead    int
	Behind   int
	Entries  []Entry
}

// Dirty reports whether there are staged, unstaged, or untracked changes.
func (s *Status) Dirty() bool {
	for _, e := range s.Entries {
		if e.Kind != Ignored {
			return true
		}
	}
	return false
}

// Unmerged returns the paths the index records as unmerged.
func (s *Status) Unmerged() []string {
	return s.paths(func(e Entry) bool { return e.Kind == Unmerged })
}

// Tracked returns the paths of tracked entries with changes, unmerged included.
func (s *Status) Tracked() []string {
	return s.paths(func(e Entry) bool {
		return e.Kind == Changed || e.Kind == Renamed || e.Kind == Unmerged
	})
}

func (s *Status) paths(keep func(Entry) bool) []string {
	var out []string
	for _, e := range s.Entries {
		if keep(e) {
			out = append(out, e.Path)
		}
	}
	return out
}

// ParseStatus parses NUL-separated output of
// git status --porcelain=v2 --branch -z.
func ParseStatus(data string) (*Status, error) {
	s := &Status{}
	fields := strings.Split(data, "\x00")
	for i := 0; i < len(fields); i++ {
		rec := fields[i]
		if rec == "" {
			continue
		}
		switch rec[0] {
		case '#':
			if err := s.parseHeader(rec); err != nil {
				return nil, err
			}
		case '1':
			parts := strings.SplitN(rec, " ", 9)
			if len(parts) != 9 {
				return nil, fmt.Errorf("malformed status entry: %q", rec)
			}
			s.Entries = append(s.Entries, Entry{Kind: Changed, XY: parts[1], Path: parts[8]})
		case '2':
			parts := strings.SplitN(rec, " ", 10)
			if len(parts) != 10 || i+1 >= len(fields) || fields[i+1] == "" {
				return nil, fmt.Errorf("malformed rename entry: %q", rec)
			}
			i++
			s.Entries = append(s.Entries, Entry{Kind: Renamed, XY: parts[1], Path: parts[9], OrigPath: fields[i]})
		case 'u':
			parts := strings.SplitN(rec, " ", 11)
			if len(parts) != 11 {
				return nil, fmt.Errorf("malformed unmerged entry: %q", rec)
			}
			s.Entries = append(s.Entries, Entry{Kind: Unmerged, XY: parts[1], Path: parts[10]})
		case '?':
			s.Entries = append(s.Entries, Entry{Kind: Untracked, Path: strings.TrimPrefix(rec, "? ")})
		case '!':
			s.Entries = append(s.Entries, Entry{Kind: Ignored, Path: strings.TrimPrefix(rec, "! ")})
		default:
			return nil, fmt.Errorf("unknown status record: %q", rec)
		}
	}
	return s, nil
}

func (s *Status) parseHeader(rec string) error {
	parts := strings.Fields(rec)
	if len(parts) < 3 {
		return nil
	}
	switch parts[1] {
	case "branch.oid":
		if parts[2] != "(initial)" {
			s.OID = parts[2]
		}
	case "branch.head":
		if parts[2] == "(detached)" {
			s.Detached = true
		} else {
			s.Branch = parts[2]
		}
	case "branch.upstream":
		s.Upstream = parts[2]
	case "branch.ab":
		if len(parts) != 4 {
			return fmt.Errorf("malformed branch.ab header: %q", rec)
		}
		ahead, err := strconv.Atoi(strings.TrimPrefix(parts[2], "+"))
		if err != nil {
			return fmt.Errorf("parsing ahead count: %w", err)
		}
		behind, err := strconv.Atoi(strings.TrimPrefix(parts[3], "-"))
		if err != nil {
			return fmt.Errorf("parsing behind count: %w", err)
		}
		s.Ahead, s.Behind = ahead, behind
	}
	return nil
}
