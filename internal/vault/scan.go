package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/elidholm/sb-cli/internal/apperr"
)

// DefaultNoteExtension is the file extension recognized as a note.
const DefaultNoteExtension = ".md"

// FolderStats describes one category folder at scan time.
type FolderStats struct {
	Folder       Folder
	Name         string // directory name under the root
	Dir          string // absolute directory path
	Notes        int
	LastModified time.Time // zero when the folder holds no notes
	Created      bool      // the folder was created by this scan
}

// Empty reports whether the folder holds no notes.
func (s FolderStats) Empty() bool { return s.Notes == 0 }

// Snapshot is the immutable result of a Scan.
type Snapshot struct {
	root      Root
	layout    Layout
	ext       string
	folders   [numFolders]FolderStats
	scannedAt time.Time
}

// Root returns the scanned vault root.
func (s *Snapshot) Root() Root { return s.root }

// Layout returns the layout used for the scan.
func (s *Snapshot) Layout() Layout { return s.layout }

// NoteExtension returns the note file extension counted by the scan.
func (s *Snapshot) NoteExtension() string { return s.ext }

// ScannedAt returns when the snapshot was built.
func (s *Snapshot) ScannedAt() time.Time { return s.scannedAt }

// Stats returns the statistics for f.
func (s *Snapshot) Stats(f Folder) FolderStats { return s.folders[f] }

// Dir returns the absolute directory of f.
func (s *Snapshot) Dir(f Folder) string { return s.folders[f].Dir }

// All returns the statistics of every folder in display order.
func (s *Snapshot) All() []FolderStats {
	out := make([]FolderStats, numFolders)
	copy(out, s.folders[:])
	return out
}

// TotalNotes returns the number of notes across all folders.
func (s *Snapshot) TotalNotes() int {
	n := 0
	for _, f := range s.folders {
		n += f.Notes
	}
	return n
}

// Created returns the folders this scan had to create.
func (s *Snapshot) Created() []Folder {
	var out []Folder
	for _, f := range s.folders {
		if f.Created {
			out = append(out, f.Folder)
		}
	}
	return out
}

type scanOptions struct {
	ext    string
	logger *slog.Logger
}

// ScanOption configures Scan.
type ScanOption func(*scanOptions)

// WithNoteExtension sets the extension counted as a note (default ".md").
func WithNoteExtension(ext string) ScanOption {
	return func(o *scanOptions) {
		if ext != "" {
			o.ext = ext
		}
	}
}

// WithLogger sets the logger used to report created folders.
func WithLogger(l *slog.Logger) ScanOption {
	return func(o *scanOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Scan creates any missing category folders under root and counts the notes
// directly inside each one. Scanning an already complete vault changes
// nothing on disk.
func Scan(root Root, layout Layout, opts ...ScanOption) (*Snapshot, error) {
	o := scanOptions{ext: DefaultNoteExtension, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	snap := &Snapshot{root: root, layout: layout, ext: o.ext, scannedAt: time.Now()}
	for _, f := range Folders {
		stats, err := scanFolder(root, layout, f, o.ext)
		if err != nil {
			return nil, err
		}
		if stats.Created {
			o.logger.Info("created vault folder", "folder", stats.Name, "path", stats.Dir)
		}
		snap.folders[f] = stats
	}

	inbox := snap.folders[Inbox].Dir
	if info, err := os.Stat(inbox); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s has no %s folder: %w", root, layout.Dir(Inbox), apperr.ErrNotAVault)
	}
	return snap, nil
}

func scanFolder(root Root, layout Layout, f Folder, ext string) (FolderStats, error) {
	stats := FolderStats{
		Folder: f,
		Name:   layout.Dir(f),
		Dir:    filepath.Join(root.Path(), layout.Dir(f)),
	}

	created, err := ensureDir(stats.Dir)
	if err != nil {
		return stats, err
	}
	stats.Created = created
	if created {
		return stats, nil
	}

	matches, err := doublestar.Glob(os.DirFS(stats.Dir), "*"+ext, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return stats, classify(stats.Dir, err)
	}
	for _, m := range matches {
		info, err := os.Stat(filepath.Join(stats.Dir, m))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue // removed between listing and stat
			}
			return stats, classify(stats.Dir, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		stats.Notes++
		if info.ModTime().After(stats.LastModified) {
			stats.LastModified = info.ModTime()
		}
	}
	return stats, nil
}

// ensureDir creates dir when missing and reports whether it did so.
func ensureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists but is not a directory: %w", dir, apperr.ErrNotAVault)
		}
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, classify(dir, err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, classify(dir, err)
	}
	return true, nil
}

func classify(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%s: %w: %v", path, apperr.ErrPermission, err)
	}
	return fmt.Errorf("scanning %s: %w", path, err)
}
