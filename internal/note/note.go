// Package note creates new notes inside a vault from templates. A note is
// rendered completely in memory and then written with an exclusive create,
// so an existing note is never overwritten or truncated.
package note

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elidholm/sb-cli/internal/apperr"
	"github.com/elidholm/sb-cli/internal/vault"
)

// Metadata describes the note to create. The zero Folder is the Inbox.
type Metadata struct {
	Title   string
	Tags    []string
	Created time.Time
	Folder  vault.Folder
}

// RenderFunc turns a template and its metadata into note content.
type RenderFunc func(TemplateID, Metadata) (string, error)

// Factory creates notes.
type Factory struct {
	render RenderFunc
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithClock sets the clock used when Metadata.Created is zero.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) { f.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFactory returns a Factory rendering through render. A nil render uses
// DefaultRenderer.
func NewFactory(render RenderFunc, opts ...Option) *Factory {
	if render == nil {
		render = DefaultRenderer()
	}
	f := &Factory{render: render, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create renders tmpl for meta and writes it into meta.Folder of the scanned
// vault. It returns the path of the new note. An existing note with the same
// filename yields apperr.ErrDuplicateNote and is left untouched.
func (f *Factory) Create(snap *vault.Snapshot, meta Metadata, tmpl TemplateID) (string, error) {
	meta.Title = strings.TrimSpace(meta.Title)
	if meta.Title == "" {
		return "", errors.New("note title must not be empty")
	}
	if !meta.Folder.Valid() {
		return "", fmt.Errorf("invalid folder %s", meta.Folder)
	}
	if meta.Created.IsZero() {
		meta.Created = f.now()
	}
	meta.Tags = NormalizeTags(meta.Tags)

	body, err := f.render(tmpl, meta)
	if err != nil {
		return "", fmt.Errorf("rendering %s template: %w", tmpl, err)
	}
	content := compose(body, meta.Tags)

	path := filepath.Join(snap.Dir(meta.Folder), Filename(meta.Title, snap.NoteExtension()))
	if err := writeExclusive(path, []byte(content)); err != nil {
		return "", err
	}
	f.logger.Debug("created note", "path", path, "template", string(tmpl), "tags", len(meta.Tags))
	return path, nil
}

// compose appends the tag line to a rendered body.
func compose(body string, tags []string) string {
	body = strings.TrimRight(body, "\n") + "\n"
	if len(tags) == 0 {
		return body
	}
	return body + "**Tags**: " + Hashtags(tags) + "\n"
}

func writeExclusive(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // notes are user documents
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return fmt.Errorf("%s: %w", path, apperr.ErrDuplicateNote)
		case errors.Is(err, fs.ErrPermission):
			return fmt.Errorf("creating %s: %w: %v", path, apperr.ErrPermission, err)
		}
		return fmt.Errorf("creating %s: %w", path, err)
	}

	_, werr := file.Write(data)
	cerr := file.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, werr)
	}
	return nil
}
