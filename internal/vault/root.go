package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/elidholm/sb-cli/internal/apperr"
)

// Root is a validated, absolute vault directory.
type Root struct {
	path string
}

// OpenRoot expands a leading ~, resolves p to an absolute path and checks
// that it is an existing, readable and writable directory.
func OpenRoot(p string) (Root, error) {
	if p == "" {
		return Root{}, fmt.Errorf("vault path is empty: %w", apperr.ErrNotAVault)
	}
	expanded, err := ExpandHome(p)
	if err != nil {
		return Root{}, err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return Root{}, fmt.Errorf("resolving vault path %s: %w", p, err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Root{}, fmt.Errorf("vault path %s does not exist: %w", abs, apperr.ErrNotAVault)
	case errors.Is(err, fs.ErrPermission):
		return Root{}, fmt.Errorf("vault path %s: %w", abs, apperr.ErrPermission)
	case err != nil:
		return Root{}, fmt.Errorf("stat vault path %s: %w", abs, err)
	}
	if !info.IsDir() {
		return Root{}, fmt.Errorf("vault path %s is not a directory: %w", abs, apperr.ErrNotAVault)
	}

	if _, err := os.ReadDir(abs); err != nil {
		return Root{}, fmt.Errorf("vault path %s is not readable: %w", abs, apperr.ErrPermission)
	}
	tmp, err := os.CreateTemp(abs, ".sb-writecheck-*")
	if err != nil {
		return Root{}, fmt.Errorf("vault path %s is not writable: %w", abs, apperr.ErrPermission)
	}
	_ = tmp.Close()
	_ = os.Remove(tmp.Name())

	return Root{path: abs}, nil
}

// Path returns the absolute vault path.
func (r Root) Path() string { return r.path }

func (r Root) String() string { return r.path }

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
