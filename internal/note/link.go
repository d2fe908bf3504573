package note

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/elidholm/sb-cli/internal/apperr"
)

// WikiLink returns the [[name]] link to the note at path.
func WikiLink(path string) string {
	base := filepath.Base(path)
	return "[[" + strings.TrimSuffix(base, filepath.Ext(base)) + "]]"
}

// AppendLink appends a list item linking to target at the end of the
// existing note at path.
func AppendLink(path, target string) error {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("opening %s: %w: %v", path, apperr.ErrPermission, err)
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	line := "- " + WikiLink(target) + "\n"
	if !endsWithNewline(file) {
		line = "\n" + line
	}
	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("linking %s from %s: %w", target, path, err)
	}
	return nil
}

func endsWithNewline(f *os.File) bool {
	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		return true
	}
	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return true
	}
	return buf[0] == '\n'
}
