package vault

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Folder is one of the five fixed PARA categories.
type Folder int

const (
	Inbox Folder = iota
	Projects
	Areas
	Resources
	Archive
)

// Folders lists every category in display order.
var Folders = [...]Folder{Inbox, Projects, Areas, Resources, Archive}

const numFolders = len(Folders)

// DefaultInbox is the directory name used for the Inbox unless configured.
const DefaultInbox = "0_Inbox"

var (
	folderNames = [numFolders]string{"Inbox", "Projects", "Areas", "Resources", "Archive"}
	defaultDirs = [numFolders]string{DefaultInbox, "1_Projects", "2_Areas", "3_Resources", "4_Archive"}
)

func (f Folder) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Folder(%d)", int(f))
	}
	return folderNames[f]
}

// Valid reports whether f is one of the five categories.
func (f Folder) Valid() bool {
	return f >= Inbox && f <= Archive
}

// ParseFolder resolves a category name ("projects") or a default directory
// name ("1_Projects"), case-insensitively.
func ParseFolder(s string) (Folder, error) {
	s = strings.TrimSpace(s)
	for _, f := range Folders {
		if strings.EqualFold(s, folderNames[f]) || strings.EqualFold(s, defaultDirs[f]) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown folder %q (must be one of inbox, projects, areas, resources, archive)", s)
}

// Layout maps each category to its directory name under the vault root.
type Layout struct {
	dirs [numFolders]string
}

// DefaultLayout returns the layout with the default Inbox name.
func DefaultLayout() Layout {
	return Layout{dirs: defaultDirs}
}

// NewLayout returns a layout with a custom Inbox directory name. An empty
// name keeps the default. The name must be a single path element that does
// not collide with another category.
func NewLayout(inbox string) (Layout, error) {
	l := DefaultLayout()
	if inbox == "" {
		return l, nil
	}
	if inbox != filepath.Base(inbox) || inbox == "." || inbox == ".." {
		return Layout{}, fmt.Errorf("inbox folder must be a single directory name: %q", inbox)
	}
	for _, f := range Folders[1:] {
		if strings.EqualFold(inbox, l.dirs[f]) {
			return Layout{}, fmt.Errorf("inbox folder %q collides with the %s folder", inbox, f)
		}
	}
	l.dirs[Inbox] = inbox
	return l, nil
}

// Dir returns the directory name for f.
func (l Layout) Dir(f Folder) string {
	return l.dirs[f]
}
