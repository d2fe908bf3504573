// Package apperr defines the error kinds surfaced by sb and the stable exit
// codes they map to. Callers wrap these sentinels with fmt.Errorf and %w so
// the message carries the path, branch, or tool output needed to act on it.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfig            = errors.New("configuration error")
	ErrNotAVault         = errors.New("not a vault")
	ErrNotARepository    = errors.New("not a git repository")
	ErrDirtyWorkingTree  = errors.New("working tree has uncommitted changes")
	ErrRemoteUnreachable = errors.New("remote unreachable")
	ErrRemoteRejected    = errors.New("remote rejected push")
	ErrConflict          = errors.New("merge conflict")
	ErrDuplicateNote     = errors.New("note already exists")
	ErrPermission        = errors.New("permission denied")
)

// Exit codes. Values are part of the CLI contract and must not change.
const (
	ExitOK                = 0
	ExitGeneric           = 1
	ExitConfig            = 2
	ExitConflict          = 3
	ExitDuplicateNote     = 4
	ExitNotAVault         = 5
	ExitNotARepository    = 6
	ExitDirtyWorkingTree  = 7
	ExitRemoteUnreachable = 8
	ExitRemoteRejected    = 9
	ExitPermission        = 10
)

var exitCodes = []struct {
	err  error
	code int
}{
	{ErrConfig, ExitConfig},
	{ErrConflict, ExitConflict},
	{ErrDuplicateNote, ExitDuplicateNote},
	{ErrNotAVault, ExitNotAVault},
	{ErrNotARepository, ExitNotARepository},
	{ErrDirtyWorkingTree, ExitDirtyWorkingTree},
	{ErrRemoteUnreachable, ExitRemoteUnreachable},
	{ErrRemoteRejected, ExitRemoteRejected},
	{ErrPermission, ExitPermission},
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, ec := range exitCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ExitGeneric
}

// ConflictError reports a merge that left unresolved conflicts in the
// working tree. It matches ErrConflict.
type ConflictError struct {
	Branch string
	Files  []string
}

func (e *ConflictError) Error() string {
	if len(e.Files) == 0 {
		return fmt.Sprintf("merge conflict on branch %s", e.Branch)
	}
	return fmt.Sprintf("merge conflict on branch %s in %d file(s): %s",
		e.Branch, len(e.Files), strings.Join(e.Files, ", "))
}

// Is reports whether target is ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
