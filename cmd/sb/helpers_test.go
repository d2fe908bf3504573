package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/elidholm/sb-cli/internal/config"
)

// runSB executes the root command with args and returns what it wrote to
// stdout and stderr. The config file lookup is pointed at a missing file so
// the user's own config never leaks into a test.
func runSB(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv(config.EnvConfig, filepath.Join(t.TempDir(), "missing.yml"))
	return execSB(t, args...)
}

// execSB is runSB without touching the environment.
func execSB(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	prev := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = prev })

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}
