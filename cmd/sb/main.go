package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/elidholm/sb-cli/internal/apperr"
	"github.com/elidholm/sb-cli/internal/ui"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(apperr.ExitCode(err))
	}
}

// reportError prints the one-line diagnostic for err. A conflict also lists
// the files left for the user to resolve.
func reportError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "%s %v\n", ui.Error.Render("error:"), err)

	var ce *apperr.ConflictError
	if errors.As(err, &ce) {
		for _, f := range ce.Files {
			_, _ = fmt.Fprintf(w, "  %s %s\n", ui.Warn.Render("conflict:"), f)
		}
		_, _ = fmt.Fprintln(w, "Resolve the conflicts, stage them with git add, then run sb sync again.")
	}
}
