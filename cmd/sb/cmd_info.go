package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/elidholm/sb-cli/internal/apperr"
	"github.com/elidholm/sb-cli/internal/report"
	"github.com/elidholm/sb-cli/internal/repostate"
	"github.com/elidholm/sb-cli/internal/ui"
	"github.com/elidholm/sb-cli/internal/workspace"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show note counts per folder and the sync state of the vault",
		Args:  cobra.NoArgs,
		RunE:  runInfo,
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func runInfo(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	ws, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}
	snap, err := ws.Scan(slog.Default())
	if err != nil {
		return err
	}
	status, err := collectStatus(cmd, ws)
	if err != nil {
		return err
	}
	sum := report.Build(snap, status)

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	return renderSummary(out, sum)
}

// collectStatus inspects the vault repository. A vault outside version
// control yields a nil status.
func collectStatus(cmd *cobra.Command, ws *workspace.Context) (*repostate.Status, error) {
	repo, err := ws.OpenRepo(cmd.Context(), slog.Default())
	if errors.Is(err, apperr.ErrNotARepository) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return repostate.Inspect(cmd.Context(), ws.Root.Path(), repo)
}

func renderSummary(out io.Writer, sum report.Summary) error {
	_, _ = fmt.Fprintf(out, "%s %s\n\n", ui.Heading.Render("Vault:"), sum.Vault)

	tbl := ui.NewTable(out, "FOLDER", "DIR", "NOTES", "LAST MODIFIED")
	for _, f := range sum.Folders {
		dir := f.Dir
		if f.Created {
			dir += " (created)"
		}
		tbl.Row(f.Folder, dir, f.Notes, f.LastModified)
	}
	if err := tbl.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "\nTotal notes: %d\n", sum.TotalNotes)
	sync := sum.SyncLabel()
	if sum.Sync.Branch != "" {
		sync = fmt.Sprintf("%s (%s)", sync, sum.Sync.Branch)
	}
	_, _ = fmt.Fprintf(out, "Sync: %s\n", sync)
	for _, f := range sum.Sync.Conflicts {
		_, _ = fmt.Fprintf(out, "  %s %s\n", ui.Warn.Render("conflict:"), f)
	}
	if sum.ReviewSuggested {
		_, _ = fmt.Fprintf(out, "\n%s\n", ui.Warn.Render(fmt.Sprintf(
			"Your inbox has %d notes. Consider a weekly review to sort them into their folders.", sum.InboxNotes)))
	}
	return nil
}
