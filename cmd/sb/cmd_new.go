package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/elidholm/sb-cli/internal/apperr"
	"github.com/elidholm/sb-cli/internal/note"
	"github.com/elidholm/sb-cli/internal/ui"
	"github.com/elidholm/sb-cli/internal/vault"
	"github.com/elidholm/sb-cli/internal/workspace"
)

// periodicNote is a journal note that exists at most once per period. Its
// title is derived from the date and its tags are always attached.
type periodicNote struct {
	label string
	tmpl  note.TemplateID
	title func(time.Time) string
	tags  []string
}

var (
	dailyNote   = periodicNote{"Daily note", note.Daily, note.DailyTitle, []string{"daily-journal", "reflection"}}
	weeklyNote  = periodicNote{"Weekly review", note.Weekly, note.WeeklyTitle, []string{"weekly-review", "reflection"}}
	monthlyNote = periodicNote{"Monthly reflection", note.Monthly, note.MonthlyTitle, []string{"monthly-review", "reflection"}}
)

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new note from a template",
	}
	cmd.AddCommand(
		newNewEmptyCmd(),
		newPeriodicCmd("daily", "Create today's daily journal note", dailyNote),
		newPeriodicCmd("weekly", "Create this week's review note", weeklyNote),
		newPeriodicCmd("monthly", "Create this month's reflection note", monthlyNote),
	)
	return cmd
}

func newNewEmptyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "empty [title]",
		Short: "Create an empty note (in the inbox unless --folder is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runNewEmpty,
	}
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags to include in the note")
	cmd.Flags().StringP("folder", "f", "inbox", "Destination folder: inbox, projects, areas, resources or archive")
	cmd.Flags().Bool("no-link", false, "Do not link the note from today's daily note")
	return cmd
}

func newPeriodicCmd(use, short string, kind periodicNote) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNewPeriodic(cmd, kind)
		},
	}
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags to include in the note")
	cmd.Flags().StringP("folder", "f", "areas", "Destination folder")
	return cmd
}

func runNewEmpty(cmd *cobra.Command, args []string) error {
	tags, _ := cmd.Flags().GetString("tags")
	folderName, _ := cmd.Flags().GetString("folder")
	noLink, _ := cmd.Flags().GetBool("no-link")

	folder, err := vault.ParseFolder(folderName)
	if err != nil {
		return err
	}

	var title string
	if len(args) > 0 {
		title = args[0]
	}
	interactive := stdinIsTerminal()
	if strings.TrimSpace(title) == "" && !interactive {
		return fmt.Errorf("a note title is required (pass it as an argument)")
	}

	ws, snap, err := scanWorkspace(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(title) == "" {
		preview := func(s string) string {
			return "Saves as " + filepath.Join(snap.Layout().Dir(folder), note.Filename(s, snap.NoteExtension()))
		}
		if title, err = promptInput("Title of the new note", "My idea", requireTitle, preview); err != nil {
			return err
		}
	}
	factory := note.NewFactory(note.DefaultRenderer(), note.WithLogger(slog.Default()))
	now := time.Now()

	dailyPath := filepath.Join(snap.Dir(vault.Areas), note.Filename(dailyNote.title(now), snap.NoteExtension()))
	if !noLink && interactive && !fileExists(dailyPath) {
		create, err := promptConfirm("Create a daily note for today?")
		if err != nil {
			return err
		}
		if create {
			if err := createPeriodic(cmd, ws, snap, factory, dailyNote, now, vault.Areas, nil); err != nil {
				return err
			}
		}
	}

	path, err := factory.Create(snap, note.Metadata{
		Title:   title,
		Tags:    note.ParseTags(tags),
		Created: now,
		Folder:  folder,
	}, note.Empty)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.OK.Render("Note created:"), relPath(ws, path))

	if !noLink && fileExists(dailyPath) {
		if err := note.AppendLink(dailyPath, path); err != nil {
			return err
		}
	}
	return nil
}

func runNewPeriodic(cmd *cobra.Command, kind periodicNote) error {
	tags, _ := cmd.Flags().GetString("tags")
	folderName, _ := cmd.Flags().GetString("folder")

	folder, err := vault.ParseFolder(folderName)
	if err != nil {
		return err
	}
	ws, snap, err := scanWorkspace(cmd)
	if err != nil {
		return err
	}
	factory := note.NewFactory(note.DefaultRenderer(), note.WithLogger(slog.Default()))
	return createPeriodic(cmd, ws, snap, factory, kind, time.Now(), folder, note.ParseTags(tags))
}

// createPeriodic writes the kind note for the period containing now. An
// existing note for that period is reported and left alone.
func createPeriodic(cmd *cobra.Command, ws *workspace.Context, snap *vault.Snapshot, factory *note.Factory, kind periodicNote, now time.Time, folder vault.Folder, tags []string) error {
	title := kind.title(now)
	path, err := factory.Create(snap, note.Metadata{
		Title:   title,
		Tags:    append(append([]string{}, kind.tags...), tags...),
		Created: now,
		Folder:  folder,
	}, kind.tmpl)
	if errors.Is(err, apperr.ErrDuplicateNote) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", ui.Warn.Render(kind.label+" for "+title+" already exists."))
		return nil
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.OK.Render(kind.label+" created:"), relPath(ws, path))
	return nil
}

func scanWorkspace(cmd *cobra.Command) (*workspace.Context, *vault.Snapshot, error) {
	ws, err := loadWorkspace(cmd)
	if err != nil {
		return nil, nil, err
	}
	snap, err := ws.Scan(slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return ws, snap, nil
}

func requireTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

func relPath(ws *workspace.Context, path string) string {
	if rel, err := filepath.Rel(ws.Root.Path(), path); err == nil {
		return rel
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
