package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/elidholm/sb-cli/internal/syncengine"
	"github.com/elidholm/sb-cli/internal/ui"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [branch]",
		Short: "Commit local changes, merge the remote branch and push",
		Long: `Stage and commit every change in the vault, fetch the remote branch,
merge it and push the result. Conflicts are never resolved automatically:
sync stops and lists the files to fix by hand. Stage the fixed files with
git add and run sync again to finish the merge.

Passing a branch switches to it first, which requires a clean working tree.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSync,
	}
	cmd.Flags().StringP("message", "m", "", `Commit message (default "sync: <timestamp>")`)
	cmd.Flags().Duration("timeout", 0, "Timeout for each fetch and push (default network_timeout from the config)")
	cmd.Flags().Bool("json", false, "Output the result as JSON")
	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	message, _ := cmd.Flags().GetString("message")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	asJSON, _ := cmd.Flags().GetBool("json")

	var branch string
	if len(args) > 0 {
		branch = args[0]
	}

	ws, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}
	logger := slog.Default()
	if _, err := ws.Scan(logger); err != nil {
		return err
	}
	repo, err := ws.OpenRepo(cmd.Context(), logger)
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = ws.Config.NetworkTimeout
	}

	opts := []syncengine.Option{
		syncengine.WithRemote(ws.Config.Remote),
		syncengine.WithTimeout(timeout),
		syncengine.WithLogger(logger),
	}
	if !asJSON {
		progress := ui.NewProgress(cmd.ErrOrStderr(), syncengine.Steps)
		progress.Log("Syncing %s with %s", ws.Root, ws.Config.Remote)
		opts = append(opts, syncengine.WithStepObserver(func(s syncengine.Step) {
			label := fmt.Sprintf("%s: %s", s.State, s.Detail)
			if s.Skipped {
				progress.Skip(label)
			} else {
				progress.Done(label)
			}
		}))
	}

	engine := syncengine.New(ws.Root.Path(), repo, opts...)
	res, err := engine.Sync(cmd.Context(), syncengine.Request{Branch: branch, Message: message})

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil && err == nil {
			return encErr
		}
		return err
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.OK.Render("Sync complete:"), res.Message)
	return nil
}
