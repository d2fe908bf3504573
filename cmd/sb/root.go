package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/elidholm/sb-cli/internal/workspace"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sb",
		Short:         "Second-brain vault manager: PARA folders, notes and git sync",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), verbose))
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to the sb config file (default $SB_CONFIG or ~/.sb_config.yml)")
	cmd.PersistentFlags().StringP("path", "p", "", "Path to the vault (overrides vault_path)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newInitCmd(),
		newSyncCmd(),
		newInfoCmd(),
		newNewCmd(),
		newDoctorCmd(),
	)

	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func workspaceOptions(cmd *cobra.Command) workspace.Options {
	configPath, _ := cmd.Flags().GetString("config")
	vaultPath, _ := cmd.Flags().GetString("path")
	return workspace.Options{ConfigPath: configPath, VaultPath: vaultPath}
}

// loadWorkspace loads the configuration named by the global flags and opens
// the vault.
func loadWorkspace(cmd *cobra.Command) (*workspace.Context, error) {
	return workspace.Load(workspaceOptions(cmd))
}
