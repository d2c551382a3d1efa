package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BrennonTWilliams/little-loops/internal/sandbox"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove leftover worktrees from interrupted runs",
	RunE:  runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	proj, err := loadProject(nil)
	if err != nil {
		return err
	}

	mgr, err := sandbox.NewManager(cmd.Context(), proj.Dir)
	if err != nil {
		return err
	}
	mgr.BaseDir = proj.Cfg.WorktreeDir

	n, err := mgr.Sweep(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("removed %d leftover worktree(s)\n", n)
	return nil
}
