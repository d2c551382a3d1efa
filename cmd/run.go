package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BrennonTWilliams/little-loops/internal/executor"
	"github.com/BrennonTWilliams/little-loops/internal/graph"
	"github.com/BrennonTWilliams/little-loops/internal/report"
	"github.com/BrennonTWilliams/little-loops/internal/runner"
	"github.com/BrennonTWilliams/little-loops/internal/sandbox"
)

var runCmd = &cobra.Command{
	Use:   "run [ISSUE-ID...]",
	Short: "Process the backlog concurrently in isolated worktrees",
	Long: "run schedules the selected issues into dependency waves and\n" +
		"file-overlap-safe sub-waves, then executes each issue's processing\n" +
		"step inside its own git worktree. Results are validated against the\n" +
		"file actually analyzed before they count. Create a STOP file in the\n" +
		"project directory to cancel dispatch.",
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("json", false, "machine-readable report")
	runCmd.Flags().IntP("workers", "w", 0, "max concurrent issues (overrides config)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	proj, err := loadProject(args)
	if err != nil {
		return err
	}
	if len(proj.Issues) == 0 {
		return fmt.Errorf("no issues in backlog %s", proj.Manifest.Project.BacklogDir)
	}

	workers := proj.Cfg.MaxWorkers
	if w, _ := cmd.Flags().GetInt("workers"); w > 0 {
		workers = w
	}

	// Fail fast on a cycle: nothing executes, every issue is
	// enumerated as skipped-cycle.
	plan, err := executor.BuildPlan(proj.Issues)
	if err != nil {
		var cerr *graph.CycleError
		if errors.As(err, &cerr) {
			ids := make([]string, 0, len(proj.Issues))
			for _, is := range proj.Issues {
				ids = append(ids, is.ID)
			}
			rep := report.CycleReport(proj.Manifest.Project.Prefix, ids, cerr.Error())
			writeReport(rep, asJSON)
		}
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr, err := sandbox.NewManager(ctx, proj.Dir)
	if err != nil {
		return err
	}
	mgr.BaseDir = proj.Cfg.WorktreeDir
	mgr.MaxRetries = proj.Cfg.SandboxRetries
	mgr.DirPolicy = proj.Cfg.DirSeedPolicy

	if watcher, werr := executor.WatchStop(proj.Dir, cancel, os.Stderr); werr != nil {
		fmt.Fprintf(os.Stderr, "warning: STOP watcher unavailable: %v\n", werr)
	} else {
		defer watcher.Close()
	}

	engine := &executor.Engine{
		Sandboxes: mgr,
		Runner: &runner.Runner{
			Command: proj.Manifest.Run.Command,
			Timeout: proj.Cfg.RunnerTimeout(),
			Verbose: proj.Cfg.Verbose,
		},
		SeedPaths:        proj.Manifest.Run.SeedPaths,
		MaxWorkers:       workers,
		UnverifiedPolicy: proj.Cfg.UnverifiedPolicy,
		Project:          proj.Manifest.Project.Prefix,
	}

	rep := engine.Run(ctx, plan)
	writeReport(rep, asJSON)

	counts := rep.Counts()
	if bad := counts[report.StatusFailed] + counts[report.StatusSkippedMismatch]; bad > 0 {
		return fmt.Errorf("%d issue(s) did not succeed", bad)
	}
	return nil
}

// writeReport renders the report on stdout in the requested form.
func writeReport(rep *report.Report, asJSON bool) {
	if asJSON {
		_ = rep.WriteJSON(os.Stdout)
		return
	}
	rep.Render(os.Stdout)
}
