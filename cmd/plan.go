package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BrennonTWilliams/little-loops/internal/executor"
	"github.com/BrennonTWilliams/little-loops/internal/graph"
	"github.com/BrennonTWilliams/little-loops/internal/report"
)

var planCmd = &cobra.Command{
	Use:   "plan [ISSUE-ID...]",
	Short: "Show the wave/sub-wave execution plan without running anything",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().Bool("json", false, "machine-readable output")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	proj, err := loadProject(args)
	if err != nil {
		return err
	}
	if len(proj.Issues) == 0 {
		return fmt.Errorf("no issues in backlog %s", proj.Manifest.Project.BacklogDir)
	}

	plan, err := executor.BuildPlan(proj.Issues)
	if err != nil {
		var cerr *graph.CycleError
		if errors.As(err, &cerr) && asJSON {
			ids := make([]string, 0, len(proj.Issues))
			for _, is := range proj.Issues {
				ids = append(ids, is.ID)
			}
			rep := report.CycleReport(proj.Manifest.Project.Prefix, ids, cerr.Error())
			_ = rep.WriteJSON(os.Stdout)
		}
		return err
	}

	rep := &report.Report{
		Project: proj.Manifest.Project.Prefix,
		Waves:   plan.WavePlans(),
	}
	if asJSON {
		return rep.WriteJSON(os.Stdout)
	}

	fmt.Printf("Execution plan: %d issue(s), %d wave(s)\n\n", len(proj.Issues), len(rep.Waves))
	for _, w := range rep.Waves {
		fmt.Printf("Wave %d:\n", w.Number)
		for _, sw := range w.SubWaves {
			fmt.Printf("  Sub-wave %d.%d: %v\n", w.Number, sw.Number, sw.IssueIDs)
		}
		for _, a := range w.Annotations {
			fmt.Printf("  conflict: %s\n", a)
		}
	}
	return nil
}
