package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the issues in the backlog",
	RunE:  runList,
}

func init() {
	listCmd.Flags().Bool("deps", false, "show dependencies and file hints")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	showDeps, _ := cmd.Flags().GetBool("deps")

	proj, err := loadProject(nil)
	if err != nil {
		return err
	}
	if len(proj.Issues) == 0 {
		fmt.Printf("no issues in backlog %s\n", proj.Manifest.Project.BacklogDir)
		return nil
	}

	for _, is := range proj.Issues {
		title := is.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%-14s %s\n", is.ID, title)
		if !showDeps {
			continue
		}
		if len(is.DependsOn) > 0 {
			fmt.Printf("  depends on: %s\n", strings.Join(is.DependsOn, ", "))
		}
		if len(is.Files) > 0 {
			fmt.Printf("  files:      %s\n", strings.Join(is.Files, ", "))
		}
	}
	fmt.Printf("\n%d issue(s)\n", len(proj.Issues))
	return nil
}
