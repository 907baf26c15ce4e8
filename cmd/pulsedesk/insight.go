package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pulsedesk/pulsedesk/internal/insight"
	"github.com/spf13/cobra"
)

var (
	insightMinutes float64
	insightSteps   int
)

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Evaluate the insight rules interactively",
	Long:  `Evaluate what insight Pulsedesk would generate for a given combination of tracked minutes and step count.`,
	Example: `  pulsedesk insight --minutes 200 --steps 1000
  pulsedesk insight --minutes 30 --steps 9000`,
	RunE: runInsight,
}

func init() {
	insightCmd.Flags().Float64Var(&insightMinutes, "minutes", 0, "Tracked minutes for today")
	insightCmd.Flags().IntVar(&insightSteps, "steps", 0, "Step count for today")
	rootCmd.AddCommand(insightCmd)
}

func runInsight(cmd *cobra.Command, args []string) error {
	if insightMinutes < 0 || insightSteps < 0 {
		return fmt.Errorf("minutes and steps must be non-negative")
	}

	result := insight.Generate(insightMinutes, insightSteps)

	var header *color.Color
	switch result.Category {
	case insight.CategoryWorkout:
		header = color.New(color.FgYellow, color.Bold)
	case insight.CategoryProductivity:
		header = color.New(color.FgGreen, color.Bold)
	default:
		header = color.New(color.FgBlue, color.Bold)
	}

	_, _ = header.Fprintf(os.Stdout, "%s\n", result.Category)
	fmt.Fprintln(os.Stdout, result.Text)
	return nil
}
