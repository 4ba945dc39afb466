package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coach/internal/report"
)

var (
	reportFormat string
	historyLimit int
)

var reportCmd = &cobra.Command{
	Use:   "report <interview-id>",
	Short: "Print the report of a completed interview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInterviewID(args)
		if err != nil {
			return err
		}
		switch reportFormat {
		case "json", "yaml", "text":
		default:
			return fmt.Errorf("unknown format %q (use json, yaml or text)", reportFormat)
		}

		a, err := newApp(cmd.Context(), cmd.OutOrStdout(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.orchestrator.Report(cmd.Context(), a.candidate, id)
		if err != nil {
			return err
		}

		var data []byte
		switch reportFormat {
		case "text":
			a.printer.PrintReport(rep)
			return nil
		case "yaml":
			data, err = report.YAML(rep)
		default:
			data, err = report.JSON(rep)
		}
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = fmt.Fprintln(a.out, string(data))
		return err
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the candidate's interviews, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), cmd.OutOrStdout(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.orchestrator.History(cmd.Context(), a.candidate, historyLimit)
		if err != nil {
			return err
		}
		if a.cfg.Verbose {
			a.printer.PrintHistory(list)
			return nil
		}
		return writeJSON(a.out, list)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate interview statistics for the candidate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), cmd.OutOrStdout(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.orchestrator.Stats(cmd.Context(), a.candidate)
		if err != nil {
			return err
		}
		return writeJSON(a.out, stats)
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "json", "Output format: json, yaml or text")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Maximum interviews to list (default 50, max 200)")

	rootCmd.AddCommand(reportCmd, historyCmd, statsCmd)
}
