package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coach/internal/report"
)

// endMarker ends the question loop when typed as an answer.
const endMarker = "/end"

var (
	practiceRole         string
	practiceLevel        string
	practiceAnswers      []string
	practiceMaxQuestions int
	practiceJSON         bool
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run a whole interview in memory: questions, evaluation and coaching",
	Long: `Run a complete mock interview without a database.

Answers are read one per line from stdin until EOF or "/end", or taken from repeated --answer flags.
The interview is then ended, evaluated and coached, and the report is printed.`,
	Args: cobra.NoArgs,
	RunE: runPractice,
}

func init() {
	f := practiceCmd.Flags()
	f.StringVarP(&practiceRole, "role", "r", "", "Job role being interviewed for")
	f.StringVarP(&practiceLevel, "level", "l", "", "Experience level, e.g. junior, mid, senior")
	f.StringArrayVarP(&practiceAnswers, "answer", "a", nil, "Answer to the next question (repeatable, skips stdin)")
	f.IntVar(&practiceMaxQuestions, "max-questions", 0, "Stop after this many answers (0 for no limit)")
	f.BoolVar(&practiceJSON, "json", false, "Print only the final report as JSON")
	rootCmd.AddCommand(practiceCmd)
}

func runPractice(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.OutOrStdout(), appOptions{inMemory: true})
	if err != nil {
		return err
	}
	defer a.Close()

	role, level := practiceRole, practiceLevel
	if role == "" {
		role = a.cfg.JobRole
	}
	if level == "" {
		level = a.cfg.ExperienceLevel
	}

	res, err := a.orchestrator.Start(ctx, a.candidate, role, level)
	if err != nil {
		return err
	}
	id := res.SessionID
	if !practiceJSON {
		a.printer.PrintQuestion(res.QuestionsAsked, res.Message, res.Question)
	}

	next := answerSource(cmd, practiceAnswers)
	for practiceMaxQuestions == 0 || res.QuestionsAsked < practiceMaxQuestions {
		answer, ok := next()
		if !ok {
			break
		}
		if res, err = a.orchestrator.SubmitResponse(ctx, a.candidate, id, answer); err != nil {
			return err
		}
		if !practiceJSON {
			a.printer.PrintQuestion(res.QuestionsAsked, res.Message, res.Question)
		}
	}

	if _, err := a.orchestrator.End(ctx, a.candidate, id); err != nil {
		return err
	}
	if _, err := a.orchestrator.Evaluate(ctx, a.candidate, id); err != nil {
		return err
	}
	if _, err := a.orchestrator.Coach(ctx, a.candidate, id, nil); err != nil {
		return err
	}

	rep, err := a.orchestrator.Report(ctx, a.candidate, id)
	if err != nil {
		return err
	}
	if !practiceJSON {
		a.printer.PrintReport(rep)
		return nil
	}
	data, err := report.JSON(rep)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}

// answerSource yields flag answers when given, otherwise non-empty stdin lines until EOF or the end marker.
func answerSource(cmd *cobra.Command, answers []string) func() (string, bool) {
	if len(answers) > 0 {
		i := 0
		return func() (string, bool) {
			if i >= len(answers) {
				return "", false
			}
			i++
			return answers[i-1], true
		}
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	return func() (string, bool) {
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == endMarker {
				return "", false
			}
			if line != "" {
				return line, true
			}
		}
		return "", false
	}
}
