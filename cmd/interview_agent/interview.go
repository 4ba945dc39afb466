package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/transcribe"
	"github.com/jonathan/interview-coach/internal/types"
)

var (
	startJobRole   string
	startLevel     string
	respondAnswer  string
	respondStream  string
	coachEvalInput string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new interview and print the opening question",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) (*interview.Result, error) {
			role, level := startJobRole, startLevel
			if role == "" {
				role = a.cfg.JobRole
			}
			if level == "" {
				level = a.cfg.ExperienceLevel
			}
			return a.orchestrator.Start(ctx, a.candidate, role, level)
		})
	},
}

var respondCmd = &cobra.Command{
	Use:   "respond <interview-id>",
	Short: "Submit the candidate's answer and print the next question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInterviewID(args)
		if err != nil {
			return err
		}
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) (*interview.Result, error) {
			answer, err := resolveAnswer(ctx, respondAnswer, respondStream)
			if err != nil {
				return nil, err
			}
			return a.orchestrator.SubmitResponse(ctx, a.candidate, id, answer)
		})
	},
}

var endCmd = &cobra.Command{
	Use:   "end <interview-id>",
	Short: "End an interview in progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInterviewID(args)
		if err != nil {
			return err
		}
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) (*interview.Result, error) {
			return a.orchestrator.End(ctx, a.candidate, id)
		})
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <interview-id>",
	Short: "Score a completed interview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInterviewID(args)
		if err != nil {
			return err
		}
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) (*interview.Result, error) {
			return a.orchestrator.Evaluate(ctx, a.candidate, id)
		})
	},
}

var coachCmd = &cobra.Command{
	Use:   "coach <interview-id>",
	Short: "Build a coaching plan from the interview's evaluation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInterviewID(args)
		if err != nil {
			return err
		}
		var supplied *types.Evaluation
		if coachEvalInput != "" {
			if supplied, err = loadEvaluation(coachEvalInput); err != nil {
				return err
			}
		}
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) (*interview.Result, error) {
			return a.orchestrator.Coach(ctx, a.candidate, id, supplied)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <interview-id>",
	Short: "Delete an interview with its transcript and results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInterviewID(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cmd.OutOrStdout(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.orchestrator.Delete(cmd.Context(), a.candidate, id); err != nil {
			return err
		}
		return writeJSON(a.out, &interview.Result{SessionID: id, Deleted: true})
	},
}

func init() {
	startCmd.Flags().StringVarP(&startJobRole, "role", "r", "", "Job role being interviewed for (overrides config job_role)")
	startCmd.Flags().StringVarP(&startLevel, "level", "l", "", "Experience level, e.g. junior, mid, senior")

	respondCmd.Flags().StringVarP(&respondAnswer, "answer", "a", "", "Candidate answer text")
	respondCmd.Flags().StringVar(&respondStream, "stream-url", "", "Websocket URL of a transcription stream to read the answer from")
	respondCmd.MarkFlagsMutuallyExclusive("answer", "stream-url")

	coachCmd.Flags().StringVarP(&coachEvalInput, "evaluation", "e", "", "Path to an evaluation JSON file to coach from instead of the stored one")

	rootCmd.AddCommand(startCmd, respondCmd, endCmd, evaluateCmd, coachCmd, deleteCmd)
}

// withApp builds the orchestrator, runs fn and prints its result.
func withApp(cmd *cobra.Command, opts appOptions, fn func(context.Context, *app) (*interview.Result, error)) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.OutOrStdout(), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := fn(ctx, a)
	if err != nil {
		return err
	}
	return a.printResult(res)
}

// printResult writes the result as JSON, or as boxed summaries when verbose.
func (a *app) printResult(res *interview.Result) error {
	if !a.cfg.Verbose {
		return writeJSON(a.out, res)
	}

	_, _ = fmt.Fprintf(a.out, "Interview %s (%s)\n", res.SessionID, res.Phase)
	if res.Message != "" {
		a.printer.PrintQuestion(res.QuestionsAsked, res.Message, res.Question)
	}
	if res.Evaluation != nil {
		a.printer.PrintEvaluation(res.Evaluation)
	}
	if res.Coaching != nil {
		a.printer.PrintCoachingPlan(res.Coaching)
	}
	if res.Report != nil {
		a.printer.PrintReport(res.Report)
	}
	if res.History != nil {
		a.printer.PrintHistory(res.History)
	}
	return nil
}

// resolveAnswer returns the typed answer or the final transcript of a live stream.
func resolveAnswer(ctx context.Context, answer, streamURL string) (string, error) {
	if streamURL == "" {
		return answer, nil
	}
	stream, err := transcribe.Dial(ctx, streamURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open transcription stream: %w", err)
	}
	defer func() { _ = stream.Close() }()

	text, err := transcribe.FinalText(ctx, stream)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription: %w", err)
	}
	return text, nil
}

func loadEvaluation(path string) (*types.Evaluation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read evaluation: %w", err)
	}
	var eval types.Evaluation
	if err := json.Unmarshal(data, &eval); err != nil {
		return nil, fmt.Errorf("failed to parse evaluation: %w", err)
	}
	return &eval, nil
}
