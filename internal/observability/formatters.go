// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/interview-coach/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeList writes up to maxItemsToShow items with a trailing count of the rest.
func writeList(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
	sb.WriteString("\n")
}

// PrintQuestion outputs an interviewer question with its details.
func (p *Printer) PrintQuestion(number int, question string, meta *types.TurnMetadata) {
	if question == "" {
		return
	}

	var sb strings.Builder
	sb.WriteString(question + "\n")
	if meta != nil {
		sb.WriteString("\n")
		if meta.Difficulty != "" {
			sb.WriteString(fmt.Sprintf("Difficulty: %s\n", meta.Difficulty))
		}
		if meta.ExpectedDetail != "" {
			sb.WriteString(fmt.Sprintf("Expected:   %s\n", meta.ExpectedDetail))
		}
		writeList(&sb, "Hints", meta.Hints)
	}

	title := "OPENING"
	if number > 0 {
		title = fmt.Sprintf("QUESTION %d", number)
	}
	p.printBox(title, sb.String())
}

// PrintEvaluation outputs the score breakdown and recommendation.
func (p *Printer) PrintEvaluation(eval *types.Evaluation) {
	if eval == nil {
		return
	}

	var sb strings.Builder
	b := eval.ScoreBreakdown
	sb.WriteString(fmt.Sprintf("Overall:          %.1f / 100\n", eval.OverallScore))
	sb.WriteString(fmt.Sprintf("Recommendation:   %s\n", eval.Recommendation))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Technical:      %5.1f / %d\n", b.TechnicalKnowledge, types.MaxTechnicalKnowledge))
	sb.WriteString(fmt.Sprintf("  Problem solving:%5.1f / %d\n", b.ProblemSolving, types.MaxProblemSolving))
	sb.WriteString(fmt.Sprintf("  System design:  %5.1f / %d\n", b.SystemDesign, types.MaxSystemDesign))
	sb.WriteString(fmt.Sprintf("  Communication:  %5.1f / %d\n", b.Communication, types.MaxCommunication))
	sb.WriteString(fmt.Sprintf("  Awareness:      %5.1f / %d\n", b.Awareness, types.MaxAwareness))
	sb.WriteString("\n")
	writeList(&sb, "Strengths", eval.Strengths)
	writeList(&sb, "Improvements", eval.Improvements)

	p.printBox("EVALUATION", sb.String())
}

// PrintCoachingPlan outputs the focus area, learning path and resources.
func (p *Printer) PrintCoachingPlan(plan *types.CoachingPlan) {
	if plan == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Focus: %s\n", plan.Weakness))
	if plan.Impact != "" {
		sb.WriteString(fmt.Sprintf("Why:   %s\n", plan.Impact))
	}
	sb.WriteString("\n")
	writeList(&sb, "Learning Path", plan.LearningPath)

	if len(plan.Resources) > 0 {
		titles := make([]string, 0, len(plan.Resources))
		for _, r := range plan.Resources {
			entry := fmt.Sprintf("[%s] %s", r.Type, r.Title)
			if r.Duration != "" {
				entry += " (" + r.Duration + ")"
			}
			titles = append(titles, entry)
		}
		writeList(&sb, "Resources", titles)
	}
	if plan.NextCheckpoint != "" {
		sb.WriteString(fmt.Sprintf("Next checkpoint: %s\n", plan.NextCheckpoint))
	}

	p.printBox("COACHING PLAN", sb.String())
}

// PrintReport outputs the report header followed by the evaluation and coaching boxes.
func (p *Printer) PrintReport(r *types.Report) {
	if r == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Interview: %s\n", r.SessionID))
	sb.WriteString(fmt.Sprintf("Role:      %s (%s)\n", r.JobRole, r.ExperienceLevel))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", r.Status))
	sb.WriteString(fmt.Sprintf("Questions: %d\n", r.QuestionsAsked))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", r.StartTime.Format("2006-01-02 15:04")))
	if r.DurationSeconds > 0 {
		sb.WriteString(fmt.Sprintf("Duration:  %dm%02ds\n", r.DurationSeconds/60, r.DurationSeconds%60))
	}
	p.printBox("INTERVIEW REPORT", sb.String())

	p.PrintEvaluation(r.Evaluation)
	p.PrintCoachingPlan(r.Coaching)
}

// PrintHistory outputs one line per interview.
func (p *Printer) PrintHistory(list []types.SessionSummary) {
	if len(list) == 0 {
		p.printBox("INTERVIEW HISTORY", "No interviews yet")
		return
	}

	var sb strings.Builder
	for _, s := range list {
		score := "-"
		if s.OverallScore != nil {
			score = fmt.Sprintf("%.0f", *s.OverallScore)
		}
		sb.WriteString(fmt.Sprintf("%s  %-12s %4s  %s\n",
			s.Session.CreatedAt.Format("2006-01-02"), s.Session.Phase, score, s.Session.JobRole))
	}
	p.printBox("INTERVIEW HISTORY", sb.String())
}
