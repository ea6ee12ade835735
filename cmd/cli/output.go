package main

import (
	"fmt"
	"io"
	"strings"

	"aucperm/domain/auc"
	"aucperm/domain/verdict"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSignificant = lipgloss.Color("#009E73")
	colorMuted       = lipgloss.Color("#7F7F7F")
)

var styles = struct {
	Title       lipgloss.Style
	Header      lipgloss.Style
	Muted       lipgloss.Style
	Significant lipgloss.Style
}{
	Title:       lipgloss.NewStyle().Bold(true),
	Header:      lipgloss.NewStyle().Bold(true).Underline(true),
	Muted:       lipgloss.NewStyle().Foreground(colorMuted),
	Significant: lipgloss.NewStyle().Bold(true).Foreground(colorSignificant),
}

// printPValueTable writes one aligned line per pair; significant lines are highlighted
func printPValueTable(w io.Writer, table *verdict.PValueTable) {
	methodWidth, diagWidth := len("method"), len("diagnosis")
	for _, e := range table.Entries {
		methodWidth = max(methodWidth, len(e.Method))
		diagWidth = max(diagWidth, len(e.Diagnosis))
	}

	header := fmt.Sprintf("%-*s  %-*s  %8s  %10s  %9s  %7s",
		methodWidth, "method", diagWidth, "diagnosis", "true AUC", "null mean", ">= true", "p")
	fmt.Fprintln(w, styles.Header.Render(header))

	for _, e := range table.Entries {
		line := fmt.Sprintf("%-*s  %-*s  %8.4f  %10.4f  %9s  %7.4f",
			methodWidth, e.Method, diagWidth, e.Diagnosis, e.TrueAUC, e.Null.Mean,
			fmt.Sprintf("%d/%d", e.Exceeding, e.Permutations), e.P)
		if e.Significant() {
			line = styles.Significant.Render(line + " *")
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, styles.Muted.Render(fmt.Sprintf("%d of %d significant at alpha %.3f (* marks p <= alpha)",
		table.SignificantCount(), len(table.Entries), table.Alpha)))
}

// printAUCComparison lists adjusted and unadjusted means side by side
func printAUCComparison(w io.Writer, methods []auc.Method, adjusted, unadjusted auc.TrueAUCs, diagnoses map[auc.Method][]auc.Diagnosis) {
	for _, m := range methods {
		fmt.Fprintln(w, styles.Title.Render(string(m)))
		fmt.Fprintln(w, styles.Header.Render(fmt.Sprintf("  %-12s  %10s  %10s  %8s", "diagnosis", "adjusted", "unadjusted", "diff")))
		for _, d := range diagnoses[m] {
			u, _ := unadjusted.Get(m, d)
			a, ok := adjusted.Get(m, d)
			if !ok {
				fmt.Fprintf(w, "  %-12s  %10s  %10.4f  %8s\n", d, "-", u, "-")
				continue
			}
			fmt.Fprintf(w, "  %-12s  %10.4f  %10.4f  %+8.4f\n", d, a, u, u-a)
		}
	}
}

func printDone(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, styles.Muted.Render(strings.TrimSpace(fmt.Sprintf(format, args...))))
}
