package analysis

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// WriteReport prints a per-strategy accuracy table and, when baseline names a
// loaded strategy, the questions each other strategy fixed or broke.
func (t *Table) WriteReport(w io.Writer, baseline string) error {
	compare := baseline != "" && t.has(baseline)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tCORRECT\tINCORRECT\tACCURACY\tIMPROVED\tREGRESSED")

	var comparisons []Comparison
	for _, name := range t.strategies {
		s := t.Summary(name)
		improved, regressed := "-", "-"
		if compare && name != baseline {
			c := t.Compare(baseline, name)
			comparisons = append(comparisons, c)
			improved = strconv.Itoa(len(c.Improved))
			regressed = strconv.Itoa(len(c.Regressed))
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
			name, s.Correct, s.Incorrect, formatAccuracy(s), improved, regressed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, c := range comparisons {
		if err := writeQuestions(w, fmt.Sprintf("%s improved over %s", c.Strategy, c.Baseline), c.Improved); err != nil {
			return err
		}
		if err := writeQuestions(w, fmt.Sprintf("%s regressed from %s", c.Strategy, c.Baseline), c.Regressed); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) has(strategy string) bool {
	for _, s := range t.strategies {
		if s == strategy {
			return true
		}
	}
	return false
}

func formatAccuracy(s Summary) string {
	acc, ok := s.Accuracy()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", acc*100)
}

func writeQuestions(w io.Writer, title string, questions []string) error {
	if len(questions) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s (%d):\n", title, len(questions))
	for _, q := range questions {
		fmt.Fprintf(&b, "  - %s\n", firstLine(q))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
