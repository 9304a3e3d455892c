// Package analysis reads persisted outcomes back, joins them by question
// across strategies and computes accuracy and flips against a baseline.
package analysis

import (
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/exp/constraints"

	"github.com/braintrustdata/prompteval-go/experiment"
	"github.com/braintrustdata/prompteval-go/store"
)

// Row holds the grades every loaded strategy gave one question.
type Row struct {
	Question string
	grades   map[string]int
}

// Grade returns the strategy's grade for the question, if it has one.
func (r *Row) Grade(strategy string) (grade int, ok bool) {
	grade, ok = r.grades[strategy]
	return grade, ok
}

// Table is the join of several strategies' outcomes on the question text.
// Rows keep the order in which questions were first seen.
type Table struct {
	strategies []string
	rows       []*Row
	byQuestion map[string]*Row
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{byQuestion: make(map[string]*Row)}
}

// Load reads <dir>/<strategy>.json for each strategy and joins them. A missing
// file contributes no rows.
func Load(dir string, strategies []string) (*Table, error) {
	t := NewTable()
	for _, name := range strategies {
		outcomes, err := store.ReadJSONL[experiment.Outcome](filepath.Join(dir, name+".json"))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		t.Add(name, outcomes)
	}
	return t, nil
}

// LoadConsolidated reads a consolidated CSV file and joins the grades named by
// gradeColumns, a strategy to grade-column mapping. A missing file contributes
// no rows.
func LoadConsolidated(path string, schema *experiment.Schema, gradeColumns map[string]string) (*Table, error) {
	records, err := store.ReadCSV(path, schema)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	t := NewTable()
	t.AddWide(records, gradeColumns)
	return t, nil
}

// Add joins one strategy's outcomes. When a question repeats, the last
// outcome wins.
func (t *Table) Add(strategy string, outcomes []experiment.Outcome) {
	t.addStrategy(strategy)
	for _, o := range outcomes {
		t.row(o.Question()).grades[strategy] = o.Grade()
	}
}

// AddWide joins the grades held by consolidated records. Null grades are
// skipped.
func (t *Table) AddWide(records []*experiment.WideRecord, gradeColumns map[string]string) {
	names := make([]string, 0, len(gradeColumns))
	for name := range gradeColumns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t.addStrategy(name)
	}
	for _, rec := range records {
		row := t.row(rec.Question())
		for _, name := range names {
			if g, ok := rec.Grade(gradeColumns[name]); ok {
				row.grades[name] = g
			}
		}
	}
}

func (t *Table) addStrategy(name string) {
	if !t.has(name) {
		t.strategies = append(t.strategies, name)
	}
}

func (t *Table) row(question string) *Row {
	if r, ok := t.byQuestion[question]; ok {
		return r
	}
	r := &Row{Question: question, grades: make(map[string]int)}
	t.byQuestion[question] = r
	t.rows = append(t.rows, r)
	return r
}

// Strategies returns the strategy names in the order they were added.
func (t *Table) Strategies() []string {
	return append([]string(nil), t.strategies...)
}

// Rows returns the joined rows.
func (t *Table) Rows() []*Row {
	return append([]*Row(nil), t.rows...)
}

// Summary counts one strategy's grades.
type Summary struct {
	Strategy  string
	Correct   int
	Incorrect int
}

// Total is the number of graded questions.
func (s Summary) Total() int {
	return s.Correct + s.Incorrect
}

// Accuracy returns Correct/Total. ok is false when nothing was graded.
func (s Summary) Accuracy() (acc float64, ok bool) {
	return ratio(s.Correct, s.Total())
}

// Summary counts the strategy's correct and incorrect grades.
func (t *Table) Summary(strategy string) Summary {
	s := Summary{Strategy: strategy}
	for _, r := range t.rows {
		g, ok := r.grades[strategy]
		switch {
		case !ok:
		case g == 1:
			s.Correct++
		default:
			s.Incorrect++
		}
	}
	return s
}

// Comparison lists the questions whose grade flipped between a baseline and
// another strategy. Questions missing from either side are ignored.
type Comparison struct {
	Baseline  string
	Strategy  string
	Improved  []string
	Regressed []string
}

// Compare returns the questions graded 0 by baseline and 1 by strategy
// (Improved) and the reverse (Regressed), in row order.
func (t *Table) Compare(baseline, strategy string) Comparison {
	c := Comparison{Baseline: baseline, Strategy: strategy}
	for _, r := range t.rows {
		b, ok := r.grades[baseline]
		if !ok {
			continue
		}
		s, ok := r.grades[strategy]
		if !ok {
			continue
		}
		switch {
		case b == 0 && s == 1:
			c.Improved = append(c.Improved, r.Question)
		case b == 1 && s == 0:
			c.Regressed = append(c.Regressed, r.Question)
		}
	}
	return c
}

func ratio[T constraints.Integer](num, den T) (float64, bool) {
	if den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}
