package auc

import (
	"fmt"

	"aucperm/domain/core"

	"github.com/montanaflynn/stats"
)

// Table is one results file: a row per trial, a column per diagnosis
type Table struct {
	Path      string
	Diagnoses []Diagnosis
	Rows      [][]float64
}

// RowCount returns the number of trial rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// Column returns the values of one diagnosis column
func (t *Table) Column(d Diagnosis) ([]float64, bool) {
	idx := -1
	for i, name := range t.Diagnoses {
		if name == d {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[idx]
	}
	return out, true
}

// ColumnMeans returns the NaN-skipping mean of every diagnosis column, in column order
func (t *Table) ColumnMeans() ([]float64, error) {
	means := make([]float64, len(t.Diagnoses))
	for i, d := range t.Diagnoses {
		col, _ := t.Column(d)
		mean, err := stats.Mean(DropNaN(col))
		if err != nil {
			return nil, fmt.Errorf("%w: %s column %s: %v", core.ErrInsufficientData, t.Path, d, err)
		}
		means[i] = mean
	}
	return means, nil
}
