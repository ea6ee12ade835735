package testkit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"aucperm/domain/auc"

	"github.com/xuri/excelize/v2"
)

// ResultsTree writes experiment result tables in the on-disk layout the
// results reader discovers:
//
//	<root>/<runDir>/<subFolder>/<method>/test/roc_auc_<segmentation>_<prefix>.csv
type ResultsTree struct {
	Root         string
	Segmentation auc.Segmentation
}

// NewResultsTree creates a tree rooted at root using the default segmentation
func NewResultsTree(root string) *ResultsTree {
	return &ResultsTree{Root: root, Segmentation: auc.DefaultSegmentation}
}

// TableSpec describes one results table
type TableSpec struct {
	RunDir    string
	SubFolder string
	Method    auc.Method
	Variant   auc.Variant
	Diagnoses []string
	Rows      [][]float64
	// Extra bookkeeping columns appended to every row, e.g. "filename"
	ExtraColumns map[string]string
}

// Path returns where a spec's table lives
func (t *ResultsTree) Path(spec TableSpec) string {
	return filepath.Join(t.Root, spec.RunDir, spec.SubFolder, string(spec.Method), "test", spec.Variant.FileName(t.Segmentation))
}

// WriteTable writes spec as CSV and returns the file path
func (t *ResultsTree) WriteTable(spec TableSpec) (string, error) {
	path := t.Path(spec)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	headers, rows := tableRecords(spec)
	if err := w.Write(headers); err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}

// WriteXLSX writes spec as a single-sheet workbook at path
func WriteXLSX(path string, spec TableSpec) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	headers, rows := tableRecords(spec)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

// tableRecords lays a spec out as pandas writes it: unnamed index column first
func tableRecords(spec TableSpec) ([]string, [][]string) {
	extraNames := make([]string, 0, len(spec.ExtraColumns))
	for name := range spec.ExtraColumns {
		extraNames = append(extraNames, name)
	}
	headers := append([]string{""}, spec.Diagnoses...)
	headers = append(headers, extraNames...)

	rows := make([][]string, len(spec.Rows))
	for i, values := range spec.Rows {
		row := []string{strconv.Itoa(i)}
		for _, v := range values {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		for _, name := range extraNames {
			row = append(row, spec.ExtraColumns[name])
		}
		rows[i] = row
	}
	return headers, rows
}

// MustWrite is WriteTable for test setup; it panics on error
func (t *ResultsTree) MustWrite(spec TableSpec) string {
	path, err := t.WriteTable(spec)
	if err != nil {
		panic(fmt.Sprintf("testkit: writing %s: %v", t.Path(spec), err))
	}
	return path
}
