package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	apperrors "aucperm/internal/errors"
	"aucperm/ports"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook written by XLSXWriter
const (
	PValueSheet  = "Sheet1"
	TrueAUCSheet = "true_auc"
)

// NewWriter returns the writer for format: csv, xlsx or json
func NewWriter(format string) (ports.ReportWriterPort, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "csv":
		return CSVWriter{}, nil
	case "xlsx":
		return XLSXWriter{}, nil
	case "json":
		return JSONWriter{Indent: "  "}, nil
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported report format %q (csv, xlsx, json)", format))
	}
}

// CSVWriter writes one row per tested pair
type CSVWriter struct{}

func (CSVWriter) Format() string { return "csv" }

func (CSVWriter) Write(ctx context.Context, w io.Writer, r *ports.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(PValueHeaders); err != nil {
		return err
	}
	for _, row := range pValueRecords(r) {
		if err := cw.Write(stringRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSXWriter writes p-values to Sheet1 and the pooled means to a true_auc sheet
type XLSXWriter struct{}

func (XLSXWriter) Format() string { return "xlsx" }

func (XLSXWriter) Write(ctx context.Context, w io.Writer, r *ports.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	// Ensure Sheet1 exists and is active.
	if idx, err := f.GetSheetIndex(PValueSheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(PValueSheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}
	if err := writeSheet(f, PValueSheet, PValueHeaders, pValueRecords(r)); err != nil {
		return err
	}

	if _, err := f.NewSheet(TrueAUCSheet); err != nil {
		return err
	}
	if err := writeSheet(f, TrueAUCSheet, TrueAUCHeaders, trueAUCRecords(r)); err != nil {
		return err
	}

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	// Header row
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	// Data rows; nil and NaN cells stay empty
	for r := 0; r < len(rows); r++ {
		rowIdx := r + 2
		for c, v := range rows[r] {
			if v == nil {
				continue
			}
			if x, ok := v.(float64); ok && math.IsNaN(x) {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// JSONWriter writes the full report
type JSONWriter struct {
	Indent string
}

func (JSONWriter) Format() string { return "json" }

func (jw JSONWriter) Write(ctx context.Context, w io.Writer, r *ports.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	if jw.Indent != "" {
		enc.SetIndent("", jw.Indent)
	}
	if err := enc.Encode(r); err != nil {
		return apperrors.Wrap(err, "encoding report")
	}
	return nil
}
