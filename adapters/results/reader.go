package results

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"aucperm/domain/auc"
	"aucperm/domain/core"
	"aucperm/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading results tables stored as CSV or Excel files
type DataReader struct {
	filePath    string
	fileType    string // "xlsx" or "csv"
	sheet       string
	dropColumns map[string]bool
	logger      *internal.Logger
}

// NewDataReader creates a reader for one table, picking the format from the extension
func NewDataReader(filePath string, cfg ReaderConfig, logger *internal.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" {
		fileType = "xlsx"
	}
	drop := make(map[string]bool, len(cfg.DropColumns))
	for _, c := range cfg.DropColumns {
		drop[c] = true
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{
		filePath:    filePath,
		fileType:    fileType,
		sheet:       cfg.Sheet,
		dropColumns: drop,
		logger:      logger.WithComponent("DataReader"),
	}
}

// ReadTable reads the file into a trial-by-diagnosis table
func (r *DataReader) ReadTable() (*auc.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", core.ErrResultFileMissing, r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s must have a header row and at least one data row", core.ErrMalformedTable, r.filePath)
	}

	return r.processRows(rows)
}

// readCSVRows reads all CSV records
func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrMalformedTable, r.filePath, err)
	}
	r.logger.Trace("CSV file %s read in %.2fms (%d rows)", r.filePath,
		float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// readExcelRows reads the configured sheet; an empty name means the first one
func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s has no sheet %q", core.ErrMalformedTable, r.filePath, sheet)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	r.logger.Trace("Excel sheet %s of %s read (%d rows)", sheet, r.filePath, len(rows))
	return rows, nil
}

// processRows drops the index column and bookkeeping columns and parses AUC cells
func (r *DataReader) processRows(rows [][]string) (*auc.Table, error) {
	header := rows[0]
	var keep []int
	var diagnoses []auc.Diagnosis
	seen := make(map[string]bool, len(header))
	// column 0 is the row index written alongside each trial
	for j := 1; j < len(header); j++ {
		name := strings.TrimSpace(header[j])
		if r.dropColumns[name] {
			continue
		}
		// columns are looked up by name, a repeated header would shadow its twin
		if seen[name] {
			return nil, fmt.Errorf("%w: %s repeats column %q", core.ErrMalformedTable, r.filePath, name)
		}
		seen[name] = true
		keep = append(keep, j)
		diagnoses = append(diagnoses, auc.Diagnosis(name))
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("%w: %s has no diagnosis columns", core.ErrMalformedTable, r.filePath)
	}

	table := &auc.Table{
		Path:      r.filePath,
		Diagnoses: diagnoses,
		Rows:      make([][]float64, 0, len(rows)-1),
	}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		values := make([]float64, len(keep))
		for k, j := range keep {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			v, err := parseAUC(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d column %s: %v", core.ErrMalformedTable, r.filePath, i+1, diagnoses[k], err)
			}
			values[k] = v
		}
		table.Rows = append(table.Rows, values)
	}

	r.logger.Debug("%s processed (%d diagnoses, %d rows)", r.filePath, len(diagnoses), len(table.Rows))
	return table, nil
}

// parseAUC parses one cell; blank and NaN-like cells become NaN
func parseAUC(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	switch strings.ToLower(cell) {
	case "", "nan", "na", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
