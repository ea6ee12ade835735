package results

import (
	"aucperm/domain/auc"
)

// ReaderConfig holds configuration for the results tree reader
type ReaderConfig struct {
	RootDir string `json:"root_dir"`
	// Columns dropped from every table besides the leading index column
	DropColumns []string `json:"drop_columns"`
	// Sheet read from .xlsx tables; empty means the first sheet
	Sheet string `json:"sheet"`
}

// DefaultReaderConfig returns the layout written by the experiment runner
func DefaultReaderConfig(rootDir string) ReaderConfig {
	return ReaderConfig{
		RootDir:     rootDir,
		DropColumns: []string{"filename", "Method"},
		Sheet:       DefaultSheet,
	}
}

// DefaultSheet is the sheet pandas writes a single frame to
const DefaultSheet = "Sheet1"

// testSubdir is the directory holding held-out test results under each method
const testSubdir = "test"

// defaultSegmentation fills an empty segmentation request
func defaultSegmentation(seg auc.Segmentation) auc.Segmentation {
	if seg == "" {
		return auc.DefaultSegmentation
	}
	return seg
}
