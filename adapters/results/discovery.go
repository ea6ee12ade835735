package results

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"aucperm/domain/auc"
	"aucperm/domain/core"
	"aucperm/internal"
)

// Reader implements ports.ResultsReaderPort over an experiment output tree:
//
//	<root>/run_<prefix>*[_unadjusted]/<prefix>*/<method>/test/roc_auc_<segmentation>_<prefix>.csv
type Reader struct {
	config ReaderConfig
	logger *internal.Logger
}

// NewReader creates a results reader rooted at cfg.RootDir
func NewReader(cfg ReaderConfig, logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{config: cfg, logger: logger}
}

// Discover lists result files of a variant. Run directories and their sub-folders
// are visited in lexical order and, within a sub-folder, methods in request order.
func (r *Reader) Discover(ctx context.Context, methods []auc.Method, seg auc.Segmentation, variant auc.Variant) ([]auc.ResultFile, error) {
	seg = defaultSegmentation(seg)
	log := r.logger.WithComponent("ResultsReader")

	runs, err := os.ReadDir(r.config.RootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrResultsDirMissing, r.config.RootDir)
		}
		return nil, fmt.Errorf("failed to list results directory: %w", err)
	}

	var files []auc.ResultFile
	for _, run := range runs {
		runPath := filepath.Join(r.config.RootDir, run.Name())
		if !variant.MatchesRunDir(run.Name()) || !isDir(runPath, run) {
			continue
		}
		subs, err := os.ReadDir(runPath)
		if err != nil {
			return nil, fmt.Errorf("failed to list run directory %s: %w", runPath, err)
		}
		for _, sub := range subs {
			if !variant.MatchesSubFolder(sub.Name()) || !isDir(filepath.Join(runPath, sub.Name()), sub) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for _, method := range methods {
				path := filepath.Join(runPath, sub.Name(), string(method), testSubdir, variant.FileName(seg))
				if _, err := os.Stat(path); err != nil {
					return nil, fmt.Errorf("%w: %s", core.ErrResultFileMissing, path)
				}
				files = append(files, auc.ResultFile{
					Method:    method,
					Path:      path,
					RunDir:    run.Name(),
					SubFolder: sub.Name(),
				})
			}
		}
	}

	log.Debug("discovered %d %s files for %d methods (segmentation %s)", len(files), variant, len(methods), seg)
	return files, nil
}

// isDir reports whether an entry is a directory, following symlinks
func isDir(path string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ReadTable parses one results table
func (r *Reader) ReadTable(ctx context.Context, path string) (*auc.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewDataReader(path, r.config, r.logger).ReadTable()
}
