// Package importer submits ledger CSV files dropped into an import directory.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cashbook-dev/cashbook/internal/ledger"
	"github.com/cashbook-dev/cashbook/internal/logger"
	"github.com/cashbook-dev/cashbook/internal/model"
)

// Parser converts an import file into submissions.
type Parser interface {
	Parse(r io.Reader) ([]ledger.Submission, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&LedgerParser{})
	return r
}

// processedDir is the subdirectory for processed CSVs.
const processedDir = "processed"

// Scan returns CSV files directly inside dir. A missing dir yields no files.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from dir to dir/processed/.
func MarkProcessed(dir, fileName string) error {
	dstDir := filepath.Join(dir, processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	src := filepath.Join(dir, fileName)
	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

// Submitter records one transaction. *ledger.Engine implements it.
type Submitter interface {
	SubmitTransaction(ctx context.Context, access model.Access, sub ledger.Submission) (model.Transaction, error)
}

// RowError is a submission the ledger rejected.
type RowError struct {
	UTR string
	Err error
}

// Result summarizes one imported file.
type Result struct {
	File       string
	Imported   int
	Duplicates int
	Rejected   []RowError
	Processed  bool // moved to processed/
}

// Importer feeds import files through a Submitter.
type Importer struct {
	dir    string
	parser Parser
	ledger Submitter
}

// New returns an Importer reading dir with parser p. Run logs through the
// logger attached to its context.
func New(dir string, p Parser, s Submitter) *Importer {
	return &Importer{dir: dir, parser: p, ledger: s}
}

// Run imports every CSV file in the import directory. Rows whose UTR is already
// recorded count as duplicates, so a file can be re-imported safely. A file
// is moved to processed/ only when none of its rows were rejected.
func (im *Importer) Run(ctx context.Context, access model.Access) ([]Result, error) {
	files, err := Scan(im.dir)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, f := range files {
		res, err := im.importFile(ctx, access, f)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (im *Importer) importFile(ctx context.Context, access model.Access, f FileInfo) (Result, error) {
	res := Result{File: f.Name}
	log := logger.FromContext(ctx).With().Str(logger.FieldOp, "import").Str("file", f.Name).Logger()

	fh, err := os.Open(f.Path)
	if err != nil {
		return res, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	subs, err := im.parser.Parse(fh)
	fh.Close()
	if err != nil {
		return res, fmt.Errorf("parsing %s: %w", f.Name, err)
	}

	for _, sub := range subs {
		_, err := im.ledger.SubmitTransaction(ctx, access, sub)
		switch {
		case err == nil:
			res.Imported++
		case errors.Is(err, ledger.ErrDuplicateTransaction):
			res.Duplicates++
		case errors.Is(err, ledger.ErrPermissionDenied):
			return res, err
		default:
			var lerr *ledger.Error
			if !errors.As(err, &lerr) {
				return res, fmt.Errorf("importing %s: %w", f.Name, err)
			}
			log.Warn().Err(err).
				Str(logger.FieldUTR, sub.UTR).
				Str(logger.FieldActor, sub.Actor).
				Msg("row rejected")
			res.Rejected = append(res.Rejected, RowError{UTR: sub.UTR, Err: err})
		}
	}

	log.Info().
		Int("imported", res.Imported).
		Int("duplicates", res.Duplicates).
		Int("rejected", len(res.Rejected)).
		Msg("import file processed")

	if len(res.Rejected) == 0 {
		if err := MarkProcessed(im.dir, f.Name); err != nil {
			return res, err
		}
		res.Processed = true
	}
	return res, nil
}
