package rules

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultDir is where packaged rule documents are installed
const DefaultDir = "/usr/share/data-sync"

// Store loads rule documents from a directory
type Store struct {
	dir string
	fs  afero.Fs
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithFs overrides the filesystem the store reads from
func WithFs(fsys afero.Fs) StoreOption {
	return func(s *Store) {
		s.fs = fsys
	}
}

// NewStore creates a Store reading from dir on the OS filesystem by default
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		dir: dir,
		fs:  afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadResult is the outcome of scanning the rules directory
type LoadResult struct {
	// Rules is the flattened rule list in file order, Files before Directories
	Rules []SyncRule

	// Skipped holds one error per document that was discarded
	Skipped []*ParseError
}

// Load scans the directory once. Every regular file is parsed as a rule
// document. A document that fails to parse is skipped and recorded in
// LoadResult.Skipped. A missing directory yields an empty result.
func (s *Store) Load(ctx context.Context) (*LoadResult, error) {
	result := &LoadResult{Rules: []SyncRule{}}

	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Rules directory not found, no rules loaded", "dir", s.dir)
			return result, nil
		}
		return nil, fmt.Errorf("failed to read rules directory %s: %w", s.dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Mode().IsRegular() {
			continue
		}

		name := filepath.Join(s.dir, entry.Name())
		data, err := afero.ReadFile(s.fs, name)
		if err != nil {
			perr := &ParseError{File: name, Err: err}
			slog.Error("Skipping rule document", "file", name, "error", err)
			result.Skipped = append(result.Skipped, perr)
			continue
		}

		parsed, err := ParseDocument(name, data)
		if err != nil {
			var perr *ParseError
			if !errors.As(err, &perr) {
				perr = &ParseError{File: name, Err: err}
			}
			slog.Error("Skipping rule document", "file", name, "error", perr.Err)
			result.Skipped = append(result.Skipped, perr)
			continue
		}

		slog.Debug("Loaded rule document", "file", name, "rules", len(parsed))
		result.Rules = append(result.Rules, parsed...)
	}

	slog.Info("Rules loaded",
		"dir", s.dir,
		"rules", len(result.Rules),
		"skipped_documents", len(result.Skipped))

	return result, nil
}
