package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// RecordFileName is the name of the last-run record file
	RecordFileName = "fullsync.json"
)

// RecordStore persists the record of the last finished full sync
type RecordStore interface {
	// SaveRecord replaces the stored record
	SaveRecord(ctx context.Context, record *RunRecord) error

	// LoadRecord returns the stored record, or nil when no run has finished yet
	LoadRecord(ctx context.Context) (*RunRecord, error)
}

// fileRecordStore implements RecordStore using the local filesystem
type fileRecordStore struct {
	basePath string
}

// NewFileRecordStore creates a record store writing into basePath
func NewFileRecordStore(basePath string) RecordStore {
	return &fileRecordStore{
		basePath: basePath,
	}
}

// SaveRecord writes the record as JSON and swaps it into place atomically
func (f *fileRecordStore) SaveRecord(_ context.Context, record *RunRecord) error {
	if err := os.MkdirAll(f.basePath, 0750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	filePath := filepath.Join(f.basePath, RecordFileName)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run record %s: %w", record.RunID, err)
	}

	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary run record: %w", err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename run record: %w", err)
	}

	return nil
}

// LoadRecord reads the record file, nil when it doesn't exist
func (f *fileRecordStore) LoadRecord(_ context.Context) (*RunRecord, error) {
	filePath := filepath.Join(f.basePath, RecordFileName)

	// #nosec G304 -- filePath is built from the configured state directory
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read run record: %w", err)
	}

	var record RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}

	return &record, nil
}
