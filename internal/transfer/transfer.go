// Package transfer copies one source path to a destination. It is the
// byte-level collaborator of the sync engine: it reports success or failure
// and knows nothing about rules, roles or status.
package transfer

import (
	"context"
	"fmt"
)

// Transferer copies src to dst, recursively for directories
//
//go:generate mockgen -destination=mocks/mock_transferer.go -package=mocks github.com/stacklok/data-sync/internal/transfer Transferer
type Transferer interface {
	Transfer(ctx context.Context, src, dst string) error
}

// Error is returned when a transfer fails
type Error struct {
	Source      string
	Destination string
	// Output holds the collaborator's diagnostic output, if any
	Output string
	Err    error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("transfer %s -> %s failed: %v: %s", e.Source, e.Destination, e.Err, e.Output)
	}
	return fmt.Sprintf("transfer %s -> %s failed: %v", e.Source, e.Destination, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Mode selects a Transferer implementation
type Mode string

const (
	// ModeRsync shells out to rsync
	ModeRsync Mode = "rsync"

	// ModeNative copies in-process
	ModeNative Mode = "native"
)
