// Package control implements the operator-facing control operations of
// data-syncd: starting a full sync on demand and exposing its status.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stacklok/data-sync/internal/facts"
	"github.com/stacklok/data-sync/internal/rules"
	"github.com/stacklok/data-sync/internal/status"
	pkgsync "github.com/stacklok/data-sync/internal/sync"
)

var (
	// ErrSiblingUnavailable is returned when no sibling address is known
	ErrSiblingUnavailable = errors.New("sibling unit is not available")

	// ErrSyncAlreadyInProgress is returned when a full sync is already running
	ErrSyncAlreadyInProgress = errors.New("full sync already in progress")
)

// RuleView is a configured rule together with its eligibility on this unit
type RuleView struct {
	rules.SyncRule
	Eligible bool
}

// Service is the control interface of the daemon
//
//go:generate mockgen -destination=mocks/mock_service.go -package=mocks github.com/stacklok/data-sync/internal/control Service
type Service interface {
	// StartFullSync launches a full sync in the background and returns as
	// soon as the status is InProgress
	StartFullSync(ctx context.Context) error

	// FullSyncStatus returns the current status
	FullSyncStatus() status.FullSyncStatus

	// SetFullSyncStatus is the external write path of the status. It reports
	// whether the value changed, which is never the case.
	SetFullSyncStatus(s status.FullSyncStatus) (bool, error)

	// LastRun returns the record of the last finished run, or nil
	LastRun(ctx context.Context) (*status.RunRecord, error)

	// Rules returns every configured rule with its eligibility under the
	// current role
	Rules() []RuleView
}

// defaultService is the default implementation of Service
type defaultService struct {
	manager pkgsync.Manager
	tracker *status.Tracker
	facts   facts.Provider
	records status.RecordStore
}

// Option configures the control service
type Option func(*defaultService)

// WithRecordStore sets where the last run record is read from
func WithRecordStore(store status.RecordStore) Option {
	return func(s *defaultService) {
		s.records = store
	}
}

// NewService creates the control service
func NewService(
	manager pkgsync.Manager,
	tracker *status.Tracker,
	provider facts.Provider,
	opts ...Option,
) Service {
	s := &defaultService{
		manager: manager,
		tracker: tracker,
		facts:   provider,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *defaultService) StartFullSync(ctx context.Context) error {
	snapshot := s.facts.Facts()
	if !snapshot.SiblingAvailable() {
		slog.Warn("Rejecting full sync request", "reason", "sibling address unknown")
		return ErrSiblingUnavailable
	}

	// the run outlives the request that started it
	done, err := s.manager.TryStart(context.WithoutCancel(ctx))
	if err != nil {
		if errors.Is(err, pkgsync.ErrRunInProgress) {
			slog.Info("Rejecting full sync request", "reason", "run in progress")
			return ErrSyncAlreadyInProgress
		}
		return fmt.Errorf("failed to start full sync: %w", err)
	}

	slog.Info("Full sync requested", "sibling", snapshot.SiblingAddress)
	go func() {
		if result, ok := <-done; ok {
			slog.Debug("Requested full sync finished",
				"run_id", result.RunID,
				"status", result.Status)
		}
	}()
	return nil
}

func (s *defaultService) FullSyncStatus() status.FullSyncStatus {
	return s.tracker.Get()
}

func (s *defaultService) SetFullSyncStatus(value status.FullSyncStatus) (bool, error) {
	changed, err := s.tracker.Set(value)
	if err != nil {
		slog.Debug("Rejected full sync status write",
			"value", value,
			"current", s.tracker.Get(),
			"error", err)
	}
	return changed, err
}

func (s *defaultService) LastRun(ctx context.Context) (*status.RunRecord, error) {
	if s.records == nil {
		return nil, nil
	}
	record, err := s.records.LoadRecord(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load last run record: %w", err)
	}
	return record, nil
}

func (s *defaultService) Rules() []RuleView {
	role := s.facts.Facts().Role
	ruleList := s.manager.Rules()
	views := make([]RuleView, 0, len(ruleList))
	for _, rule := range ruleList {
		views = append(views, RuleView{
			SyncRule: rule,
			Eligible: pkgsync.IsEligible(rule, role),
		})
	}
	return views
}
