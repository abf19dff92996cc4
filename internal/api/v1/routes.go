// Package v1 provides the REST handlers of the data-syncd control surface.
package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/data-sync/internal/api/common"
	"github.com/stacklok/data-sync/internal/control"
	"github.com/stacklok/data-sync/internal/status"
)

// Routes defines the control routes with dependency injection
type Routes struct {
	service control.Service
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc control.Service) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates a new router for the control API
func Router(svc control.Service) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Route("/fullsync", func(r chi.Router) {
		r.Post("/", routes.startFullSync)
		r.Get("/status", routes.getFullSyncStatus)
		r.Put("/status", routes.setFullSyncStatus)
		r.Get("/last", routes.getLastRun)
	})
	r.Get("/rules", routes.listRules)

	return r
}

// startFullSync handles POST /v1/fullsync
func (rr *Routes) startFullSync(w http.ResponseWriter, r *http.Request) {
	err := rr.service.StartFullSync(r.Context())
	switch {
	case err == nil:
		common.WriteJSONResponse(w, FullSyncStatusResponse{Status: status.FullSyncInProgress}, http.StatusAccepted)
	case errors.Is(err, control.ErrSyncAlreadyInProgress):
		common.WriteKindErrorResponse(w, err.Error(), KindSyncAlreadyInProgress, http.StatusConflict)
	case errors.Is(err, control.ErrSiblingUnavailable):
		common.WriteKindErrorResponse(w, err.Error(), KindSiblingUnavailable, http.StatusServiceUnavailable)
	default:
		slog.Error("Failed to start full sync", "error", err)
		common.WriteErrorResponse(w, "Failed to start full sync", http.StatusInternalServerError)
	}
}

// getFullSyncStatus handles GET /v1/fullsync/status
func (rr *Routes) getFullSyncStatus(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, FullSyncStatusResponse{Status: rr.service.FullSyncStatus()}, http.StatusOK)
}

// setFullSyncStatus handles PUT /v1/fullsync/status
func (rr *Routes) setFullSyncStatus(w http.ResponseWriter, r *http.Request) {
	var req SetFullSyncStatusRequest
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.WriteErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	value, err := status.ParseFullSyncStatus(req.Status)
	if err != nil {
		common.WriteKindErrorResponse(w, err.Error(), KindUnknownStatus, http.StatusBadRequest)
		return
	}

	changed, err := rr.service.SetFullSyncStatus(value)
	switch {
	case err == nil:
		common.WriteJSONResponse(w, SetFullSyncStatusResponse{Changed: changed}, http.StatusOK)
	case errors.Is(err, status.ErrReadOnly):
		common.WriteKindErrorResponse(w, err.Error(), KindStatusReadOnly, http.StatusForbidden)
	case errors.Is(err, status.ErrUnknownStatus):
		common.WriteKindErrorResponse(w, err.Error(), KindUnknownStatus, http.StatusBadRequest)
	default:
		slog.Error("Failed to set full sync status", "error", err)
		common.WriteErrorResponse(w, "Failed to set full sync status", http.StatusInternalServerError)
	}
}

// getLastRun handles GET /v1/fullsync/last
func (rr *Routes) getLastRun(w http.ResponseWriter, r *http.Request) {
	record, err := rr.service.LastRun(r.Context())
	if err != nil {
		slog.Error("Failed to read last run record", "error", err)
		common.WriteErrorResponse(w, "Failed to read last run record", http.StatusInternalServerError)
		return
	}
	if record == nil {
		common.WriteErrorResponse(w, "No full sync has finished yet", http.StatusNotFound)
		return
	}
	common.WriteJSONResponse(w, record, http.StatusOK)
}

// listRules handles GET /v1/rules
func (rr *Routes) listRules(w http.ResponseWriter, _ *http.Request) {
	views := rr.service.Rules()
	resp := RulesResponse{
		Rules: make([]RuleResponse, 0, len(views)),
		Total: len(views),
	}
	for _, v := range views {
		resp.Rules = append(resp.Rules, RuleResponse{
			Path:               v.Path,
			DestinationPath:    v.Destination(),
			Description:        v.Description,
			SyncDirection:      string(v.Direction),
			SyncType:           string(v.Type),
			PeriodicitySeconds: int64(v.Periodicity.Seconds()),
			Source:             v.Source,
			Eligible:           v.Eligible,
		})
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}
