package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/data-sync/internal/api/common"
	v1 "github.com/stacklok/data-sync/internal/api/v1"
	"github.com/stacklok/data-sync/internal/control"
	"github.com/stacklok/data-sync/internal/control/mocks"
	"github.com/stacklok/data-sync/internal/rules"
	"github.com/stacklok/data-sync/internal/status"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestStartFullSync(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{name: "accepted", wantStatus: http.StatusAccepted},
		{
			name:       "already in progress",
			err:        control.ErrSyncAlreadyInProgress,
			wantStatus: http.StatusConflict,
			wantKind:   v1.KindSyncAlreadyInProgress,
		},
		{
			name:       "sibling unavailable",
			err:        control.ErrSiblingUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   v1.KindSiblingUnavailable,
		},
		{
			name:       "unexpected error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			svc := mocks.NewMockService(ctrl)
			svc.EXPECT().StartFullSync(gomock.Any()).Return(tt.err)

			rr := httptest.NewRecorder()
			v1.Router(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/fullsync", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.err == nil {
				var resp v1.FullSyncStatusResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, status.FullSyncInProgress, resp.Status)
				return
			}
			assert.Equal(t, tt.wantKind, decodeError(t, rr).Kind)
		})
	}
}

func TestGetFullSyncStatus(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().FullSyncStatus().Return(status.FullSyncInProgress)

	rr := httptest.NewRecorder()
	v1.Router(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fullsync/status", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"InProgress"}`, rr.Body.String())
}

func TestSetFullSyncStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		setupMock  func(*mocks.MockService)
		wantStatus int
		wantBody   string
		wantKind   string
	}{
		{
			name: "same value reports no change",
			body: `{"status":"NotStarted"}`,
			setupMock: func(m *mocks.MockService) {
				m.EXPECT().SetFullSyncStatus(status.FullSyncNotStarted).Return(false, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"changed":false}`,
		},
		{
			name: "different value is forbidden",
			body: `{"status":"Completed"}`,
			setupMock: func(m *mocks.MockService) {
				m.EXPECT().SetFullSyncStatus(status.FullSyncCompleted).Return(false, status.ErrReadOnly)
			},
			wantStatus: http.StatusForbidden,
			wantKind:   v1.KindStatusReadOnly,
		},
		{
			name:       "unknown value",
			body:       `{"status":"Paused"}`,
			setupMock:  func(*mocks.MockService) {},
			wantStatus: http.StatusBadRequest,
			wantKind:   v1.KindUnknownStatus,
		},
		{
			name:       "malformed body",
			body:       `{"status":`,
			setupMock:  func(*mocks.MockService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			svc := mocks.NewMockService(ctrl)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPut, "/fullsync/status", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			v1.Router(svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rr.Body.String())
			}
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, decodeError(t, rr).Kind)
			}
		})
	}
}

func TestGetLastRun(t *testing.T) {
	t.Parallel()

	record := &status.RunRecord{
		RunID:     "2f1c",
		Status:    status.FullSyncCompleted,
		StartedAt: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		Launched:  5,
	}

	tests := []struct {
		name       string
		record     *status.RunRecord
		err        error
		wantStatus int
	}{
		{name: "record found", record: record, wantStatus: http.StatusOK},
		{name: "no record yet", wantStatus: http.StatusNotFound},
		{name: "store error", err: errors.New("corrupt"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			svc := mocks.NewMockService(ctrl)
			svc.EXPECT().LastRun(gomock.Any()).DoAndReturn(func(context.Context) (*status.RunRecord, error) {
				return tt.record, tt.err
			})

			rr := httptest.NewRecorder()
			v1.Router(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fullsync/last", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.record != nil {
				var got status.RunRecord
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, tt.record.RunID, got.RunID)
				assert.Equal(t, tt.record.Launched, got.Launched)
			}
		})
	}
}

func TestListRules(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().Rules().Return([]control.RuleView{
		{
			SyncRule: rules.SyncRule{
				Path:      "/etc/a.conf",
				Direction: rules.DirectionActive2Passive,
				Type:      rules.SyncTypeImmediate,
				Source:    "common.json",
			},
			Eligible: true,
		},
		{
			SyncRule: rules.SyncRule{
				Path:            "/var/lib/b",
				DestinationPath: "/backup/b",
				Direction:       rules.DirectionPassive2Active,
				Type:            rules.SyncTypePeriodic,
				Periodicity:     90 * time.Second,
			},
		},
	})

	rr := httptest.NewRecorder()
	v1.Router(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/rules", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp v1.RulesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "/etc/a.conf", resp.Rules[0].DestinationPath)
	assert.True(t, resp.Rules[0].Eligible)
	assert.Equal(t, "Active2Passive", resp.Rules[0].SyncDirection)
	assert.Equal(t, "/backup/b", resp.Rules[1].DestinationPath)
	assert.Equal(t, int64(90), resp.Rules[1].PeriodicitySeconds)
	assert.False(t, resp.Rules[1].Eligible)
}
