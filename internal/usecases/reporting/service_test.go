package reporting

import (
	"bytes"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4"
	ga4domain "github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/domain"
	ga4mocks "github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/mocks"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/repository/mocks"
	"github.com/vfg2006/analytics-dashboard-api/internal/domain"
	"go.uber.org/mock/gomock"
)

func TestExportClientMetricsCSV(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := NewService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	mockClientRepo.EXPECT().GetByID(1).Return(&domain.Client{ID: 1, Name: "Loja A"}, nil)
	mockMetricRepo.EXPECT().GetByDateRange(1, start, end).Return([]*domain.DailyMetricRecord{
		{
			ClientID:           1,
			Date:               start,
			Sessions:           120,
			TotalUsers:         80,
			NewUsers:           30,
			Pageviews:          400,
			AvgSessionDuration: 95.5,
			BounceRate:         45.32,
			OrganicSessions:    45,
		},
	}, nil)

	var buf bytes.Buffer
	err := service.ExportClientMetricsCSV(&buf, 1, start, end)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "date,sessions,total_users,new_users,pageviews,avg_session_duration,bounce_rate,organic_sessions")
	assert.Contains(t, buf.String(), "2024-01-15,120,80,30,400,95.50,45.32,45")
}

func TestGetClientMetrics_ClienteInexistente(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := NewService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	mockClientRepo.EXPECT().GetByID(42).Return(nil, nil)

	records, err := service.GetClientMetrics(42,
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
	)

	assert.Error(t, err)
	assert.Nil(t, records)
}

func TestGetClientMetrics_IntervaloInvalido(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := NewService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	mockClientRepo.EXPECT().GetByID(1).Return(&domain.Client{ID: 1}, nil)

	records, err := service.GetClientMetrics(1,
		time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	)

	assert.Error(t, err)
	assert.Nil(t, records)
}

func TestGetLiveMetrics_ResultadoParcial(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := NewService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	mockClientRepo.EXPECT().GetByID(1).Return(&domain.Client{ID: 1, PropertyID: "111"}, nil)

	rows := []*ga4domain.MetricsRow{
		{Date: "20240115", Sessions: "10", BounceRate: "0.5"},
		{Date: "20240116", Sessions: "20", BounceRate: "0.25"},
	}
	mockAnalytics.EXPECT().FetchMetricsRange("111", start, end).
		Return(rows, errors.Wrap(ga4.ErrPartialResult, "quota da consulta orgânica"))

	records, err := service.GetLiveMetrics(1, start, end)

	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int64(10), records[0].Sessions)
	assert.Equal(t, 50.0, records[0].BounceRate)
	assert.Equal(t, int64(0), records[0].OrganicSessions)
}

func TestGetSyncHealth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := NewService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	lastSync := time.Date(2024, 1, 16, 3, 5, 0, 0, time.UTC)

	mockClientRepo.EXPECT().ListClients(false).Return([]*domain.Client{
		{ID: 1, Name: "Loja A", Active: true},
		{ID: 2, Name: "Loja B", Active: false},
	}, nil)

	mockSyncLogRepo.EXPECT().LastSuccessfulSyncByClient().
		Return(map[int]time.Time{1: lastSync}, nil)

	clientID := 1
	message := "quota excedida"
	mockSyncLogRepo.EXPECT().ListRecentFailures(uint64(recentFailuresLimit)).
		Return([]*domain.SyncLogEntry{
			{ClientID: &clientID, Status: domain.SyncStatusFailed, ErrorMessage: &message},
		}, nil)

	report, err := service.GetSyncHealth()

	assert.NoError(t, err)
	assert.Len(t, report.Clients, 2)
	assert.NotNil(t, report.Clients[0].LastSuccessfulSyncAt)
	assert.Equal(t, lastSync, *report.Clients[0].LastSuccessfulSyncAt)
	assert.Nil(t, report.Clients[1].LastSuccessfulSyncAt)
	assert.Len(t, report.RecentFailures, 1)
}
