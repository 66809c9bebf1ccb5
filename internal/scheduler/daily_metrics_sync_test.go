package scheduler

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4"
	ga4domain "github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/domain"
	ga4mocks "github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/mocks"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/repository/mocks"
	"github.com/vfg2006/analytics-dashboard-api/internal/config"
	"github.com/vfg2006/analytics-dashboard-api/internal/domain"
	"go.uber.org/mock/gomock"
)

func newTestService(
	clientRepo *mocks.MockClientRepository,
	metricRepo *mocks.MockDailyMetricRepository,
	syncLogRepo *mocks.MockSyncLogRepository,
	analytics *ga4mocks.MockIntegrator,
) *DailyMetricsSyncService {
	// Delays zerados para os testes não esperarem no limiter
	cfg := &config.Config{
		DailyMetricsSync: config.DailyMetricsSync{
			CronSchedule: "0 3 * * *",
		},
	}

	return NewDailyMetricsSyncService(clientRepo, metricRepo, syncLogRepo, analytics, cfg)
}

func metricsRowFor(date time.Time) *ga4domain.MetricsRow {
	return &ga4domain.MetricsRow{
		Date:               date.Format("20060102"),
		Sessions:           "120",
		TotalUsers:         "80",
		NewUsers:           "30",
		Pageviews:          "400",
		AvgSessionDuration: "95.5",
		BounceRate:         "0.38",
		OrganicSessions:    "45",
	}
}

func TestSyncAllClients_IsolamentoDeFalhas(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := newTestService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	clients := []*domain.Client{
		{ID: 1, Name: "Loja A", PropertyID: "111", Active: true},
		{ID: 2, Name: "Loja B", PropertyID: "222", Active: true},
		{ID: 3, Name: "Loja C", PropertyID: "333", Active: true},
	}

	mockClientRepo.EXPECT().ListActiveClients().Return(clients, nil)

	// Loja A sincroniza com sucesso
	mockAnalytics.EXPECT().FetchDailyMetrics("111", date).Return(metricsRowFor(date), nil)

	// Loja B falha no provedor; o lote deve continuar para a Loja C
	mockAnalytics.EXPECT().FetchDailyMetrics("222", date).
		Return(nil, errors.New("quota excedida"))

	// Loja C sincroniza com sucesso
	mockAnalytics.EXPECT().FetchDailyMetrics("333", date).Return(metricsRowFor(date), nil)

	mockMetricRepo.EXPECT().Upsert(gomock.Any()).Return(nil).Times(2)
	mockSyncLogRepo.EXPECT().Append(gomock.Any()).Return(nil).Times(3)

	summary, err := service.SyncAllClients(date)

	assert.NoError(t, err)
	assert.Equal(t, 3, summary.TotalClients)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
	assert.Len(t, summary.Results, 3)
	assert.Equal(t, domain.SyncStatusSuccess, summary.Results[0].Status)
	assert.Equal(t, domain.SyncStatusFailed, summary.Results[1].Status)
	assert.Contains(t, summary.Results[1].ErrorMessage, "quota excedida")
	assert.Equal(t, domain.SyncStatusSuccess, summary.Results[2].Status)
	assert.NotEmpty(t, summary.BatchID)
}

func TestSyncAllClients_RosterVazio(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := newTestService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	mockClientRepo.EXPECT().ListActiveClients().Return([]*domain.Client{}, nil)

	summary, err := service.SyncAllClients(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.Equal(t, 0, summary.TotalClients)
	assert.Equal(t, 0, summary.SuccessCount)
	assert.Equal(t, 0, summary.FailureCount)
	assert.Empty(t, summary.Results)
}

func TestSyncAllClients_ErroAoCarregarRoster(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := newTestService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	mockClientRepo.EXPECT().ListActiveClients().Return(nil, errors.New("conexão recusada"))

	summary, err := service.SyncAllClients(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	assert.Error(t, err)
	assert.Nil(t, summary)
}

func TestSyncAllClients_ResultadoParcial(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := newTestService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mockClientRepo.EXPECT().ListActiveClients().
		Return([]*domain.Client{{ID: 1, Name: "Loja A", PropertyID: "111", Active: true}}, nil)

	// Consulta orgânica falhou: as métricas principais vêm na linha e o erro
	// sinaliza resultado parcial
	row := metricsRowFor(date)
	row.OrganicSessions = ""
	mockAnalytics.EXPECT().FetchDailyMetrics("111", date).
		Return(row, errors.Wrap(ga4.ErrPartialResult, "quota da consulta orgânica"))

	// O registro parcial ainda é gravado
	mockMetricRepo.EXPECT().Upsert(gomock.Any()).DoAndReturn(func(record *domain.DailyMetricRecord) error {
		assert.Equal(t, int64(120), record.Sessions)
		assert.Equal(t, int64(0), record.OrganicSessions)
		return nil
	})

	mockSyncLogRepo.EXPECT().Append(gomock.Any()).DoAndReturn(func(entry *domain.SyncLogEntry) error {
		assert.Equal(t, domain.SyncStatusPartial, entry.Status)
		assert.NotNil(t, entry.ErrorMessage)
		return nil
	})

	summary, err := service.SyncAllClients(date)

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 0, summary.FailureCount)
	assert.Equal(t, domain.SyncStatusPartial, summary.Results[0].Status)
}

func TestSyncAllClients_FalhaNaAuditoriaNaoDerrubaOLote(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := newTestService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mockClientRepo.EXPECT().ListActiveClients().
		Return([]*domain.Client{{ID: 1, Name: "Loja A", PropertyID: "111", Active: true}}, nil)

	mockAnalytics.EXPECT().FetchDailyMetrics("111", date).Return(metricsRowFor(date), nil)
	mockMetricRepo.EXPECT().Upsert(gomock.Any()).Return(nil)

	// A trilha de auditoria está indisponível, mas a sincronização foi feita
	mockSyncLogRepo.EXPECT().Append(gomock.Any()).Return(errors.New("tabela bloqueada"))

	summary, err := service.SyncAllClients(date)

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, domain.SyncStatusSuccess, summary.Results[0].Status)
}

func TestSyncAllClients_ConversaoDeCamposCanonicosFimAFim(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := newTestService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// Apenas o cliente ativo entra no roster; o inativo nunca é consultado
	mockClientRepo.EXPECT().ListActiveClients().
		Return([]*domain.Client{{ID: 1, Name: "Loja A", PropertyID: "111", Active: true}}, nil)

	mockAnalytics.EXPECT().FetchDailyMetrics("111", date).Return(&ga4domain.MetricsRow{
		Date:               "20240301",
		Sessions:           "120",
		TotalUsers:         "80",
		NewUsers:           "30",
		Pageviews:          "400",
		AvgSessionDuration: "95.5",
		BounceRate:         "0.38",
		OrganicSessions:    "45",
	}, nil)

	mockMetricRepo.EXPECT().Upsert(gomock.Any()).DoAndReturn(func(record *domain.DailyMetricRecord) error {
		assert.Equal(t, 1, record.ClientID)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), record.Date)
		assert.Equal(t, int64(120), record.Sessions)
		assert.Equal(t, int64(80), record.TotalUsers)
		assert.Equal(t, int64(30), record.NewUsers)
		assert.Equal(t, int64(400), record.Pageviews)
		assert.Equal(t, 95.5, record.AvgSessionDuration)
		assert.Equal(t, 38.0, record.BounceRate)
		assert.Equal(t, int64(45), record.OrganicSessions)
		return nil
	})

	mockSyncLogRepo.EXPECT().Append(gomock.Any()).DoAndReturn(func(entry *domain.SyncLogEntry) error {
		assert.Equal(t, domain.SyncStatusSuccess, entry.Status)
		assert.Equal(t, 1, entry.RecordsSynced)
		assert.NotNil(t, entry.ClientID)
		assert.Equal(t, 1, *entry.ClientID)
		return nil
	})

	summary, err := service.SyncAllClients(date)

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.SuccessCount)
}

func TestBackfillClientData(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := newTestService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	client := &domain.Client{ID: 5, Name: "Loja E", PropertyID: "555", Active: true}
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)

	mockClientRepo.EXPECT().GetByID(5).Return(client, nil)

	// Um dia por requisição: 3 dias, 3 buscas, 3 gravações, 3 auditorias
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		mockAnalytics.EXPECT().FetchDailyMetrics("555", date).Return(metricsRowFor(date), nil)
	}
	mockMetricRepo.EXPECT().Upsert(gomock.Any()).Return(nil).Times(3)
	mockSyncLogRepo.EXPECT().Append(gomock.Any()).Return(nil).Times(3)

	summary, err := service.BackfillClientData(5, start, end)

	assert.NoError(t, err)
	assert.Equal(t, 3, summary.TotalDays)
	assert.Equal(t, 3, summary.SuccessCount)
	assert.Equal(t, 0, summary.FailureCount)
	assert.Len(t, summary.Results, 3)
	assert.Equal(t, start, summary.Results[0].Date)
	assert.Equal(t, end, summary.Results[2].Date)
}

func TestBackfillClientData_ClienteInexistente(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := newTestService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	mockClientRepo.EXPECT().GetByID(99).Return(nil, nil)

	summary, err := service.BackfillClientData(99,
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
	)

	assert.Error(t, err)
	assert.Nil(t, summary)
}

func TestBackfillClientData_IntervaloInvalido(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := newTestService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	mockClientRepo.EXPECT().GetByID(5).
		Return(&domain.Client{ID: 5, Name: "Loja E", PropertyID: "555"}, nil)

	summary, err := service.BackfillClientData(5,
		time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	)

	assert.Error(t, err)
	assert.Nil(t, summary)
}

func TestSyncClientDate_GuardaPorCliente(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClientRepo := mocks.NewMockClientRepository(ctrl)
	mockMetricRepo := mocks.NewMockDailyMetricRepository(ctrl)
	mockSyncLogRepo := mocks.NewMockSyncLogRepository(ctrl)
	mockAnalytics := ga4mocks.NewMockIntegrator(ctrl)

	service := newTestService(mockClientRepo, mockMetricRepo, mockSyncLogRepo, mockAnalytics)

	client := &domain.Client{ID: 7, Name: "Loja G", PropertyID: "777", Active: true}
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	// Simula um backfill em andamento para o mesmo cliente
	assert.True(t, service.tryAcquireClient(client.ID))

	result := service.syncClientDate(client, date)

	assert.Equal(t, domain.SyncStatusFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "já em andamento")

	service.releaseClient(client.ID)

	// Com a guarda liberada, a sincronização prossegue normalmente
	mockAnalytics.EXPECT().FetchDailyMetrics("777", date).Return(metricsRowFor(date), nil)
	mockMetricRepo.EXPECT().Upsert(gomock.Any()).Return(nil)
	mockSyncLogRepo.EXPECT().Append(gomock.Any()).Return(nil)

	result = service.syncClientDate(client, date)
	assert.Equal(t, domain.SyncStatusSuccess, result.Status)
}
