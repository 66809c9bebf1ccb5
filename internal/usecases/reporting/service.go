package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/repository"
	"github.com/vfg2006/analytics-dashboard-api/internal/domain"
	"github.com/vfg2006/analytics-dashboard-api/internal/usecases/normalizing"
	"github.com/vfg2006/analytics-dashboard-api/pkg/utils"
)

// Limite padrão de falhas recentes no relatório de saúde
const recentFailuresLimit = 20

var csvHeader = []string{
	"date", "sessions", "total_users", "new_users", "pageviews",
	"avg_session_duration", "bounce_rate", "organic_sessions",
}

// ReportingService expõe as leituras de métricas consumidas pelo dashboard
type ReportingService interface {
	GetClientMetrics(clientID int, startDate, endDate time.Time) ([]*domain.DailyMetricRecord, error)
	GetClientSummary(clientID int, startDate, endDate time.Time) (*domain.MetricsSummary, error)
	ExportClientMetricsCSV(w io.Writer, clientID int, startDate, endDate time.Time) error
	GetLiveMetrics(clientID int, startDate, endDate time.Time) ([]*domain.DailyMetricRecord, error)
	ListClientSyncLogs(clientID int, limit uint64) ([]*domain.SyncLogEntry, error)
	GetSyncHealth() (*domain.SyncHealthReport, error)
}

type Service struct {
	clientRepo  repository.ClientRepository
	metricRepo  repository.DailyMetricRepository
	syncLogRepo repository.SyncLogRepository
	analytics   ga4.Integrator
}

func NewService(
	clientRepo repository.ClientRepository,
	metricRepo repository.DailyMetricRepository,
	syncLogRepo repository.SyncLogRepository,
	analytics ga4.Integrator,
) ReportingService {
	return &Service{
		clientRepo:  clientRepo,
		metricRepo:  metricRepo,
		syncLogRepo: syncLogRepo,
		analytics:   analytics,
	}
}

// GetClientMetrics retorna as métricas diárias persistidas do cliente no
// intervalo (inclusivo), em ordem crescente de data.
func (s *Service) GetClientMetrics(clientID int, startDate, endDate time.Time) ([]*domain.DailyMetricRecord, error) {
	client, err := s.requireClient(clientID)
	if err != nil {
		return nil, err
	}

	if err := validateRange(startDate, endDate); err != nil {
		return nil, err
	}

	records, err := s.metricRepo.GetByDateRange(client.ID, startDate, endDate)
	if err != nil {
		return nil, errors.Wrapf(err, "erro ao buscar métricas do cliente %d", client.ID)
	}

	return records, nil
}

func (s *Service) GetClientSummary(clientID int, startDate, endDate time.Time) (*domain.MetricsSummary, error) {
	client, err := s.requireClient(clientID)
	if err != nil {
		return nil, err
	}

	if err := validateRange(startDate, endDate); err != nil {
		return nil, err
	}

	summary, err := s.metricRepo.Aggregate(client.ID, startDate, endDate)
	if err != nil {
		return nil, errors.Wrapf(err, "erro ao agregar métricas do cliente %d", client.ID)
	}

	return summary, nil
}

// ExportClientMetricsCSV escreve as métricas do período em CSV, uma linha por
// dia, com cabeçalho fixo.
func (s *Service) ExportClientMetricsCSV(w io.Writer, clientID int, startDate, endDate time.Time) error {
	records, err := s.GetClientMetrics(clientID, startDate, endDate)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return errors.Wrap(err, "erro ao escrever cabeçalho do CSV")
	}

	for _, record := range records {
		row := []string{
			record.Date.Format(time.DateOnly),
			strconv.FormatInt(record.Sessions, 10),
			strconv.FormatInt(record.TotalUsers, 10),
			strconv.FormatInt(record.NewUsers, 10),
			strconv.FormatInt(record.Pageviews, 10),
			strconv.FormatFloat(record.AvgSessionDuration, 'f', 2, 64),
			strconv.FormatFloat(record.BounceRate, 'f', 2, 64),
			strconv.FormatInt(record.OrganicSessions, 10),
		}

		if err := writer.Write(row); err != nil {
			return errors.Wrap(err, "erro ao escrever linha do CSV")
		}
	}

	writer.Flush()
	return writer.Error()
}

// GetLiveMetrics consulta o provedor diretamente para o período, sem passar
// pelo banco. Útil para conferir dados do dia corrente, ainda não cobertos
// pela sincronização noturna. Um resultado parcial (sessões orgânicas
// indisponíveis) é servido mesmo assim, com aviso no log.
func (s *Service) GetLiveMetrics(clientID int, startDate, endDate time.Time) ([]*domain.DailyMetricRecord, error) {
	client, err := s.requireClient(clientID)
	if err != nil {
		return nil, err
	}

	if err := validateRange(startDate, endDate); err != nil {
		return nil, err
	}

	rows, err := s.analytics.FetchMetricsRange(client.PropertyID, startDate, endDate)
	if err != nil {
		if !errors.Is(err, ga4.ErrPartialResult) {
			return nil, errors.Wrapf(err, "erro ao consultar métricas ao vivo do cliente %d", client.ID)
		}

		logrus.WithFields(logrus.Fields{
			"client_id":   client.ID,
			"property_id": client.PropertyID,
		}).Warn("Métricas ao vivo sem o recorte de sessões orgânicas")
	}

	now := time.Now()
	records := make([]*domain.DailyMetricRecord, 0, len(rows))
	for _, row := range rows {
		record, err := normalizing.NormalizeRow(client.ID, row, now)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"client_id": client.ID,
				"date":      row.Date,
				"error":     err.Error(),
			}).Warn("Linha do provedor descartada por data inválida")
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

func (s *Service) ListClientSyncLogs(clientID int, limit uint64) ([]*domain.SyncLogEntry, error) {
	client, err := s.requireClient(clientID)
	if err != nil {
		return nil, err
	}

	entries, err := s.syncLogRepo.ListByClient(client.ID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "erro ao listar sincronizações do cliente %d", client.ID)
	}

	return entries, nil
}

// GetSyncHealth monta o panorama de saúde da sincronização: a última
// sincronização bem-sucedida de cada cliente e as falhas mais recentes.
func (s *Service) GetSyncHealth() (*domain.SyncHealthReport, error) {
	clients, err := s.clientRepo.ListClients(false)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao listar clientes para o relatório de saúde")
	}

	lastSyncs, err := s.syncLogRepo.LastSuccessfulSyncByClient()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao buscar últimas sincronizações bem-sucedidas")
	}

	report := &domain.SyncHealthReport{
		Clients: make([]domain.ClientSyncHealth, 0, len(clients)),
	}

	for _, client := range clients {
		health := domain.ClientSyncHealth{
			ClientID:   client.ID,
			ClientName: client.Name,
			Active:     client.Active,
		}

		if lastSync, ok := lastSyncs[client.ID]; ok {
			health.LastSuccessfulSyncAt = &lastSync
		}

		report.Clients = append(report.Clients, health)
	}

	failures, err := s.syncLogRepo.ListRecentFailures(recentFailuresLimit)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao listar falhas recentes de sincronização")
	}
	report.RecentFailures = failures

	return report, nil
}

func (s *Service) requireClient(clientID int) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(clientID)
	if err != nil {
		return nil, errors.Wrapf(err, "erro ao buscar o cliente %d", clientID)
	}

	if client == nil {
		return nil, fmt.Errorf("cliente %d não encontrado", clientID)
	}

	return client, nil
}

func validateRange(startDate, endDate time.Time) error {
	if utils.TruncateToDay(startDate).After(utils.TruncateToDay(endDate)) {
		return fmt.Errorf("intervalo inválido: data inicial %s posterior à final %s",
			startDate.Format(time.DateOnly), endDate.Format(time.DateOnly))
	}
	return nil
}
