package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/repository"
	"github.com/vfg2006/analytics-dashboard-api/internal/config"
	"github.com/vfg2006/analytics-dashboard-api/internal/domain"
	"github.com/vfg2006/analytics-dashboard-api/internal/usecases/normalizing"
	"github.com/vfg2006/analytics-dashboard-api/pkg/utils"
	"golang.org/x/time/rate"
)

// DailyMetricsSyncConfig representa a configuração do agendador de sincronização de métricas diárias
type DailyMetricsSyncConfig struct {
	CronSchedule               string
	RequestDelayMillis         int
	BackfillRequestDelayMillis int
	SyncEnabled                bool
}

// DailyMetricsSyncService gerencia o agendamento e a execução da sincronização
// diária de métricas do GA4. Cada cliente do lote é processado de forma
// isolada: a falha de um cliente é registrada e o lote continua para os
// demais. O lote em si só falha se o roster de clientes não puder ser lido.
type DailyMetricsSyncService struct {
	scheduler           *gocron.Scheduler
	config              DailyMetricsSyncConfig
	appConfig           *config.Config
	clientRepo          repository.ClientRepository
	metricRepo          repository.DailyMetricRepository
	syncLogRepo         repository.SyncLogRepository
	analytics           ga4.Integrator
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time

	// Guarda por cliente: impede que duas sincronizações do mesmo cliente
	// rodem ao mesmo tempo (ex.: backfill manual durante o lote diário).
	inFlight      map[int]bool
	inFlightMutex sync.Mutex

	dailyLimiter    *rate.Limiter
	backfillLimiter *rate.Limiter
}

// NewDailyMetricsSyncService cria uma nova instância do serviço de sincronização de métricas diárias
func NewDailyMetricsSyncService(
	clientRepo repository.ClientRepository,
	metricRepo repository.DailyMetricRepository,
	syncLogRepo repository.SyncLogRepository,
	analytics ga4.Integrator,
	appConfig *config.Config,
) *DailyMetricsSyncService {
	syncConfig := DailyMetricsSyncConfig{
		CronSchedule:               appConfig.DailyMetricsSync.CronSchedule,
		RequestDelayMillis:         appConfig.DailyMetricsSync.RequestDelayMillis,
		BackfillRequestDelayMillis: appConfig.DailyMetricsSync.BackfillRequestDelayMillis,
		SyncEnabled:                appConfig.DailyMetricsSync.Enabled,
	}

	scheduler := gocron.NewScheduler(time.Local)

	logrus.WithFields(logrus.Fields{
		"cron_schedule":         syncConfig.CronSchedule,
		"request_delay_millis":  syncConfig.RequestDelayMillis,
		"backfill_delay_millis": syncConfig.BackfillRequestDelayMillis,
		"sync_enabled":          syncConfig.SyncEnabled,
	}).Info("Configuração do agendador de sincronização de métricas diárias carregada")

	return &DailyMetricsSyncService{
		scheduler:       scheduler,
		config:          syncConfig,
		appConfig:       appConfig,
		clientRepo:      clientRepo,
		metricRepo:      metricRepo,
		syncLogRepo:     syncLogRepo,
		analytics:       analytics,
		syncRunning:     false,
		inFlight:        make(map[int]bool),
		dailyLimiter:    newDelayLimiter(syncConfig.RequestDelayMillis),
		backfillLimiter: newDelayLimiter(syncConfig.BackfillRequestDelayMillis),
	}
}

// newDelayLimiter converte um intervalo mínimo entre requisições em um limiter
func newDelayLimiter(delayMillis int) *rate.Limiter {
	if delayMillis <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Duration(delayMillis)*time.Millisecond), 1)
}

// Start inicia o agendador
func (s *DailyMetricsSyncService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Sincronização diária de métricas desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de sincronização diária de métricas")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.runScheduledSync()
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar sincronização diária de métricas: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de sincronização diária de métricas")
		s.scheduler.Stop()
	}()

	return nil
}

// runScheduledSync executa o lote agendado, protegido contra sobreposição
func (s *DailyMetricsSyncService) runScheduledSync() {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Sincronização diária de métricas já em andamento, ignorando")
		return
	}
	s.syncRunning = true
	s.syncMutex.Unlock()

	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.syncMutex.Unlock()
	}()

	s.lastSyncStartedAt = time.Now()

	summary, err := s.SyncYesterday()
	if err != nil {
		logrus.WithError(err).Error("Erro ao executar lote de sincronização diária de métricas")
		return
	}

	logrus.WithFields(logrus.Fields{
		"batch_id":      summary.BatchID,
		"date":          summary.Date.Format(time.DateOnly),
		"total_clients": summary.TotalClients,
		"success":       summary.SuccessCount,
		"failures":      summary.FailureCount,
		"elapsed_ms":    summary.TotalElapsedMs,
	}).Info("Lote de sincronização diária de métricas concluído")

	s.lastSyncCompletedAt = time.Now()
}

// SyncYesterday sincroniza as métricas do dia anterior para todos os clientes
// ativos. "Ontem" é calculado no fuso do processo.
func (s *DailyMetricsSyncService) SyncYesterday() (*domain.SyncSummary, error) {
	yesterday := utils.TruncateToDay(time.Now().AddDate(0, 0, -1))
	return s.SyncAllClients(yesterday)
}

// SyncAllClients sincroniza as métricas de uma data para todos os clientes
// ativos, na ordem do roster. Retorna erro apenas se o roster não puder ser
// carregado; falhas individuais ficam no resumo.
func (s *DailyMetricsSyncService) SyncAllClients(date time.Time) (*domain.SyncSummary, error) {
	startTime := time.Now()
	batchID, _ := utils.GenerateID()

	summary := &domain.SyncSummary{
		BatchID: batchID,
		Date:    date,
		Results: make([]domain.ClientSyncResult, 0),
	}

	clients, err := s.clientRepo.ListActiveClients()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao carregar o roster de clientes ativos")
	}

	if len(clients) == 0 {
		logrus.WithField("batch_id", batchID).Info("Nenhum cliente ativo encontrado para sincronização de métricas")
		summary.TotalElapsedMs = time.Since(startTime).Milliseconds()
		return summary, nil
	}

	logrus.WithFields(logrus.Fields{
		"batch_id":      batchID,
		"date":          date.Format(time.DateOnly),
		"total_clients": len(clients),
	}).Info("Iniciando lote de sincronização de métricas diárias")

	summary.TotalClients = len(clients)

	for _, client := range clients {
		// Espaçamento mínimo entre clientes para não sobrecarregar a API
		if err := s.dailyLimiter.Wait(context.Background()); err != nil {
			logrus.WithError(err).Warn("Limiter interrompido durante o lote de sincronização")
		}

		result := s.syncClientDate(client, date)
		summary.Results = append(summary.Results, result)

		if result.Status == domain.SyncStatusFailed {
			summary.FailureCount++
		} else {
			summary.SuccessCount++
		}
	}

	summary.TotalElapsedMs = time.Since(startTime).Milliseconds()
	return summary, nil
}

// BackfillClientData sincroniza o histórico de métricas de um único cliente
// para o intervalo de datas (inclusivo). Falha imediatamente apenas se o
// cliente não existir ou o intervalo for inválido; dias com erro ficam no
// resumo e o backfill segue para os demais dias.
func (s *DailyMetricsSyncService) BackfillClientData(clientID int, startDate, endDate time.Time) (*domain.BackfillSummary, error) {
	client, err := s.clientRepo.GetByID(clientID)
	if err != nil {
		return nil, errors.Wrapf(err, "erro ao buscar o cliente %d", clientID)
	}

	if client == nil {
		return nil, fmt.Errorf("cliente %d não encontrado", clientID)
	}

	start := utils.TruncateToDay(startDate)
	end := utils.TruncateToDay(endDate)
	if start.After(end) {
		return nil, fmt.Errorf("intervalo inválido: data inicial %s posterior à final %s",
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	if !s.tryAcquireClient(client.ID) {
		return nil, fmt.Errorf("sincronização já em andamento para o cliente %d", client.ID)
	}
	defer s.releaseClient(client.ID)

	startTime := time.Now()
	batchID, _ := utils.GenerateID()

	summary := &domain.BackfillSummary{
		BatchID:   batchID,
		ClientID:  client.ID,
		StartDate: start,
		EndDate:   end,
		Results:   make([]domain.ClientSyncResult, 0),
	}

	logrus.WithFields(logrus.Fields{
		"batch_id":    batchID,
		"client_id":   client.ID,
		"client_name": client.Name,
		"start_date":  start.Format(time.DateOnly),
		"end_date":    end.Format(time.DateOnly),
	}).Info("Iniciando backfill de métricas do cliente")

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if err := s.backfillLimiter.Wait(context.Background()); err != nil {
			logrus.WithError(err).Warn("Limiter interrompido durante o backfill")
		}

		result := s.doSyncClientDate(client, date)
		summary.Results = append(summary.Results, result)
		summary.TotalDays++

		if result.Status == domain.SyncStatusFailed {
			summary.FailureCount++
		} else {
			summary.SuccessCount++
		}
	}

	summary.TotalElapsedMs = time.Since(startTime).Milliseconds()

	logrus.WithFields(logrus.Fields{
		"batch_id":   batchID,
		"client_id":  client.ID,
		"total_days": summary.TotalDays,
		"success":    summary.SuccessCount,
		"failures":   summary.FailureCount,
		"elapsed_ms": summary.TotalElapsedMs,
	}).Info("Backfill de métricas do cliente concluído")

	return summary, nil
}

// syncClientDate sincroniza um cliente respeitando a guarda por cliente
func (s *DailyMetricsSyncService) syncClientDate(client *domain.Client, date time.Time) domain.ClientSyncResult {
	if !s.tryAcquireClient(client.ID) {
		logrus.WithFields(logrus.Fields{
			"client_id":   client.ID,
			"client_name": client.Name,
		}).Warn("Sincronização já em andamento para o cliente, pulando no lote")

		return domain.ClientSyncResult{
			ClientID:     client.ID,
			ClientName:   client.Name,
			Date:         date,
			Status:       domain.SyncStatusFailed,
			ErrorMessage: "sincronização já em andamento para o cliente",
		}
	}
	defer s.releaseClient(client.ID)

	return s.doSyncClientDate(client, date)
}

// doSyncClientDate executa o ciclo completo para um par (cliente, data):
// busca no provedor, normaliza, grava por upsert e registra na auditoria.
// O registro de auditoria é best-effort: uma falha ao gravá-lo não muda o
// resultado da sincronização em si.
func (s *DailyMetricsSyncService) doSyncClientDate(client *domain.Client, date time.Time) domain.ClientSyncResult {
	startTime := time.Now()

	result := domain.ClientSyncResult{
		ClientID:   client.ID,
		ClientName: client.Name,
		Date:       date,
	}

	row, err := s.analytics.FetchDailyMetrics(client.PropertyID, date)
	status := domain.SyncStatusSuccess

	if err != nil {
		if errors.Is(err, ga4.ErrPartialResult) {
			status = domain.SyncStatusPartial
		} else {
			logrus.WithFields(logrus.Fields{
				"client_id":   client.ID,
				"property_id": client.PropertyID,
				"date":        date.Format(time.DateOnly),
				"error":       err.Error(),
			}).Error("Erro ao obter métricas do cliente no provedor")

			return s.finishResult(result, domain.SyncStatusFailed, 0, err.Error(), startTime)
		}
	}

	record, err := normalizing.NormalizeRow(client.ID, row, time.Now())
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"client_id": client.ID,
			"date":      date.Format(time.DateOnly),
			"error":     err.Error(),
		}).Error("Erro ao normalizar as métricas do cliente")

		return s.finishResult(result, domain.SyncStatusFailed, 0, err.Error(), startTime)
	}

	if err := s.metricRepo.Upsert(record); err != nil {
		logrus.WithFields(logrus.Fields{
			"client_id": client.ID,
			"date":      date.Format(time.DateOnly),
			"error":     err.Error(),
		}).Error("Erro ao gravar as métricas do cliente no banco de dados")

		return s.finishResult(result, domain.SyncStatusFailed, 0, err.Error(), startTime)
	}

	errorMessage := ""
	if status == domain.SyncStatusPartial {
		errorMessage = "sessões orgânicas indisponíveis para o dia"
	}

	return s.finishResult(result, status, 1, errorMessage, startTime)
}

// finishResult fecha o resultado do par (cliente, data) e grava a auditoria
func (s *DailyMetricsSyncService) finishResult(
	result domain.ClientSyncResult,
	status domain.SyncStatus,
	recordsSynced int,
	errorMessage string,
	startTime time.Time,
) domain.ClientSyncResult {
	result.Status = status
	result.RecordsSynced = recordsSynced
	result.ErrorMessage = errorMessage
	result.ElapsedMs = time.Since(startTime).Milliseconds()

	s.appendAuditEntry(result)
	return result
}

// appendAuditEntry grava a tentativa na trilha de auditoria (best-effort)
func (s *DailyMetricsSyncService) appendAuditEntry(result domain.ClientSyncResult) {
	clientID := result.ClientID

	entry := &domain.SyncLogEntry{
		ClientID:        &clientID,
		SyncDate:        result.Date,
		Status:          result.Status,
		RecordsSynced:   result.RecordsSynced,
		ExecutionTimeMs: result.ElapsedMs,
	}

	if result.ErrorMessage != "" {
		message := result.ErrorMessage
		entry.ErrorMessage = &message
	}

	if err := s.syncLogRepo.Append(entry); err != nil {
		logrus.WithFields(logrus.Fields{
			"client_id": result.ClientID,
			"date":      result.Date.Format(time.DateOnly),
			"error":     err.Error(),
		}).Warn("Erro ao gravar entrada de auditoria da sincronização")
	}
}

func (s *DailyMetricsSyncService) tryAcquireClient(clientID int) bool {
	s.inFlightMutex.Lock()
	defer s.inFlightMutex.Unlock()

	if s.inFlight[clientID] {
		return false
	}

	s.inFlight[clientID] = true
	return true
}

func (s *DailyMetricsSyncService) releaseClient(clientID int) {
	s.inFlightMutex.Lock()
	defer s.inFlightMutex.Unlock()
	delete(s.inFlight, clientID)
}

// TriggerManualSync inicia manualmente uma sincronização do dia anterior
func (s *DailyMetricsSyncService) TriggerManualSync() {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Sincronização diária de métricas já em andamento, ignorando solicitação manual")
		return
	}
	s.syncMutex.Unlock()

	logrus.Info("Iniciando sincronização manual de métricas diárias")
	go s.runScheduledSync()
}

// GetStatus retorna o status atual do agendador
func (s *DailyMetricsSyncService) GetStatus() map[string]any {
	s.syncMutex.Lock()
	running := s.syncRunning
	s.syncMutex.Unlock()

	return map[string]any{
		"sync_enabled":           s.config.SyncEnabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_running":           running,
		"request_delay_millis":   s.config.RequestDelayMillis,
		"backfill_delay_millis":  s.config.BackfillRequestDelayMillis,
		"retention_policy":       "dados mantidos permanentemente",
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
	}
}
