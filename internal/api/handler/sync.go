package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/analytics-dashboard-api/internal/scheduler"
	"github.com/vfg2006/analytics-dashboard-api/internal/usecases/reporting"
	"github.com/vfg2006/analytics-dashboard-api/pkg/apiErrors"
)

// Limite padrão de entradas ao listar o histórico de sincronizações
const defaultSyncLogLimit = 50

type BackfillRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// TriggerDailySync dispara manualmente o lote de sincronização do dia anterior
func TriggerDailySync(syncService *scheduler.DailyMetricsSyncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - TriggerDailySync")

		syncService.TriggerManualSync()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Sincronização diária iniciada com sucesso",
		})
	}
}

// TriggerBackfill dispara o backfill histórico de um cliente para o intervalo
// informado no corpo da requisição. A execução é síncrona: a resposta traz o
// resumo do backfill, dia a dia.
func TriggerBackfill(syncService *scheduler.DailyMetricsSyncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - TriggerBackfill")

		clientID, ok := clientIDFromRequest(w, r)
		if !ok {
			return
		}

		var req BackfillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}

		startDate, err := time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "start_date inválido, use o formato YYYY-MM-DD", nil)
			return
		}

		endDate, err := time.Parse(time.DateOnly, req.EndDate)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "end_date inválido, use o formato YYYY-MM-DD", nil)
			return
		}

		summary, err := syncService.BackfillClientData(clientID, startDate, endDate)
		if err != nil {
			logrus.Error(err)

			switch {
			case strings.Contains(err.Error(), "não encontrado"):
				apiErrors.WriteError(w, apiErrors.ErrClientNotFound, err.Error(), nil)

			case strings.Contains(err.Error(), "já em andamento"):
				apiErrors.WriteError(w, apiErrors.ErrSyncInProgress, err.Error(), nil)

			case strings.Contains(err.Error(), "intervalo inválido"):
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, err.Error(), nil)

			default:
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao executar backfill", nil)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

// GetSyncStatus retorna o status do agendador de sincronização
func GetSyncStatus(syncService *scheduler.DailyMetricsSyncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(syncService.GetStatus())
	}
}

// GetSyncHealth retorna o panorama de saúde da sincronização por cliente
func GetSyncHealth(service reporting.ReportingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := service.GetSyncHealth()
		if err != nil {
			logrus.Error(err)
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao montar relatório de saúde da sincronização", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}

// ListClientSyncLogs retorna o histórico de sincronizações de um cliente
func ListClientSyncLogs(service reporting.ReportingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := clientIDFromRequest(w, r)
		if !ok {
			return
		}

		limit := uint64(defaultSyncLogLimit)
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.ParseUint(limitStr, 10, 64)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "limit inválido", nil)
				return
			}
			limit = parsed
		}

		entries, err := service.ListClientSyncLogs(clientID, limit)
		if err != nil {
			logrus.Error(err)
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao listar sincronizações do cliente", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}
