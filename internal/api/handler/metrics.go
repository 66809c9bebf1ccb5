package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/analytics-dashboard-api/internal/usecases/reporting"
	"github.com/vfg2006/analytics-dashboard-api/pkg/apiErrors"
	"github.com/vfg2006/analytics-dashboard-api/pkg/utils"
)

// Janela padrão quando o período não é informado na query
const defaultRangeDays = 30

// GetClientMetrics retorna as métricas diárias persistidas do cliente no
// período informado por ?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD. Sem
// período, retorna os últimos 30 dias.
func GetClientMetrics(service reporting.ReportingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := clientIDFromRequest(w, r)
		if !ok {
			return
		}

		startDate, endDate, ok := dateRangeFromRequest(w, r)
		if !ok {
			return
		}

		records, err := service.GetClientMetrics(clientID, startDate, endDate)
		if err != nil {
			logrus.Error(err)
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao consultar métricas do cliente", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

// GetClientSummary retorna o resumo agregado do período
func GetClientSummary(service reporting.ReportingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := clientIDFromRequest(w, r)
		if !ok {
			return
		}

		startDate, endDate, ok := dateRangeFromRequest(w, r)
		if !ok {
			return
		}

		summary, err := service.GetClientSummary(clientID, startDate, endDate)
		if err != nil {
			logrus.Error(err)
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao agregar métricas do cliente", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

// ExportClientMetrics exporta as métricas do período em CSV
func ExportClientMetrics(service reporting.ReportingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := clientIDFromRequest(w, r)
		if !ok {
			return
		}

		startDate, endDate, ok := dateRangeFromRequest(w, r)
		if !ok {
			return
		}

		filename := fmt.Sprintf("metrics_%d_%s_%s.csv",
			clientID, startDate.Format(time.DateOnly), endDate.Format(time.DateOnly))

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		if err := service.ExportClientMetricsCSV(w, clientID, startDate, endDate); err != nil {
			logrus.Error(err)
			// O cabeçalho já pode ter sido enviado, apenas registrar
			return
		}
	}
}

// GetLiveClientMetrics consulta o provedor diretamente, sem passar pelo banco
func GetLiveClientMetrics(service reporting.ReportingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := clientIDFromRequest(w, r)
		if !ok {
			return
		}

		startDate, endDate, ok := dateRangeFromRequest(w, r)
		if !ok {
			return
		}

		records, err := service.GetLiveMetrics(clientID, startDate, endDate)
		if err != nil {
			logrus.Error(err)
			apiErrors.WriteError(w, apiErrors.ErrExternalService, "Erro ao consultar métricas no provedor", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

// dateRangeFromRequest extrai o período da query string, com janela padrão
// dos últimos 30 dias quando ausente
func dateRangeFromRequest(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	endDate := utils.TruncateToDay(time.Now().AddDate(0, 0, -1))
	startDate := endDate.AddDate(0, 0, -(defaultRangeDays - 1))

	if startStr := r.URL.Query().Get("start_date"); startStr != "" {
		parsed, err := time.Parse(time.DateOnly, startStr)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "start_date inválido, use o formato YYYY-MM-DD", nil)
			return time.Time{}, time.Time{}, false
		}
		startDate = parsed
	}

	if endStr := r.URL.Query().Get("end_date"); endStr != "" {
		parsed, err := time.Parse(time.DateOnly, endStr)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "end_date inválido, use o formato YYYY-MM-DD", nil)
			return time.Time{}, time.Time{}, false
		}
		endDate = parsed
	}

	if startDate.After(endDate) {
		apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "start_date não pode ser posterior a end_date", nil)
		return time.Time{}, time.Time{}, false
	}

	return startDate, endDate, true
}
