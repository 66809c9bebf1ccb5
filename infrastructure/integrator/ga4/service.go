package ga4

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ga4domain "github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/domain"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/ga4client"
	"github.com/vfg2006/analytics-dashboard-api/internal/config"
	"github.com/vfg2006/analytics-dashboard-api/pkg/utils"
)

// ErrPartialResult indica que as métricas principais foram obtidas, mas a
// consulta secundária de sessões orgânicas falhou. O chamador decide se
// persiste o resultado como parcial.
var ErrPartialResult = errors.New("resultado parcial: sessões orgânicas indisponíveis")

const organicChannelName = "Organic Search"

// Ordem fixa das métricas na consulta principal. Os valores da resposta são
// posicionais e seguem esta mesma ordem.
var reportMetrics = []ga4domain.Metric{
	{Name: "sessions"},
	{Name: "totalUsers"},
	{Name: "newUsers"},
	{Name: "screenPageViews"},
	{Name: "averageSessionDuration"},
	{Name: "bounceRate"},
}

// Integrator define a interface de acesso às métricas do GA4
type Integrator interface {
	// FetchDailyMetrics obtém as métricas de um único dia para uma propriedade,
	// incluindo o recorte de sessões do canal orgânico
	FetchDailyMetrics(propertyID string, date time.Time) (*ga4domain.MetricsRow, error)

	// FetchMetricsRange obtém as métricas de um intervalo de datas (inclusivo),
	// uma linha por dia presente na resposta, em ordem crescente de data
	FetchMetricsRange(propertyID string, startDate, endDate time.Time) ([]*ga4domain.MetricsRow, error)

	// ValidatePropertyAccess verifica se a credencial tem ao menos acesso de
	// leitura à propriedade. Acesso negado não é erro; retorna false
	ValidatePropertyAccess(propertyID string) (bool, error)
}

type Service struct {
	cfg    *config.Config
	client ga4client.Client
}

func New(cfg *config.Config, client ga4client.Client) Integrator {
	return &Service{
		cfg:    cfg,
		client: client,
	}
}

// FetchDailyMetrics emite duas consultas para o mesmo dia: uma sem filtro com
// o conjunto completo de métricas e uma filtrada ao canal "Organic Search"
// retornando apenas sessões. Um dia sem tráfego (resposta sem linhas) produz
// uma linha com valores vazios, que o normalizador converte em zeros, e não
// um erro.
func (s *Service) FetchDailyMetrics(propertyID string, date time.Time) (*ga4domain.MetricsRow, error) {
	day := date.Format(time.DateOnly)

	report := &ga4domain.RunReportRequest{
		DateRanges: []ga4domain.DateRange{{StartDate: day, EndDate: day}},
		Metrics:    reportMetrics,
	}

	resp, err := s.client.RunReport(propertyID, report)
	if err != nil {
		return nil, errors.Wrapf(err, "erro ao obter métricas do dia %s", day)
	}

	row := &ga4domain.MetricsRow{Date: date.Format(utils.CompactDateLayout)}
	if len(resp.Rows) > 0 {
		fillMetrics(row, resp.Rows[0].MetricValues)
	}

	organic, err := s.fetchOrganicSessions(propertyID, day, day)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"property_id": propertyID,
			"date":        day,
			"error":       err.Error(),
		}).Warn("Erro na consulta de sessões orgânicas. Resultado será parcial")
		return row, errors.Wrap(ErrPartialResult, err.Error())
	}

	if sessions, ok := organic[row.Date]; ok {
		row.OrganicSessions = sessions
	} else {
		row.OrganicSessions = "0"
	}

	return row, nil
}

// FetchMetricsRange usa uma única consulta dimensionada por dia para o
// intervalo, mais a consulta de canal orgânico correspondente, mescladas por
// data. O intervalo mantém o mesmo conjunto canônico de campos do caminho
// diário, inclusive sessões orgânicas.
func (s *Service) FetchMetricsRange(propertyID string, startDate, endDate time.Time) ([]*ga4domain.MetricsRow, error) {
	start := startDate.Format(time.DateOnly)
	end := endDate.Format(time.DateOnly)

	report := &ga4domain.RunReportRequest{
		DateRanges: []ga4domain.DateRange{{StartDate: start, EndDate: end}},
		Dimensions: []ga4domain.Dimension{{Name: "date"}},
		Metrics:    reportMetrics,
		OrderBys: []ga4domain.OrderBy{
			{Dimension: &ga4domain.DimensionOrderBy{DimensionName: "date"}},
		},
	}

	resp, err := s.client.RunReport(propertyID, report)
	if err != nil {
		return nil, errors.Wrapf(err, "erro ao obter métricas do período %s a %s", start, end)
	}

	rows := make([]*ga4domain.MetricsRow, 0, len(resp.Rows))
	for _, respRow := range resp.Rows {
		if len(respRow.DimensionValues) == 0 {
			continue
		}

		row := &ga4domain.MetricsRow{Date: respRow.DimensionValues[0].Value}
		fillMetrics(row, respRow.MetricValues)
		rows = append(rows, row)
	}

	organic, err := s.fetchOrganicSessions(propertyID, start, end)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"property_id": propertyID,
			"start_date":  start,
			"end_date":    end,
			"error":       err.Error(),
		}).Warn("Erro na consulta de sessões orgânicas do período. Resultado será parcial")
		return rows, errors.Wrap(ErrPartialResult, err.Error())
	}

	for _, row := range rows {
		if sessions, ok := organic[row.Date]; ok {
			row.OrganicSessions = sessions
		} else {
			row.OrganicSessions = "0"
		}
	}

	return rows, nil
}

// ValidatePropertyAccess usa a consulta de metadados como sonda. Acesso
// negado retorna false sem erro; qualquer outra falha é propagada.
func (s *Service) ValidatePropertyAccess(propertyID string) (bool, error) {
	err := s.client.GetMetadata(propertyID)
	if err == nil {
		return true, nil
	}

	if apiErr, ok := ga4domain.AsAPIError(err); ok && apiErr.IsPermissionDenied() {
		logrus.WithField("property_id", propertyID).Info("Credencial sem acesso de leitura à propriedade")
		return false, nil
	}

	return false, errors.Wrapf(err, "erro ao validar acesso à propriedade %s", propertyID)
}

// fetchOrganicSessions retorna as sessões do canal orgânico por data compacta
func (s *Service) fetchOrganicSessions(propertyID, startDate, endDate string) (map[string]string, error) {
	report := &ga4domain.RunReportRequest{
		DateRanges: []ga4domain.DateRange{{StartDate: startDate, EndDate: endDate}},
		Dimensions: []ga4domain.Dimension{{Name: "date"}},
		Metrics:    []ga4domain.Metric{{Name: "sessions"}},
		DimensionFilter: &ga4domain.FilterExpression{
			Filter: &ga4domain.Filter{
				FieldName: "sessionDefaultChannelGroup",
				StringFilter: &ga4domain.StringFilter{
					MatchType: "EXACT",
					Value:     organicChannelName,
				},
			},
		},
	}

	resp, err := s.client.RunReport(propertyID, report)
	if err != nil {
		return nil, err
	}

	organic := make(map[string]string, len(resp.Rows))
	for _, row := range resp.Rows {
		if len(row.DimensionValues) == 0 || len(row.MetricValues) == 0 {
			continue
		}
		organic[row.DimensionValues[0].Value] = row.MetricValues[0].Value
	}

	return organic, nil
}

// fillMetrics copia os valores posicionais da resposta para a linha
func fillMetrics(row *ga4domain.MetricsRow, values []ga4domain.Value) {
	fields := []*string{
		&row.Sessions,
		&row.TotalUsers,
		&row.NewUsers,
		&row.Pageviews,
		&row.AvgSessionDuration,
		&row.BounceRate,
	}

	for i, field := range fields {
		if i < len(values) {
			*field = values[i].Value
		}
	}
}
