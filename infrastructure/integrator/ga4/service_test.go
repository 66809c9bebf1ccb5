package ga4

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ga4domain "github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/domain"
	"github.com/vfg2006/analytics-dashboard-api/internal/config"
)

// stubClient implementa ga4client.Client com comportamento programável por teste
type stubClient struct {
	runReport   func(propertyID string, report *ga4domain.RunReportRequest) (*ga4domain.RunReportResponse, error)
	getMetadata func(propertyID string) error
}

func (s *stubClient) RunReport(propertyID string, report *ga4domain.RunReportRequest) (*ga4domain.RunReportResponse, error) {
	return s.runReport(propertyID, report)
}

func (s *stubClient) GetMetadata(propertyID string) error {
	if s.getMetadata != nil {
		return s.getMetadata(propertyID)
	}
	return nil
}

// isOrganicReport identifica a consulta filtrada ao canal orgânico
func isOrganicReport(report *ga4domain.RunReportRequest) bool {
	return report.DimensionFilter != nil
}

func metricValues(values ...string) []ga4domain.Value {
	out := make([]ga4domain.Value, 0, len(values))
	for _, v := range values {
		out = append(out, ga4domain.Value{Value: v})
	}
	return out
}

func TestFetchDailyMetrics(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	client := &stubClient{
		runReport: func(propertyID string, report *ga4domain.RunReportRequest) (*ga4domain.RunReportResponse, error) {
			assert.Equal(t, "123456", propertyID)
			require.Len(t, report.DateRanges, 1)
			assert.Equal(t, "2024-01-15", report.DateRanges[0].StartDate)
			assert.Equal(t, "2024-01-15", report.DateRanges[0].EndDate)

			if isOrganicReport(report) {
				assert.Equal(t, "sessionDefaultChannelGroup", report.DimensionFilter.Filter.FieldName)
				assert.Equal(t, "Organic Search", report.DimensionFilter.Filter.StringFilter.Value)
				return &ga4domain.RunReportResponse{
					Rows: []ga4domain.Row{
						{
							DimensionValues: []ga4domain.Value{{Value: "20240115"}},
							MetricValues:    metricValues("45"),
						},
					},
				}, nil
			}

			return &ga4domain.RunReportResponse{
				Rows: []ga4domain.Row{
					{MetricValues: metricValues("120", "80", "30", "400", "95.5", "0.38")},
				},
			}, nil
		},
	}

	service := New(&config.Config{}, client)

	row, err := service.FetchDailyMetrics("123456", date)
	require.NoError(t, err)
	require.NotNil(t, row)

	assert.Equal(t, "20240115", row.Date)
	assert.Equal(t, "120", row.Sessions)
	assert.Equal(t, "80", row.TotalUsers)
	assert.Equal(t, "30", row.NewUsers)
	assert.Equal(t, "400", row.Pageviews)
	assert.Equal(t, "95.5", row.AvgSessionDuration)
	assert.Equal(t, "0.38", row.BounceRate)
	assert.Equal(t, "45", row.OrganicSessions)
}

func TestFetchDailyMetrics_DiaSemTrafego(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	// Resposta sem linhas não é erro: o dia simplesmente não teve tráfego
	client := &stubClient{
		runReport: func(propertyID string, report *ga4domain.RunReportRequest) (*ga4domain.RunReportResponse, error) {
			return &ga4domain.RunReportResponse{}, nil
		},
	}

	service := New(&config.Config{}, client)

	row, err := service.FetchDailyMetrics("123456", date)
	require.NoError(t, err)
	require.NotNil(t, row)

	assert.Equal(t, "20240115", row.Date)
	assert.Empty(t, row.Sessions)
	assert.Equal(t, "0", row.OrganicSessions)
}

func TestFetchDailyMetrics_ResultadoParcial(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	client := &stubClient{
		runReport: func(propertyID string, report *ga4domain.RunReportRequest) (*ga4domain.RunReportResponse, error) {
			if isOrganicReport(report) {
				return nil, &ga4domain.APIError{
					HTTPStatus: http.StatusTooManyRequests,
					Status:     "RESOURCE_EXHAUSTED",
					Message:    "quota excedida",
				}
			}

			return &ga4domain.RunReportResponse{
				Rows: []ga4domain.Row{
					{MetricValues: metricValues("120", "80", "30", "400", "95.5", "0.38")},
				},
			}, nil
		},
	}

	service := New(&config.Config{}, client)

	row, err := service.FetchDailyMetrics("123456", date)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPartialResult))

	// As métricas principais sobrevivem à falha da consulta secundária
	require.NotNil(t, row)
	assert.Equal(t, "120", row.Sessions)
	assert.Empty(t, row.OrganicSessions)
}

func TestFetchDailyMetrics_ErroNaConsultaPrincipal(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	client := &stubClient{
		runReport: func(propertyID string, report *ga4domain.RunReportRequest) (*ga4domain.RunReportResponse, error) {
			return nil, fmt.Errorf("conexão recusada")
		},
	}

	service := New(&config.Config{}, client)

	row, err := service.FetchDailyMetrics("123456", date)
	assert.Error(t, err)
	assert.Nil(t, row)
	assert.False(t, errors.Is(err, ErrPartialResult))
}

func TestFetchMetricsRange(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	stub := &stubClient{
		runReport: func(propertyID string, report *ga4domain.RunReportRequest) (*ga4domain.RunReportResponse, error) {
			require.Len(t, report.DateRanges, 1)
			assert.Equal(t, "2024-01-15", report.DateRanges[0].StartDate)
			assert.Equal(t, "2024-01-16", report.DateRanges[0].EndDate)

			if isOrganicReport(report) {
				// Apenas o primeiro dia tem sessões orgânicas
				return &ga4domain.RunReportResponse{
					Rows: []ga4domain.Row{
						{
							DimensionValues: []ga4domain.Value{{Value: "20240115"}},
							MetricValues:    metricValues("45"),
						},
					},
				}, nil
			}

			return &ga4domain.RunReportResponse{
				Rows: []ga4domain.Row{
					{
						DimensionValues: []ga4domain.Value{{Value: "20240115"}},
						MetricValues:    metricValues("120", "80", "30", "400", "95.5", "0.38"),
					},
					{
						DimensionValues: []ga4domain.Value{{Value: "20240116"}},
						MetricValues:    metricValues("90", "60", "20", "280", "80.2", "0.41"),
					},
				},
			}, nil
		},
	}

	service := New(&config.Config{}, stub)

	rows, err := service.FetchMetricsRange("123456", start, end)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "20240115", rows[0].Date)
	assert.Equal(t, "120", rows[0].Sessions)
	assert.Equal(t, "45", rows[0].OrganicSessions)

	assert.Equal(t, "20240116", rows[1].Date)
	assert.Equal(t, "90", rows[1].Sessions)
	assert.Equal(t, "0", rows[1].OrganicSessions)
}

func TestFetchMetricsRange_ResultadoParcial(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	stub := &stubClient{
		runReport: func(propertyID string, report *ga4domain.RunReportRequest) (*ga4domain.RunReportResponse, error) {
			if isOrganicReport(report) {
				return nil, fmt.Errorf("timeout na consulta")
			}

			return &ga4domain.RunReportResponse{
				Rows: []ga4domain.Row{
					{
						DimensionValues: []ga4domain.Value{{Value: "20240115"}},
						MetricValues:    metricValues("120", "80", "30", "400", "95.5", "0.38"),
					},
				},
			}, nil
		},
	}

	service := New(&config.Config{}, stub)

	rows, err := service.FetchMetricsRange("123456", start, end)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPartialResult))
	require.Len(t, rows, 1)
	assert.Equal(t, "120", rows[0].Sessions)
}

func TestValidatePropertyAccess(t *testing.T) {
	tests := []struct {
		name        string
		metadataErr error
		expectValid bool
		expectErr   bool
	}{
		{
			name:        "acesso concedido",
			metadataErr: nil,
			expectValid: true,
		},
		{
			name: "acesso negado não é erro",
			metadataErr: &ga4domain.APIError{
				HTTPStatus: http.StatusForbidden,
				Status:     "PERMISSION_DENIED",
				Message:    "sem acesso à propriedade",
			},
			expectValid: false,
		},
		{
			name:        "falha de rede é propagada",
			metadataErr: fmt.Errorf("conexão recusada"),
			expectValid: false,
			expectErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{
				runReport: func(propertyID string, report *ga4domain.RunReportRequest) (*ga4domain.RunReportResponse, error) {
					t.Fatal("RunReport não deveria ser chamado")
					return nil, nil
				},
				getMetadata: func(propertyID string) error {
					return tt.metadataErr
				},
			}

			service := New(&config.Config{}, client)

			valid, err := service.ValidatePropertyAccess("123456")
			assert.Equal(t, tt.expectValid, valid)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
