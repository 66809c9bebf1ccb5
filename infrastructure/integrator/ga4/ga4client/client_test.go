package ga4client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ga4domain "github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/domain"
	"github.com/vfg2006/analytics-dashboard-api/internal/config"
)

// fakeCredentials entrega tokens em sequência e registra invalidações
type fakeCredentials struct {
	tokens      []string
	calls       int
	invalidated int
}

func (f *fakeCredentials) AccessToken() (string, error) {
	token := f.tokens[f.calls%len(f.tokens)]
	f.calls++
	return token, nil
}

func (f *fakeCredentials) Invalidate() {
	f.invalidated++
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Analytics: config.Analytics{
			BaseURL:        baseURL,
			TimeoutSeconds: 5,
		},
	}
}

func TestRunReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/properties/123456:runReport", r.URL.Path)
		assert.Equal(t, "Bearer token-valido", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rows":[{"metricValues":[{"value":"120"}]}],"rowCount":1}`))
	}))
	defer server.Close()

	credentials := &fakeCredentials{tokens: []string{"token-valido"}}
	client := NewClient(testConfig(server.URL), credentials)

	resp, err := client.RunReport("123456", &ga4domain.RunReportRequest{
		DateRanges: []ga4domain.DateRange{{StartDate: "2024-01-15", EndDate: "2024-01-15"}},
		Metrics:    []ga4domain.Metric{{Name: "sessions"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "120", resp.Rows[0].MetricValues[0].Value)
}

func TestRunReport_CredencialExpiradaRenovaUmaVez(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if r.Header.Get("Authorization") == "Bearer token-expirado" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":401,"message":"Request had invalid authentication credentials","status":"UNAUTHENTICATED"}}`))
			return
		}

		w.Write([]byte(`{"rows":[],"rowCount":0}`))
	}))
	defer server.Close()

	credentials := &fakeCredentials{tokens: []string{"token-expirado", "token-renovado"}}
	client := NewClient(testConfig(server.URL), credentials)

	resp, err := client.RunReport("123456", &ga4domain.RunReportRequest{
		DateRanges: []ga4domain.DateRange{{StartDate: "2024-01-15", EndDate: "2024-01-15"}},
		Metrics:    []ga4domain.Metric{{Name: "sessions"}},
	})
	require.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, credentials.invalidated)
}

func TestRunReport_ClassificacaoDeErros(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		check      func(t *testing.T, apiErr *ga4domain.APIError)
	}{
		{
			name:       "acesso negado",
			statusCode: http.StatusForbidden,
			body:       `{"error":{"code":403,"message":"User does not have sufficient permissions","status":"PERMISSION_DENIED"}}`,
			check: func(t *testing.T, apiErr *ga4domain.APIError) {
				assert.True(t, apiErr.IsPermissionDenied())
				assert.False(t, apiErr.Retryable())
			},
		},
		{
			name:       "argumento inválido",
			statusCode: http.StatusBadRequest,
			body:       `{"error":{"code":400,"message":"Invalid property ID","status":"INVALID_ARGUMENT"}}`,
			check: func(t *testing.T, apiErr *ga4domain.APIError) {
				assert.True(t, apiErr.IsInvalidArgument())
				assert.False(t, apiErr.Retryable())
			},
		},
		{
			name:       "cota excedida é retryable",
			statusCode: http.StatusTooManyRequests,
			body:       `{"error":{"code":429,"message":"Exhausted property tokens","status":"RESOURCE_EXHAUSTED"}}`,
			check: func(t *testing.T, apiErr *ga4domain.APIError) {
				assert.True(t, apiErr.IsQuotaExhausted())
				assert.True(t, apiErr.Retryable())
			},
		},
		{
			name:       "erro interno do provedor é retryable",
			statusCode: http.StatusInternalServerError,
			body:       `{"error":{"code":500,"message":"Internal error","status":"INTERNAL"}}`,
			check: func(t *testing.T, apiErr *ga4domain.APIError) {
				assert.True(t, apiErr.Retryable())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			credentials := &fakeCredentials{tokens: []string{"token-valido"}}
			client := NewClient(testConfig(server.URL), credentials)

			_, err := client.RunReport("123456", &ga4domain.RunReportRequest{
				DateRanges: []ga4domain.DateRange{{StartDate: "2024-01-15", EndDate: "2024-01-15"}},
				Metrics:    []ga4domain.Metric{{Name: "sessions"}},
			})
			require.Error(t, err)

			apiErr, ok := ga4domain.AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.statusCode, apiErr.HTTPStatus)
			tt.check(t, apiErr)
		})
	}
}

func TestGetMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/properties/123456/metadata", r.URL.Path)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	credentials := &fakeCredentials{tokens: []string{"token-valido"}}
	client := NewClient(testConfig(server.URL), credentials)

	err := client.GetMetadata("123456")
	assert.NoError(t, err)
}
