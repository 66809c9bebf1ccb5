package ga4client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	ga4domain "github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/domain"
	"github.com/vfg2006/analytics-dashboard-api/internal/config"
)

type Client interface {
	RunReport(propertyID string, report *ga4domain.RunReportRequest) (*ga4domain.RunReportResponse, error)
	GetMetadata(propertyID string) error
}

type GA4Client struct {
	Cfg         *config.Config
	Credentials CredentialProvider
	httpClient  *http.Client
}

func NewClient(cfg *config.Config, credentials CredentialProvider) Client {
	return &GA4Client{
		Cfg:         cfg,
		Credentials: credentials,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Analytics.TimeoutSeconds) * time.Second,
		},
	}
}

// RunReport executa o método runReport para uma propriedade. Se a credencial
// tiver expirado, invalida o token e repete a chamada uma única vez.
func (c *GA4Client) RunReport(propertyID string, report *ga4domain.RunReportRequest) (*ga4domain.RunReportResponse, error) {
	resp, err := c.runReportOnce(propertyID, report)
	if err != nil {
		if apiErr, ok := ga4domain.AsAPIError(err); ok && apiErr.IsCredentialExpired() {
			logrus.Warn("Credencial do GA4 expirada. Invalidando token e repetindo a chamada")
			c.Credentials.Invalidate()
			return c.runReportOnce(propertyID, report)
		}
		return nil, err
	}

	return resp, nil
}

func (c *GA4Client) runReportOnce(propertyID string, report *ga4domain.RunReportRequest) (*ga4domain.RunReportResponse, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("erro ao serializar requisição runReport: %w", err)
	}

	url := fmt.Sprintf("%s/properties/%s:runReport", c.Cfg.Analytics.BaseURL, propertyID)

	data, err := c.doRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var response ga4domain.RunReportResponse
	if err := json.Unmarshal(data, &response); err != nil {
		logrus.WithError(err).Error("Erro ao decodificar resposta do runReport")
		return nil, err
	}

	return &response, nil
}

// GetMetadata faz uma consulta leve de metadados da propriedade. Serve como
// sonda de acesso: a chamada só funciona se a credencial tiver ao menos
// papel de leitor na propriedade.
func (c *GA4Client) GetMetadata(propertyID string) error {
	url := fmt.Sprintf("%s/properties/%s/metadata", c.Cfg.Analytics.BaseURL, propertyID)

	_, err := c.doRequest(http.MethodGet, url, nil)
	return err
}

func (c *GA4Client) doRequest(method, url string, body io.Reader) ([]byte, error) {
	token, err := c.Credentials.AccessToken()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter token de acesso: %w", err)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		logrus.WithError(err).Error("Erro ao criar a requisição")
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).Error("Erro ao fazer a requisição")
		return nil, err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp)
}

// handleResponse lê o corpo e converte respostas de erro da API em APIError
func (c *GA4Client) handleResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		return data, nil
	}

	apiErr := &ga4domain.APIError{
		HTTPStatus: resp.StatusCode,
		Message:    string(data),
	}

	var errResp ga4domain.ErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Status != "" {
		apiErr.Status = errResp.Error.Status
		apiErr.Message = errResp.Error.Message
	}

	if apiErr.IsCredentialExpired() {
		// Mensagem acionável para o operador: não é uma falha genérica
		logrus.WithField("status", apiErr.Status).Error("Credencial do GA4 expirada ou revogada. É necessária reautenticação fora do processo")
	}

	return nil, apiErr
}
