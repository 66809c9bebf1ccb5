package ga4client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/analytics-dashboard-api/internal/config"
)

// Margem de segurança antes da expiração real do token
const tokenExpiryMargin = time.Minute

// CredentialProvider abstrai a origem do token de acesso usado nas chamadas
// à API do GA4. A variante é escolhida explicitamente por configuração e
// resolvida uma única vez na inicialização, nunca deduzida do ambiente a
// cada chamada.
type CredentialProvider interface {
	// AccessToken retorna um token de acesso válido, renovando-o se necessário
	AccessToken() (string, error)

	// Invalidate descarta o token atual, forçando renovação na próxima chamada
	Invalidate()
}

// NewCredentialProvider resolve a variante de credencial configurada
func NewCredentialProvider(cfg *config.Config) (CredentialProvider, error) {
	switch cfg.Analytics.CredentialsMode {
	case "static":
		return NewStaticTokenProvider(cfg.Analytics.AccessToken), nil
	case "refresh_token":
		return NewRefreshTokenProvider(cfg), nil
	case "metadata":
		return NewMetadataTokenProvider(), nil
	default:
		return nil, fmt.Errorf("modo de credencial GA4 desconhecido: %q", cfg.Analytics.CredentialsMode)
	}
}

// StaticTokenProvider usa um token de acesso fixo fornecido por configuração.
// Útil para desenvolvimento local; não há renovação possível.
type StaticTokenProvider struct {
	token string
}

func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

func (p *StaticTokenProvider) AccessToken() (string, error) {
	if p.token == "" {
		return "", fmt.Errorf("token de acesso estático não configurado")
	}
	return p.token, nil
}

func (p *StaticTokenProvider) Invalidate() {
	// Token estático não é renovável. Este log precisa ser legível para o
	// operador: a credencial expirou e exige reautenticação manual.
	logrus.Error("Token estático do GA4 expirado ou revogado. É necessário gerar um novo token e atualizar a configuração GA4_ACCESS_TOKEN")
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// RefreshTokenProvider obtém tokens de acesso via fluxo OAuth de refresh
// token (RFC 6749), renovando automaticamente antes da expiração.
type RefreshTokenProvider struct {
	cfg        *config.Config
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewRefreshTokenProvider(cfg *config.Config) *RefreshTokenProvider {
	return &RefreshTokenProvider{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Analytics.TimeoutSeconds) * time.Second,
		},
	}
}

func (p *RefreshTokenProvider) AccessToken() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Now().Before(p.expiresAt.Add(-tokenExpiryMargin)) {
		return p.accessToken, nil
	}

	if err := p.refresh(); err != nil {
		return "", err
	}

	return p.accessToken, nil
}

func (p *RefreshTokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expiresAt = time.Time{}
}

// refresh troca o refresh token por um novo token de acesso.
// Deve ser chamado com o mutex adquirido.
func (p *RefreshTokenProvider) refresh() error {
	formData := url.Values{}
	formData.Set("client_id", p.cfg.Analytics.ClientID)
	formData.Set("client_secret", p.cfg.Analytics.ClientSecret)
	formData.Set("refresh_token", p.cfg.Analytics.RefreshToken)
	formData.Set("grant_type", "refresh_token")

	req, err := http.NewRequest(http.MethodPost, p.cfg.Analytics.TokenURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return fmt.Errorf("erro ao criar requisição de renovação de token: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("erro ao renovar token de acesso: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logrus.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Error("Falha na renovação do token do GA4. A credencial pode ter sido revogada e exigir nova autorização")
		return fmt.Errorf("renovação de token falhou com status %d", resp.StatusCode)
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("erro ao decodificar resposta de renovação de token: %w", err)
	}

	p.accessToken = tokenResp.AccessToken
	p.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	logrus.WithField("expires_in", tokenResp.ExpiresIn).Debug("Token de acesso do GA4 renovado com sucesso")
	return nil
}

const metadataTokenURL = "http://metadata.google.internal/computeMetadata/v1/instance/service-accounts/default/token"

// MetadataTokenProvider obtém tokens da identidade ambiente da plataforma
// (metadata server do GCE/Cloud Run). Sem segredos na configuração.
type MetadataTokenProvider struct {
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewMetadataTokenProvider() *MetadataTokenProvider {
	return &MetadataTokenProvider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *MetadataTokenProvider) AccessToken() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Now().Before(p.expiresAt.Add(-tokenExpiryMargin)) {
		return p.accessToken, nil
	}

	req, err := http.NewRequest(http.MethodGet, metadataTokenURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Metadata-Flavor", "Google")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("erro ao consultar o metadata server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata server respondeu com status %d", resp.StatusCode)
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("erro ao decodificar resposta do metadata server: %w", err)
	}

	p.accessToken = tokenResp.AccessToken
	p.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return p.accessToken, nil
}

func (p *MetadataTokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expiresAt = time.Time{}
}
