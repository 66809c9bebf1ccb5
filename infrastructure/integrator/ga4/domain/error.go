package ga4domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse representa a estrutura de erro retornada pela API do GA4
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails contém os detalhes de erro da API do GA4
type ErrorDetails struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// APIError classifica uma resposta de erro da API do GA4. A taxonomia segue
// os status canônicos do Google: PERMISSION_DENIED (credencial sem acesso à
// propriedade, não-retryable), INVALID_ARGUMENT (propriedade ou data
// malformada, bug do chamador), RESOURCE_EXHAUSTED (cota estourada,
// retryable) e UNAUTHENTICATED (credencial expirada, exige reautenticação
// fora do processo).
type APIError struct {
	HTTPStatus int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("erro da API do GA4 (%d %s): %s", e.HTTPStatus, e.Status, e.Message)
}

// IsPermissionDenied verifica se a credencial não tem acesso à propriedade
func (e *APIError) IsPermissionDenied() bool {
	return e.HTTPStatus == http.StatusForbidden || e.Status == "PERMISSION_DENIED"
}

// IsInvalidArgument verifica se a requisição foi rejeitada por argumento inválido
func (e *APIError) IsInvalidArgument() bool {
	return e.HTTPStatus == http.StatusBadRequest || e.Status == "INVALID_ARGUMENT"
}

// IsQuotaExhausted verifica se a cota da API foi atingida
func (e *APIError) IsQuotaExhausted() bool {
	return e.HTTPStatus == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}

// IsCredentialExpired verifica se a credencial expirou e precisa ser renovada
func (e *APIError) IsCredentialExpired() bool {
	return e.HTTPStatus == http.StatusUnauthorized || e.Status == "UNAUTHENTICATED"
}

// Retryable indica se vale a pena repetir a chamada mais tarde
func (e *APIError) Retryable() bool {
	return e.IsQuotaExhausted() || e.HTTPStatus >= http.StatusInternalServerError
}

// AsAPIError extrai um *APIError de uma cadeia de erros, se houver
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
