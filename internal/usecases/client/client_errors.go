package client

import (
	"errors"
	"fmt"
)

// Erros específicos para o contexto de clientes
var (
	// Erros de validação
	ErrNameRequired       = errors.New("client name is required")
	ErrPropertyIDRequired = errors.New("property ID is required")
	ErrClientNotFound     = errors.New("client not found")

	// Erros de acesso à propriedade
	ErrPropertyAccessDenied = errors.New("credential has no access to property")
	ErrPropertyAlreadyTaken = errors.New("property already registered for another client")
	ErrPropertyCheckFailed  = errors.New("error validating property access")

	// Erros de banco de dados
	ErrDatabaseOperation = errors.New("database operation error")
)

// ClientError é um erro com contexto adicional para clientes
type ClientError struct {
	Err        error  // Erro base
	Code       string // Código de erro para API
	PropertyID string // Propriedade envolvida (quando aplicável)
	Details    string // Detalhes adicionais
}

// Error implementa a interface error
func (e *ClientError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

// Unwrap retorna o erro subjacente
func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewClientError cria um novo ClientError
func NewClientError(err error, code string, details string) *ClientError {
	return &ClientError{
		Err:     err,
		Code:    code,
		Details: details,
	}
}

// NewClientErrorWithProperty cria um novo ClientError com a propriedade envolvida
func NewClientErrorWithProperty(err error, code string, propertyID string, details string) *ClientError {
	return &ClientError{
		Err:        err,
		Code:       code,
		PropertyID: propertyID,
		Details:    details,
	}
}
