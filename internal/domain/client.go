package domain

import "time"

// Client representa uma propriedade GA4 de um cliente acompanhada pelo dashboard.
// PropertyID é o identificador externo da propriedade no Google Analytics e é
// único entre todos os clientes. Active é um marcador de soft delete: clientes
// inativos são excluídos do roster de sincronização, mas mantêm seu histórico.
type Client struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	PropertyID string    `json:"property_id"`
	Timezone   string    `json:"timezone"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateClientRequest struct {
	Name       string `json:"name"`
	PropertyID string `json:"property_id"`
	Timezone   string `json:"timezone"`
}

type UpdateClientRequest struct {
	ID       int     `json:"id"`
	Name     *string `json:"name"`
	Timezone *string `json:"timezone"`
	Active   *bool   `json:"active"`
}
