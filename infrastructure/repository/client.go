package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/database/postgres"
	"github.com/vfg2006/analytics-dashboard-api/internal/domain"
)

const (
	clientsTable = "clients c"
)

// Código de violação de unicidade do PostgreSQL
const pqUniqueViolation = "23505"

// ErrPropertyAlreadyRegistered indica que a propriedade GA4 já pertence a
// outro cliente (property_id é único entre todos os clientes)
var ErrPropertyAlreadyRegistered = errors.New("propriedade já cadastrada para outro cliente")

type ClientRepository interface {
	GetByID(clientID int) (*domain.Client, error)
	GetByPropertyID(propertyID string) (*domain.Client, error)
	ListClients(onlyActive bool) ([]*domain.Client, error)
	ListActiveClients() ([]*domain.Client, error)
	Create(client *domain.Client) (*domain.Client, error)
	Update(client *domain.UpdateClientRequest) error
	Deactivate(clientID int) error
	Delete(clientID int) error
}

type clientRepository struct {
	conn *postgres.Connection
}

func NewClientRepository(conn *postgres.Connection) ClientRepository {
	return &clientRepository{
		conn: conn,
	}
}

func (r *clientRepository) GetByID(clientID int) (*domain.Client, error) {
	return r.getClient(squirrel.Eq{"c.id": clientID})
}

func (r *clientRepository) GetByPropertyID(propertyID string) (*domain.Client, error) {
	return r.getClient(squirrel.Eq{"c.property_id": propertyID})
}

func (r *clientRepository) getClient(whereClause map[string]interface{}) (*domain.Client, error) {
	query, args, err := squirrel.
		Select("c.id, c.name, c.property_id, c.timezone, c.active, c.created_at, c.updated_at").
		From(clientsTable).
		Where(whereClause).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	row := r.conn.QueryRow(query, args...)

	client, err := r.deserializeClient(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return client, nil
}

// ListActiveClients retorna o roster de sincronização: apenas clientes
// ativos, ordenados por nome. A ordem do roster define a ordem de
// processamento do lote.
func (r *clientRepository) ListActiveClients() ([]*domain.Client, error) {
	return r.ListClients(true)
}

func (r *clientRepository) ListClients(onlyActive bool) ([]*domain.Client, error) {
	queryBuilder := squirrel.
		Select("c.id, c.name, c.property_id, c.timezone, c.active, c.created_at, c.updated_at").
		From(clientsTable).
		OrderBy("c.name ASC").
		PlaceholderFormat(squirrel.Dollar)

	if onlyActive {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"c.active": true})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	clients := make([]*domain.Client, 0)
	for rows.Next() {
		client := &domain.Client{}
		err := rows.Scan(
			&client.ID,
			&client.Name,
			&client.PropertyID,
			&client.Timezone,
			&client.Active,
			&client.CreatedAt,
			&client.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao deserializar o cliente: %w", err)
		}

		clients = append(clients, client)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return clients, nil
}

func (r *clientRepository) Create(client *domain.Client) (*domain.Client, error) {
	query, args, err := squirrel.StatementBuilder.
		Insert("clients").
		Columns("name", "property_id", "timezone", "active").
		Values(client.Name, client.PropertyID, client.Timezone, true).
		Suffix("RETURNING id, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	err = r.conn.QueryRow(query, args...).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == pqUniqueViolation {
				return nil, ErrPropertyAlreadyRegistered
			}
			return nil, fmt.Errorf("erro no banco de dados: %w (código: %s)", pqErr, pqErr.Code)
		}
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}

	client.Active = true
	return client, nil
}

func (r *clientRepository) Update(client *domain.UpdateClientRequest) error {
	if client.ID == 0 {
		return errors.New("ID is required")
	}

	queryBuilder := squirrel.
		Update("clients").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": client.ID}).
		PlaceholderFormat(squirrel.Dollar)

	if client.Name != nil {
		queryBuilder = queryBuilder.Set("name", *client.Name)
	}

	if client.Timezone != nil {
		queryBuilder = queryBuilder.Set("timezone", *client.Timezone)
	}

	if client.Active != nil {
		queryBuilder = queryBuilder.Set("active", *client.Active)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	result, err := r.conn.Exec(query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("erro no banco de dados: %w (código: %s)", pqErr, pqErr.Code)
		}
		return fmt.Errorf("erro ao executar a query: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("erro ao obter número de linhas afetadas: %w", err)
	}

	if rowsAffected == 0 {
		return errors.New("cliente não encontrado")
	}

	return nil
}

// Deactivate marca o cliente como inativo (soft delete). O histórico de
// métricas e de sincronizações é preservado.
func (r *clientRepository) Deactivate(clientID int) error {
	active := false
	return r.Update(&domain.UpdateClientRequest{ID: clientID, Active: &active})
}

// Delete remove o cliente permanentemente. As métricas diárias são removidas
// em cascata; os registros de sincronização têm a referência anulada
// (ON DELETE SET NULL), preservando a trilha de auditoria.
func (r *clientRepository) Delete(clientID int) error {
	query, args, err := squirrel.
		Delete("clients").
		Where(squirrel.Eq{"id": clientID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	result, err := r.conn.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("erro ao executar a query: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("erro ao obter número de linhas afetadas: %w", err)
	}

	if rowsAffected == 0 {
		return errors.New("cliente não encontrado")
	}

	return nil
}

func (r *clientRepository) deserializeClient(row *sql.Row) (*domain.Client, error) {
	client := &domain.Client{}

	if err := row.Scan(
		&client.ID,
		&client.Name,
		&client.PropertyID,
		&client.Timezone,
		&client.Active,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return client, nil
}
