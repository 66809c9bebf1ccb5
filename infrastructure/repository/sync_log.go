package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/database/postgres"
	"github.com/vfg2006/analytics-dashboard-api/internal/domain"
)

const (
	syncLogsTable = "sync_logs sl"
)

// SyncLogRepository é a trilha de auditoria das sincronizações. A tabela é
// append-only: a interface não expõe atualização nem exclusão de entradas.
type SyncLogRepository interface {
	Append(entry *domain.SyncLogEntry) error
	ListByClient(clientID int, limit uint64) ([]*domain.SyncLogEntry, error)
	ListRecentFailures(limit uint64) ([]*domain.SyncLogEntry, error)
	LastSuccessfulSyncByClient() (map[int]time.Time, error)
}

type syncLogRepository struct {
	conn *postgres.Connection
}

func NewSyncLogRepository(conn *postgres.Connection) SyncLogRepository {
	return &syncLogRepository{
		conn: conn,
	}
}

func (r *syncLogRepository) Append(entry *domain.SyncLogEntry) error {
	query, args, err := squirrel.StatementBuilder.
		Insert("sync_logs").
		Columns("client_id", "sync_date", "status", "records_synced", "error_message", "execution_time_ms").
		Values(
			entry.ClientID,
			entry.SyncDate.Format("2006-01-02"),
			string(entry.Status),
			entry.RecordsSynced,
			entry.ErrorMessage,
			entry.ExecutionTimeMs,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	_, err = r.conn.Exec(query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("erro no banco de dados: %w (código: %s)", pqErr, pqErr.Code)
		}
		return fmt.Errorf("erro ao executar a query: %w", err)
	}

	return nil
}

func (r *syncLogRepository) ListByClient(clientID int, limit uint64) ([]*domain.SyncLogEntry, error) {
	queryBuilder := r.selectBuilder().
		Where(squirrel.Eq{"sl.client_id": clientID}).
		OrderBy("sl.created_at DESC")

	if limit > 0 {
		queryBuilder = queryBuilder.Limit(limit)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	return r.queryEntries(query, args...)
}

func (r *syncLogRepository) ListRecentFailures(limit uint64) ([]*domain.SyncLogEntry, error) {
	queryBuilder := r.selectBuilder().
		Where(squirrel.Eq{"sl.status": []string{
			string(domain.SyncStatusFailed),
			string(domain.SyncStatusPartial),
		}}).
		OrderBy("sl.created_at DESC")

	if limit > 0 {
		queryBuilder = queryBuilder.Limit(limit)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	return r.queryEntries(query, args...)
}

// LastSuccessfulSyncByClient retorna, por cliente, o instante da última
// sincronização bem-sucedida. Usado pelo monitoramento para detectar
// clientes com dados velhos.
func (r *syncLogRepository) LastSuccessfulSyncByClient() (map[int]time.Time, error) {
	query, args, err := squirrel.
		Select("sl.client_id", "MAX(sl.created_at)").
		From(syncLogsTable).
		Where(squirrel.Eq{"sl.status": string(domain.SyncStatusSuccess)}).
		Where(squirrel.NotEq{"sl.client_id": nil}).
		GroupBy("sl.client_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return make(map[int]time.Time), nil
		}
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	lastSyncs := make(map[int]time.Time)
	for rows.Next() {
		var clientID int
		var lastSync time.Time
		if err := rows.Scan(&clientID, &lastSync); err != nil {
			return nil, fmt.Errorf("erro ao escanear última sincronização: %w", err)
		}
		lastSyncs[clientID] = lastSync
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return lastSyncs, nil
}

func (r *syncLogRepository) queryEntries(query string, args ...interface{}) ([]*domain.SyncLogEntry, error) {
	rows, err := r.conn.Query(query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.SyncLogEntry, 0)
	for rows.Next() {
		entry := &domain.SyncLogEntry{}
		var status string

		err := rows.Scan(
			&entry.ID,
			&entry.ClientID,
			&entry.SyncDate,
			&status,
			&entry.RecordsSynced,
			&entry.ErrorMessage,
			&entry.ExecutionTimeMs,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear entrada de sincronização: %w", err)
		}

		entry.Status = domain.SyncStatus(status)
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return entries, nil
}

func (r *syncLogRepository) selectBuilder() squirrel.SelectBuilder {
	return squirrel.
		Select("sl.id, sl.client_id, sl.sync_date, sl.status, sl.records_synced, sl.error_message, sl.execution_time_ms, sl.created_at").
		From(syncLogsTable).
		PlaceholderFormat(squirrel.Dollar)
}
