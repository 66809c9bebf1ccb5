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
	dailyMetricsTable = "daily_metrics dm"
)

type DailyMetricRepository interface {
	Upsert(record *domain.DailyMetricRecord) error
	GetByClientIDAndDate(clientID int, date time.Time) (*domain.DailyMetricRecord, error)
	GetByDateRange(clientID int, startDate, endDate time.Time) ([]*domain.DailyMetricRecord, error)
	Aggregate(clientID int, startDate, endDate time.Time) (*domain.MetricsSummary, error)
}

type dailyMetricRepository struct {
	conn *postgres.Connection
}

func NewDailyMetricRepository(conn *postgres.Connection) DailyMetricRepository {
	return &dailyMetricRepository{
		conn: conn,
	}
}

// Upsert insere o registro ou, se já existir uma linha para
// (client_id, date), sobrescreve todos os campos de métrica e atualiza
// synced_at. A atomicidade vem da constraint de unicidade mais o
// ON CONFLICT: upserts concorrentes para a mesma chave nunca produzem
// linha duplicada nem atualização perdida.
func (r *dailyMetricRepository) Upsert(record *domain.DailyMetricRecord) error {
	query := squirrel.StatementBuilder.
		Insert("daily_metrics").
		Columns(
			"client_id", "date", "sessions", "total_users", "new_users",
			"pageviews", "avg_session_duration", "bounce_rate", "organic_sessions", "synced_at",
		).
		Values(
			record.ClientID,
			record.Date.Format("2006-01-02"),
			record.Sessions,
			record.TotalUsers,
			record.NewUsers,
			record.Pageviews,
			record.AvgSessionDuration,
			record.BounceRate,
			record.OrganicSessions,
			record.SyncedAt,
		).
		Suffix(`
			ON CONFLICT (client_id, date) DO UPDATE SET
				sessions = EXCLUDED.sessions,
				total_users = EXCLUDED.total_users,
				new_users = EXCLUDED.new_users,
				pageviews = EXCLUDED.pageviews,
				avg_session_duration = EXCLUDED.avg_session_duration,
				bounce_rate = EXCLUDED.bounce_rate,
				organic_sessions = EXCLUDED.organic_sessions,
				synced_at = EXCLUDED.synced_at
		`).
		PlaceholderFormat(squirrel.Dollar)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	_, err = r.conn.Exec(sqlQuery, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("erro no banco de dados: %w (código: %s)", pqErr, pqErr.Code)
		}
		return fmt.Errorf("erro ao executar a query: %w", err)
	}

	return nil
}

func (r *dailyMetricRepository) GetByClientIDAndDate(clientID int, date time.Time) (*domain.DailyMetricRecord, error) {
	query, args, err := r.selectBuilder().
		Where(squirrel.Eq{"dm.client_id": clientID, "dm.date": date.Format("2006-01-02")}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	row := r.conn.QueryRow(query, args...)

	record := &domain.DailyMetricRecord{}
	err = row.Scan(
		&record.ID,
		&record.ClientID,
		&record.Date,
		&record.Sessions,
		&record.TotalUsers,
		&record.NewUsers,
		&record.Pageviews,
		&record.AvgSessionDuration,
		&record.BounceRate,
		&record.OrganicSessions,
		&record.SyncedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao escanear métrica diária: %w", err)
	}

	return record, nil
}

func (r *dailyMetricRepository) GetByDateRange(clientID int, startDate, endDate time.Time) ([]*domain.DailyMetricRecord, error) {
	query, args, err := r.selectBuilder().
		Where(squirrel.Eq{"dm.client_id": clientID}).
		Where(squirrel.GtOrEq{"dm.date": startDate.Format("2006-01-02")}).
		Where(squirrel.LtOrEq{"dm.date": endDate.Format("2006-01-02")}).
		OrderBy("dm.date ASC").
		ToSql()
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

	records := make([]*domain.DailyMetricRecord, 0)
	for rows.Next() {
		record := &domain.DailyMetricRecord{}
		err := rows.Scan(
			&record.ID,
			&record.ClientID,
			&record.Date,
			&record.Sessions,
			&record.TotalUsers,
			&record.NewUsers,
			&record.Pageviews,
			&record.AvgSessionDuration,
			&record.BounceRate,
			&record.OrganicSessions,
			&record.SyncedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear métricas diárias: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return records, nil
}

// Aggregate soma e tira médias das métricas do período. Um período sem
// linhas retorna um resumo zerado, não um erro: os agregados usam COALESCE.
func (r *dailyMetricRepository) Aggregate(clientID int, startDate, endDate time.Time) (*domain.MetricsSummary, error) {
	query, args, err := squirrel.
		Select(
			"COUNT(*)",
			"COALESCE(SUM(dm.sessions), 0)",
			"COALESCE(SUM(dm.total_users), 0)",
			"COALESCE(SUM(dm.new_users), 0)",
			"COALESCE(SUM(dm.pageviews), 0)",
			"COALESCE(SUM(dm.organic_sessions), 0)",
			"COALESCE(AVG(dm.avg_session_duration), 0)",
			"COALESCE(AVG(dm.bounce_rate), 0)",
		).
		From(dailyMetricsTable).
		Where(squirrel.Eq{"dm.client_id": clientID}).
		Where(squirrel.GtOrEq{"dm.date": startDate.Format("2006-01-02")}).
		Where(squirrel.LtOrEq{"dm.date": endDate.Format("2006-01-02")}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	summary := &domain.MetricsSummary{
		ClientID:  clientID,
		StartDate: startDate,
		EndDate:   endDate,
	}

	err = r.conn.QueryRow(query, args...).Scan(
		&summary.Days,
		&summary.TotalSessions,
		&summary.TotalUsers,
		&summary.TotalNewUsers,
		&summary.TotalPageviews,
		&summary.TotalOrganicSessions,
		&summary.AvgSessionDuration,
		&summary.AvgBounceRate,
	)
	if err != nil {
		return nil, fmt.Errorf("erro ao escanear resumo de métricas: %w", err)
	}

	return summary, nil
}

func (r *dailyMetricRepository) selectBuilder() squirrel.SelectBuilder {
	return squirrel.
		Select(
			"dm.id, dm.client_id, dm.date, dm.sessions, dm.total_users, dm.new_users",
			"dm.pageviews, dm.avg_session_duration, dm.bounce_rate, dm.organic_sessions, dm.synced_at",
		).
		From(dailyMetricsTable).
		PlaceholderFormat(squirrel.Dollar)
}
