package domain

import "time"

// DailyMetricRecord é o registro canônico de métricas de um cliente em um dia.
// Existe exatamente um registro por (client_id, date); o par é protegido por
// constraint de unicidade no banco e toda escrita passa pelo upsert.
// BounceRate é armazenado como percentual (0–100), nunca como fração.
type DailyMetricRecord struct {
	ID                 int       `json:"id"`
	ClientID           int       `json:"client_id"`
	Date               time.Time `json:"date"`
	Sessions           int64     `json:"sessions"`
	TotalUsers         int64     `json:"total_users"`
	NewUsers           int64     `json:"new_users"`
	Pageviews          int64     `json:"pageviews"`
	AvgSessionDuration float64   `json:"avg_session_duration"`
	BounceRate         float64   `json:"bounce_rate"`
	OrganicSessions    int64     `json:"organic_sessions"`
	SyncedAt           time.Time `json:"synced_at"`
}

// MetricsSummary agrega as métricas de um cliente em um período. Um período
// sem registros produz um resumo zerado, não um erro.
type MetricsSummary struct {
	ClientID             int       `json:"client_id"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	Days                 int       `json:"days"`
	TotalSessions        int64     `json:"total_sessions"`
	TotalUsers           int64     `json:"total_users"`
	TotalNewUsers        int64     `json:"total_new_users"`
	TotalPageviews       int64     `json:"total_pageviews"`
	TotalOrganicSessions int64     `json:"total_organic_sessions"`
	AvgSessionDuration   float64   `json:"avg_session_duration"`
	AvgBounceRate        float64   `json:"avg_bounce_rate"`
}
