package domain

import "time"

type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
	SyncStatusPartial SyncStatus = "partial"
)

// SyncLogEntry é o registro de auditoria de uma tentativa de sincronização
// para um par (cliente, data). A tabela é append-only: entradas nunca são
// atualizadas. ClientID é anulável para que o histórico sobreviva à exclusão
// do cliente (a FK usa ON DELETE SET NULL).
type SyncLogEntry struct {
	ID              int        `json:"id"`
	ClientID        *int       `json:"client_id"`
	SyncDate        time.Time  `json:"sync_date"`
	Status          SyncStatus `json:"status"`
	RecordsSynced   int        `json:"records_synced"`
	ErrorMessage    *string    `json:"error_message"`
	ExecutionTimeMs int64      `json:"execution_time_ms"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ClientSyncResult é o resultado da sincronização de um cliente em uma data,
// dentro de um lote.
type ClientSyncResult struct {
	ClientID      int        `json:"client_id"`
	ClientName    string     `json:"client_name"`
	Date          time.Time  `json:"date"`
	Status        SyncStatus `json:"status"`
	RecordsSynced int        `json:"records_synced"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	ElapsedMs     int64      `json:"elapsed_ms"`
}

// SyncSummary é o resumo agregado de um lote de sincronização diária.
// O lote sempre "conclui": falhas individuais ficam em Results e nos
// contadores, nunca abortam o lote.
type SyncSummary struct {
	BatchID        string             `json:"batch_id"`
	Date           time.Time          `json:"date"`
	TotalClients   int                `json:"total_clients"`
	SuccessCount   int                `json:"success_count"`
	FailureCount   int                `json:"failure_count"`
	TotalElapsedMs int64              `json:"total_elapsed_ms"`
	Results        []ClientSyncResult `json:"results"`
}

// BackfillSummary é o resumo de um backfill histórico de um único cliente
// sobre um intervalo de datas (inclusivo).
type BackfillSummary struct {
	BatchID        string             `json:"batch_id"`
	ClientID       int                `json:"client_id"`
	StartDate      time.Time          `json:"start_date"`
	EndDate        time.Time          `json:"end_date"`
	TotalDays      int                `json:"total_days"`
	SuccessCount   int                `json:"success_count"`
	FailureCount   int                `json:"failure_count"`
	TotalElapsedMs int64              `json:"total_elapsed_ms"`
	Results        []ClientSyncResult `json:"results"`
}

// ClientSyncHealth resume a saúde de sincronização de um cliente para
// monitoramento ("última sincronização bem-sucedida").
type ClientSyncHealth struct {
	ClientID             int        `json:"client_id"`
	ClientName           string     `json:"client_name"`
	Active               bool       `json:"active"`
	LastSuccessfulSyncAt *time.Time `json:"last_successful_sync_at"`
}

type SyncHealthReport struct {
	Clients        []ClientSyncHealth `json:"clients"`
	RecentFailures []*SyncLogEntry    `json:"recent_failures"`
}
