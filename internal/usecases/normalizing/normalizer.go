package normalizing

import (
	"fmt"
	"strconv"
	"time"

	ga4domain "github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/domain"
	"github.com/vfg2006/analytics-dashboard-api/internal/domain"
	"github.com/vfg2006/analytics-dashboard-api/pkg/utils"
)

// NormalizeRow converte uma linha no formato nativo do provedor para o
// registro canônico de métricas diárias. A função é pura: sem I/O, sem
// efeitos colaterais.
//
// Conversões aplicadas:
//   - data compacta de 8 dígitos ("20240115") → data de calendário;
//   - bounce rate chega como fração em [0,1] e é escalado para percentual
//     0–100, com duas casas decimais;
//   - contadores são interpretados como inteiros, com valor 0 para campos
//     ausentes ou não interpretáveis; durações e taxas idem, como reais.
//
// O único erro possível é uma data malformada: sem data não há registro.
func NormalizeRow(clientID int, row *ga4domain.MetricsRow, syncedAt time.Time) (*domain.DailyMetricRecord, error) {
	date, err := time.Parse(utils.CompactDateLayout, row.Date)
	if err != nil {
		return nil, fmt.Errorf("data inválida na linha do provedor (%q): %w", row.Date, err)
	}

	return &domain.DailyMetricRecord{
		ClientID:           clientID,
		Date:               date,
		Sessions:           parseCount(row.Sessions),
		TotalUsers:         parseCount(row.TotalUsers),
		NewUsers:           parseCount(row.NewUsers),
		Pageviews:          parseCount(row.Pageviews),
		AvgSessionDuration: parseReal(row.AvgSessionDuration),
		BounceRate:         utils.RoundWithTwoDecimalPlace(parseReal(row.BounceRate) * 100),
		OrganicSessions:    parseCount(row.OrganicSessions),
		SyncedAt:           syncedAt,
	}, nil
}

func parseCount(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseReal(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
