package normalizing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	ga4domain "github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/domain"
)

func TestNormalizeRow(t *testing.T) {
	syncedAt := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		row      *ga4domain.MetricsRow
		validate func(t *testing.T, err error, sessions int64, bounceRate float64, date time.Time)
	}{
		{
			name: "Linha completa - deve converter todos os campos",
			row: &ga4domain.MetricsRow{
				Date:               "20240115",
				Sessions:           "120",
				TotalUsers:         "80",
				NewUsers:           "30",
				Pageviews:          "400",
				AvgSessionDuration: "95.5",
				BounceRate:         "0.4532",
				OrganicSessions:    "45",
			},
			validate: func(t *testing.T, err error, sessions int64, bounceRate float64, date time.Time) {
				assert.NoError(t, err)
				assert.Equal(t, int64(120), sessions)
				assert.InDelta(t, 45.32, bounceRate, 0.01)
				assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), date)
			},
		},
		{
			name: "Dia sem tráfego - todos os campos vazios devem virar zero",
			row:  &ga4domain.MetricsRow{Date: "20240301"},
			validate: func(t *testing.T, err error, sessions int64, bounceRate float64, date time.Time) {
				assert.NoError(t, err)
				assert.Equal(t, int64(0), sessions)
				assert.Equal(t, 0.0, bounceRate)
				assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), date)
			},
		},
		{
			name: "Valores não interpretáveis - devem virar zero, não erro",
			row: &ga4domain.MetricsRow{
				Date:       "20240115",
				Sessions:   "abc",
				BounceRate: "n/a",
			},
			validate: func(t *testing.T, err error, sessions int64, bounceRate float64, date time.Time) {
				assert.NoError(t, err)
				assert.Equal(t, int64(0), sessions)
				assert.Equal(t, 0.0, bounceRate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := NormalizeRow(1, tt.row, syncedAt)

			var sessions int64
			var bounceRate float64
			var date time.Time
			if record != nil {
				sessions = record.Sessions
				bounceRate = record.BounceRate
				date = record.Date
			}

			tt.validate(t, err, sessions, bounceRate, date)
		})
	}
}

func TestNormalizeRow_DataInvalida(t *testing.T) {
	row := &ga4domain.MetricsRow{Date: "15/01/2024"}

	record, err := NormalizeRow(1, row, time.Now())

	assert.Error(t, err)
	assert.Nil(t, record)
}

func TestNormalizeRow_CamposCanonicosCompletos(t *testing.T) {
	row := &ga4domain.MetricsRow{
		Date:               "20240301",
		Sessions:           "120",
		TotalUsers:         "80",
		NewUsers:           "30",
		Pageviews:          "400",
		AvgSessionDuration: "95.5",
		BounceRate:         "0.38",
		OrganicSessions:    "45",
	}

	syncedAt := time.Now()
	record, err := NormalizeRow(7, row, syncedAt)

	assert.NoError(t, err)
	assert.Equal(t, 7, record.ClientID)
	assert.Equal(t, int64(120), record.Sessions)
	assert.Equal(t, int64(80), record.TotalUsers)
	assert.Equal(t, int64(30), record.NewUsers)
	assert.Equal(t, int64(400), record.Pageviews)
	assert.Equal(t, 95.5, record.AvgSessionDuration)
	assert.Equal(t, 38.0, record.BounceRate)
	assert.Equal(t, int64(45), record.OrganicSessions)
	assert.Equal(t, syncedAt, record.SyncedAt)
}
