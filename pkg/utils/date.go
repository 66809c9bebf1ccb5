package utils

import "time"

// CompactDateLayout é o formato de data compacto (8 dígitos, sem separadores)
// retornado pela dimensão "date" da API do GA4.
const CompactDateLayout = "20060102"

func ParseDate(dateStr string) (*time.Time, error) {
	var date time.Time

	if dateStr != "" {
		incomingDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, err
		}

		date = incomingDate
	}

	return &date, nil
}

// TruncateToDay zera o componente de hora de uma data, mantendo a localização
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
