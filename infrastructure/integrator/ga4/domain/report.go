package ga4domain

// Tipos de requisição do método runReport da API de dados do GA4.
// A estrutura segue o contrato JSON documentado em
// https://developers.google.com/analytics/devguides/reporting/data/v1

type RunReportRequest struct {
	DateRanges      []DateRange       `json:"dateRanges"`
	Dimensions      []Dimension       `json:"dimensions,omitempty"`
	Metrics         []Metric          `json:"metrics"`
	DimensionFilter *FilterExpression `json:"dimensionFilter,omitempty"`
	OrderBys        []OrderBy         `json:"orderBys,omitempty"`
	Limit           int64             `json:"limit,omitempty"`
}

type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type Dimension struct {
	Name string `json:"name"`
}

type Metric struct {
	Name string `json:"name"`
}

type FilterExpression struct {
	Filter *Filter `json:"filter,omitempty"`
}

type Filter struct {
	FieldName    string        `json:"fieldName"`
	StringFilter *StringFilter `json:"stringFilter,omitempty"`
}

type StringFilter struct {
	MatchType string `json:"matchType"`
	Value     string `json:"value"`
}

type OrderBy struct {
	Dimension *DimensionOrderBy `json:"dimension,omitempty"`
	Desc      bool              `json:"desc,omitempty"`
}

type DimensionOrderBy struct {
	DimensionName string `json:"dimensionName"`
}

type RunReportResponse struct {
	Rows     []Row `json:"rows"`
	RowCount int   `json:"rowCount"`
}

type Row struct {
	DimensionValues []Value `json:"dimensionValues"`
	MetricValues    []Value `json:"metricValues"`
}

type Value struct {
	Value string `json:"value"`
}

// MetricsRow é a linha de métricas de um único dia no formato nativo do
// provedor: todos os valores chegam como string e a data no formato compacto
// de 8 dígitos (ex.: "20240115"). A conversão para o formato canônico é
// responsabilidade do normalizador, nunca deste pacote.
type MetricsRow struct {
	Date               string
	Sessions           string
	TotalUsers         string
	NewUsers           string
	Pageviews          string
	AvgSessionDuration string
	BounceRate         string
	OrganicSessions    string
}
