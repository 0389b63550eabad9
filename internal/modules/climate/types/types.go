package types

// Station is a weather-observation site.
type Station struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
	Elevation float64
}

// DailyValue is one (date, value) pair from the measurement table.
// Date is an ISO-8601 calendar date (YYYY-MM-DD).
type DailyValue struct {
	Date  string
	Value float64
}

// TemperatureSummary holds the aggregates over a date range. Every field is
// nil when the range matched no measurements.
type TemperatureSummary struct {
	FromDate *string
	ToDate   *string
	MinTemp  *float64
	AvgTemp  *float64
	MaxTemp  *float64
}
