package controller

import "time"

const (
	dateLayout       = "2006-01-02"
	trailingYearDays = 365
)

// lastObservationDate is the most recent date in the dataset.
var lastObservationDate = time.Date(2017, time.August, 23, 0, 0, 0, 0, time.UTC)

// TrailingYearStart is the lower bound (inclusive) of the "last 12 months"
// window used by the precipitation and tobs endpoints.
func TrailingYearStart() time.Time {
	return lastObservationDate.AddDate(0, 0, -trailingYearDays)
}

func trailingYearStartDate() string {
	return TrailingYearStart().Format(dateLayout)
}
