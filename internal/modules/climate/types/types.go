package types

import "time"

// DateLayout is the only accepted and emitted calendar date format.
const DateLayout = "2006-01-02"

// OneYear is the length of the trailing window ending at the most recent
// measurement date.
const OneYear = 365

type Station struct {
	ID   string `json:"station"`
	Name string `json:"name"`
}

// Precipitation is one measurement row projected to date and amount.
// Prcp is nil when the store holds NULL.
type Precipitation struct {
	Date string   `json:"date"`
	Prcp *float64 `json:"prcp"`
}

type TemperatureObservation struct {
	Date        string   `json:"date"`
	Temperature *float64 `json:"temperature"`
}

// StationActivity is the number of non-null temperature observations a
// station recorded inside a date window.
type StationActivity struct {
	StationID    string
	Observations int
}

// DateWindow is a closed range of ISO dates.
type DateWindow struct {
	Start string
	End   string
}

// WindowEndingAt returns [end - 365 days, end].
func WindowEndingAt(end time.Time) DateWindow {
	return DateWindow{
		Start: end.AddDate(0, 0, -OneYear).Format(DateLayout),
		End:   end.Format(DateLayout),
	}
}

// TemperatureAggregate holds MIN/AVG/MAX of tobs over a filtered set. Each
// field is nil when no row with a temperature matched.
type TemperatureAggregate struct {
	Min *float64 `json:"min_temperature"`
	Avg *float64 `json:"avg_temperature"`
	Max *float64 `json:"max_temperature"`
}

type TemperatureStats struct {
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
	TemperatureAggregate
}
