package market

import "time"

// Bar is one daily OHLCV record. Immutable once recorded; unique per
// (symbol, date).
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Day truncates the bar timestamp to its trading day in UTC.
func (b Bar) Day() time.Time {
	y, m, d := b.Date.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
