package market

import "sort"

// Series holds the ordered daily bars of one symbol. It is built once per
// decision computation and never mutated afterwards.
type Series struct {
	symbol string
	bars   []Bar
}

// NewSeries copies, sorts ascending by date and de-duplicates the given bars.
// When two bars share a trading day the later-supplied one wins, matching
// upsert semantics of the bar store.
func NewSeries(symbol string, bars []Bar) Series {
	byDay := make(map[int64]Bar, len(bars))
	for _, b := range bars {
		byDay[b.Day().Unix()] = b
	}
	out := make([]Bar, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return Series{symbol: symbol, bars: out}
}

func (s Series) Symbol() string { return s.symbol }

func (s Series) Len() int { return len(s.bars) }

func (s Series) IsEmpty() bool { return len(s.bars) == 0 }

// Bars returns a copy so callers cannot mutate the series.
func (s Series) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// Closes extracts the close prices in date order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Close
	}
	return out
}

// Last returns the most recent bar.
func (s Series) Last() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}
