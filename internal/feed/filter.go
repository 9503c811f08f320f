package feed

import "strings"

// AllInstruments selects every instrument.
const AllInstruments = "all"

// Filter selects records by instrument. The zero value matches everything.
type Filter struct {
	instrument string
}

// NewFilter builds a filter for one instrument, or for all of them when
// instrument is empty or "all".
func NewFilter(instrument string) Filter {
	instrument = strings.TrimSpace(instrument)
	if strings.EqualFold(instrument, AllInstruments) {
		instrument = ""
	}
	return Filter{instrument: instrument}
}

// All reports whether the filter matches every instrument.
func (f Filter) All() bool {
	return f.instrument == ""
}

// Instrument returns the selected instrument, or "" for all.
func (f Filter) Instrument() string {
	return f.instrument
}

// Match reports whether records for instrument pass the filter.
func (f Filter) Match(instrument string) bool {
	return f.instrument == "" || f.instrument == instrument
}
