package period

import "time"

// Season classifies a calendar month for seasonal rate adjustments.
type Season int

const (
	SeasonShoulder Season = iota
	SeasonSummer
	SeasonWinter
)

// SeasonTable maps months to seasons. Months absent from both sets are
// shoulder months and carry no seasonal multiplier.
type SeasonTable struct {
	Summer []time.Month
	Winter []time.Month
}

// DefaultSeasons returns the default season classification: summer is
// June through August, winter December through February.
func DefaultSeasons() SeasonTable {
	return SeasonTable{
		Summer: []time.Month{time.June, time.July, time.August},
		Winter: []time.Month{time.December, time.January, time.February},
	}
}

// SeasonOf classifies the month the period starts in.
func (t SeasonTable) SeasonOf(p BillingPeriod) Season {
	return t.SeasonOfMonth(p.Start().Month())
}

// SeasonOfMonth classifies a single calendar month.
func (t SeasonTable) SeasonOfMonth(m time.Month) Season {
	for _, s := range t.Summer {
		if s == m {
			return SeasonSummer
		}
	}
	for _, w := range t.Winter {
		if w == m {
			return SeasonWinter
		}
	}
	return SeasonShoulder
}
