package model

import (
	"strings"
	"time"
)

type Frequency string

const (
	FrequencyOneTime     Frequency = "one-time"
	FrequencyDaily       Frequency = "daily"
	FrequencyTwiceWeekly Frequency = "2x-per-week"
	FrequencyThriceWeek  Frequency = "3x-per-week"
	FrequencyWeekly      Frequency = "weekly"
	FrequencyBiweekly    Frequency = "bi-weekly"
	FrequencyMonthly     Frequency = "monthly"
	FrequencyLongTerm    Frequency = "long-term"
)

// ParseFrequency normalizes the spellings used by intake forms
// ("Weekly", "Bi-weekly", "biweekly", "2x per week", ...).
func ParseFrequency(raw string) Frequency {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "_", "-")
	key = strings.ReplaceAll(key, " ", "-")
	switch key {
	case "", "one-time", "one-off", "once", "onetime":
		return FrequencyOneTime
	case "daily":
		return FrequencyDaily
	case "2x-per-week", "twice-weekly", "2x-week":
		return FrequencyTwiceWeekly
	case "3x-per-week", "3x-week":
		return FrequencyThriceWeek
	case "weekly":
		return FrequencyWeekly
	case "bi-weekly", "biweekly", "fortnightly":
		return FrequencyBiweekly
	case "monthly":
		return FrequencyMonthly
	case "long-term", "longterm":
		return FrequencyLongTerm
	default:
		return Frequency(key)
	}
}

func (f Frequency) IsRecurring() bool {
	return f != FrequencyOneTime && f != ""
}

var visitIntervals = map[Frequency]time.Duration{
	FrequencyDaily:       24 * time.Hour,
	FrequencyTwiceWeekly: time.Duration(3.5 * float64(24*time.Hour)),
	FrequencyThriceWeek:  time.Duration(2.33 * float64(24*time.Hour)),
	FrequencyWeekly:      7 * 24 * time.Hour,
	FrequencyBiweekly:    14 * 24 * time.Hour,
	FrequencyMonthly:     30 * 24 * time.Hour,
}

// VisitInterval is the spacing between generated visits. Unknown
// frequencies are treated as weekly.
func (f Frequency) VisitInterval() time.Duration {
	if d, ok := visitIntervals[f]; ok {
		return d
	}
	return visitIntervals[FrequencyWeekly]
}

var visitsPerMonth = map[Frequency]int{
	FrequencyDaily:       30,
	FrequencyTwiceWeekly: 8,
	FrequencyThriceWeek:  12,
	FrequencyWeekly:      4,
	FrequencyBiweekly:    2,
	FrequencyMonthly:     1,
}

func (f Frequency) VisitsPerMonth() int {
	if n, ok := visitsPerMonth[f]; ok {
		return n
	}
	return visitsPerMonth[FrequencyWeekly]
}
