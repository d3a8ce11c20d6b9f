package quote

import "github.com/nurpe/cleaning-contracts/internal/model"

// estimateHours uses the three-tier job table, then the legacy
// minutes-per-1000 rate, then realisticHours.
func estimateHours(cfg model.PricingConfig, size int) float64 {
	small, medium, large := cfg.TimeSmallJob, cfg.TimeMediumJob, cfg.TimeLargeJob
	if small > 0 || medium > 0 || large > 0 {
		switch {
		case size < 1500:
			return firstPositive(small, medium, large, 1.5)
		case size <= 2500:
			return firstPositive(medium, large, small, 2.5)
		default:
			return firstPositive(large, medium, small, 4.0)
		}
	}
	if cfg.MinutesPer1000Area > 0 && size > 0 {
		return float64(size) / 1000 * (cfg.MinutesPer1000Area / 60)
	}
	return realisticHours(size)
}

func realisticHours(size int) float64 {
	switch {
	case size <= 800:
		return 1.5
	case size <= 1500:
		return 2.5
	case size <= 2500:
		return 3.5
	default:
		return 4.0
	}
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
