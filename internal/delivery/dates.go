package delivery

import (
	"fmt"
	"time"
)

// DateRangeLabel renders the human-readable delivery window for an option.
// Same-day windows say "Today" only while the day's dispatch cutoff has not
// passed; after that the earliest realistic delivery is tomorrow.
func (c *Calculator) DateRangeLabel(minDays, maxDays int, now time.Time) string {
	if minDays == maxDays {
		switch minDays {
		case 0:
			if now.Hour() < c.cfg.SameDayCutoffHour {
				return "Today"
			}
			return "Tomorrow"
		case 1:
			return "Tomorrow"
		default:
			return fmt.Sprintf("In %d days", minDays)
		}
	}
	minDate := now.AddDate(0, 0, minDays)
	maxDate := now.AddDate(0, 0, maxDays)
	return fmt.Sprintf("%s to %s", minDate.Format("02 January"), maxDate.Format("02 January"))
}
