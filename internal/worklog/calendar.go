/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package worklog

import (
	"time"

	"github.com/HamedShams/jira-work-hours/internal/domain"
)

// DatesInRange returns the countable days between start and end inclusive.
// A reversed range yields an empty set.
func DatesInRange(start, end domain.Date, excludeWeekends bool, holidays domain.DateSet) domain.DateSet {
	days := domain.DateSet{}
	for cur := start; !cur.After(end); cur = cur.AddDays(1) {
		wd := cur.Weekday()
		weekday := wd != time.Saturday && wd != time.Sunday
		if (!excludeWeekends || weekday) && !holidays.Has(cur) {
			days.Add(cur)
		}
	}
	return days
}
