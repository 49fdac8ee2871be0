// Package month вспомогательные функции для работы с календарными месяцами.
package month

import (
	"time"
)

// Start возвращает полночь первого числа месяца, в который попадает t, в часовом поясе t.
func Start(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DaysFrom возвращает момент через days суток после t.
func DaysFrom(t time.Time, days int) time.Time {
	return t.Add(time.Duration(days) * 24 * time.Hour)
}
