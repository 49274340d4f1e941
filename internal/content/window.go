package content

import (
	"fmt"
	"time"
)

// Window is the inclusive publish date range a run targets.
type Window struct {
	Start time.Time
	End   time.Time
}

// WeekOf returns the publish window for the ISO week containing t: Monday
// through Sunday at UTC day granularity. Every trigger firing within the same
// week resolves to the same window.
func WeekOf(t time.Time) Window {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	start := day.AddDate(0, 0, -offset)
	return Window{Start: start, End: start.AddDate(0, 0, 6)}
}

// StartDate returns the window's start formatted as YYYY-MM-DD.
func (w Window) StartDate() string {
	return w.Start.UTC().Format("2006-01-02")
}

// Label renders the range for display in the given language.
func (w Window) Label(lang Lang) string {
	start, end := w.Start.UTC(), w.End.UTC()
	if lang == LangJA {
		if start.Year() == end.Year() {
			return fmt.Sprintf("%d年%d月%d日〜%d月%d日",
				start.Year(), int(start.Month()), start.Day(), int(end.Month()), end.Day())
		}
		return fmt.Sprintf("%d年%d月%d日〜%d年%d月%d日",
			start.Year(), int(start.Month()), start.Day(), end.Year(), int(end.Month()), end.Day())
	}
	if start.Year() == end.Year() {
		return fmt.Sprintf("%s - %s, %d", start.Format("Jan 2"), end.Format("Jan 2"), end.Year())
	}
	return fmt.Sprintf("%s - %s", start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
}
