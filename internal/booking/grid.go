package booking

import (
	"strconv"
	"strings"
	"time"

	"wellmeet/internal/models"
)

type Meal string

const (
	MealLunch  Meal = "lunch"
	MealDinner Meal = "dinner"
)

// TimeGrid is the pair of disjoint slot grids offered by the form.
type TimeGrid struct {
	Lunch  []string
	Dinner []string
}

func DefaultTimeGrid() TimeGrid {
	return TimeGrid{
		Lunch:  append([]string(nil), models.DefaultLunchSlots...),
		Dinner: append([]string(nil), models.DefaultDinnerSlots...),
	}
}

// MealOf tells which grid a slot belongs to.
func (g TimeGrid) MealOf(slot string) (Meal, bool) {
	for _, s := range g.Lunch {
		if s == slot {
			return MealLunch, true
		}
	}
	for _, s := range g.Dinner {
		if s == slot {
			return MealDinner, true
		}
	}
	return "", false
}

// QuickDate is one of the relative date shortcuts.
type QuickDate struct {
	Label string
	Date  string // YYYY-MM-DD
}

var relativeLabels = []string{"오늘", "내일", "모레"}

var weekdays = []string{"일", "월", "화", "수", "목", "금", "토"}

// QuickDates returns today, tomorrow and the day after, relative to now.
func QuickDates(now time.Time) []QuickDate {
	out := make([]QuickDate, 0, len(relativeLabels))
	for i, label := range relativeLabels {
		out = append(out, QuickDate{Label: label, Date: now.AddDate(0, 0, i).Format(dateLayout)})
	}
	return out
}

// DateLabel renders "내일 (10/19, 월)" for the next three days and
// "10/25 (일)" otherwise.
func DateLabel(date string, now time.Time) string {
	if date == "" {
		return ""
	}
	d, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return date
	}
	md := strconv.Itoa(int(d.Month())) + "/" + strconv.Itoa(d.Day())
	wd := weekdays[d.Weekday()]

	today := startOfDay(now)
	for i, label := range relativeLabels {
		if d.Equal(today.AddDate(0, 0, i)) {
			return label + " (" + md + ", " + wd + ")"
		}
	}
	return md + " (" + wd + ")"
}

// PartySizeFromBucket maps a bucket such as "5명 이상" to its leading number.
func PartySizeFromBucket(bucket string) (int, bool) {
	bucket = strings.TrimSpace(bucket)
	end := 0
	for end < len(bucket) && bucket[end] >= '0' && bucket[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(bucket[:end])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

const dateLayout = "2006-01-02"

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
