package core

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	Monthly   Timeframe = "monthly"
	Quarterly Timeframe = "quarterly"
	Yearly    Timeframe = "yearly"
)

// Timeframe selects the granularity of a period key.
type Timeframe string

func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(s))); tf {
	case Monthly, Quarterly, Yearly:
		return tf, nil
	case "":
		return Monthly, nil
	}
	return "", fmt.Errorf("invalid timeframe %q", s)
}

// PeriodKey formats d for the given timeframe:
//
//	monthly   2024-03
//	quarterly 2024-Q1
//	yearly    2024
func PeriodKey(tf Timeframe, d Date) string {
	switch tf {
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", d.Year(), (d.Month()-1)/3+1)
	case Yearly:
		return strconv.Itoa(d.Year())
	default:
		return d.MonthKey()
	}
}

// MonthKey is the YYYY-MM key of the selected day.
func MonthKey(d Date) string { return d.MonthKey() }

// InPeriod reports whether a record falls in the period key for tf.
func InPeriod[T Record](r T, tf Timeframe, key string) bool {
	return PeriodKey(tf, r.Base().Date) == key
}

// FilterMonth returns the records whose month equals key.
func FilterMonth[T Record](recs []T, key string) []T {
	var out []T
	for _, r := range recs {
		if r.Base().Month == key {
			out = append(out, r)
		}
	}
	return out
}

// AvailablePeriods returns the distinct period keys found in the expenses,
// newest first. Keys sort lexicographically, which is also chronological.
func AvailablePeriods(tf Timeframe, expenses []Expense) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, e := range expenses {
		k := PeriodKey(tf, e.Date)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// AvailableYears returns the distinct years of income and expense months,
// newest first. With no data it falls back to the year of now.
func AvailableYears(incomes []Income, expenses []Expense, now time.Time) []int {
	seen := make(map[int]struct{})
	add := func(month string) {
		if len(month) < 4 {
			return
		}
		if y, err := strconv.Atoi(month[:4]); err == nil {
			seen[y] = struct{}{}
		}
	}
	for _, r := range incomes {
		add(r.Month)
	}
	for _, r := range expenses {
		add(r.Month)
	}
	if len(seen) == 0 {
		return []int{now.Year()}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	slices.Sort(years)
	slices.Reverse(years)
	return years
}
