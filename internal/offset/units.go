package offset

import (
	"fmt"
	"regexp"
	"time"
)

// AddFunc advances t by n units.
type AddFunc func(t time.Time, n int) time.Time

var unitNamePattern = regexp.MustCompile(`^\w+$`)

// units maps a unit name to its calendar arithmetic. order is the picker order.
var (
	units = map[string]AddFunc{
		UnitWeeks:  addWeeks,
		UnitMonths: addMonths,
		UnitYears:  addYears,
	}
	order = []string{UnitWeeks, UnitMonths, UnitYears}
)

func init() {
	if err := validateUnits(units, order); err != nil {
		panic(err)
	}
}

func validateUnits(table map[string]AddFunc, order []string) error {
	if len(table) != len(order) {
		return fmt.Errorf("offset: unit table has %d entries, order lists %d", len(table), len(order))
	}
	for _, name := range order {
		if !unitNamePattern.MatchString(name) {
			return fmt.Errorf("offset: unit name %q is not a word", name)
		}
		if table[name] == nil {
			return fmt.Errorf("offset: unit %q has no arithmetic", name)
		}
	}
	if _, ok := table[Default.Unit]; !ok {
		return fmt.Errorf("offset: default unit %q missing from table", Default.Unit)
	}
	return nil
}

// Units lists the recognized unit names in picker order.
func Units() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

func addWeeks(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, 7*n)
}

func addMonths(t time.Time, n int) time.Time {
	return addMonthsClamped(t, n)
}

func addYears(t time.Time, n int) time.Time {
	return addMonthsClamped(t, 12*n)
}

// addMonthsClamped adds n calendar months, pinning the day of month to the
// last day of the target month instead of spilling into the next one.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
