package cf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Calendar names recognised by the engine. Unrecognised calendar strings are
// still carried verbatim for exact-match comparisons in ReconcileTime; day
// arithmetic is only needed for the ones named here.
const (
	CalendarStandard           = "standard"
	CalendarGregorian          = "gregorian"
	CalendarProlepticGregorian = "proleptic_gregorian"
	Calendar360Day             = "360_day"
	Calendar365Day             = "365_day"
	Calendar366Day             = "366_day"
)

// gregorianReformDate is 1582-10-15, the date ReconcileTime uses to decide
// whether a "standard" and a "proleptic_gregorian" calendar are
// interchangeable for a given field (spec.md §4.1).
var gregorianReformDate = DateTime{Year: 1582, Month: 10, Day: 15}

// DateTime is a calendar-agnostic civil datetime: callers pick the calendar
// under which Year/Month/Day are interpreted.
type DateTime struct {
	Year, Month, Day, Hour, Minute int
	Second                         float64
}

// Before reports whether d occurs strictly before o under the same calendar,
// comparing by calendar day-number then time-of-day.
func (d DateTime) Before(o DateTime, calendar string) bool {
	dd := civilDayNumber(d.Year, d.Month, d.Day, calendar)
	od := civilDayNumber(o.Year, o.Month, o.Day, calendar)
	if dd != od {
		return dd < od
	}
	return daySeconds(d) < daySeconds(o)
}

func daySeconds(d DateTime) float64 {
	return float64(d.Hour)*3600 + float64(d.Minute)*60 + d.Second
}

// civilDayNumber returns a day count (not tied to any epoch other than
// internal consistency) usable for difference/ordering within one calendar.
func civilDayNumber(y, m, d int, calendar string) int64 {
	switch calendar {
	case Calendar360Day:
		return int64(y)*360 + int64(m-1)*30 + int64(d-1)
	case Calendar365Day:
		return int64(y)*365 + cumulativeDaysNoLeap(m) + int64(d-1)
	case Calendar366Day:
		return int64(y)*366 + cumulativeDaysLeap(m) + int64(d-1)
	default:
		// standard / gregorian / proleptic_gregorian: Howard Hinnant's
		// days-from-civil algorithm (proleptic Gregorian).
		yy := int64(y)
		if m <= 2 {
			yy--
		}
		era := yy
		if era < 0 {
			era -= 399
		}
		era /= 400
		yoe := yy - era*400
		var mp int64
		if int64(m) > 2 {
			mp = int64(m) - 3
		} else {
			mp = int64(m) + 9
		}
		doy := (153*mp+2)/5 + int64(d) - 1
		doe := yoe*365 + yoe/4 - yoe/100 + doy
		return era*146097 + doe - 719468
	}
}

func cumulativeDaysNoLeap(m int) int64 {
	days := []int64{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}
	if m < 1 {
		m = 1
	}
	if m > 12 {
		m = 12
	}
	return days[m-1]
}

func cumulativeDaysLeap(m int) int64 {
	days := []int64{0, 31, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335}
	if m < 1 {
		m = 1
	}
	if m > 12 {
		m = 12
	}
	return days[m-1]
}

// Units describes a CF "<unit> since <reference>" time-coordinate unit
// string, e.g. "hours since 1970-01-01 00:00:00".
type Units struct {
	UnitName string // seconds, minutes, hours, days
	Epoch    DateTime
	raw      string
}

func (u Units) String() string { return u.raw }

func (u Units) secondsPerUnit() (float64, error) {
	switch strings.ToLower(strings.TrimSuffix(u.UnitName, "s")) {
	case "second", "sec":
		return 1, nil
	case "minute", "min":
		return 60, nil
	case "hour", "hr":
		return 3600, nil
	case "day":
		return 86400, nil
	default:
		return 0, fmt.Errorf("cf: unrecognised time unit %q", u.UnitName)
	}
}

// ParseUnits parses a CF time-units string of the form
// "<unit> since <date>[T<time>]".
func ParseUnits(s string) (Units, error) {
	parts := strings.SplitN(s, "since", 2)
	if len(parts) != 2 {
		return Units{}, fmt.Errorf("cf: time units %q has no 'since' clause", s)
	}
	unit := strings.TrimSpace(parts[0])
	ref := strings.TrimSpace(parts[1])
	ref = strings.Replace(ref, "T", " ", 1)
	dt, err := parseDateTime(ref)
	if err != nil {
		return Units{}, fmt.Errorf("cf: time units %q: %w", s, err)
	}
	return Units{UnitName: unit, Epoch: dt, raw: s}, nil
}

func parseDateTime(s string) (DateTime, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "Z")
	datePart := s
	timePart := ""
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		datePart = s[:idx]
		timePart = strings.TrimSpace(s[idx+1:])
	}
	dcomp := strings.Split(datePart, "-")
	if len(dcomp) != 3 {
		return DateTime{}, fmt.Errorf("cf: bad date %q", datePart)
	}
	year, err := strconv.Atoi(dcomp[0])
	if err != nil {
		return DateTime{}, err
	}
	month, err := strconv.Atoi(dcomp[1])
	if err != nil {
		return DateTime{}, err
	}
	day, err := strconv.Atoi(dcomp[2])
	if err != nil {
		return DateTime{}, err
	}
	dt := DateTime{Year: year, Month: month, Day: day}
	if timePart != "" {
		tcomp := strings.Split(timePart, ":")
		if len(tcomp) > 0 {
			dt.Hour, _ = strconv.Atoi(tcomp[0])
		}
		if len(tcomp) > 1 {
			dt.Minute, _ = strconv.Atoi(tcomp[1])
		}
		if len(tcomp) > 2 {
			dt.Second, _ = strconv.ParseFloat(tcomp[2], 64)
		}
	}
	return dt, nil
}

// Time is a single CF time value: a numeric value under Units, interpreted
// under Calendar.
type Time struct {
	Value    float64
	Units    Units
	Calendar string
}

// ComparableSeconds returns seconds-since-epoch-under-Calendar. Two Time
// values are only meaningfully comparable via this if they share Calendar;
// ReconcileTime is responsible for establishing that precondition.
func (t Time) ComparableSeconds() (float64, error) {
	spu, err := t.Units.secondsPerUnit()
	if err != nil {
		return 0, err
	}
	epochDay := civilDayNumber(t.Units.Epoch.Year, t.Units.Epoch.Month, t.Units.Epoch.Day, t.Calendar)
	epochSecs := float64(epochDay)*86400 + daySeconds(t.Units.Epoch)
	return epochSecs + t.Value*spu, nil
}

// WithValue returns a copy of t with a different numeric Value.
func (t Time) WithValue(v float64) Time {
	t.Value = v
	return t
}

// ConvertTo re-expresses t under newUnits (same calendar), returning the new
// numeric value.
func (t Time) ConvertTo(newUnits Units) (float64, error) {
	secs, err := t.ComparableSeconds()
	if err != nil {
		return 0, err
	}
	spu, err := newUnits.secondsPerUnit()
	if err != nil {
		return 0, err
	}
	epochDay := civilDayNumber(newUnits.Epoch.Year, newUnits.Epoch.Month, newUnits.Epoch.Day, t.Calendar)
	epochSecs := float64(epochDay)*86400 + daySeconds(newUnits.Epoch)
	return (secs - epochSecs) / spu, nil
}

func isClose(a, b, eps float64) bool { return math.Abs(a-b) <= eps }
