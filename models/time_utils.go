package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/Alias1177/Turnips/internal/turnips"
)

// Half is the morning or afternoon of a day.
type Half int

const (
	AM Half = 0
	PM Half = 1
)

func (h Half) String() string {
	if h == PM {
		return "PM"
	}
	return "AM"
}

var dayNames = map[string]time.Weekday{
	"SU": time.Sunday, "SUN": time.Sunday, "SUNDAY": time.Sunday,
	"MO": time.Monday, "MON": time.Monday, "MONDAY": time.Monday,
	"TU": time.Tuesday, "TUE": time.Tuesday, "TUESDAY": time.Tuesday,
	"WE": time.Wednesday, "WED": time.Wednesday, "WEDNESDAY": time.Wednesday,
	"TH": time.Thursday, "THU": time.Thursday, "THURSDAY": time.Thursday,
	"FR": time.Friday, "FRI": time.Friday, "FRIDAY": time.Friday,
	"SA": time.Saturday, "SAT": time.Saturday, "SATURDAY": time.Saturday,
}

// WeekOf numbers weeks from Sunday to Saturday; week 1 is the one holding
// January 1st, so the last days of December can belong to the next year.
func WeekOf(t time.Time) Week {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	saturday := day.AddDate(0, 0, int(time.Saturday-day.Weekday()))
	return Week{Number: (saturday.YearDay() + 6) / 7, Year: saturday.Year()}
}

// SlotOf maps a local time to its price slot. Sunday is always slot 0.
func SlotOf(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 0
	}
	half := AM
	if t.Hour() >= 12 {
		half = PM
	}
	return SlotFor(t.Weekday(), half)
}

// SlotFor returns the slot of a day and half. Both halves of Sunday are slot 0.
func SlotFor(day time.Weekday, half Half) int {
	if day == time.Sunday {
		return 0
	}
	return int(day)*2 + int(half)
}

// SlotLabel names a slot like "Mon AM".
func SlotLabel(slot int) string {
	if slot < turnips.FirstSellSlot {
		return "Sun"
	}
	day := time.Weekday(slot / 2)
	return fmt.Sprintf("%s %s", day.String()[:3], Half(slot%2))
}

// ParseDay accepts English day names and their two and three letter forms.
func ParseDay(s string) (time.Weekday, error) {
	day, ok := dayNames[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("invalid day %q", s)
	}
	return day, nil
}

// ParseHalf accepts AM or PM in any case.
func ParseHalf(s string) (Half, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AM":
		return AM, nil
	case "PM":
		return PM, nil
	}
	return AM, fmt.Errorf("invalid time %q", s)
}
