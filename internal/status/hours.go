// Package status derives the human-readable shop status line shown to
// customers from the store config and the wall clock.
package status

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Hours holds the business hours and the messages shown around them. Minute
// values count from midnight in the reference timezone.
type Hours struct {
	// OffsetMinutes is the reference timezone's offset east of UTC.
	OffsetMinutes int `toml:"offset_minutes"`

	MorningOpen  int `toml:"morning_open"`
	MorningClose int `toml:"morning_close"`
	EveningOpen  int `toml:"evening_open"`
	EveningClose int `toml:"evening_close"`

	// Closing-soon windows run from these minutes to the matching close.
	MorningClosingSoon int `toml:"morning_closing_soon"`
	EveningClosingSoon int `toml:"evening_closing_soon"`

	Messages Messages `toml:"messages"`
}

// Messages are the status strings returned by Message.
type Messages struct {
	SundayHoliday    string `toml:"sunday_holiday"`
	SundayReopen     string `toml:"sunday_reopen"`
	ClosingSoon      string `toml:"closing_soon"`
	OpensEvening     string `toml:"opens_evening"`
	OpensNextMorning string `toml:"opens_next_morning"`
}

// ISTOffsetMinutes is the UTC+5:30 offset of Indian Standard Time.
const ISTOffsetMinutes = 5*60 + 30

// DefaultHours returns the hours of the shop this service was built for.
func DefaultHours() Hours {
	return Hours{
		OffsetMinutes:      ISTOffsetMinutes,
		MorningOpen:        5 * 60,
		MorningClose:       11*60 + 59,
		EveningOpen:        16*60 + 30,
		EveningClose:       21*60 + 30,
		MorningClosingSoon: 10*60 + 45,
		EveningClosingSoon: 20*60 + 45,
		Messages: Messages{
			SundayHoliday:    "☀️ Sunday's Holiday",
			SundayReopen:     "Shop Opens at 5:30 AM",
			ClosingSoon:      "Closing soon..!",
			OpensEvening:     "Shop opens at 4:30 PM",
			OpensNextMorning: "Shop opens at 5:30 AM",
		},
	}
}

// LoadHours reads a TOML file and overlays it onto DefaultHours. Keys absent
// from the file keep their defaults.
func LoadHours(path string) (Hours, error) {
	h := DefaultHours()
	if path == "" {
		return h, nil
	}
	if _, err := toml.DecodeFile(path, &h); err != nil {
		return Hours{}, fmt.Errorf("decode hours file %s: %w", path, err)
	}
	if err := h.Validate(); err != nil {
		return Hours{}, fmt.Errorf("hours file %s: %w", path, err)
	}
	return h, nil
}

// Validate checks that the windows are ordered within a single day.
func (h Hours) Validate() error {
	const day = 24 * 60
	order := []struct {
		name  string
		value int
	}{
		{"morning_open", h.MorningOpen},
		{"morning_closing_soon", h.MorningClosingSoon},
		{"morning_close", h.MorningClose},
		{"evening_open", h.EveningOpen},
		{"evening_closing_soon", h.EveningClosingSoon},
		{"evening_close", h.EveningClose},
	}
	prev := -1
	for _, o := range order {
		if o.value < 0 || o.value >= day {
			return fmt.Errorf("%s must be within [0, %d), got %d", o.name, day, o.value)
		}
		if o.value < prev {
			return fmt.Errorf("%s (%d) is earlier than the preceding boundary (%d)", o.name, o.value, prev)
		}
		prev = o.value
	}
	return nil
}

// Clock converts now to the reference timezone and returns the weekday and
// the minutes since midnight there.
func (h Hours) Clock(now time.Time) (time.Weekday, int) {
	local := now.UTC().Add(time.Duration(h.OffsetMinutes) * time.Minute)
	return local.Weekday(), local.Hour()*60 + local.Minute()
}
