package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimingSlot is a serving window expressed as wall-clock times in the
// reference timezone. Both "16:30" and "4:30pm" forms are accepted.
type TimingSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Contains reports whether minute (minutes since midnight) falls inside the
// slot, bounds inclusive. A slot that fails to parse contains nothing.
func (s *TimingSlot) Contains(minute int) bool {
	if s == nil {
		return false
	}
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return false
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return false
	}
	return minute >= start && minute <= end
}

func (s *TimingSlot) validate(field string, ve *ValidationError) {
	if s == nil {
		return
	}
	if _, err := ParseClock(s.StartTime); err != nil {
		ve.Errors = append(ve.Errors, FieldError{Field: field + ".startTime", Message: err.Error()})
	}
	if _, err := ParseClock(s.EndTime); err != nil {
		ve.Errors = append(ve.Errors, FieldError{Field: field + ".endTime", Message: err.Error()})
	}
}

var (
	clock24Re = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)
	clock12Re = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)$`)
)

// ParseClock converts a wall-clock string to minutes since midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if m := clock24Re.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		return h*60 + min, nil
	}
	if m := clock12Re.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min := 0
		if m[2] != "" {
			min, _ = strconv.Atoi(m[2])
		}
		if h < 1 || h > 12 || min > 59 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		pm := strings.EqualFold(m[3], "pm")
		switch {
		case pm && h != 12:
			h += 12
		case !pm && h == 12:
			h = 0
		}
		return h*60 + min, nil
	}
	return 0, fmt.Errorf("invalid time %q (want HH:MM or h:mm am/pm)", s)
}

// TimingTemplate is a reusable pair of serving windows that menu items can
// reference by Key. Deleting a template only deactivates it.
type TimingTemplate struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Key            string      `json:"key"`
	MorningTimings *TimingSlot `json:"morningTimings"`
	EveningTimings *TimingSlot `json:"eveningTimings"`
	IsActive       bool        `json:"isActive"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// TimingTemplateUpdate is a partial update for a template.
type TimingTemplateUpdate struct {
	Name           *string     `json:"name,omitempty"`
	Key            *string     `json:"key,omitempty"`
	MorningTimings *TimingSlot `json:"morningTimings,omitempty"`
	EveningTimings *TimingSlot `json:"eveningTimings,omitempty"`
	IsActive       *bool       `json:"isActive,omitempty"`
}

// Apply merges the present fields of u onto t.
func (u TimingTemplateUpdate) Apply(t *TimingTemplate) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Key != nil {
		t.Key = *u.Key
	}
	if u.MorningTimings != nil {
		t.MorningTimings = u.MorningTimings
	}
	if u.EveningTimings != nil {
		t.EveningTimings = u.EveningTimings
	}
	if u.IsActive != nil {
		t.IsActive = *u.IsActive
	}
}

var templateKeyRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateTimingTemplate checks a template for constraint violations.
func ValidateTimingTemplate(t *TimingTemplate) error {
	var ve ValidationError
	if strings.TrimSpace(t.Name) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	}
	if !templateKeyRe.MatchString(t.Key) {
		ve.Errors = append(ve.Errors, FieldError{Field: "key", Message: "must be lowercase letters, digits, '-' or '_'"})
	}
	t.MorningTimings.validate("morningTimings", &ve)
	t.EveningTimings.validate("eveningTimings", &ve)
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
