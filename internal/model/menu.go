package model

import (
	"net/url"
	"strings"
	"time"
)

// MenuItem is a dish on the menu. An item is served either during its own
// custom timings or during the timings of the template named by
// TimingTemplate; setting one clears the other.
type MenuItem struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Price          float64     `json:"price"`
	Desc           string      `json:"desc"`
	MorningTimings *TimingSlot `json:"morningTimings"`
	EveningTimings *TimingSlot `json:"eveningTimings"`
	TimingTemplate string      `json:"timingTemplate,omitempty"`
	Ingredients    string      `json:"ingredients"`
	Priority       int         `json:"priority"`
	ImgSrc         string      `json:"imgSrc"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Slots returns the effective morning and evening slots for the item. When the
// item references a template, tmpl supplies them; tmpl may be nil.
func (m *MenuItem) Slots(tmpl *TimingTemplate) (morning, evening *TimingSlot) {
	if m.TimingTemplate != "" {
		if tmpl == nil {
			return nil, nil
		}
		return tmpl.MorningTimings, tmpl.EveningTimings
	}
	return m.MorningTimings, m.EveningTimings
}

// MenuItemUpdate is a partial update for a menu item.
type MenuItemUpdate struct {
	Name           *string     `json:"name,omitempty"`
	Price          *float64    `json:"price,omitempty"`
	Desc           *string     `json:"desc,omitempty"`
	MorningTimings *TimingSlot `json:"morningTimings,omitempty"`
	EveningTimings *TimingSlot `json:"eveningTimings,omitempty"`
	Ingredients    *string     `json:"ingredients,omitempty"`
	Priority       *int        `json:"priority,omitempty"`
	ImgSrc         *string     `json:"imgSrc,omitempty"`
}

// Apply merges the present fields of u onto m. Setting either custom slot
// detaches the item from its template.
func (u MenuItemUpdate) Apply(m *MenuItem) {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Price != nil {
		m.Price = *u.Price
	}
	if u.Desc != nil {
		m.Desc = *u.Desc
	}
	if u.MorningTimings != nil {
		m.MorningTimings = u.MorningTimings
		m.TimingTemplate = ""
	}
	if u.EveningTimings != nil {
		m.EveningTimings = u.EveningTimings
		m.TimingTemplate = ""
	}
	if u.Ingredients != nil {
		m.Ingredients = *u.Ingredients
	}
	if u.Priority != nil {
		m.Priority = *u.Priority
	}
	if u.ImgSrc != nil {
		m.ImgSrc = *u.ImgSrc
	}
}

// ValidateMenuItem checks a menu item for constraint violations.
func ValidateMenuItem(m *MenuItem) error {
	var ve ValidationError
	if strings.TrimSpace(m.Name) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	}
	if m.Price < 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "price", Message: "must not be negative"})
	}
	if strings.TrimSpace(m.Desc) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "desc", Message: "is required"})
	}
	if strings.TrimSpace(m.Ingredients) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "ingredients", Message: "is required"})
	}
	if !isAbsoluteURL(m.ImgSrc) {
		ve.Errors = append(ve.Errors, FieldError{Field: "imgSrc", Message: "must be a valid URL"})
	}
	m.MorningTimings.validate("morningTimings", &ve)
	m.EveningTimings.validate("eveningTimings", &ve)
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
