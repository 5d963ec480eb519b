package model

// Slot names a daily service window.
type Slot string

const (
	SlotMorning Slot = "morning"
	SlotEvening Slot = "evening"
)

// IsValid reports whether s is a known slot.
func (s Slot) IsValid() bool {
	return s == SlotMorning || s == SlotEvening
}

// MenuFilter holds criteria for listing menu items. Results are always ordered
// by priority then name.
type MenuFilter struct {
	Slot       Slot   `json:"slot,omitempty"`       // only items with an effective slot of this kind
	Ingredient string `json:"ingredient,omitempty"` // case-insensitive substring of ingredients
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}
