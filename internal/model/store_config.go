package model

import "time"

// Defaults applied when the store config singleton is created lazily.
const (
	DefaultHolidayMessage = "Enter Holiday Text..!"
	DefaultNoticeMessage  = "Enter Notice Board Text..!"
	DefaultDescription    = "Swamy's Hot Foods is a pure veg destination."
)

// StoreConfig is the singleton record describing the shop's current state.
// IsShopOpen and IsCooking are never both true once a mutation completes.
type StoreConfig struct {
	IsShopOpen     bool      `json:"isShopOpen"`
	IsCooking      bool      `json:"isCooking"`
	IsHoliday      bool      `json:"isHoliday"`
	HolidayMessage string    `json:"holidayMessage"`
	IsNoticeActive bool      `json:"isNoticeActive"`
	NoticeMessage  string    `json:"noticeMessage"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// DefaultStoreConfig returns the values a freshly created singleton carries.
func DefaultStoreConfig() *StoreConfig {
	return &StoreConfig{
		HolidayMessage: DefaultHolidayMessage,
		NoticeMessage:  DefaultNoticeMessage,
		Description:    DefaultDescription,
	}
}

// Clone returns a copy of c that shares no state with it.
func (c *StoreConfig) Clone() *StoreConfig {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// StoreConfigUpdate is a partial update. A nil field is absent and leaves the
// stored value untouched.
type StoreConfigUpdate struct {
	IsShopOpen     *bool   `json:"isShopOpen,omitempty"`
	IsCooking      *bool   `json:"isCooking,omitempty"`
	IsHoliday      *bool   `json:"isHoliday,omitempty"`
	HolidayMessage *string `json:"holidayMessage,omitempty"`
	IsNoticeActive *bool   `json:"isNoticeActive,omitempty"`
	NoticeMessage  *string `json:"noticeMessage,omitempty"`
	Description    *string `json:"description,omitempty"`
}

// Empty reports whether no field is present.
func (u StoreConfigUpdate) Empty() bool {
	return u.IsShopOpen == nil &&
		u.IsCooking == nil &&
		u.IsHoliday == nil &&
		u.HolidayMessage == nil &&
		u.IsNoticeActive == nil &&
		u.NoticeMessage == nil &&
		u.Description == nil
}

// Apply merges the present fields of u onto c.
func (u StoreConfigUpdate) Apply(c *StoreConfig) {
	if u.IsShopOpen != nil {
		c.IsShopOpen = *u.IsShopOpen
	}
	if u.IsCooking != nil {
		c.IsCooking = *u.IsCooking
	}
	if u.IsHoliday != nil {
		c.IsHoliday = *u.IsHoliday
	}
	if u.HolidayMessage != nil {
		c.HolidayMessage = *u.HolidayMessage
	}
	if u.IsNoticeActive != nil {
		c.IsNoticeActive = *u.IsNoticeActive
	}
	if u.NoticeMessage != nil {
		c.NoticeMessage = *u.NoticeMessage
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
}

// Bool returns a pointer to v, for building updates.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v, for building updates.
func String(v string) *string { return &v }

// StatusPayload is one status push: every StoreConfig field plus the derived
// status line.
type StatusPayload struct {
	*StoreConfig
	CurrentStatusMsg string `json:"currentStatusMsg"`
}
