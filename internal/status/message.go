package status

import (
	"time"

	"github.com/swamys/hotfoods/internal/model"
)

// Message returns the status line for cfg at now, or "" when nothing special
// applies. The result depends on the wall clock, so callers must recompute it
// for every response rather than caching it alongside the config.
//
// Rules, first match wins:
//  1. Saturday after the evening closing-soon mark: Sunday holiday.
//  2. Sunday after evening close: reopening time.
//  3. Any other time on Sunday: Sunday holiday.
//  4. Shop open: closing soon inside either closing-soon window.
//  5. Shop closed: next opening time, between sessions or overnight.
func (h Hours) Message(cfg *model.StoreConfig, now time.Time) string {
	day, t := h.Clock(now)
	msg := h.Messages

	switch {
	case day == time.Saturday && t > h.EveningClosingSoon:
		return msg.SundayHoliday
	case day == time.Sunday && t > h.EveningClose:
		return msg.SundayReopen
	case day == time.Sunday:
		return msg.SundayHoliday
	}

	if cfg != nil && cfg.IsShopOpen {
		if (t >= h.MorningClosingSoon && t <= h.MorningClose) ||
			(t >= h.EveningClosingSoon && t <= h.EveningClose) {
			return msg.ClosingSoon
		}
		return ""
	}

	switch {
	case t > h.MorningClose && t < h.EveningOpen:
		return msg.OpensEvening
	case t > h.EveningClose || t < h.MorningOpen:
		return msg.OpensNextMorning
	}
	return ""
}

// Message derives the status line using DefaultHours.
func Message(cfg *model.StoreConfig, now time.Time) string {
	return DefaultHours().Message(cfg, now)
}
