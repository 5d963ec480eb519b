package status

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/swamys/hotfoods/internal/model"
)

var istZone = time.FixedZone("IST", ISTOffsetMinutes*60)

// at returns the instant for the given March 2025 day and reference-time clock.
// 5 = Wednesday, 8 = Saturday, 9 = Sunday, 10 = Monday.
func at(day, hour, min int) time.Time {
	return time.Date(2025, time.March, day, hour, min, 0, 0, istZone)
}

func open() *model.StoreConfig {
	cfg := model.DefaultStoreConfig()
	cfg.IsShopOpen = true
	return cfg
}

func closed() *model.StoreConfig {
	return model.DefaultStoreConfig()
}

func TestMessage(t *testing.T) {
	msg := DefaultHours().Messages
	for _, tc := range []struct {
		name string
		cfg  *model.StoreConfig
		now  time.Time
		want string
	}{
		// Shop open, weekday.
		{"Wed1050OpenClosingSoon", open(), at(5, 10, 50), msg.ClosingSoon},
		{"Wed1044OpenNothing", open(), at(5, 10, 44), ""},
		{"Wed1045OpenClosingSoon", open(), at(5, 10, 45), msg.ClosingSoon},
		{"Wed1159OpenClosingSoon", open(), at(5, 11, 59), msg.ClosingSoon},
		{"Wed1200OpenNothing", open(), at(5, 12, 0), ""},
		{"Wed2045OpenClosingSoon", open(), at(5, 20, 45), msg.ClosingSoon},
		{"Wed2130OpenClosingSoon", open(), at(5, 21, 30), msg.ClosingSoon},
		{"Wed2131OpenNothing", open(), at(5, 21, 31), ""},

		// Shop closed, weekday.
		{"Wed1300ClosedOpensEvening", closed(), at(5, 13, 0), msg.OpensEvening},
		{"Wed1159ClosedNothing", closed(), at(5, 11, 59), ""},
		{"Wed1200ClosedOpensEvening", closed(), at(5, 12, 0), msg.OpensEvening},
		{"Wed1629ClosedOpensEvening", closed(), at(5, 16, 29), msg.OpensEvening},
		{"Wed1630ClosedNothing", closed(), at(5, 16, 30), ""},
		{"Wed2130ClosedNothing", closed(), at(5, 21, 30), ""},
		{"Wed2131ClosedOpensMorning", closed(), at(5, 21, 31), msg.OpensNextMorning},
		{"Wed0459ClosedOpensMorning", closed(), at(5, 4, 59), msg.OpensNextMorning},
		{"Wed0500ClosedNothing", closed(), at(5, 5, 0), ""},
		{"Mon0010ClosedOpensMorning", closed(), at(10, 0, 10), msg.OpensNextMorning},
		{"NilConfigTreatedClosed", nil, at(5, 13, 0), msg.OpensEvening},

		// Saturday evening rolls into the Sunday holiday.
		{"Sat2045OpenClosingSoon", open(), at(8, 20, 45), msg.ClosingSoon},
		{"Sat2046OpenHoliday", open(), at(8, 20, 46), msg.SundayHoliday},
		{"Sat2046ClosedHoliday", closed(), at(8, 20, 46), msg.SundayHoliday},
		{"Sat1050OpenClosingSoon", open(), at(8, 10, 50), msg.ClosingSoon},

		// Sunday.
		{"Sun0900ClosedHoliday", closed(), at(9, 9, 0), msg.SundayHoliday},
		{"Sun0900OpenHoliday", open(), at(9, 9, 0), msg.SundayHoliday},
		{"Sun2130Holiday", closed(), at(9, 21, 30), msg.SundayHoliday},
		{"Sun2131Reopen", closed(), at(9, 21, 31), msg.SundayReopen},
		{"Sun2131OpenReopen", open(), at(9, 21, 31), msg.SundayReopen},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := Message(tc.cfg, tc.now); got != tc.want {
				t.Fatalf("Message() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMessage_IgnoresHostZone(t *testing.T) {
	instant := at(5, 10, 50)
	// Same instant viewed from a UTC-7 host.
	elsewhere := instant.In(time.FixedZone("PDT", -7*60*60))
	if got, want := Message(open(), elsewhere), Message(open(), instant); got != want {
		t.Fatalf("result depends on zone of now: %q vs %q", got, want)
	}
	if got := Message(open(), instant.UTC()); got != DefaultHours().Messages.ClosingSoon {
		t.Fatalf("UTC instant: got %q", got)
	}
}

func TestMessage_Deterministic(t *testing.T) {
	cfg := closed()
	now := at(5, 13, 0)
	first := Message(cfg, now)
	for range 5 {
		if got := Message(cfg, now); got != first {
			t.Fatalf("Message not deterministic: %q then %q", first, got)
		}
	}
	if cfg.IsShopOpen || cfg.UpdatedAt != (time.Time{}) {
		t.Fatal("Message mutated its config")
	}
}

func TestHoursClock(t *testing.T) {
	day, minute := DefaultHours().Clock(time.Date(2025, time.March, 8, 18, 45, 0, 0, time.UTC))
	// 18:45 UTC Saturday is 00:15 IST Sunday.
	if day != time.Sunday || minute != 15 {
		t.Fatalf("Clock = (%v, %d), want (Sunday, 15)", day, minute)
	}
}

func TestLoadHours(t *testing.T) {
	t.Run("EmptyPathDefaults", func(t *testing.T) {
		h, err := LoadHours("")
		if err != nil {
			t.Fatalf("LoadHours: %v", err)
		}
		if h != DefaultHours() {
			t.Fatalf("expected defaults, got %+v", h)
		}
	})

	t.Run("Overlay", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hours.toml")
		body := "evening_close = 1320\n\n[messages]\nclosing_soon = \"Last orders!\"\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		h, err := LoadHours(path)
		if err != nil {
			t.Fatalf("LoadHours: %v", err)
		}
		if h.EveningClose != 1320 {
			t.Errorf("EveningClose = %d, want 1320", h.EveningClose)
		}
		if h.Messages.ClosingSoon != "Last orders!" {
			t.Errorf("ClosingSoon = %q", h.Messages.ClosingSoon)
		}
		if h.Messages.SundayHoliday != DefaultHours().Messages.SundayHoliday {
			t.Errorf("untouched message lost its default: %q", h.Messages.SundayHoliday)
		}
		if h.MorningOpen != 300 {
			t.Errorf("MorningOpen = %d, want default 300", h.MorningOpen)
		}
		// 21:45 is now inside the extended evening window.
		if got := h.Message(open(), at(5, 21, 45)); got != "Last orders!" {
			t.Errorf("Message at 21:45 = %q", got)
		}
	})

	t.Run("OutOfOrder", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hours.toml")
		if err := os.WriteFile(path, []byte("morning_close = 200\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadHours(path)
		if err == nil || !strings.Contains(err.Error(), "morning_close") {
			t.Fatalf("expected ordering error, got %v", err)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := LoadHours(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}
