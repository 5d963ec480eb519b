package main

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/swamys/hotfoods/internal/model"
)

func newSetFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "set"}
	f := cmd.Flags()
	f.Bool("open", false, "")
	f.Bool("cooking", false, "")
	f.Bool("holiday", false, "")
	f.String("holiday-message", "", "")
	f.Bool("notice", false, "")
	f.String("notice-message", "", "")
	f.String("description", "", "")
	if err := f.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestUpdateFromFlags(t *testing.T) {
	u := updateFromFlags(newSetFlags(t, "--open=false", "--notice-message", "Fresh vada today"))
	if u.IsShopOpen == nil || *u.IsShopOpen {
		t.Errorf("IsShopOpen = %v, want explicit false", u.IsShopOpen)
	}
	if u.IsCooking != nil || u.IsHoliday != nil || u.HolidayMessage != nil {
		t.Error("flags not given must stay absent")
	}
	if u.NoticeMessage == nil || *u.NoticeMessage != "Fresh vada today" {
		t.Errorf("NoticeMessage = %v", u.NoticeMessage)
	}

	if !updateFromFlags(newSetFlags(t)).Empty() {
		t.Error("no flags should give an empty update")
	}
}

func TestHeadline(t *testing.T) {
	tests := []struct {
		name string
		p    *model.StatusPayload
		want string
	}{
		{"message wins", &model.StatusPayload{StoreConfig: &model.StoreConfig{IsShopOpen: true}, CurrentStatusMsg: "Shop closing soon"}, "Shop closing soon"},
		{"open", &model.StatusPayload{StoreConfig: &model.StoreConfig{IsShopOpen: true}}, "Open"},
		{"cooking", &model.StatusPayload{StoreConfig: &model.StoreConfig{IsCooking: true}}, "Cooking"},
		{"closed", &model.StatusPayload{StoreConfig: &model.StoreConfig{}}, "Closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headline(tt.p); got != tt.want {
				t.Errorf("headline() = %q, want %q", got, tt.want)
			}
		})
	}
}
