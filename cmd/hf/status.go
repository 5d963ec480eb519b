package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/swamys/hotfoods/internal/model"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the shop status",
	GroupID: "store",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := statusClient.GetStoreConfig(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(p)
			return nil
		}
		printStatus(cmd.OutOrStdout(), p)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the shop state (admin)",
	Long: `Change one or more store settings. Only flags that are given are sent.

Opening the shop stops cooking and starting cooking closes the shop, so
--open and --cooking cannot both be true.`,
	Example: `  hf set --open
  hf set --cooking
  hf set --holiday --holiday-message "Closed for Pongal"`,
	GroupID: "store",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u := updateFromFlags(cmd)
		if u.Empty() {
			return errors.New("no settings given")
		}
		p, err := statusClient.UpdateStoreConfig(cmd.Context(), u)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(p)
			return nil
		}
		printStatus(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	f := setCmd.Flags()
	f.Bool("open", false, "shop is open")
	f.Bool("cooking", false, "kitchen is cooking")
	f.Bool("holiday", false, "shop is on holiday")
	f.String("holiday-message", "", "holiday banner text")
	f.Bool("notice", false, "notice board is shown")
	f.String("notice-message", "", "notice board text")
	f.String("description", "", "shop description")
}

// updateFromFlags builds a partial update holding only the flags the user
// actually passed, so "--open=false" and an absent --open differ.
func updateFromFlags(cmd *cobra.Command) model.StoreConfigUpdate {
	var u model.StoreConfigUpdate
	f := cmd.Flags()
	boolFlag := func(name string) *bool {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetBool(name)
		return &v
	}
	stringFlag := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetString(name)
		return &v
	}
	u.IsShopOpen = boolFlag("open")
	u.IsCooking = boolFlag("cooking")
	u.IsHoliday = boolFlag("holiday")
	u.HolidayMessage = stringFlag("holiday-message")
	u.IsNoticeActive = boolFlag("notice")
	u.NoticeMessage = stringFlag("notice-message")
	u.Description = stringFlag("description")
	return u
}

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream live shop status changes",
	GroupID: "store",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err := statusClient.WatchStoreStatus(ctx, func(p *model.StatusPayload) error {
			if jsonOutput {
				printJSON(p)
				return nil
			}
			printStatus(cmd.OutOrStdout(), p)
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
