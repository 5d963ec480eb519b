package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/swamys/hotfoods/internal/client"
)

var menuCmd = &cobra.Command{
	Use:     "menu",
	Short:   "Browse the menu",
	GroupID: "menu",
}

var menuListCmd = &cobra.Command{
	Use:   "list",
	Short: "List menu items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.ListMenuRequest{}
		req.Slot, _ = cmd.Flags().GetString("slot")
		req.Ingredient, _ = cmd.Flags().GetString("ingredient")
		req.Limit, _ = cmd.Flags().GetInt("limit")
		req.Offset, _ = cmd.Flags().GetInt("offset")

		items, err := apiClient.ListMenu(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(items)
			return nil
		}
		printMenuTable(cmd.OutOrStdout(), items)
		return nil
	},
}

var menuShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a menu item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := apiClient.GetMenuItem(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(item)
			return nil
		}
		printMenuItem(cmd.OutOrStdout(), item)
		return nil
	},
}

var menuAvailableCmd = &cobra.Command{
	Use:   "available",
	Short: "List items served now, or at --at",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var at time.Time
		if s, _ := cmd.Flags().GetString("at"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return fmt.Errorf("invalid --at %q: use RFC 3339, e.g. 2025-03-05T08:00:00+05:30", s)
			}
			at = t
		}
		items, err := apiClient.AvailableMenu(cmd.Context(), at)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(items)
			return nil
		}
		printMenuTable(cmd.OutOrStdout(), items)
		return nil
	},
}

var menuDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a menu item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient.DeleteMenuItem(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var templateCmd = &cobra.Command{
	Use:     "template",
	Short:   "Manage timing templates (admin)",
	GroupID: "menu",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List timing templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := apiClient.ListTemplates(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(list)
			return nil
		}
		printTemplateTable(cmd.OutOrStdout(), list)
		return nil
	},
}

var templateAssignCmd = &cobra.Command{
	Use:   "assign <key> <menu-id>...",
	Short: "Point menu items at a template",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := apiClient.AssignTemplate(cmd.Context(), args[1:], args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %d items (%s)\n", n, joinIDs(args[1:]))
		return nil
	},
}

func init() {
	menuListCmd.Flags().String("slot", "", "filter by slot (morning or evening)")
	menuListCmd.Flags().String("ingredient", "", "filter by ingredient")
	menuListCmd.Flags().Int("limit", 0, "maximum items to return")
	menuListCmd.Flags().Int("offset", 0, "items to skip")
	menuAvailableCmd.Flags().String("at", "", "instant to check (RFC 3339)")

	menuCmd.AddCommand(menuListCmd, menuShowCmd, menuAvailableCmd, menuDeleteCmd)
	templateCmd.AddCommand(templateListCmd, templateAssignCmd)
}
