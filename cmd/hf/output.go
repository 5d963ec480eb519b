package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printStatus(w io.Writer, p *model.StatusPayload) {
	fmt.Fprintln(w, ui.RenderState(p.IsShopOpen, p.IsCooking, headline(p)))
	fmt.Fprintf(w, "Open:        %s\n", yesNo(p.IsShopOpen))
	fmt.Fprintf(w, "Cooking:     %s\n", yesNo(p.IsCooking))
	fmt.Fprintf(w, "Holiday:     %s\n", yesNo(p.IsHoliday))
	if p.IsHoliday {
		fmt.Fprintf(w, "             %s\n", p.HolidayMessage)
	}
	fmt.Fprintf(w, "Notice:      %s\n", yesNo(p.IsNoticeActive))
	if p.IsNoticeActive {
		fmt.Fprintf(w, "             %s\n", p.NoticeMessage)
	}
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated At:  %s\n", ui.RenderMuted(p.UpdatedAt.Local().Format("2006-01-02 15:04:05")))
	}
}

// headline is the derived status line, or the bare state when nothing
// special applies.
func headline(p *model.StatusPayload) string {
	switch {
	case p.CurrentStatusMsg != "":
		return p.CurrentStatusMsg
	case p.IsShopOpen:
		return "Open"
	case p.IsCooking:
		return "Cooking"
	default:
		return "Closed"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatSlot(s *model.TimingSlot) string {
	if s == nil {
		return "-"
	}
	return s.StartTime + "-" + s.EndTime
}

func printMenuTable(w io.Writer, items []*model.MenuItem) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tMORNING\tEVENING\tTEMPLATE")
	for _, m := range items {
		name := m.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		tmpl := m.TimingTemplate
		if tmpl == "" {
			tmpl = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
			m.ID, name, m.Price, formatSlot(m.MorningTimings), formatSlot(m.EveningTimings), tmpl)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d items\n", len(items))
}

func printMenuItem(w io.Writer, m *model.MenuItem) {
	fmt.Fprintf(w, "ID:          %s\n", m.ID)
	fmt.Fprintf(w, "Name:        %s\n", ui.RenderAccent(m.Name))
	fmt.Fprintf(w, "Price:       %.2f\n", m.Price)
	if m.Desc != "" {
		fmt.Fprintf(w, "Description: %s\n", m.Desc)
	}
	if m.Ingredients != "" {
		fmt.Fprintf(w, "Ingredients: %s\n", m.Ingredients)
	}
	if m.TimingTemplate != "" {
		fmt.Fprintf(w, "Template:    %s\n", m.TimingTemplate)
	} else {
		fmt.Fprintf(w, "Morning:     %s\n", formatSlot(m.MorningTimings))
		fmt.Fprintf(w, "Evening:     %s\n", formatSlot(m.EveningTimings))
	}
	fmt.Fprintf(w, "Priority:    %d\n", m.Priority)
}

func printTemplateTable(w io.Writer, list []*model.TimingTemplate) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tMORNING\tEVENING\tACTIVE")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			t.Key, t.Name, formatSlot(t.MorningTimings), formatSlot(t.EveningTimings), yesNo(t.IsActive))
	}
	tw.Flush()
}

// joinIDs is used for short confirmation lines.
func joinIDs(ids []string) string {
	return strings.Join(ids, ", ")
}
