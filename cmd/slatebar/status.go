package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/slatebar/internal/busctl"
	"github.com/jmylchreest/slatebar/internal/model"
)

var statusOpts struct {
	format string
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query the running bar's state",
	Long: `Query the running slatebar instance over D-Bus and print its aggregate
widget state.

The waybar format emits a custom-module JSON object for embedding in a
Waybar config:

  "custom/slatebar": {
    "exec": "slatebar status --format waybar",
    "interval": 5,
    "return-type": "json"
  }`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusOpts.format, "format", "json",
		"Output format: json, yaml, or waybar")
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := busctl.FetchStatus()
	if err != nil {
		return err
	}

	switch statusOpts.format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)

	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(st)

	case "waybar":
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(waybarStatus(st))

	default:
		return fmt.Errorf("unknown format %q (want json, yaml, or waybar)", statusOpts.format)
	}
}

// waybarStatus condenses the aggregate state into one Waybar module object.
func waybarStatus(st model.Status) WaybarStatus {
	var parts []string
	var tooltip []string
	class := ""

	if st.Battery != nil {
		text, detail, urgent := batteryText(*st.Battery)
		parts = append(parts, text)
		if detail != "" {
			tooltip = append(tooltip, detail)
		}
		if urgent {
			class = "critical"
		}
	}
	if st.Audio != nil {
		parts = append(parts, audioText(*st.Audio))
	}
	if st.Bluetooth != nil && st.Bluetooth.ConnectedCount() > 0 {
		parts = append(parts, fmt.Sprintf("bt %d", st.Bluetooth.ConnectedCount()))
		tooltip = append(tooltip, "bluetooth: "+strings.Join(st.Bluetooth.Connected, ", "))
	}
	if st.Profile != nil && st.Profile.Active != "" {
		tooltip = append(tooltip, "profile: "+st.Profile.Active)
	}

	return WaybarStatus{
		Text:    strings.Join(parts, " | "),
		Tooltip: strings.Join(tooltip, "\n"),
		Class:   class,
	}
}

func batteryText(b model.Battery) (text, detail string, urgent bool) {
	if b.Err != "" || b.Percentage == nil {
		return "bat ?", "", false
	}

	text = fmt.Sprintf("bat %.0f%%", *b.Percentage)
	switch b.State {
	case model.BatteryStateDischarging:
		if b.TimeToEmpty != nil {
			detail = "empty " + humanize.Time(time.Now().Add(*b.TimeToEmpty))
		}
		urgent = *b.Percentage <= 15
	case model.BatteryStateCharging:
		if b.TimeToFull != nil {
			detail = "full " + humanize.Time(time.Now().Add(*b.TimeToFull))
		}
	}
	return text, detail, urgent
}

func audioText(a model.Audio) string {
	switch {
	case a.Mute != nil && *a.Mute:
		return "vol muted"
	case a.Volume != nil:
		return fmt.Sprintf("vol %.0f%%", math.Cbrt(*a.Volume)*100)
	default:
		return "vol ?"
	}
}
