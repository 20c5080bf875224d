// Package model defines the widget state snapshots shared by the backend
// drivers, the bar renderer, and the control surface. Drivers are the only
// writers; everything else reads copies.
//
// Optional scalars are pointers: nil means the value has not been observed
// yet, which renders as "?" rather than a misleading zero. A non-empty Err
// records a terminal driver failure and replaces the widget's normal text.
package model

import "time"

// BatteryKind is the UPower device type, decoded at the bus boundary.
type BatteryKind int

// Battery kinds slatebar distinguishes; everything else maps to unknown.
const (
	BatteryKindUnknown BatteryKind = iota
	BatteryKindLinePower
	BatteryKindBattery
)

// String returns the kind name.
func (k BatteryKind) String() string {
	switch k {
	case BatteryKindLinePower:
		return "line-power"
	case BatteryKindBattery:
		return "battery"
	default:
		return "unknown"
	}
}

// BatteryState is the UPower charge state, decoded at the bus boundary.
type BatteryState int

// Battery states slatebar distinguishes; everything else maps to unknown.
const (
	BatteryStateUnknown BatteryState = iota
	BatteryStateCharging
	BatteryStateDischarging
	BatteryStateEmpty
	BatteryStateFull
)

// String returns the state name.
func (s BatteryState) String() string {
	switch s {
	case BatteryStateCharging:
		return "charging"
	case BatteryStateDischarging:
		return "discharging"
	case BatteryStateEmpty:
		return "empty"
	case BatteryStateFull:
		return "full"
	default:
		return "unknown"
	}
}

// Battery is the power widget snapshot sourced from the UPower display
// device. Each field updates independently from its own property stream.
type Battery struct {
	Kind        BatteryKind    `json:"kind"`
	State       BatteryState   `json:"state"`
	Percentage  *float64       `json:"percentage,omitempty"`
	TimeToEmpty *time.Duration `json:"time_to_empty,omitempty"`
	TimeToFull  *time.Duration `json:"time_to_full,omitempty"`
	Err         string         `json:"err,omitempty"`
}

// Profile is the active power profile snapshot. Empty Active means not yet
// known.
type Profile struct {
	Active string `json:"active,omitempty"`
	Err    string `json:"err,omitempty"`
}

// Audio is the default-sink snapshot. Volume is linear 0..1, the peak across
// the sink's channels.
type Audio struct {
	Volume *float64 `json:"volume,omitempty"`
	Mute   *bool    `json:"mute,omitempty"`
	Err    string   `json:"err,omitempty"`
}

// Bluetooth is the adapter snapshot. Connected holds the addresses of
// currently connected devices, sorted.
type Bluetooth struct {
	Available   bool     `json:"available"`
	Powered     bool     `json:"powered"`
	Discovering bool     `json:"discovering"`
	Connected   []string `json:"connected,omitempty"`
	Err         string   `json:"err,omitempty"`
}

// ConnectedCount returns the number of connected devices.
func (b Bluetooth) ConnectedCount() int {
	return len(b.Connected)
}

// HyprWorkspace is one Hyprland workspace.
type HyprWorkspace struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// HyprWorkspaces is the Hyprland widget snapshot. Workspaces is sorted by
// id ascending. The cursors are ids with no uniqueness constraint against
// the list; nil means no active (special) workspace.
type HyprWorkspaces struct {
	Workspaces    []HyprWorkspace `json:"workspaces"`
	Active        *int64          `json:"active,omitempty"`
	ActiveSpecial *int64          `json:"active_special,omitempty"`
	Err           string          `json:"err,omitempty"`
}

// Workspace is one committed compositor workspace from the generic
// workspace protocol. Handle is the protocol object reference, kept so a
// click can be routed back; ID is the optional stable identifier ("" when
// the compositor never sent one).
type Workspace struct {
	Handle      uint32   `json:"handle"`
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Coordinates []uint32 `json:"coordinates,omitempty"`

	Active bool `json:"active"`
	Urgent bool `json:"urgent"`
	Hidden bool `json:"hidden"`

	CanActivate   bool `json:"can_activate"`
	CanDeactivate bool `json:"can_deactivate"`
	CanRemove     bool `json:"can_remove"`
	CanAssign     bool `json:"can_assign"`
}

// Workspaces is the generic compositor widget snapshot, sorted by
// coordinates then name.
type Workspaces struct {
	Workspaces []Workspace `json:"workspaces"`
	Err        string      `json:"err,omitempty"`
}

// Clock is the clock widget snapshot.
type Clock struct {
	Now time.Time `json:"now"`
}

// Status aggregates the snapshots of every configured widget for the
// control surface; nil fields are widgets the bar is not running.
type Status struct {
	Clock          *Clock          `json:"clock,omitempty"`
	Battery        *Battery        `json:"battery,omitempty"`
	Profile        *Profile        `json:"power_profile,omitempty"`
	Audio          *Audio          `json:"volume,omitempty"`
	Bluetooth      *Bluetooth      `json:"bluetooth,omitempty"`
	HyprWorkspaces *HyprWorkspaces `json:"hyprland_workspaces,omitempty"`
	Workspaces     *Workspaces     `json:"workspaces,omitempty"`
}
