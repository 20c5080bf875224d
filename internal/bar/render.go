package bar

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jmylchreest/slatebar/internal/model"
	"github.com/jmylchreest/slatebar/internal/statusline"
	"github.com/jmylchreest/slatebar/internal/theme"
)

// unknownText is shown while a required value has not been observed yet.
const unknownText = "?"

// baseBlock is the neutral block every renderer starts from.
func baseBlock(name, instance string, th *theme.Theme) statusline.Block {
	return statusline.Block{
		Name:                name,
		Instance:            instance,
		Color:               th.Foreground,
		Background:          th.Background,
		Separator:           true,
		SeparatorBlockWidth: statusline.SeparatorWidth,
	}
}

// errorBlock renders a terminal driver failure.
func errorBlock(name, instance, msg string, th *theme.Theme) statusline.Block {
	b := baseBlock(name, instance, th)
	b.FullText = name + ": " + msg
	b.ShortText = name + "!"
	b.Color = th.ErrorFg
	b.Urgent = true
	return b
}

func renderClock(snap model.Clock, format, instance string, th *theme.Theme) []statusline.Block {
	b := baseBlock("clock", instance, th)
	if snap.Now.IsZero() {
		b.FullText = unknownText
	} else {
		b.FullText = snap.Now.Format(format)
	}
	return []statusline.Block{b}
}

func renderBattery(snap model.Battery, instance string, th *theme.Theme) []statusline.Block {
	if snap.Err != "" {
		return []statusline.Block{errorBlock("battery", instance, snap.Err, th)}
	}

	b := baseBlock("battery", instance, th)
	switch {
	case snap.Kind == model.BatteryKindLinePower:
		b.FullText = "bat ac"
	case snap.Kind != model.BatteryKindBattery || snap.Percentage == nil:
		b.FullText = "bat " + unknownText
	default:
		b.FullText = fmt.Sprintf("bat %.0f%%", *snap.Percentage)
		switch snap.State {
		case model.BatteryStateCharging:
			b.FullText += "+"
		case model.BatteryStateDischarging:
			b.FullText += "-"
		}
		if snap.State == model.BatteryStateDischarging && *snap.Percentage <= 15 {
			b.Color = th.UrgentBg
			b.Urgent = true
		}
	}
	return []statusline.Block{b}
}

func renderProfile(snap model.Profile, instance string, th *theme.Theme) []statusline.Block {
	if snap.Err != "" {
		return []statusline.Block{errorBlock("power-profile", instance, snap.Err, th)}
	}
	b := baseBlock("power-profile", instance, th)
	if snap.Active == "" {
		b.FullText = unknownText
	} else {
		b.FullText = snap.Active
	}
	return []statusline.Block{b}
}

// renderAudio converts the linear channel volume to the cubic scale most
// desktop mixers show.
func renderAudio(snap model.Audio, instance string, th *theme.Theme) []statusline.Block {
	if snap.Err != "" {
		return []statusline.Block{errorBlock("volume", instance, snap.Err, th)}
	}

	b := baseBlock("volume", instance, th)
	switch {
	case snap.Mute != nil && *snap.Mute:
		b.FullText = "vol muted"
	case snap.Volume == nil:
		b.FullText = "vol " + unknownText
	default:
		b.FullText = fmt.Sprintf("vol %.0f%%", math.Cbrt(*snap.Volume)*100)
	}
	return []statusline.Block{b}
}

func renderBluetooth(snap model.Bluetooth, instance string, th *theme.Theme) []statusline.Block {
	if snap.Err != "" {
		return []statusline.Block{errorBlock("bluetooth", instance, snap.Err, th)}
	}

	b := baseBlock("bluetooth", instance, th)
	switch {
	case !snap.Available:
		b.FullText = "bt " + unknownText
	case !snap.Powered:
		b.FullText = "bt off"
	case snap.ConnectedCount() > 0:
		b.FullText = fmt.Sprintf("bt %d", snap.ConnectedCount())
	case snap.Discovering:
		b.FullText = "bt scan"
	default:
		b.FullText = "bt on"
	}
	return []statusline.Block{b}
}

// renderHyprWorkspaces emits one block per workspace. A nil list means the
// first resync has not landed yet.
func renderHyprWorkspaces(snap model.HyprWorkspaces, instance string, th *theme.Theme) []statusline.Block {
	if snap.Err != "" {
		return []statusline.Block{errorBlock("hyprland-workspaces", instance, snap.Err, th)}
	}
	if snap.Workspaces == nil {
		b := baseBlock("hyprland-workspaces", instance, th)
		b.FullText = unknownText
		return []statusline.Block{b}
	}

	blocks := make([]statusline.Block, 0, len(snap.Workspaces))
	for _, ws := range snap.Workspaces {
		b := baseBlock("hyprland-workspaces", instance, th)
		b.FullText = ws.Name
		b.Separator = false
		b.SeparatorBlockWidth = 0
		if cursorMatches(snap.Active, ws.ID) || cursorMatches(snap.ActiveSpecial, ws.ID) {
			b.Color = th.ActiveFg
			b.Background = th.ActiveBg
		}
		blocks = append(blocks, b)
	}
	if len(blocks) > 0 {
		last := &blocks[len(blocks)-1]
		last.Separator = true
		last.SeparatorBlockWidth = statusline.SeparatorWidth
	}
	return blocks
}

func cursorMatches(cursor *int64, id int64) bool {
	return cursor != nil && *cursor == id
}

// renderWorkspaces emits one block per visible committed workspace. Urgent
// coloring wins over active. Activate-capable workspaces carry the handle in
// the instance so clicks can route back.
func renderWorkspaces(snap model.Workspaces, instance string, th *theme.Theme) []statusline.Block {
	if snap.Err != "" {
		return []statusline.Block{errorBlock("workspaces", instance, snap.Err, th)}
	}
	if snap.Workspaces == nil {
		b := baseBlock("workspaces", instance, th)
		b.FullText = unknownText
		return []statusline.Block{b}
	}

	blocks := make([]statusline.Block, 0, len(snap.Workspaces))
	for _, ws := range snap.Workspaces {
		if ws.Hidden {
			continue
		}
		b := baseBlock("workspaces", instance, th)
		b.FullText = ws.Name
		b.Separator = false
		b.SeparatorBlockWidth = 0
		switch {
		case ws.Urgent:
			b.Color = th.UrgentFg
			b.Background = th.UrgentBg
			b.Urgent = true
		case ws.Active:
			b.Color = th.ActiveFg
			b.Background = th.ActiveBg
		}
		if ws.CanActivate {
			b.Instance = instance + "/" + strconv.FormatUint(uint64(ws.Handle), 10)
		}
		blocks = append(blocks, b)
	}
	if len(blocks) > 0 {
		last := &blocks[len(blocks)-1]
		last.Separator = true
		last.SeparatorBlockWidth = statusline.SeparatorWidth
	}
	return blocks
}
