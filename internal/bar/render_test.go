package bar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/slatebar/internal/model"
	"github.com/jmylchreest/slatebar/internal/theme"
)

func testTheme() *theme.Theme {
	return &theme.Theme{
		Name:       "test",
		Foreground: "#c0c0c0",
		ActiveFg:   "#000000",
		ActiveBg:   "#00ff00",
		UrgentFg:   "#000000",
		UrgentBg:   "#ff0000",
		ErrorFg:    "#ff0000",
	}
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func boolp(v bool) *bool     { return &v }

func TestRenderClock(t *testing.T) {
	th := testTheme()

	blocks := renderClock(model.Clock{}, "15:04", "id", th)
	require.Len(t, blocks, 1)
	assert.Equal(t, "?", blocks[0].FullText)

	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	blocks = renderClock(model.Clock{Now: now}, "15:04", "id", th)
	assert.Equal(t, "09:26", blocks[0].FullText)
}

func TestRenderBattery(t *testing.T) {
	th := testTheme()

	t.Run("unknown until kind and percentage observed", func(t *testing.T) {
		blocks := renderBattery(model.Battery{}, "id", th)
		require.Len(t, blocks, 1)
		assert.Equal(t, "bat ?", blocks[0].FullText)

		blocks = renderBattery(model.Battery{Kind: model.BatteryKindBattery}, "id", th)
		assert.Equal(t, "bat ?", blocks[0].FullText)
	})

	t.Run("discharging", func(t *testing.T) {
		snap := model.Battery{
			Kind:       model.BatteryKindBattery,
			State:      model.BatteryStateDischarging,
			Percentage: f64(73),
		}
		blocks := renderBattery(snap, "id", th)
		assert.Equal(t, "bat 73%-", blocks[0].FullText)
		assert.False(t, blocks[0].Urgent)
	})

	t.Run("low battery is urgent", func(t *testing.T) {
		snap := model.Battery{
			Kind:       model.BatteryKindBattery,
			State:      model.BatteryStateDischarging,
			Percentage: f64(9),
		}
		blocks := renderBattery(snap, "id", th)
		assert.True(t, blocks[0].Urgent)
	})

	t.Run("line power", func(t *testing.T) {
		blocks := renderBattery(model.Battery{Kind: model.BatteryKindLinePower}, "id", th)
		assert.Equal(t, "bat ac", blocks[0].FullText)
	})

	t.Run("error is terminal", func(t *testing.T) {
		blocks := renderBattery(model.Battery{Err: "bus gone"}, "id", th)
		require.Len(t, blocks, 1)
		assert.Contains(t, blocks[0].FullText, "bus gone")
		assert.Equal(t, th.ErrorFg, blocks[0].Color)
	})
}

func TestRenderAudio(t *testing.T) {
	th := testTheme()

	blocks := renderAudio(model.Audio{}, "id", th)
	assert.Equal(t, "vol ?", blocks[0].FullText)

	// Mute wins over volume.
	blocks = renderAudio(model.Audio{Volume: f64(0.5), Mute: boolp(true)}, "id", th)
	assert.Equal(t, "vol muted", blocks[0].FullText)

	// Cubic display scale: 0.125 linear is 50%.
	blocks = renderAudio(model.Audio{Volume: f64(0.125), Mute: boolp(false)}, "id", th)
	assert.Equal(t, "vol 50%", blocks[0].FullText)
}

func TestRenderBluetooth(t *testing.T) {
	th := testTheme()

	blocks := renderBluetooth(model.Bluetooth{}, "id", th)
	assert.Equal(t, "bt ?", blocks[0].FullText)

	blocks = renderBluetooth(model.Bluetooth{Available: true}, "id", th)
	assert.Equal(t, "bt off", blocks[0].FullText)

	blocks = renderBluetooth(model.Bluetooth{Available: true, Powered: true}, "id", th)
	assert.Equal(t, "bt on", blocks[0].FullText)

	blocks = renderBluetooth(model.Bluetooth{
		Available: true,
		Powered:   true,
		Connected: []string{"AA:BB", "CC:DD"},
	}, "id", th)
	assert.Equal(t, "bt 2", blocks[0].FullText)
}

func TestRenderHyprWorkspaces(t *testing.T) {
	th := testTheme()

	t.Run("unknown before first resync", func(t *testing.T) {
		blocks := renderHyprWorkspaces(model.HyprWorkspaces{}, "id", th)
		require.Len(t, blocks, 1)
		assert.Equal(t, "?", blocks[0].FullText)
	})

	t.Run("active cursor colors its block", func(t *testing.T) {
		snap := model.HyprWorkspaces{
			Workspaces: []model.HyprWorkspace{{ID: 1, Name: "web"}, {ID: 2, Name: "code"}},
			Active:     i64(2),
		}
		blocks := renderHyprWorkspaces(snap, "id", th)
		require.Len(t, blocks, 2)
		assert.Equal(t, th.Foreground, blocks[0].Color)
		assert.Equal(t, th.ActiveBg, blocks[1].Background)
	})

	t.Run("special cursor also colors", func(t *testing.T) {
		snap := model.HyprWorkspaces{
			Workspaces:    []model.HyprWorkspace{{ID: -99, Name: "special"}},
			ActiveSpecial: i64(-99),
		}
		blocks := renderHyprWorkspaces(snap, "id", th)
		assert.Equal(t, th.ActiveBg, blocks[0].Background)
	})
}

func TestRenderWorkspaces(t *testing.T) {
	th := testTheme()

	t.Run("urgent wins over active", func(t *testing.T) {
		snap := model.Workspaces{
			Workspaces: []model.Workspace{{Handle: 7, Name: "chat", Active: true, Urgent: true}},
		}
		blocks := renderWorkspaces(snap, "id", th)
		require.Len(t, blocks, 1)
		assert.Equal(t, th.UrgentBg, blocks[0].Background)
		assert.True(t, blocks[0].Urgent)
	})

	t.Run("hidden workspaces are skipped", func(t *testing.T) {
		snap := model.Workspaces{
			Workspaces: []model.Workspace{
				{Handle: 1, Name: "a"},
				{Handle: 2, Name: "b", Hidden: true},
				{Handle: 3, Name: "c"},
			},
		}
		blocks := renderWorkspaces(snap, "id", th)
		require.Len(t, blocks, 2)
		assert.Equal(t, "a", blocks[0].FullText)
		assert.Equal(t, "c", blocks[1].FullText)
	})

	t.Run("only activate-capable blocks carry a handle", func(t *testing.T) {
		snap := model.Workspaces{
			Workspaces: []model.Workspace{
				{Handle: 4, Name: "a", CanActivate: true},
				{Handle: 5, Name: "b"},
			},
		}
		blocks := renderWorkspaces(snap, "id", th)
		require.Len(t, blocks, 2)
		assert.Equal(t, "id/4", blocks[0].Instance)
		assert.Equal(t, "id", blocks[1].Instance)
	})

	t.Run("error is terminal", func(t *testing.T) {
		snap := model.Workspaces{
			Workspaces: []model.Workspace{{Handle: 1, Name: "a"}},
			Err:        "compositor gone",
		}
		blocks := renderWorkspaces(snap, "id", th)
		require.Len(t, blocks, 1)
		assert.Contains(t, blocks[0].FullText, "compositor gone")
	})
}
