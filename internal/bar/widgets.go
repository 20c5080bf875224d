package bar

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/slatebar/internal/audio"
	"github.com/jmylchreest/slatebar/internal/bluetooth"
	"github.com/jmylchreest/slatebar/internal/cell"
	"github.com/jmylchreest/slatebar/internal/config"
	"github.com/jmylchreest/slatebar/internal/extws"
	"github.com/jmylchreest/slatebar/internal/hypr"
	"github.com/jmylchreest/slatebar/internal/model"
	"github.com/jmylchreest/slatebar/internal/power"
	"github.com/jmylchreest/slatebar/internal/statusline"
	"github.com/jmylchreest/slatebar/internal/theme"
)

// widget is one configured bar segment: a cell, the driver feeding it, and
// the rendering of its snapshot into blocks.
type widget interface {
	instance() string
	blocks(th *theme.Theme) []statusline.Block
	click(ev statusline.Click)
	describe(st *model.Status)
	close()
}

// newInstanceID generates the ULID identifying one widget instance in
// click events.
func newInstanceID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		// crypto/rand does not fail on any supported platform.
		panic(fmt.Sprintf("failed to generate ULID: %v", err))
	}
	return id.String()
}

// newWidget builds the widget for a config name. Driver start failures are
// logged, not returned: the driver has already published its error to the
// cell, and the widget renders it.
func newWidget(ctx context.Context, name string, cfg *config.Config, notify func(), logger *slog.Logger) (widget, error) {
	switch name {
	case config.WidgetClock:
		return newClockWidget(cfg.Clock.Format, notify), nil

	case config.WidgetBattery:
		w := &batteryWidget{id: newInstanceID(), cell: cell.New(model.Battery{}, notify)}
		w.driver = power.NewBatteryDriver(w.cell, logger)
		if err := w.driver.Start(); err != nil {
			logger.Error("battery driver failed to start", "error", err)
		}
		return w, nil

	case config.WidgetPowerProfile:
		w := &profileWidget{id: newInstanceID(), cell: cell.New(model.Profile{}, notify)}
		w.driver = power.NewProfileDriver(w.cell, logger)
		if err := w.driver.Start(); err != nil {
			logger.Error("power-profile driver failed to start", "error", err)
		}
		return w, nil

	case config.WidgetVolume:
		w := &audioWidget{id: newInstanceID(), cell: cell.New(model.Audio{}, notify)}
		w.driver = audio.NewDriver(w.cell, logger)
		if err := w.driver.Start(ctx); err != nil {
			logger.Error("volume driver failed to start", "error", err)
		}
		return w, nil

	case config.WidgetBluetooth:
		w := &bluetoothWidget{id: newInstanceID(), cell: cell.New(model.Bluetooth{}, notify)}
		w.driver = bluetooth.NewDriver(w.cell, logger)
		if err := w.driver.Start(); err != nil {
			logger.Error("bluetooth driver failed to start", "error", err)
		}
		return w, nil

	case config.WidgetHyprWorkspaces:
		w := &hyprWidget{id: newInstanceID(), cell: cell.New(model.HyprWorkspaces{}, notify)}
		w.driver = hypr.NewDriver(w.cell, logger)
		if err := w.driver.Start(); err != nil {
			logger.Error("hyprland-workspaces driver failed to start", "error", err)
		}
		return w, nil

	case config.WidgetWorkspaces:
		w := &workspacesWidget{id: newInstanceID(), logger: logger, cell: cell.New(model.Workspaces{}, notify)}
		w.driver = extws.NewDriver(w.cell, logger)
		if err := w.driver.Start(); err != nil {
			logger.Error("workspaces driver failed to start", "error", err)
		}
		return w, nil

	default:
		return nil, fmt.Errorf("unknown widget %q", name)
	}
}

type batteryWidget struct {
	id     string
	cell   *cell.Cell[model.Battery]
	driver *power.BatteryDriver
}

func (w *batteryWidget) instance() string { return w.id }

func (w *batteryWidget) blocks(th *theme.Theme) []statusline.Block {
	return renderBattery(w.cell.Get(), w.id, th)
}

func (w *batteryWidget) click(statusline.Click) {}

func (w *batteryWidget) describe(st *model.Status) {
	snap := w.cell.Get()
	st.Battery = &snap
}

func (w *batteryWidget) close() {
	w.cell.Close()
	w.driver.Stop()
}

type profileWidget struct {
	id     string
	cell   *cell.Cell[model.Profile]
	driver *power.ProfileDriver
}

func (w *profileWidget) instance() string { return w.id }

func (w *profileWidget) blocks(th *theme.Theme) []statusline.Block {
	return renderProfile(w.cell.Get(), w.id, th)
}

func (w *profileWidget) click(statusline.Click) {}

func (w *profileWidget) describe(st *model.Status) {
	snap := w.cell.Get()
	st.Profile = &snap
}

func (w *profileWidget) close() {
	w.cell.Close()
	w.driver.Stop()
}

type audioWidget struct {
	id     string
	cell   *cell.Cell[model.Audio]
	driver *audio.Driver
}

func (w *audioWidget) instance() string { return w.id }

func (w *audioWidget) blocks(th *theme.Theme) []statusline.Block {
	return renderAudio(w.cell.Get(), w.id, th)
}

func (w *audioWidget) click(statusline.Click) {}

func (w *audioWidget) describe(st *model.Status) {
	snap := w.cell.Get()
	st.Audio = &snap
}

func (w *audioWidget) close() {
	w.cell.Close()
	w.driver.Stop()
}

type bluetoothWidget struct {
	id     string
	cell   *cell.Cell[model.Bluetooth]
	driver *bluetooth.Driver
}

func (w *bluetoothWidget) instance() string { return w.id }

func (w *bluetoothWidget) blocks(th *theme.Theme) []statusline.Block {
	return renderBluetooth(w.cell.Get(), w.id, th)
}

func (w *bluetoothWidget) click(statusline.Click) {}

func (w *bluetoothWidget) describe(st *model.Status) {
	snap := w.cell.Get()
	st.Bluetooth = &snap
}

func (w *bluetoothWidget) close() {
	w.cell.Close()
	w.driver.Stop()
}

type hyprWidget struct {
	id     string
	cell   *cell.Cell[model.HyprWorkspaces]
	driver *hypr.Driver
}

func (w *hyprWidget) instance() string { return w.id }

func (w *hyprWidget) blocks(th *theme.Theme) []statusline.Block {
	return renderHyprWorkspaces(w.cell.Get(), w.id, th)
}

func (w *hyprWidget) click(statusline.Click) {}

func (w *hyprWidget) describe(st *model.Status) {
	snap := w.cell.Get()
	st.HyprWorkspaces = &snap
}

func (w *hyprWidget) close() {
	w.cell.Close()
	w.driver.Stop()
}

type workspacesWidget struct {
	id     string
	logger *slog.Logger
	cell   *cell.Cell[model.Workspaces]
	driver *extws.Driver
}

func (w *workspacesWidget) instance() string { return w.id }

func (w *workspacesWidget) blocks(th *theme.Theme) []statusline.Block {
	return renderWorkspaces(w.cell.Get(), w.id, th)
}

// click activates the workspace whose handle rides in the block instance.
// Fire and forget: the compositor's answer arrives as a state event.
func (w *workspacesWidget) click(ev statusline.Click) {
	if ev.Button != statusline.ButtonLeft {
		return
	}
	_, handleText, ok := strings.Cut(ev.Instance, "/")
	if !ok {
		return
	}
	handle, err := strconv.ParseUint(handleText, 10, 32)
	if err != nil {
		w.logger.Warn("malformed workspace click instance", "instance", ev.Instance)
		return
	}
	w.driver.Activate(uint32(handle))
}

func (w *workspacesWidget) describe(st *model.Status) {
	snap := w.cell.Get()
	st.Workspaces = &snap
}

func (w *workspacesWidget) close() {
	w.cell.Close()
	w.driver.Stop()
}
