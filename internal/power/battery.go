// Package power provides the system-bus property drivers: the UPower
// display device (battery) and the active power profile. Both follow the
// same shape: fetch the initial values, subscribe to property-change
// notifications, and republish each change into the widget cell.
package power

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/slatebar/internal/cell"
	"github.com/jmylchreest/slatebar/internal/model"
)

// UPower display device identifiers.
const (
	upowerService     = "org.freedesktop.UPower"
	displayDevicePath = dbus.ObjectPath("/org/freedesktop/UPower/devices/DisplayDevice")
	deviceInterface   = "org.freedesktop.UPower.Device"

	propertiesInterface = "org.freedesktop.DBus.Properties"
	propertiesChanged   = propertiesInterface + ".PropertiesChanged"
)

// BatteryDriver tracks the UPower display device's type, state, percentage,
// and time estimates.
type BatteryDriver struct {
	logger  *slog.Logger
	cell    *cell.Cell[model.Battery]
	conn    *dbus.Conn
	obj     dbus.BusObject
	signals chan *dbus.Signal
}

// NewBatteryDriver creates a driver feeding c.
func NewBatteryDriver(c *cell.Cell[model.Battery], logger *slog.Logger) *BatteryDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatteryDriver{logger: logger, cell: c}
}

// Start connects to the system bus, fetches the initial property set, and
// subscribes to change notifications. Setup failure is terminal: the error
// is published to the widget and returned.
func (d *BatteryDriver) Start() error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		err = fmt.Errorf("failed to connect to system bus: %w", err)
		d.fail(err)
		return err
	}
	d.conn = conn
	d.obj = conn.Object(upowerService, displayDevicePath)

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(displayDevicePath),
	); err != nil {
		err = fmt.Errorf("failed to subscribe to property changes: %w", err)
		d.fail(err)
		return err
	}

	d.refreshAll()

	d.signals = make(chan *dbus.Signal, 16)
	conn.Signal(d.signals)
	go d.run()

	d.logger.Debug("battery driver started", "path", displayDevicePath)
	return nil
}

// Stop unsubscribes and ends the signal loop. A nil signal channel means
// Start never finished its subscription, so there is nothing to tear down.
func (d *BatteryDriver) Stop() {
	if d.conn == nil || d.signals == nil {
		return
	}
	if err := d.conn.RemoveMatchSignal(
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(displayDevicePath),
	); err != nil {
		d.logger.Warn("failed to remove signal match", "error", err)
	}
	d.conn.RemoveSignal(d.signals)
	close(d.signals)
}

// run applies property-change notifications until the channel closes.
func (d *BatteryDriver) run() {
	for sig := range d.signals {
		if sig.Name != propertiesChanged || sig.Path != displayDevicePath {
			continue
		}

		iface, changed, invalidated, ok := parsePropertiesChanged(sig, d.logger)
		if !ok || iface != deviceInterface {
			continue
		}

		for key, variant := range changed {
			d.applyProperty(key, variant)
		}
		for _, key := range invalidated {
			d.fetchProperty(key)
		}
	}
}

// batteryProperties are the display-device properties the widget renders.
var batteryProperties = []string{"Type", "State", "Percentage", "TimeToEmpty", "TimeToFull"}

// refreshAll fetches every tracked property once. Individual fetch failures
// are logged; the corresponding field stays unknown.
func (d *BatteryDriver) refreshAll() {
	for _, key := range batteryProperties {
		d.fetchProperty(key)
	}
}

// fetchProperty re-reads one property and republishes it. A failed fetch
// keeps the stale value: stale-but-valid over erroring.
func (d *BatteryDriver) fetchProperty(key string) {
	variant, err := d.obj.GetProperty(deviceInterface + "." + key)
	if err != nil {
		d.logger.Warn("failed to fetch battery property, keeping previous value", "property", key, "error", err)
		return
	}
	d.applyProperty(key, variant)
}

// applyProperty decodes one property at the bus boundary and publishes it.
// Undecodable values are logged and dropped.
func (d *BatteryDriver) applyProperty(key string, variant dbus.Variant) {
	switch key {
	case "Type":
		v, ok := variant.Value().(uint32)
		if !ok {
			d.badValue(key, variant)
			return
		}
		kind := decodeKind(v)
		d.cell.Update(func(s *model.Battery) { s.Kind = kind })

	case "State":
		v, ok := variant.Value().(uint32)
		if !ok {
			d.badValue(key, variant)
			return
		}
		state := decodeState(v)
		d.cell.Update(func(s *model.Battery) { s.State = state })

	case "Percentage":
		v, ok := variant.Value().(float64)
		if !ok {
			d.badValue(key, variant)
			return
		}
		d.cell.Update(func(s *model.Battery) { s.Percentage = &v })

	case "TimeToEmpty":
		v, ok := variant.Value().(int64)
		if !ok {
			d.badValue(key, variant)
			return
		}
		dur := decodeSeconds(v)
		d.cell.Update(func(s *model.Battery) { s.TimeToEmpty = dur })

	case "TimeToFull":
		v, ok := variant.Value().(int64)
		if !ok {
			d.badValue(key, variant)
			return
		}
		dur := decodeSeconds(v)
		d.cell.Update(func(s *model.Battery) { s.TimeToFull = dur })
	}
}

func (d *BatteryDriver) badValue(key string, variant dbus.Variant) {
	d.logger.Warn("unexpected battery property type, dropping", "property", key, "signature", variant.Signature().String())
}

func (d *BatteryDriver) fail(err error) {
	d.logger.Error("battery driver failed", "error", err)
	d.cell.Update(func(s *model.Battery) { s.Err = err.Error() })
}

// decodeKind maps the UPower device type enum; everything the widget does
// not distinguish maps to unknown.
func decodeKind(v uint32) model.BatteryKind {
	switch v {
	case 1:
		return model.BatteryKindLinePower
	case 2:
		return model.BatteryKindBattery
	default:
		return model.BatteryKindUnknown
	}
}

// decodeState maps the UPower charge state enum.
func decodeState(v uint32) model.BatteryState {
	switch v {
	case 1:
		return model.BatteryStateCharging
	case 2:
		return model.BatteryStateDischarging
	case 3:
		return model.BatteryStateEmpty
	case 4:
		return model.BatteryStateFull
	default:
		return model.BatteryStateUnknown
	}
}

// decodeSeconds converts a UPower time estimate; zero means the estimate is
// not available and must publish as absent, never as a zero duration.
func decodeSeconds(v int64) *time.Duration {
	if v <= 0 {
		return nil
	}
	dur := time.Duration(v) * time.Second
	return &dur
}

// parsePropertiesChanged hand-parses a PropertiesChanged signal body with
// per-field checks.
func parsePropertiesChanged(sig *dbus.Signal, logger *slog.Logger) (string, map[string]dbus.Variant, []string, bool) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(sig.Body) < 3 {
		logger.Warn("short PropertiesChanged body", "len", len(sig.Body))
		return "", nil, nil, false
	}
	iface, ok := sig.Body[0].(string)
	if !ok {
		logger.Warn("unexpected PropertiesChanged interface type")
		return "", nil, nil, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		logger.Warn("unexpected PropertiesChanged changed type")
		return "", nil, nil, false
	}
	invalidated, ok := sig.Body[2].([]string)
	if !ok {
		logger.Warn("unexpected PropertiesChanged invalidated type")
		return "", nil, nil, false
	}
	return iface, changed, invalidated, true
}
