package power

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/slatebar/internal/cell"
	"github.com/jmylchreest/slatebar/internal/model"
)

// power-profiles-daemon identifiers.
const (
	profilesService   = "org.freedesktop.UPower.PowerProfiles"
	profilesPath      = dbus.ObjectPath("/org/freedesktop/UPower/PowerProfiles")
	profilesInterface = "org.freedesktop.UPower.PowerProfiles"

	activeProfileProperty = "ActiveProfile"
)

// ProfileDriver tracks the active power profile (power-saver, balanced,
// performance).
type ProfileDriver struct {
	logger  *slog.Logger
	cell    *cell.Cell[model.Profile]
	conn    *dbus.Conn
	obj     dbus.BusObject
	signals chan *dbus.Signal
}

// NewProfileDriver creates a driver feeding c.
func NewProfileDriver(c *cell.Cell[model.Profile], logger *slog.Logger) *ProfileDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileDriver{logger: logger, cell: c}
}

// Start connects to the system bus, fetches the active profile, and
// subscribes to changes. Setup failure is terminal.
func (d *ProfileDriver) Start() error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		err = fmt.Errorf("failed to connect to system bus: %w", err)
		d.fail(err)
		return err
	}
	d.conn = conn
	d.obj = conn.Object(profilesService, profilesPath)

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(profilesPath),
	); err != nil {
		err = fmt.Errorf("failed to subscribe to property changes: %w", err)
		d.fail(err)
		return err
	}

	d.fetch()

	d.signals = make(chan *dbus.Signal, 16)
	conn.Signal(d.signals)
	go d.run()

	d.logger.Debug("power profile driver started", "path", profilesPath)
	return nil
}

// Stop unsubscribes and ends the signal loop. A nil signal channel means
// Start never finished its subscription, so there is nothing to tear down.
func (d *ProfileDriver) Stop() {
	if d.conn == nil || d.signals == nil {
		return
	}
	if err := d.conn.RemoveMatchSignal(
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(profilesPath),
	); err != nil {
		d.logger.Warn("failed to remove signal match", "error", err)
	}
	d.conn.RemoveSignal(d.signals)
	close(d.signals)
}

func (d *ProfileDriver) run() {
	for sig := range d.signals {
		if sig.Name != propertiesChanged || sig.Path != profilesPath {
			continue
		}

		iface, changed, invalidated, ok := parsePropertiesChanged(sig, d.logger)
		if !ok || iface != profilesInterface {
			continue
		}

		if variant, ok := changed[activeProfileProperty]; ok {
			d.apply(variant)
			continue
		}
		for _, key := range invalidated {
			if key == activeProfileProperty {
				d.fetch()
			}
		}
	}
}

// fetch re-reads the active profile; a failure keeps the stale value.
func (d *ProfileDriver) fetch() {
	variant, err := d.obj.GetProperty(profilesInterface + "." + activeProfileProperty)
	if err != nil {
		d.logger.Warn("failed to fetch active profile, keeping previous value", "error", err)
		return
	}
	d.apply(variant)
}

func (d *ProfileDriver) apply(variant dbus.Variant) {
	profile, ok := variant.Value().(string)
	if !ok {
		d.logger.Warn("unexpected ActiveProfile type, dropping", "signature", variant.Signature().String())
		return
	}
	d.cell.Update(func(s *model.Profile) { s.Active = profile })
}

func (d *ProfileDriver) fail(err error) {
	d.logger.Error("power profile driver failed", "error", err)
	d.cell.Update(func(s *model.Profile) { s.Err = err.Error() })
}
