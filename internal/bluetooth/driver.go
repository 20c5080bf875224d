package bluetooth

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/slatebar/internal/cell"
	"github.com/jmylchreest/slatebar/internal/model"
)

const (
	bluezService = "org.bluez"
	bluezRoot    = dbus.ObjectPath("/")

	objectManagerInterface = "org.freedesktop.DBus.ObjectManager"
	propertiesInterface    = "org.freedesktop.DBus.Properties"

	interfacesAdded   = objectManagerInterface + ".InterfacesAdded"
	interfacesRemoved = objectManagerInterface + ".InterfacesRemoved"
	propertiesChanged = propertiesInterface + ".PropertiesChanged"

	getManagedObjects = objectManagerInterface + ".GetManagedObjects"
)

// Driver mirrors the BlueZ object tree into the bluetooth widget cell.
type Driver struct {
	logger  *slog.Logger
	cell    *cell.Cell[model.Bluetooth]
	conn    *dbus.Conn
	tracker *tracker
	signals chan *dbus.Signal
}

// NewDriver creates a driver feeding c.
func NewDriver(c *cell.Cell[model.Bluetooth], logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{logger: logger, cell: c, tracker: newTracker(logger)}
}

// matchOptions covers InterfacesAdded, InterfacesRemoved, and
// PropertiesChanged from the BlueZ daemon.
func matchOptions() [][]dbus.MatchOption {
	return [][]dbus.MatchOption{
		{
			dbus.WithMatchSender(bluezService),
			dbus.WithMatchInterface(objectManagerInterface),
			dbus.WithMatchMember("InterfacesAdded"),
		},
		{
			dbus.WithMatchSender(bluezService),
			dbus.WithMatchInterface(objectManagerInterface),
			dbus.WithMatchMember("InterfacesRemoved"),
		},
		{
			dbus.WithMatchSender(bluezService),
			dbus.WithMatchInterface(propertiesInterface),
			dbus.WithMatchMember("PropertiesChanged"),
		},
	}
}

// Start connects to the system bus, seeds from the managed-object tree, and
// subscribes to BlueZ signals. Setup failure is terminal: the error is
// published to the widget and returned.
func (d *Driver) Start() error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		err = fmt.Errorf("failed to connect to system bus: %w", err)
		d.fail(err)
		return err
	}
	d.conn = conn

	for _, opts := range matchOptions() {
		if err := conn.AddMatchSignal(opts...); err != nil {
			err = fmt.Errorf("failed to subscribe to bluez signals: %w", err)
			d.fail(err)
			return err
		}
	}

	var objects managedObjects
	if err := conn.Object(bluezService, bluezRoot).Call(getManagedObjects, 0).Store(&objects); err != nil {
		// No bluez on the bus is a valid configuration, not an error.
		d.logger.Debug("bluez not available", "error", err)
	} else {
		d.tracker.seed(objects)
	}
	d.publish()

	d.signals = make(chan *dbus.Signal, 16)
	conn.Signal(d.signals)
	go d.run()

	d.logger.Debug("bluetooth driver started", "devices", len(d.tracker.devices))
	return nil
}

// Stop unsubscribes and ends the signal loop. A nil signal channel means
// Start never finished its subscription, so there is nothing to tear down.
func (d *Driver) Stop() {
	if d.conn == nil || d.signals == nil {
		return
	}
	for _, opts := range matchOptions() {
		if err := d.conn.RemoveMatchSignal(opts...); err != nil {
			d.logger.Warn("failed to remove signal match", "error", err)
		}
	}
	d.conn.RemoveSignal(d.signals)
	close(d.signals)
}

// run applies BlueZ signals until the channel closes, publishing a fresh
// snapshot whenever the tracker reports a change.
func (d *Driver) run() {
	for sig := range d.signals {
		if d.applySignal(sig) {
			d.publish()
		}
	}
}

func (d *Driver) applySignal(sig *dbus.Signal) bool {
	switch sig.Name {
	case interfacesAdded:
		if len(sig.Body) < 2 {
			d.logger.Warn("malformed InterfacesAdded signal", "body", len(sig.Body))
			return false
		}
		path, ok := sig.Body[0].(dbus.ObjectPath)
		ifaces, ok2 := sig.Body[1].(map[string]map[string]dbus.Variant)
		if !ok || !ok2 {
			d.logger.Warn("malformed InterfacesAdded signal")
			return false
		}
		return d.tracker.interfacesAdded(path, ifaces)

	case interfacesRemoved:
		if len(sig.Body) < 2 {
			d.logger.Warn("malformed InterfacesRemoved signal", "body", len(sig.Body))
			return false
		}
		path, ok := sig.Body[0].(dbus.ObjectPath)
		ifaces, ok2 := sig.Body[1].([]string)
		if !ok || !ok2 {
			d.logger.Warn("malformed InterfacesRemoved signal")
			return false
		}
		return d.tracker.interfacesRemoved(path, ifaces)

	case propertiesChanged:
		iface, changed, _, ok := parsePropertiesChanged(sig, d.logger)
		if !ok {
			return false
		}
		return d.tracker.propertiesChanged(sig.Path, iface, changed)

	default:
		return false
	}
}

func (d *Driver) publish() {
	snap := d.tracker.snapshot()
	d.cell.Update(func(b *model.Bluetooth) { *b = snap })
}

func (d *Driver) fail(err error) {
	msg := err.Error()
	d.cell.Update(func(b *model.Bluetooth) { *b = model.Bluetooth{Err: msg} })
}

// parsePropertiesChanged unpacks a PropertiesChanged body. Malformed
// signals are logged and dropped.
func parsePropertiesChanged(sig *dbus.Signal, logger *slog.Logger) (string, map[string]dbus.Variant, []string, bool) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(sig.Body) < 3 {
		logger.Warn("malformed PropertiesChanged signal", "body", len(sig.Body))
		return "", nil, nil, false
	}
	iface, ok := sig.Body[0].(string)
	if !ok {
		logger.Warn("malformed PropertiesChanged interface")
		return "", nil, nil, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		logger.Warn("malformed PropertiesChanged payload", "interface", iface)
		return "", nil, nil, false
	}
	invalidated, _ := sig.Body[2].([]string)
	return iface, changed, invalidated, true
}
