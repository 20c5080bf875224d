// Package bluetooth maintains the BlueZ adapter snapshot: powered and
// discovering flags plus the set of currently connected devices. Connected
// flags are diffed as transitions, so repeated equal events never disturb
// the set.
package bluetooth

import (
	"log/slog"
	"sort"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/slatebar/internal/model"
)

// BlueZ interface names on the object tree under org.bluez.
const (
	adapterInterface = "org.bluez.Adapter1"
	deviceInterface  = "org.bluez.Device1"
)

// device is one tracked remote device.
type device struct {
	address   string
	connected bool
}

// tracker reduces BlueZ object-manager and property events into the
// adapter snapshot. It is exclusively owned by the driver's signal
// goroutine; tests drive it directly.
type tracker struct {
	logger *slog.Logger

	adapter     dbus.ObjectPath
	powered     bool
	discovering bool
	devices     map[dbus.ObjectPath]*device
}

func newTracker(logger *slog.Logger) *tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &tracker{
		logger:  logger,
		devices: make(map[dbus.ObjectPath]*device),
	}
}

// managedObjects is the GetManagedObjects result shape.
type managedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// seed loads the initial object tree. The first adapter found is the
// tracked one.
func (t *tracker) seed(objects managedObjects) {
	for path, ifaces := range objects {
		t.interfacesAdded(path, ifaces)
	}
}

// interfacesAdded tracks new adapters and devices. Reports whether the
// snapshot changed.
func (t *tracker) interfacesAdded(path dbus.ObjectPath, ifaces map[string]map[string]dbus.Variant) bool {
	changed := false

	if props, ok := ifaces[adapterInterface]; ok && t.adapter == "" {
		t.adapter = path
		t.powered = boolProp(props, "Powered")
		t.discovering = boolProp(props, "Discovering")
		t.logger.Debug("tracking adapter", "path", path)
		changed = true
	}

	if props, ok := ifaces[deviceInterface]; ok {
		address, _ := props["Address"].Value().(string)
		connected := boolProp(props, "Connected")
		t.devices[path] = &device{address: address, connected: connected}
		if connected {
			changed = true
		}
	}

	return changed
}

// interfacesRemoved drops devices regardless of their last connected flag;
// removing the tracked adapter clears to the no-adapter state.
func (t *tracker) interfacesRemoved(path dbus.ObjectPath, ifaces []string) bool {
	changed := false
	for _, iface := range ifaces {
		switch iface {
		case deviceInterface:
			if dev, ok := t.devices[path]; ok {
				delete(t.devices, path)
				if dev.connected {
					changed = true
				}
			}
		case adapterInterface:
			if path == t.adapter {
				t.adapter = ""
				t.powered = false
				t.discovering = false
				t.devices = make(map[dbus.ObjectPath]*device)
				changed = true
			}
		}
	}
	return changed
}

// propertiesChanged applies a change notification for one object path.
func (t *tracker) propertiesChanged(path dbus.ObjectPath, iface string, changed map[string]dbus.Variant) bool {
	switch iface {
	case adapterInterface:
		if path != t.adapter {
			return false
		}
		dirty := false
		if v, ok := changed["Powered"]; ok {
			if powered, ok := v.Value().(bool); ok {
				dirty = dirty || t.powered != powered
				t.powered = powered
			}
		}
		if v, ok := changed["Discovering"]; ok {
			if discovering, ok := v.Value().(bool); ok {
				dirty = dirty || t.discovering != discovering
				t.discovering = discovering
			}
		}
		return dirty

	case deviceInterface:
		dev, ok := t.devices[path]
		if !ok {
			t.logger.Debug("property change for untracked device", "path", path)
			return false
		}
		dirty := false
		if v, ok := changed["Address"]; ok {
			if address, ok := v.Value().(string); ok {
				dev.address = address
			}
		}
		if v, ok := changed["Connected"]; ok {
			if connected, ok := v.Value().(bool); ok && dev.connected != connected {
				// Only an actual flag transition moves the set.
				dev.connected = connected
				dirty = true
			}
		}
		return dirty

	default:
		return false
	}
}

// snapshot derives the widget state; the connected set holds the addresses
// of devices whose last observed flag is true, sorted.
func (t *tracker) snapshot() model.Bluetooth {
	snap := model.Bluetooth{
		Available:   t.adapter != "",
		Powered:     t.powered,
		Discovering: t.discovering,
	}
	for _, dev := range t.devices {
		if dev.connected && dev.address != "" {
			snap.Connected = append(snap.Connected, dev.address)
		}
	}
	sort.Strings(snap.Connected)
	return snap
}

func boolProp(props map[string]dbus.Variant, key string) bool {
	v, ok := props[key].Value().(bool)
	return ok && v
}
