package busctl

import (
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/slatebar/internal/model"
)

// FetchStatus queries the running bar's control surface and decodes the
// aggregate widget state.
func FetchStatus() (model.Status, error) {
	var st model.Status

	conn, err := dbus.SessionBus()
	if err != nil {
		return st, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var raw string
	call := conn.Object(BusName, ObjectPath).Call(Interface+".Status", 0)
	if err := call.Store(&raw); err != nil {
		return st, fmt.Errorf("is slatebar running? status call failed: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return st, fmt.Errorf("failed to decode status: %w", err)
	}
	return st, nil
}
