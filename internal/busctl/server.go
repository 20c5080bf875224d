// Package busctl is the session-bus control surface: one exported object
// with a Status method returning the aggregated widget snapshots, and a
// StateChanged signal emitted as renders happen.
package busctl

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/slatebar/internal/model"
)

const (
	// BusName is the well-known name claimed on the session bus.
	BusName = "io.github.jmylchreest.slatebar"
	// ObjectPath is where the bar object is exported.
	ObjectPath = dbus.ObjectPath("/io/github/jmylchreest/slatebar")
	// Interface is the bar control interface.
	Interface = "io.github.jmylchreest.slatebar.Bar1"

	stateChangedSignal = Interface + ".StateChanged"
)

// signalMinInterval coalesces StateChanged emission: renders inside the
// window collapse into one signal.
const signalMinInterval = 250 * time.Millisecond

// StatusProvider returns the current aggregate widget state.
type StatusProvider func() model.Status

// Server exports the bar control object.
type Server struct {
	logger   *slog.Logger
	provider StatusProvider

	mu       sync.Mutex
	conn     *dbus.Conn
	running  bool
	lastEmit time.Time
}

// NewServer creates a server answering Status from provider.
func NewServer(provider StatusProvider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{logger: logger, provider: provider}
}

// Start connects to the session bus, exports the object, and claims the bus
// name. A name already owned elsewhere is not an error to the caller: a
// second bar instance is legitimate, it just runs without a control surface.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s, ObjectPath, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: Interface,
				Methods: []introspect.Method{
					{
						Name: "Status",
						Args: []introspect.Arg{{Name: "state", Type: "s", Direction: "out"}},
					},
				},
				Signals: []introspect.Signal{
					{Name: "StateChanged"},
				},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		s.logger.Warn("bus name already taken, running without control surface", "name", BusName)
		return nil
	}

	s.conn = conn
	s.running = true
	s.logger.Info("control surface started", "name", BusName, "path", ObjectPath)
	return nil
}

// Stop releases the bus name. The shared session connection stays open.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	s.conn = nil
	s.logger.Debug("control surface stopped")
}

// Status returns the aggregate widget state as JSON.
// D-Bus method: Status() -> s
func (s *Server) Status() (string, *dbus.Error) {
	data, err := json.Marshal(s.provider())
	if err != nil {
		return "", dbus.MakeFailedError(fmt.Errorf("failed to marshal status: %w", err))
	}
	return string(data), nil
}

// EmitStateChanged signals watchers that the bar state moved. Emissions are
// coalesced: at most one signal per window, the rest silently dropped since
// watchers pull the full state anyway.
func (s *Server) EmitStateChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	now := time.Now()
	if now.Sub(s.lastEmit) < signalMinInterval {
		return
	}
	s.lastEmit = now

	if err := s.conn.Emit(ObjectPath, stateChangedSignal); err != nil {
		s.logger.Warn("failed to emit StateChanged", "error", err)
	}
}
