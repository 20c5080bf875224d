// Package hypr maintains the Hyprland workspace list by combining the
// compositor's persistent line-oriented event socket with on-demand queries
// through its command socket.
package hypr

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jmylchreest/slatebar/internal/cell"
	"github.com/jmylchreest/slatebar/internal/model"
)

// Socket names under $XDG_RUNTIME_DIR/hypr/$HYPRLAND_INSTANCE_SIGNATURE/.
const (
	eventSocketName   = ".socket2.sock"
	commandSocketName = ".socket.sock"
)

// Driver consumes the Hyprland event socket and reduces its lines into the
// widget's workspace snapshot. The command socket seeds the map at startup
// and resynchronizes it whenever a create/destroy line cannot be parsed.
type Driver struct {
	logger *slog.Logger
	cell   *cell.Cell[model.HyprWorkspaces]

	commandPath string
	conn        net.Conn

	// query fetches the full workspace map through the command socket.
	// Swapped for a fake in tests.
	query func() (map[int64]string, error)

	workspaces    map[int64]string
	active        *int64
	activeSpecial *int64
}

// NewDriver creates a driver feeding c.
func NewDriver(c *cell.Cell[model.HyprWorkspaces], logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Driver{
		logger:     logger,
		cell:       c,
		workspaces: make(map[int64]string),
	}
	d.query = d.queryWorkspaces
	return d
}

// SocketDir resolves the Hyprland IPC directory from the environment.
func SocketDir() (string, error) {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", fmt.Errorf("XDG_RUNTIME_DIR is not set")
	}
	signature := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if signature == "" {
		return "", fmt.Errorf("HYPRLAND_INSTANCE_SIGNATURE is not set")
	}
	return filepath.Join(runtimeDir, "hypr", signature), nil
}

// Start connects the event socket, seeds the workspace map through the
// command socket, and begins consuming event lines on its own goroutine.
// Setup failure is terminal: the error is published to the widget and
// returned, and no retry is attempted.
func (d *Driver) Start() error {
	dir, err := SocketDir()
	if err != nil {
		d.fail(err)
		return err
	}
	d.commandPath = filepath.Join(dir, commandSocketName)

	eventPath := filepath.Join(dir, eventSocketName)
	conn, err := net.Dial("unix", eventPath)
	if err != nil {
		err = fmt.Errorf("failed to connect to event socket %s: %w", eventPath, err)
		d.fail(err)
		return err
	}

	d.conn = conn
	go d.run(conn)
	return nil
}

// Stop closes the event socket, ending the read loop. The loop's final
// error lands in a cell the owning widget has already closed.
func (d *Driver) Stop() {
	if d.conn != nil {
		d.conn.Close()
	}
}

// run seeds the map and then reads event lines until the socket errors.
func (d *Driver) run(conn net.Conn) {
	defer conn.Close()

	d.resync()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			d.fail(fmt.Errorf("event socket read failed: %w", err))
			return
		}
		d.handleLine(strings.TrimSuffix(line, "\n"))
	}
}

// handleLine dispatches one tag>>payload event line. Tags the widget does
// not track arrive constantly on the event socket and are skipped without
// logging.
func (d *Driver) handleLine(line string) {
	tag, payload, ok := strings.Cut(line, ">>")
	if !ok {
		return
	}

	switch tag {
	case "createworkspacev2":
		d.handleCreate(payload)
	case "destroyworkspacev2":
		d.handleDestroy(payload)
	case "workspacev2":
		d.handleCursor(tag, payload, &d.active)
	case "activespecialv2":
		d.handleCursor(tag, payload, &d.activeSpecial)
	}
}

func (d *Driver) handleCreate(payload string) {
	idStr, name, ok := strings.Cut(payload, ",")
	if !ok {
		d.logger.Warn("malformed createworkspacev2 line, resyncing", "payload", payload)
		d.resync()
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		d.logger.Warn("unparseable id in createworkspacev2, resyncing", "id", idStr, "error", err)
		d.resync()
		return
	}

	if old, exists := d.workspaces[id]; exists {
		// Deliberate policy: the original entry wins on an id collision.
		d.logger.Warn("createworkspacev2 id collision, keeping existing entry",
			"id", id, "existing", old, "incoming", name)
		return
	}

	d.workspaces[id] = name
	d.publish()
}

func (d *Driver) handleDestroy(payload string) {
	idStr, name, ok := strings.Cut(payload, ",")
	if !ok {
		d.logger.Warn("malformed destroyworkspacev2 line, resyncing", "payload", payload)
		d.resync()
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		d.logger.Warn("unparseable id in destroyworkspacev2, resyncing", "id", idStr, "error", err)
		d.resync()
		return
	}

	old, exists := d.workspaces[id]
	if !exists {
		d.logger.Warn("destroyworkspacev2 for unknown id", "id", id, "name", name)
		return
	}
	if old != name {
		d.logger.Warn("destroyworkspacev2 name mismatch", "id", id, "stored", old, "line", name)
	}

	delete(d.workspaces, id)
	d.publish()
}

// handleCursor sets one of the two active-workspace cursors. Malformed
// cursor lines are skipped; they never trigger a resync.
func (d *Driver) handleCursor(tag, payload string, cursor **int64) {
	idStr, _, ok := strings.Cut(payload, ",")
	if !ok {
		d.logger.Warn("malformed cursor line, skipping", "tag", tag, "payload", payload)
		return
	}

	if idStr == "" {
		*cursor = nil
		d.publish()
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		d.logger.Warn("unparseable workspace id, skipping", "tag", tag, "id", idStr, "error", err)
		return
	}

	*cursor = &id
	d.publish()
}

// resync replaces the whole workspace map from a command-socket query. The
// event socket is still healthy when a query fails, so incremental state
// keeps serving; the next malformed line retries.
func (d *Driver) resync() {
	workspaces, err := d.query()
	if err != nil {
		d.logger.Warn("workspace resync failed, keeping incremental state", "error", err)
		return
	}
	d.workspaces = workspaces
	d.publish()
}

// publish pushes the current snapshot, sorted by id, into the widget cell.
func (d *Driver) publish() {
	snap := model.HyprWorkspaces{
		Workspaces: make([]model.HyprWorkspace, 0, len(d.workspaces)),
	}
	for id, name := range d.workspaces {
		snap.Workspaces = append(snap.Workspaces, model.HyprWorkspace{ID: id, Name: name})
	}
	sort.Slice(snap.Workspaces, func(i, j int) bool {
		return snap.Workspaces[i].ID < snap.Workspaces[j].ID
	})

	if d.active != nil {
		id := *d.active
		snap.Active = &id
	}
	if d.activeSpecial != nil {
		id := *d.activeSpecial
		snap.ActiveSpecial = &id
	}

	d.cell.Update(func(s *model.HyprWorkspaces) { *s = snap })
}

// fail publishes a terminal error; the widget renders it from then on.
func (d *Driver) fail(err error) {
	d.logger.Error("hyprland driver failed", "error", err)
	d.cell.Update(func(s *model.HyprWorkspaces) { s.Err = err.Error() })
}
