// Package extws maintains the compositor's workspace set through the
// ext-workspace-v1 Wayland protocol. The protocol delivers each workspace
// as an opaque handle followed by discrete property events; the driver
// assembles those into committed workspaces and publishes consistent
// snapshots into the widget cell.
package extws

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/jmylchreest/slatebar/internal/cell"
	"github.com/jmylchreest/slatebar/internal/model"
)

// Driver owns the Wayland connection on a dedicated goroutine and bridges
// decoded snapshots to the widget through an unbounded queue: the socket
// side never waits on the bar, the bar side never touches the socket.
type Driver struct {
	logger  *slog.Logger
	cell    *cell.Cell[model.Workspaces]
	updates *cell.Queue[model.Workspaces]

	mu     sync.Mutex
	client *client
}

// NewDriver creates a driver feeding c.
func NewDriver(c *cell.Cell[model.Workspaces], logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		logger:  logger,
		cell:    c,
		updates: cell.NewQueue[model.Workspaces](),
	}
}

// Start connects to the compositor and begins dispatching events. Setup
// failure is terminal: the error is published to the widget and returned.
// There is no reconnect; a lost connection renders a fixed error state.
func (d *Driver) Start() error {
	go d.forward()

	path, err := socketPath()
	if err != nil {
		d.fail(err)
		return err
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		err = fmt.Errorf("failed to connect to wayland socket %s: %w", path, err)
		d.fail(err)
		return err
	}

	cl := newClient(conn, d.logger)
	if err := cl.handshake(); err != nil {
		conn.Close()
		d.fail(err)
		return err
	}

	d.mu.Lock()
	d.client = cl
	d.mu.Unlock()

	go d.read(cl)
	return nil
}

// Stop closes the connection and the update queue. The read goroutine ends
// at its next socket read; any queued snapshots are discarded.
func (d *Driver) Stop() {
	d.mu.Lock()
	cl := d.client
	d.mu.Unlock()
	if cl != nil {
		cl.conn.Close()
	}
	d.updates.Close()
}

// Activate asks the compositor to switch to the workspace behind handle.
// Fire and forget: no confirmation is awaited.
func (d *Driver) Activate(handle uint32) {
	d.mu.Lock()
	cl := d.client
	d.mu.Unlock()
	if cl == nil {
		return
	}
	if err := cl.activate(handle); err != nil {
		d.logger.Warn("failed to send activate request", "handle", handle, "error", err)
	}
}

// forward drains the update queue into the widget cell.
func (d *Driver) forward() {
	for {
		snap, ok := d.updates.Pop()
		if !ok {
			return
		}
		d.cell.Update(func(s *model.Workspaces) { *s = snap })
	}
}

// read is the blocking dispatch loop against the protocol connection. Loop
// exit pushes one terminal error update and stops.
func (d *Driver) read(cl *client) {
	defer cl.conn.Close()

	asm := newAssembler(d.logger)
	for {
		msg, err := readMessage(cl.conn)
		if err != nil {
			d.fail(fmt.Errorf("wayland connection lost: %w", err))
			return
		}

		changed, err := d.dispatch(cl, asm, msg)
		if err != nil {
			d.fail(err)
			return
		}
		if changed {
			if !d.updates.Push(asm.snapshot()) {
				// The bar is gone; stop reading.
				return
			}
		}
	}
}

// dispatch routes one message by object. It reports whether the visible
// workspace set changed and returns an error only for terminal conditions.
func (d *Driver) dispatch(cl *client, asm *assembler, msg message) (bool, error) {
	cl.mu.Lock()
	registry, callback, manager := cl.registry, cl.callback, cl.manager
	isGroup := cl.groups[msg.object]
	isWorkspace := cl.workspaces[msg.object]
	cl.mu.Unlock()

	switch {
	case msg.object == displayID:
		return false, cl.handleDisplay(msg)

	case msg.object == registry:
		return false, cl.handleRegistry(msg)

	case msg.object == callback:
		if msg.opcode == callbackEventDone {
			cl.mu.Lock()
			bound := cl.manager != 0
			cl.mu.Unlock()
			if !bound {
				return false, fmt.Errorf("compositor does not expose %s", managerInterface)
			}
		}
		return false, nil

	case manager != 0 && msg.object == manager:
		return d.handleManager(cl, asm, msg)

	case isGroup:
		if msg.opcode == groupEventRemoved {
			cl.mu.Lock()
			delete(cl.groups, msg.object)
			cl.mu.Unlock()
			cl.destroyGroup(msg.object)
		}
		return false, nil

	case isWorkspace:
		return d.handleWorkspace(cl, asm, msg), nil

	default:
		d.logger.Debug("event for untracked object", "object", msg.object, "opcode", msg.opcode)
		return false, nil
	}
}

// handleManager tracks the group and workspace objects the manager
// announces. The manager's finished event means no further events will
// arrive, which is terminal for a live widget.
func (d *Driver) handleManager(cl *client, asm *assembler, msg message) (bool, error) {
	switch msg.opcode {
	case managerEventWorkspaceGroup:
		args := &argReader{data: msg.data}
		handle := args.readUint32()
		if args.err != nil {
			d.logger.Warn("malformed workspace_group event, dropping", "error", args.err)
			return false, nil
		}
		cl.mu.Lock()
		cl.groups[handle] = true
		cl.mu.Unlock()
		return false, nil

	case managerEventWorkspace:
		args := &argReader{data: msg.data}
		handle := args.readUint32()
		if args.err != nil {
			d.logger.Warn("malformed workspace event, dropping", "error", args.err)
			return false, nil
		}
		cl.mu.Lock()
		cl.workspaces[handle] = true
		cl.mu.Unlock()
		asm.begin(handle)
		return false, nil

	case managerEventDone:
		return false, nil

	case managerEventFinished:
		return false, fmt.Errorf("workspace manager finished")

	default:
		return false, nil
	}
}

// handleWorkspace applies one property event to the assembler. Undecodable
// payloads are dropped with prior state retained.
func (d *Driver) handleWorkspace(cl *client, asm *assembler, msg message) bool {
	handle := msg.object
	args := &argReader{data: msg.data}

	switch msg.opcode {
	case workspaceEventID:
		id := args.readString()
		if args.err != nil {
			d.dropEvent(handle, "id", args.err)
			return false
		}
		return asm.setID(handle, id)

	case workspaceEventName:
		name := args.readString()
		if args.err != nil {
			d.dropEvent(handle, "name", args.err)
			return false
		}
		return asm.setName(handle, name)

	case workspaceEventCoordinates:
		raw := args.readArray()
		if args.err != nil {
			d.dropEvent(handle, "coordinates", args.err)
			return false
		}
		coords, err := decodeCoordinates(raw)
		if err != nil {
			d.dropEvent(handle, "coordinates", err)
			return false
		}
		return asm.setCoordinates(handle, coords)

	case workspaceEventState:
		raw := args.readUint32()
		if args.err != nil {
			d.dropEvent(handle, "state", args.err)
			return false
		}
		flags, err := decodeState(raw)
		if err != nil {
			d.dropEvent(handle, "state", err)
			return false
		}
		return asm.setState(handle, flags)

	case workspaceEventCapabilities:
		raw := args.readUint32()
		if args.err != nil {
			d.dropEvent(handle, "capabilities", args.err)
			return false
		}
		flags, err := decodeCapabilities(raw)
		if err != nil {
			d.dropEvent(handle, "capabilities", err)
			return false
		}
		return asm.setCapabilities(handle, flags)

	case workspaceEventRemoved:
		changed := asm.removed(handle)
		cl.mu.Lock()
		delete(cl.workspaces, handle)
		cl.mu.Unlock()
		cl.destroyWorkspace(handle)
		return changed

	default:
		return false
	}
}

func (d *Driver) dropEvent(handle uint32, event string, err error) {
	d.logger.Warn("undecodable workspace event, dropping", "handle", handle, "event", event, "error", err)
}

// fail pushes one terminal error update through the queue so it lands
// after every snapshot observed before the failure.
func (d *Driver) fail(err error) {
	d.logger.Error("workspace driver failed", "error", err)
	d.updates.Push(model.Workspaces{Err: err.Error()})
}
