package extws

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
)

// socketPath resolves the Wayland socket from the environment; either
// variable missing is a terminal setup failure.
func socketPath() (string, error) {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", fmt.Errorf("XDG_RUNTIME_DIR is not set")
	}
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		return "", fmt.Errorf("WAYLAND_DISPLAY is not set")
	}
	if filepath.IsAbs(display) {
		return display, nil
	}
	return filepath.Join(runtimeDir, display), nil
}

// client owns the Wayland socket and the object table. Ids the client
// allocates count up from 2 and are never reused, so delete_id events need
// no bookkeeping. Socket writes are serialized: binds and destroys come
// from the read goroutine while activation requests arrive from the bar.
type client struct {
	conn   net.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	nextID   uint32
	registry uint32
	callback uint32
	manager  uint32

	groups     map[uint32]bool
	workspaces map[uint32]bool
}

func newClient(conn net.Conn, logger *slog.Logger) *client {
	if logger == nil {
		logger = slog.Default()
	}
	return &client{
		conn:       conn,
		logger:     logger,
		nextID:     displayID,
		groups:     make(map[uint32]bool),
		workspaces: make(map[uint32]bool),
	}
}

func (c *client) allocate() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return c.nextID
}

func (c *client) send(m message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeMessage(c.conn, m)
}

// handshake requests the registry and a sync callback. The callback's done
// event marks the end of the initial global burst: if the workspace manager
// has not been bound by then, the compositor does not support it.
func (c *client) handshake() error {
	registry := c.allocate()
	if err := c.send(message{
		object: displayID,
		opcode: displayRequestGetRegistry,
		data:   appendUint32(nil, registry),
	}); err != nil {
		return fmt.Errorf("get_registry failed: %w", err)
	}

	callback := c.allocate()
	if err := c.send(message{
		object: displayID,
		opcode: displayRequestSync,
		data:   appendUint32(nil, callback),
	}); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	c.mu.Lock()
	c.registry = registry
	c.callback = callback
	c.mu.Unlock()
	return nil
}

// handleDisplay processes wl_display events. A protocol error is terminal;
// delete_id is ignored because ids are never reused.
func (c *client) handleDisplay(msg message) error {
	switch msg.opcode {
	case displayEventError:
		args := &argReader{data: msg.data}
		object := args.readUint32()
		code := args.readUint32()
		text := args.readString()
		if args.err != nil {
			return fmt.Errorf("malformed display error event: %w", args.err)
		}
		return fmt.Errorf("protocol error on object %d (code %d): %s", object, code, text)
	case displayEventDeleteID:
		return nil
	default:
		return nil
	}
}

// handleRegistry binds the workspace manager when its global is announced.
func (c *client) handleRegistry(msg message) error {
	if msg.opcode != registryEventGlobal {
		return nil
	}

	args := &argReader{data: msg.data}
	name := args.readUint32()
	iface := args.readString()
	version := args.readUint32()
	if args.err != nil {
		c.logger.Warn("malformed registry global, skipping", "error", args.err)
		return nil
	}
	if iface != managerInterface {
		return nil
	}

	bound := min(version, managerVersion)
	manager := c.allocate()

	data := appendUint32(nil, name)
	data = appendString(data, iface)
	data = appendUint32(data, bound)
	data = appendUint32(data, manager)
	if err := c.send(message{object: c.registryID(), opcode: registryRequestBind, data: data}); err != nil {
		return fmt.Errorf("failed to bind %s: %w", managerInterface, err)
	}

	c.mu.Lock()
	c.manager = manager
	c.mu.Unlock()

	c.logger.Debug("bound workspace manager", "global", name, "version", bound)
	return nil
}

// activate sends a fire-and-forget activation for handle, followed by the
// manager commit that makes it take effect. Unknown handles (already
// removed) are dropped silently.
func (c *client) activate(handle uint32) error {
	c.mu.Lock()
	known := c.workspaces[handle]
	manager := c.manager
	c.mu.Unlock()
	if !known || manager == 0 {
		return nil
	}

	if err := c.send(message{object: handle, opcode: workspaceRequestActivate}); err != nil {
		return err
	}
	return c.send(message{object: manager, opcode: managerRequestCommit})
}

// destroyWorkspace releases a removed workspace handle on the server.
func (c *client) destroyWorkspace(handle uint32) {
	if err := c.send(message{object: handle, opcode: workspaceRequestDestroy}); err != nil {
		c.logger.Warn("failed to destroy workspace handle", "handle", handle, "error", err)
	}
}

// destroyGroup releases a removed group handle on the server.
func (c *client) destroyGroup(handle uint32) {
	if err := c.send(message{object: handle, opcode: groupRequestDestroy}); err != nil {
		c.logger.Warn("failed to destroy group handle", "handle", handle, "error", err)
	}
}

func (c *client) registryID() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry
}
