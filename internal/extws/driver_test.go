package extws

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/slatebar/internal/cell"
	"github.com/jmylchreest/slatebar/internal/model"
)

// testHarness wires a driver to a pipe-backed client so tests can feed
// wire-level events through dispatch without a compositor.
type testHarness struct {
	driver *Driver
	client *client
	asm    *assembler
	cell   *cell.Cell[model.Workspaces]
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
	})
	// Drain requests the client writes (destroy, activate, commit).
	go io.Copy(io.Discard, serverConn)

	c := cell.New(model.Workspaces{}, nil)
	t.Cleanup(c.Close)

	d := NewDriver(c, nil)
	t.Cleanup(d.updates.Close)

	cl := newClient(clientConn, nil)
	cl.registry = 2
	cl.callback = 3
	cl.manager = 4
	d.client = cl

	return &testHarness{driver: d, client: cl, asm: newAssembler(nil), cell: c}
}

// dispatch feeds one event and pushes a snapshot when it changed state,
// mirroring the read loop.
func (h *testHarness) dispatch(t *testing.T, msg message) {
	t.Helper()
	changed, err := h.driver.dispatch(h.client, h.asm, msg)
	require.NoError(t, err)
	if changed {
		require.True(t, h.driver.updates.Push(h.asm.snapshot()))
	}
}

func (h *testHarness) flush(t *testing.T) model.Workspaces {
	t.Helper()
	// Drain queued snapshots into the cell synchronously, mirroring
	// forward, so the drain marker below cannot overtake them.
	for h.driver.updates.Len() > 0 {
		snap, ok := h.driver.updates.Pop()
		require.True(t, ok)
		h.cell.Update(func(s *model.Workspaces) { *s = snap })
	}
	done := make(chan struct{})
	h.cell.Update(func(*model.Workspaces) { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cell did not drain in time")
	}
	return h.cell.Get()
}

func workspaceEvent(handle uint32, opcode uint16, data []byte) message {
	return message{object: handle, opcode: opcode, data: data}
}

func TestDriver_WorkspaceRoundTrip(t *testing.T) {
	h := newHarness(t)
	const handle = uint32(20)

	// Manager announces the handle; properties follow in discrete events.
	h.dispatch(t, message{object: 4, opcode: managerEventWorkspace, data: appendUint32(nil, handle)})
	h.dispatch(t, workspaceEvent(handle, workspaceEventName, appendString(nil, "web")))
	h.dispatch(t, workspaceEvent(handle, workspaceEventState, appendUint32(nil, stateActive)))

	// Not yet committed: capabilities missing.
	got := h.flush(t)
	assert.Empty(t, got.Workspaces)

	h.dispatch(t, workspaceEvent(handle, workspaceEventCapabilities, appendUint32(nil, capActivate)))

	got = h.flush(t)
	require.Len(t, got.Workspaces, 1)
	assert.Equal(t, "web", got.Workspaces[0].Name)
	assert.True(t, got.Workspaces[0].Active)
	assert.True(t, got.Workspaces[0].CanActivate)

	// Removed deletes the workspace; a second removed is a no-op.
	h.dispatch(t, workspaceEvent(handle, workspaceEventRemoved, nil))
	got = h.flush(t)
	assert.Empty(t, got.Workspaces)
	assert.Empty(t, got.Err)

	h.dispatch(t, workspaceEvent(handle, workspaceEventRemoved, nil))
	got = h.flush(t)
	assert.Empty(t, got.Workspaces)
	assert.Empty(t, got.Err)
}

func TestDriver_UndecodableBitsetDropped(t *testing.T) {
	h := newHarness(t)
	const handle = uint32(21)

	h.dispatch(t, message{object: 4, opcode: managerEventWorkspace, data: appendUint32(nil, handle)})
	h.dispatch(t, workspaceEvent(handle, workspaceEventName, appendString(nil, "web")))
	h.dispatch(t, workspaceEvent(handle, workspaceEventState, appendUint32(nil, stateUrgent)))
	h.dispatch(t, workspaceEvent(handle, workspaceEventCapabilities, appendUint32(nil, capActivate)))

	// An unknown state bit must not disturb the committed flags.
	h.dispatch(t, workspaceEvent(handle, workspaceEventState, appendUint32(nil, 1<<9)))

	got := h.flush(t)
	require.Len(t, got.Workspaces, 1)
	assert.True(t, got.Workspaces[0].Urgent)
}

func TestDriver_ManagerFinishedIsTerminal(t *testing.T) {
	h := newHarness(t)

	_, err := h.driver.dispatch(h.client, h.asm, message{object: 4, opcode: managerEventFinished})
	assert.Error(t, err)
}

func TestDriver_MissingManagerAfterSyncIsTerminal(t *testing.T) {
	h := newHarness(t)
	h.client.manager = 0

	_, err := h.driver.dispatch(h.client, h.asm, message{object: 3, opcode: callbackEventDone})
	assert.Error(t, err)
}

func TestDriver_FailPublishesErrorState(t *testing.T) {
	h := newHarness(t)

	h.driver.fail(assert.AnError)
	got := h.flush(t)
	assert.NotEmpty(t, got.Err)
}
