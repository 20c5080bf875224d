package hypr

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/slatebar/internal/cell"
	"github.com/jmylchreest/slatebar/internal/model"
)

// testDriver returns a driver with a fake command-socket query and the cell
// backing it.
func testDriver(t *testing.T, query func() (map[int64]string, error)) (*Driver, *cell.Cell[model.HyprWorkspaces]) {
	t.Helper()
	c := cell.New(model.HyprWorkspaces{}, nil)
	t.Cleanup(c.Close)

	d := NewDriver(c, nil)
	d.query = query
	return d, c
}

// flush waits for every queued cell mutation to be applied.
func flush(t *testing.T, c *cell.Cell[model.HyprWorkspaces]) {
	t.Helper()
	done := make(chan struct{})
	c.Update(func(*model.HyprWorkspaces) { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cell did not drain in time")
	}
}

func TestDriver_CreateAndDestroy(t *testing.T) {
	d, c := testDriver(t, nil)

	d.handleLine("createworkspacev2>>1,web")
	d.handleLine("createworkspacev2>>2,code")
	d.handleLine("destroyworkspacev2>>1,web")
	flush(t, c)

	got := c.Get()
	require.Len(t, got.Workspaces, 1)
	assert.Equal(t, model.HyprWorkspace{ID: 2, Name: "code"}, got.Workspaces[0])
}

func TestDriver_IDCollisionKeepsOriginal(t *testing.T) {
	d, c := testDriver(t, nil)

	d.handleLine("createworkspacev2>>5,mail")
	d.handleLine("createworkspacev2>>5,chat")
	flush(t, c)

	got := c.Get()
	require.Len(t, got.Workspaces, 1)
	assert.Equal(t, "mail", got.Workspaces[0].Name, "last write must not win on id collision")
}

func TestDriver_DestroyUnknownIDIsNoOp(t *testing.T) {
	d, c := testDriver(t, nil)

	d.handleLine("createworkspacev2>>1,web")
	d.handleLine("destroyworkspacev2>>9,ghost")
	flush(t, c)

	got := c.Get()
	require.Len(t, got.Workspaces, 1)
	assert.Empty(t, got.Err)
}

func TestDriver_DestroyNameMismatchStillRemoves(t *testing.T) {
	d, c := testDriver(t, nil)

	d.handleLine("createworkspacev2>>1,web")
	d.handleLine("destroyworkspacev2>>1,browser")
	flush(t, c)

	assert.Empty(t, c.Get().Workspaces)
}

func TestDriver_ActiveCursors(t *testing.T) {
	d, c := testDriver(t, nil)

	d.handleLine("createworkspacev2>>1,web")
	d.handleLine("workspacev2>>1,web")
	d.handleLine("activespecialv2>>42,scratch")
	flush(t, c)

	got := c.Get()
	require.NotNil(t, got.Active)
	assert.Equal(t, int64(1), *got.Active)
	require.NotNil(t, got.ActiveSpecial)
	assert.Equal(t, int64(42), *got.ActiveSpecial)

	// Empty id clears the cursor.
	d.handleLine("activespecialv2>>,")
	flush(t, c)
	assert.Nil(t, c.Get().ActiveSpecial)
}

func TestDriver_MalformedActiveLineIsSkipped(t *testing.T) {
	resyncs := 0
	d, c := testDriver(t, func() (map[int64]string, error) {
		resyncs++
		return map[int64]string{}, nil
	})

	d.handleLine("workspacev2>>no-comma-here")
	d.handleLine("workspacev2>>abc,def")
	flush(t, c)

	assert.Nil(t, c.Get().Active)
	assert.Zero(t, resyncs, "cursor lines must never trigger a resync")
}

func TestDriver_MalformedCreateTriggersResync(t *testing.T) {
	resyncs := 0
	d, c := testDriver(t, func() (map[int64]string, error) {
		resyncs++
		return map[int64]string{7: "resynced"}, nil
	})

	d.handleLine("createworkspacev2>>oops")
	flush(t, c)

	assert.Equal(t, 1, resyncs)
	got := c.Get()
	require.Len(t, got.Workspaces, 1)
	assert.Equal(t, "resynced", got.Workspaces[0].Name)

	d.handleLine("destroyworkspacev2>>notanumber,x")
	flush(t, c)
	assert.Equal(t, 2, resyncs)
}

func TestDriver_FailedResyncKeepsIncrementalState(t *testing.T) {
	d, c := testDriver(t, func() (map[int64]string, error) {
		return nil, errors.New("socket gone")
	})

	d.handleLine("createworkspacev2>>1,web")
	d.handleLine("createworkspacev2>>broken")
	flush(t, c)

	got := c.Get()
	require.Len(t, got.Workspaces, 1)
	assert.Equal(t, "web", got.Workspaces[0].Name)
	assert.Empty(t, got.Err)
}

func TestDriver_SnapshotSortedByID(t *testing.T) {
	d, c := testDriver(t, nil)

	d.handleLine("createworkspacev2>>3,c")
	d.handleLine("createworkspacev2>>1,a")
	d.handleLine("createworkspacev2>>2,b")
	flush(t, c)

	got := c.Get()
	require.Len(t, got.Workspaces, 3)
	assert.Equal(t, int64(1), got.Workspaces[0].ID)
	assert.Equal(t, int64(2), got.Workspaces[1].ID)
	assert.Equal(t, int64(3), got.Workspaces[2].ID)
}
