package extws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembler_NoCommitBeforeAllRequiredFields(t *testing.T) {
	a := newAssembler(nil)
	const h = uint32(10)

	a.begin(h)
	assert.False(t, a.setName(h, "web"))
	assert.Empty(t, a.snapshot().Workspaces)

	assert.False(t, a.setState(h, stateFlags{active: true}))
	assert.Empty(t, a.snapshot().Workspaces)

	// Optional fields never gate commit, and never trigger it either.
	assert.False(t, a.setID(h, "ws-web"))
	assert.False(t, a.setCoordinates(h, []uint32{0, 1}))
	assert.Empty(t, a.snapshot().Workspaces)

	// The last required field commits.
	assert.True(t, a.setCapabilities(h, capabilityFlags{activate: true}))

	got := a.snapshot().Workspaces
	require.Len(t, got, 1)
	assert.Equal(t, "web", got[0].Name)
	assert.Equal(t, "ws-web", got[0].ID)
	assert.Equal(t, []uint32{0, 1}, got[0].Coordinates)
	assert.True(t, got[0].Active)
	assert.True(t, got[0].CanActivate)
	assert.False(t, got[0].CanDeactivate)
}

func TestAssembler_RemovedWhilePendingNeverCommits(t *testing.T) {
	a := newAssembler(nil)
	const h = uint32(11)

	a.begin(h)
	a.setName(h, "doomed")
	a.setState(h, stateFlags{})
	assert.False(t, a.removed(h))

	// Late fields for the discarded handle are dropped.
	assert.False(t, a.setCapabilities(h, capabilityFlags{activate: true}))
	assert.Empty(t, a.snapshot().Workspaces)
}

func TestAssembler_CommitRemoveRemoveAgain(t *testing.T) {
	a := newAssembler(nil)
	const h = uint32(12)

	a.begin(h)
	a.setName(h, "web")
	a.setState(h, stateFlags{active: true})
	require.True(t, a.setCapabilities(h, capabilityFlags{activate: true}))

	got := a.snapshot().Workspaces
	require.Len(t, got, 1)
	assert.Equal(t, "web", got[0].Name)
	assert.True(t, got[0].Active)
	assert.True(t, got[0].CanActivate)

	assert.True(t, a.removed(h))
	assert.Empty(t, a.snapshot().Workspaces)

	// A second removed for the same handle is a logged no-op.
	assert.False(t, a.removed(h))
}

func TestAssembler_EventsAfterCommitMutateInPlace(t *testing.T) {
	a := newAssembler(nil)
	const h = uint32(13)

	a.begin(h)
	a.setName(h, "one")
	a.setState(h, stateFlags{})
	require.True(t, a.setCapabilities(h, capabilityFlags{}))

	assert.True(t, a.setName(h, "renamed"))
	assert.True(t, a.setState(h, stateFlags{urgent: true}))

	got := a.snapshot().Workspaces
	require.Len(t, got, 1)
	assert.Equal(t, "renamed", got[0].Name)
	assert.True(t, got[0].Urgent)
	assert.False(t, got[0].Active)
}

func TestAssembler_SnapshotOrder(t *testing.T) {
	a := newAssembler(nil)

	commit := func(h uint32, name string, coords []uint32) {
		a.begin(h)
		a.setName(h, name)
		if coords != nil {
			a.setCoordinates(h, coords)
		}
		a.setState(h, stateFlags{})
		a.setCapabilities(h, capabilityFlags{})
	}

	commit(1, "b", []uint32{1})
	commit(2, "a", []uint32{1})
	commit(3, "z", []uint32{0})
	commit(4, "m", nil)

	got := a.snapshot().Workspaces
	require.Len(t, got, 4)
	// Nil coordinates sort first, then coordinates, then name.
	assert.Equal(t, "m", got[0].Name)
	assert.Equal(t, "z", got[1].Name)
	assert.Equal(t, "a", got[2].Name)
	assert.Equal(t, "b", got[3].Name)
}

func TestDecodeState(t *testing.T) {
	flags, err := decodeState(stateActive | stateUrgent)
	require.NoError(t, err)
	assert.True(t, flags.active)
	assert.True(t, flags.urgent)
	assert.False(t, flags.hidden)

	_, err = decodeState(1 << 7)
	assert.Error(t, err)
}

func TestDecodeCapabilities(t *testing.T) {
	flags, err := decodeCapabilities(capActivate | capAssign)
	require.NoError(t, err)
	assert.True(t, flags.activate)
	assert.True(t, flags.assign)
	assert.False(t, flags.remove)

	_, err = decodeCapabilities(1 << 9)
	assert.Error(t, err)
}
