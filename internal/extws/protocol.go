package extws

import "fmt"

// Core protocol objects and opcodes used by the handshake. The display is
// always object 1; the registry and sync callback are the first two ids the
// client allocates.
const (
	displayID uint32 = 1

	displayRequestSync        uint16 = 0
	displayRequestGetRegistry uint16 = 1

	displayEventError    uint16 = 0
	displayEventDeleteID uint16 = 1

	registryRequestBind uint16 = 0
	registryEventGlobal uint16 = 0

	callbackEventDone uint16 = 0
)

// ext-workspace-v1 interfaces. The single global manager announces group
// and workspace objects; each workspace's properties arrive as discrete
// events on its own handle.
const (
	managerInterface = "ext_workspace_manager_v1"
	managerVersion   = 1

	managerRequestCommit uint16 = 0

	managerEventWorkspaceGroup uint16 = 0
	managerEventWorkspace      uint16 = 1
	managerEventDone           uint16 = 2
	managerEventFinished       uint16 = 3

	groupRequestDestroy uint16 = 1
	groupEventRemoved   uint16 = 5

	workspaceRequestDestroy  uint16 = 0
	workspaceRequestActivate uint16 = 1

	workspaceEventID           uint16 = 0
	workspaceEventName         uint16 = 1
	workspaceEventCoordinates  uint16 = 2
	workspaceEventState        uint16 = 3
	workspaceEventCapabilities uint16 = 4
	workspaceEventRemoved      uint16 = 5
)

// Workspace state bitset as defined by the protocol.
const (
	stateActive uint32 = 1 << iota
	stateUrgent
	stateHidden

	stateMask = stateActive | stateUrgent | stateHidden
)

// Workspace capability bitset as defined by the protocol.
const (
	capActivate uint32 = 1 << iota
	capDeactivate
	capRemove
	capAssign

	capMask = capActivate | capDeactivate | capRemove | capAssign
)

// stateFlags is the decoded workspace state. Raw bitsets never leave the
// protocol boundary.
type stateFlags struct {
	active bool
	urgent bool
	hidden bool
}

// capabilityFlags is the decoded workspace capability set.
type capabilityFlags struct {
	activate   bool
	deactivate bool
	remove     bool
	assign     bool
}

// decodeState rejects bitsets carrying bits outside the protocol's state
// enum; the triggering event is dropped and prior state retained.
func decodeState(v uint32) (stateFlags, error) {
	if extra := v &^ stateMask; extra != 0 {
		return stateFlags{}, fmt.Errorf("unknown state bits 0x%x", extra)
	}
	return stateFlags{
		active: v&stateActive != 0,
		urgent: v&stateUrgent != 0,
		hidden: v&stateHidden != 0,
	}, nil
}

// decodeCapabilities rejects bitsets carrying bits outside the capability
// enum.
func decodeCapabilities(v uint32) (capabilityFlags, error) {
	if extra := v &^ capMask; extra != 0 {
		return capabilityFlags{}, fmt.Errorf("unknown capability bits 0x%x", extra)
	}
	return capabilityFlags{
		activate:   v&capActivate != 0,
		deactivate: v&capDeactivate != 0,
		remove:     v&capRemove != 0,
		assign:     v&capAssign != 0,
	}, nil
}
