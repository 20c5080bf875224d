package extws

import (
	"log/slog"
	"slices"
	"sort"

	"github.com/jmylchreest/slatebar/internal/model"
)

// pending accumulates a workspace's fields until the commit predicate
// holds. id and coordinates are optional and never gate commit.
type pending struct {
	id           *string
	name         *string
	coordinates  []uint32
	state        *stateFlags
	capabilities *capabilityFlags
}

// ready is the commit predicate: name, state, and capabilities have each
// been observed at least once.
func (p *pending) ready() bool {
	return p.name != nil && p.state != nil && p.capabilities != nil
}

// assembler reduces per-handle workspace events into committed workspaces.
// A handle always begins pending; it becomes visible in snapshots only once
// committed. Every mutator reports whether the visible set changed.
type assembler struct {
	logger    *slog.Logger
	pending   map[uint32]*pending
	committed map[uint32]*model.Workspace
}

func newAssembler(logger *slog.Logger) *assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &assembler{
		logger:    logger,
		pending:   make(map[uint32]*pending),
		committed: make(map[uint32]*model.Workspace),
	}
}

// begin starts a pending record for a freshly announced handle.
func (a *assembler) begin(handle uint32) {
	a.pending[handle] = &pending{}
}

func (a *assembler) setID(handle uint32, id string) bool {
	if ws, ok := a.committed[handle]; ok {
		ws.ID = id
		return true
	}
	p, ok := a.pending[handle]
	if !ok {
		a.unknown(handle, "id")
		return false
	}
	p.id = &id
	return a.promote(handle, p)
}

func (a *assembler) setName(handle uint32, name string) bool {
	if ws, ok := a.committed[handle]; ok {
		ws.Name = name
		return true
	}
	p, ok := a.pending[handle]
	if !ok {
		a.unknown(handle, "name")
		return false
	}
	p.name = &name
	return a.promote(handle, p)
}

func (a *assembler) setCoordinates(handle uint32, coords []uint32) bool {
	if ws, ok := a.committed[handle]; ok {
		ws.Coordinates = coords
		return true
	}
	p, ok := a.pending[handle]
	if !ok {
		a.unknown(handle, "coordinates")
		return false
	}
	p.coordinates = coords
	return a.promote(handle, p)
}

func (a *assembler) setState(handle uint32, flags stateFlags) bool {
	if ws, ok := a.committed[handle]; ok {
		ws.Active = flags.active
		ws.Urgent = flags.urgent
		ws.Hidden = flags.hidden
		return true
	}
	p, ok := a.pending[handle]
	if !ok {
		a.unknown(handle, "state")
		return false
	}
	p.state = &flags
	return a.promote(handle, p)
}

func (a *assembler) setCapabilities(handle uint32, flags capabilityFlags) bool {
	if ws, ok := a.committed[handle]; ok {
		ws.CanActivate = flags.activate
		ws.CanDeactivate = flags.deactivate
		ws.CanRemove = flags.remove
		ws.CanAssign = flags.assign
		return true
	}
	p, ok := a.pending[handle]
	if !ok {
		a.unknown(handle, "capabilities")
		return false
	}
	p.capabilities = &flags
	return a.promote(handle, p)
}

// removed discards a pending record without ever committing it, or deletes
// the committed workspace. An unknown handle is a logged no-op.
func (a *assembler) removed(handle uint32) bool {
	if _, ok := a.pending[handle]; ok {
		delete(a.pending, handle)
		return false
	}
	if _, ok := a.committed[handle]; ok {
		delete(a.committed, handle)
		return true
	}
	a.logger.Warn("removed event for unknown workspace", "handle", handle)
	return false
}

// promote commits p once its predicate holds.
func (a *assembler) promote(handle uint32, p *pending) bool {
	if !p.ready() {
		return false
	}

	ws := &model.Workspace{
		Handle:      handle,
		Name:        *p.name,
		Coordinates: p.coordinates,

		Active: p.state.active,
		Urgent: p.state.urgent,
		Hidden: p.state.hidden,

		CanActivate:   p.capabilities.activate,
		CanDeactivate: p.capabilities.deactivate,
		CanRemove:     p.capabilities.remove,
		CanAssign:     p.capabilities.assign,
	}
	if p.id != nil {
		ws.ID = *p.id
	}

	delete(a.pending, handle)
	a.committed[handle] = ws
	return true
}

// snapshot copies the committed set, sorted by coordinates, then name,
// then handle.
func (a *assembler) snapshot() model.Workspaces {
	out := make([]model.Workspace, 0, len(a.committed))
	for _, ws := range a.committed {
		out = append(out, *ws)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := slices.Compare(out[i].Coordinates, out[j].Coordinates); c != 0 {
			return c < 0
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Handle < out[j].Handle
	})
	return model.Workspaces{Workspaces: out}
}

func (a *assembler) unknown(handle uint32, event string) {
	a.logger.Warn("event for unknown workspace", "handle", handle, "event", event)
}
