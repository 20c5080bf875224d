package bar

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/jmylchreest/slatebar/internal/statusline"
)

// registry routes click events to widgets by instance id. Workspace blocks
// append "/<handle>" to the widget's instance; routing cuts at the first
// slash so one widget owns all of its blocks.
type registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	widgets map[string]widget
}

func newRegistry(logger *slog.Logger) *registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &registry{
		logger:  logger,
		widgets: make(map[string]widget),
	}
}

// reset replaces the routing table with the given widget set.
func (r *registry) reset(widgets []widget) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.widgets = make(map[string]widget, len(widgets))
	for _, w := range widgets {
		r.widgets[w.instance()] = w
	}
}

// Route delivers a click to the owning widget. Unknown instances are logged
// and dropped.
func (r *registry) Route(ev statusline.Click) {
	id, _, _ := strings.Cut(ev.Instance, "/")

	r.mu.RLock()
	w, ok := r.widgets[id]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("click for unknown instance", "instance", ev.Instance, "name", ev.Name)
		return
	}
	w.click(ev)
}
