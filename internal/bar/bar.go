// Package bar composes the configured widgets into one i3bar status stream:
// it owns the widget cells, starts their drivers, coalesces redraw
// notifications, and routes click events back.
package bar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jmylchreest/slatebar/internal/config"
	"github.com/jmylchreest/slatebar/internal/model"
	"github.com/jmylchreest/slatebar/internal/statusline"
	"github.com/jmylchreest/slatebar/internal/theme"
)

// Bar runs the status line: widgets in config order, one render per dirty
// notification, clicks routed by instance id.
type Bar struct {
	logger   *slog.Logger
	writer   *statusline.Writer
	clicks   *statusline.ClickReader
	registry *registry

	// dirty coalesces redraw notifications: any number of cell mutations
	// between renders collapse into one buffered token.
	dirty chan struct{}

	mu       sync.Mutex
	cfg      *config.Config
	th       *theme.Theme
	widgets  []widget
	onRender func(model.Status)
}

// New creates a Bar writing the status stream to out and reading click
// events from in.
func New(cfg *config.Config, out io.Writer, in io.Reader, logger *slog.Logger) *Bar {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bar{
		logger:   logger,
		writer:   statusline.NewWriter(out),
		clicks:   statusline.NewClickReader(in, logger),
		registry: newRegistry(logger),
		dirty:    make(chan struct{}, 1),
		cfg:      cfg,
		th:       theme.Load(cfg.Theme.Name, config.ThemesDir(), logger),
	}
	b.clicks.SetHandler(b.registry.Route)
	return b
}

// SetRenderHandler registers a callback invoked with the aggregate widget
// state after every render. Used by the control surface to emit change
// signals. Must be called before Run.
func (b *Bar) SetRenderHandler(fn func(model.Status)) {
	b.onRender = fn
}

// Run starts the protocol streams and the widget set, then renders until
// ctx is cancelled.
func (b *Bar) Run(ctx context.Context) error {
	if err := b.writer.Start(); err != nil {
		return fmt.Errorf("failed to start status stream: %w", err)
	}
	go b.clicks.Run()

	b.rebuild(ctx, b.cfg)
	defer b.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.dirty:
			if err := b.render(); err != nil {
				return fmt.Errorf("render failed: %w", err)
			}
		}
	}
}

// Reload applies a new validated config: the widget set is rebuilt and the
// palette reloaded. Running drivers of surviving widget types are restarted
// rather than handed over.
func (b *Bar) Reload(ctx context.Context, cfg *config.Config) {
	b.logger.Info("reloading configuration")
	b.mu.Lock()
	b.th = theme.Load(cfg.Theme.Name, config.ThemesDir(), b.logger)
	b.mu.Unlock()
	b.rebuild(ctx, cfg)
}

// Status aggregates every running widget's snapshot.
func (b *Bar) Status() model.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusLocked()
}

func (b *Bar) statusLocked() model.Status {
	var st model.Status
	for _, w := range b.widgets {
		w.describe(&st)
	}
	return st
}

// markDirty requests a render. Never blocks; runs on cell dispatch
// goroutines.
func (b *Bar) markDirty() {
	select {
	case b.dirty <- struct{}{}:
	default:
	}
}

// rebuild replaces the widget set with one built from cfg.
func (b *Bar) rebuild(ctx context.Context, cfg *config.Config) {
	b.mu.Lock()
	old := b.widgets
	b.widgets = nil
	b.mu.Unlock()

	closeWidgets(old)

	var widgets []widget
	for _, name := range cfg.Widgets() {
		w, err := newWidget(ctx, name, cfg, b.markDirty, b.logger)
		if err != nil {
			b.logger.Error("failed to build widget", "widget", name, "error", err)
			continue
		}
		widgets = append(widgets, w)
	}

	b.mu.Lock()
	b.cfg = cfg
	b.widgets = widgets
	b.mu.Unlock()

	b.registry.reset(widgets)
	b.markDirty()
}

// render writes one status line from the current snapshots.
func (b *Bar) render() error {
	b.mu.Lock()
	blocks := make([]statusline.Block, 0, len(b.widgets))
	for _, w := range b.widgets {
		blocks = append(blocks, w.blocks(b.th)...)
	}
	var st model.Status
	if b.onRender != nil {
		st = b.statusLocked()
	}
	b.mu.Unlock()

	if err := b.writer.Write(blocks); err != nil {
		return err
	}
	if b.onRender != nil {
		b.onRender(st)
	}
	return nil
}

func (b *Bar) shutdown() {
	b.mu.Lock()
	widgets := b.widgets
	b.widgets = nil
	b.mu.Unlock()

	closeWidgets(widgets)
	b.logger.Debug("bar stopped")
}

// closeWidgets closes cells before stopping drivers, so a driver's dying
// gasp lands in a dead cell instead of racing the teardown.
func closeWidgets(widgets []widget) {
	for _, w := range widgets {
		w.close()
	}
}
