package audio

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/slatebar/internal/cell"
	"github.com/jmylchreest/slatebar/internal/model"
)

// Driver bridges the monitor's update stream into the widget cell.
type Driver struct {
	logger  *slog.Logger
	cell    *cell.Cell[model.Audio]
	updates *cell.Queue[Update]
	monitor *Monitor
}

// NewDriver creates a driver feeding c.
func NewDriver(c *cell.Cell[model.Audio], logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	updates := cell.NewQueue[Update]()
	return &Driver{
		logger:  logger,
		cell:    c,
		updates: updates,
		monitor: NewMonitor(updates, logger),
	}
}

// Start launches the graph monitor and the forwarder. Spawn failure is
// terminal: the error is published to the widget and returned.
func (d *Driver) Start(ctx context.Context) error {
	go d.forward()

	if err := d.monitor.Start(ctx); err != nil {
		d.logger.Error("audio driver failed", "error", err)
		d.updates.Push(Update{Kind: UpdateError, Err: err.Error()})
		return err
	}
	return nil
}

// Stop closes the update queue; the monitor loop notices at its next push
// and kills the subprocess.
func (d *Driver) Stop() {
	d.updates.Close()
}

// forward applies updates to the widget cell in arrival order.
func (d *Driver) forward() {
	for {
		update, ok := d.updates.Pop()
		if !ok {
			return
		}
		d.cell.Update(func(s *model.Audio) {
			switch update.Kind {
			case UpdateVolume:
				s.Volume = update.Volume
			case UpdateMute:
				s.Mute = update.Mute
			case UpdateError:
				s.Err = update.Err
			}
		})
	}
}
