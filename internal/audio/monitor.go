package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/jmylchreest/slatebar/internal/cell"
)

// The graph feed is the audio server's own JSON monitor dump: it emits the
// full object set once, then an array of changed objects per change.
const (
	monitorBinary = "pw-dump"
	monitorFlag   = "--monitor"
)

// Monitor owns the graph-dump subprocess and reconciles its stream into
// updates on an unbounded queue. The decode loop runs on its own goroutine
// and never waits on the consumer; a failed push means the consumer is gone
// and terminates the loop cleanly by killing the subprocess.
type Monitor struct {
	logger  *slog.Logger
	updates *cell.Queue[Update]
	graph   *graph
}

// NewMonitor creates a monitor pushing reconciled updates into updates.
func NewMonitor(updates *cell.Queue[Update], logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger:  logger,
		updates: updates,
		graph:   newGraph(logger),
	}
}

// Start spawns the graph monitor subprocess and begins decoding its stream.
// Failure to spawn is terminal and returned; the caller decides whether the
// widget learns about it here or through the queue.
func (m *Monitor) Start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, monitorBinary, monitorFlag)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open monitor pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to spawn %s: %w", monitorBinary, err)
	}

	go m.run(cmd, stdout)
	return nil
}

// run decodes batches of graph objects until the stream ends or the
// consumer goes away. Stream end is terminal: one error update, no restart.
func (m *Monitor) run(cmd *exec.Cmd, stdout io.Reader) {
	defer func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
	}()

	decoder := json.NewDecoder(stdout)
	for {
		var batch []graphObject
		if err := decoder.Decode(&batch); err != nil {
			if err == io.EOF {
				err = fmt.Errorf("%s exited", monitorBinary)
			}
			m.logger.Error("audio graph stream ended", "error", err)
			m.updates.Push(Update{Kind: UpdateError, Err: err.Error()})
			return
		}

		for _, obj := range batch {
			for _, update := range m.graph.apply(obj) {
				if !m.updates.Push(update) {
					// Consumer gone; shut the stream down quietly.
					return
				}
			}
		}
	}
}
