package statusline

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// header is the i3bar protocol preamble.
type header struct {
	Version     int  `json:"version"`
	ClickEvents bool `json:"click_events"`
}

// Writer emits the i3bar status stream: a header object, then an endless
// JSON array with one block array per status line.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	started bool
	wrote   bool
}

// NewWriter creates a Writer on w. Nothing is written until Start.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Start writes the protocol header and opens the infinite status array.
func (sw *Writer) Start() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.started {
		return nil
	}

	data, err := json.Marshal(header{Version: 1, ClickEvents: true})
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if _, err := fmt.Fprintf(sw.w, "%s\n[\n", data); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	sw.started = true
	return nil
}

// Write emits one status line. The first line after Start has no leading
// comma; every later line does, per the protocol's endless-array framing.
func (sw *Writer) Write(blocks []Block) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if !sw.started {
		return fmt.Errorf("writer not started")
	}

	if blocks == nil {
		blocks = []Block{}
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("failed to marshal blocks: %w", err)
	}

	prefix := ""
	if sw.wrote {
		prefix = ","
	}
	if _, err := fmt.Fprintf(sw.w, "%s%s\n", prefix, data); err != nil {
		return fmt.Errorf("failed to write status line: %w", err)
	}
	sw.wrote = true
	return nil
}
