package statusline

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
)

// Click is a user click on a block, as delivered by the bar host.
type Click struct {
	Name     string `json:"name"`
	Instance string `json:"instance"`
	Button   int    `json:"button"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// ClickHandler receives decoded click events.
type ClickHandler func(Click)

// ClickReader decodes the endless click-event array the bar host writes to
// our stdin. Malformed lines are logged and skipped; the stream framing
// tokens ("[", leading commas) are tolerated wherever they appear.
type ClickReader struct {
	logger  *slog.Logger
	r       io.Reader
	handler ClickHandler
}

// NewClickReader creates a ClickReader on r.
func NewClickReader(r io.Reader, logger *slog.Logger) *ClickReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClickReader{logger: logger, r: r}
}

// SetHandler sets the handler invoked for each click event.
func (cr *ClickReader) SetHandler(handler ClickHandler) {
	cr.handler = handler
}

// Run reads click events until EOF or a read error. It is meant to run on
// its own goroutine for the life of the bar.
func (cr *ClickReader) Run() {
	scanner := bufio.NewScanner(cr.r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, ",")
		if line == "" || line == "[" || line == "]" {
			continue
		}

		var ev Click
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			cr.logger.Warn("malformed click event", "line", line, "error", err)
			continue
		}

		if cr.handler != nil {
			cr.handler(ev)
		}
	}

	if err := scanner.Err(); err != nil {
		cr.logger.Warn("click stream read failed", "error", err)
	}
}
