package bar

import (
	"time"

	"github.com/jmylchreest/slatebar/internal/cell"
	"github.com/jmylchreest/slatebar/internal/model"
	"github.com/jmylchreest/slatebar/internal/statusline"
	"github.com/jmylchreest/slatebar/internal/theme"
)

// clockWidget ticks on minute boundaries so the displayed time is never a
// minute stale and never wakes more than once per minute.
type clockWidget struct {
	id     string
	format string
	cell   *cell.Cell[model.Clock]
	stop   chan struct{}
}

func newClockWidget(format string, notify func()) *clockWidget {
	w := &clockWidget{
		id:     newInstanceID(),
		format: format,
		cell:   cell.New(model.Clock{}, notify),
		stop:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *clockWidget) run() {
	for {
		now := time.Now()
		w.cell.Update(func(s *model.Clock) { s.Now = now })

		next := now.Truncate(time.Minute).Add(time.Minute)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
		case <-w.stop:
			timer.Stop()
			return
		}
	}
}

func (w *clockWidget) instance() string { return w.id }

func (w *clockWidget) blocks(th *theme.Theme) []statusline.Block {
	return renderClock(w.cell.Get(), w.format, w.id, th)
}

func (w *clockWidget) click(statusline.Click) {}

func (w *clockWidget) describe(st *model.Status) {
	snap := w.cell.Get()
	st.Clock = &snap
}

func (w *clockWidget) close() {
	close(w.stop)
	w.cell.Close()
}
