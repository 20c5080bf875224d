package bar

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/slatebar/internal/model"
	"github.com/jmylchreest/slatebar/internal/statusline"
	"github.com/jmylchreest/slatebar/internal/theme"
)

type fakeWidget struct {
	id     string
	clicks []statusline.Click
}

func (w *fakeWidget) instance() string                       { return w.id }
func (w *fakeWidget) blocks(*theme.Theme) []statusline.Block { return nil }
func (w *fakeWidget) click(ev statusline.Click)              { w.clicks = append(w.clicks, ev) }
func (w *fakeWidget) describe(*model.Status)                 {}
func (w *fakeWidget) close()                                 {}

func TestRegistryRoutesByInstancePrefix(t *testing.T) {
	r := newRegistry(nil)
	w := &fakeWidget{id: "01ABC"}
	r.reset([]widget{w})

	r.Route(statusline.Click{Instance: "01ABC", Button: statusline.ButtonLeft})
	r.Route(statusline.Click{Instance: "01ABC/42", Button: statusline.ButtonLeft})
	r.Route(statusline.Click{Instance: "unknown", Button: statusline.ButtonLeft})

	assert.Len(t, w.clicks, 2)
	assert.Equal(t, "01ABC/42", w.clicks[1].Instance)
}

func TestRegistryResetReplaces(t *testing.T) {
	r := newRegistry(nil)
	old := &fakeWidget{id: "old"}
	r.reset([]widget{old})
	r.reset([]widget{&fakeWidget{id: "new"}})

	r.Route(statusline.Click{Instance: "old"})
	assert.Empty(t, old.clicks)
}
