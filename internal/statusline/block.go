// Package statusline implements the i3bar JSON protocol in both directions:
// status blocks out on one writer, click events in on one reader. This is
// the entire contract slatebar has with the bar host (swaybar, waybar, i3bar).
package statusline

// Block is one segment of the status line, in i3bar block format.
type Block struct {
	Name                string `json:"name,omitempty"`
	Instance            string `json:"instance,omitempty"`
	FullText            string `json:"full_text"`
	ShortText           string `json:"short_text,omitempty"`
	Color               string `json:"color,omitempty"`
	Background          string `json:"background,omitempty"`
	Separator           bool   `json:"separator"`
	SeparatorBlockWidth int    `json:"separator_block_width,omitempty"`
	Urgent              bool   `json:"urgent,omitempty"`
	Markup              string `json:"markup,omitempty"`
	MinWidth            string `json:"min_width,omitempty"`
}

// SeparatorWidth is the default pixel gap between blocks.
const SeparatorWidth = 12

// Mouse buttons as reported in click events.
const (
	ButtonLeft = iota + 1
	ButtonMiddle
	ButtonRight
	ButtonScrollUp
	ButtonScrollDown
)
