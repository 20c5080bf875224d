// Package audio maintains the mute/volume state of the current default
// output sink by reconciling the PipeWire graph: every Audio/Sink node's
// properties are cached, and only the node behind the default-sink pointer
// is surfaced to the widget.
package audio

import (
	"encoding/json"
	"log/slog"
)

// PipeWire object types as they appear in the graph dump.
const (
	nodeType     = "PipeWire:Interface:Node"
	metadataType = "PipeWire:Interface:Metadata"
)

// Well-known names on the graph: the sink media class, the metadata object
// carrying defaults, and its default-output key.
const (
	sinkMediaClass   = "Audio/Sink"
	defaultsMetadata = "default"
	defaultSinkKey   = "default.audio.sink"
)

// UpdateKind discriminates the three update kinds crossing to the bar.
type UpdateKind int

const (
	// UpdateVolume carries a new (possibly unknown) peak volume.
	UpdateVolume UpdateKind = iota
	// UpdateMute carries a new (possibly unknown) mute flag.
	UpdateMute
	// UpdateError carries a terminal failure message.
	UpdateError
)

// Update is one reconciliation result. Volume and Mute are nil when the
// default sink's corresponding property has never been observed.
type Update struct {
	Kind   UpdateKind
	Volume *float64
	Mute   *bool
	Err    string
}

// graphObject is one object of the graph dump stream.
type graphObject struct {
	ID   uint32      `json:"id"`
	Type string      `json:"type"`
	Info *objectInfo `json:"info"`

	// Metadata objects carry their properties at the top level.
	Props    map[string]string  `json:"props"`
	Metadata []metadataProperty `json:"metadata"`
}

type objectInfo struct {
	Props  map[string]any               `json:"props"`
	Params map[string][]json.RawMessage `json:"params"`
}

// metadataProperty is one key on a metadata object. A null or absent value
// means the key was cleared.
type metadataProperty struct {
	Subject int             `json:"subject"`
	Key     string          `json:"key"`
	Type    string          `json:"type"`
	Value   json.RawMessage `json:"value"`
}

// propsParam is the subset of a node's Props param the widget tracks.
type propsParam struct {
	Mute           *bool     `json:"mute"`
	ChannelVolumes []float64 `json:"channelVolumes"`
}

// defaultSinkValue is the JSON payload of the default-sink metadata key.
type defaultSinkValue struct {
	Name string `json:"name"`
}

// volumeRecord is one node's cached pair, populated lazily as property
// events arrive.
type volumeRecord struct {
	mute   *bool
	volume *float64
}

// graph reduces graph-dump objects into updates. It is exclusively owned by
// the monitor goroutine; tests drive apply directly with JSON fixtures.
type graph struct {
	logger *slog.Logger

	// sinkNames maps object ids of tracked Audio/Sink nodes to their
	// stable node names.
	sinkNames map[uint32]string
	volumes   map[string]volumeRecord
	// defaultSink is the node name behind the default-sink pointer;
	// empty means no default is known.
	defaultSink string
}

func newGraph(logger *slog.Logger) *graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &graph{
		logger:    logger,
		sinkNames: make(map[uint32]string),
		volumes:   make(map[string]volumeRecord),
	}
}

// apply reconciles one dumped object and returns the updates to forward.
func (g *graph) apply(obj graphObject) []Update {
	switch {
	case obj.Type == nodeType && obj.Info != nil:
		return g.applyNode(obj)
	case obj.Type == metadataType:
		return g.applyMetadata(obj)
	case obj.Type == "" && obj.Info == nil:
		g.applyRemoval(obj.ID)
		return nil
	default:
		return nil
	}
}

// applyNode tracks Audio/Sink nodes and folds their Props params into the
// per-node cache. Only changes to the current default sink are forwarded.
func (g *graph) applyNode(obj graphObject) []Update {
	name, ok := g.sinkNames[obj.ID]
	if !ok {
		if class, _ := obj.Info.Props["media.class"].(string); class != sinkMediaClass {
			return nil
		}
		name, _ = obj.Info.Props["node.name"].(string)
		if name == "" {
			g.logger.Warn("sink node without a node.name, ignoring", "id", obj.ID)
			return nil
		}
		g.sinkNames[obj.ID] = name
	}

	var updates []Update
	for _, raw := range obj.Info.Params["Props"] {
		var props propsParam
		if err := json.Unmarshal(raw, &props); err != nil {
			g.logger.Warn("undecodable Props param, dropping", "node", name, "error", err)
			continue
		}

		record := g.volumes[name]
		if props.ChannelVolumes != nil {
			// Peak across channels, deliberately not an average.
			record.volume = peak(props.ChannelVolumes)
			if name == g.defaultSink {
				updates = append(updates, Update{Kind: UpdateVolume, Volume: record.volume})
			}
		}
		if props.Mute != nil {
			record.mute = props.Mute
			if name == g.defaultSink {
				updates = append(updates, Update{Kind: UpdateMute, Mute: record.mute})
			}
		}
		g.volumes[name] = record
	}
	return updates
}

// applyMetadata processes the well-known defaults object. A parsed
// default-sink change forwards the named node's cached pair immediately,
// then moves the pointer; a cleared key clears the pointer without
// forwarding stale data; malformed JSON changes nothing.
func (g *graph) applyMetadata(obj graphObject) []Update {
	if obj.Props["metadata.name"] != defaultsMetadata {
		return nil
	}

	var updates []Update
	for _, prop := range obj.Metadata {
		if prop.Key != defaultSinkKey {
			continue
		}

		if len(prop.Value) == 0 || string(prop.Value) == "null" {
			g.defaultSink = ""
			continue
		}

		var value defaultSinkValue
		if err := json.Unmarshal(prop.Value, &value); err != nil || value.Name == "" {
			g.logger.Warn("malformed default sink payload, keeping previous default",
				"value", string(prop.Value), "error", err)
			continue
		}

		record := g.volumes[value.Name]
		updates = append(updates,
			Update{Kind: UpdateMute, Mute: record.mute},
			Update{Kind: UpdateVolume, Volume: record.volume},
		)
		g.defaultSink = value.Name
	}
	return updates
}

// applyRemoval forgets a node that left the graph. The default pointer is
// left alone; the next default-sink change re-resolves it.
func (g *graph) applyRemoval(id uint32) {
	name, ok := g.sinkNames[id]
	if !ok {
		return
	}
	delete(g.sinkNames, id)
	delete(g.volumes, name)
	g.logger.Debug("sink node removed", "id", id, "node", name)
}

// peak reduces a channel volume array to its maximum; nil for an empty
// array.
func peak(channels []float64) *float64 {
	if len(channels) == 0 {
		return nil
	}
	max := channels[0]
	for _, v := range channels[1:] {
		if v > max {
			max = v
		}
	}
	return &max
}
