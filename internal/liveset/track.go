package liveset

import (
	"fmt"
	"strconv"

	"setmend/internal/xmltree"
)

// Track is a typed view over one track element. Reads are computed against
// the live tree; setters write through to it.
type Track struct {
	node    *xmltree.Node
	version Version
}

// colorElement returns the tag holding the track color for this set
// generation. Live 11 renamed ColorIndex to Color.
func (t *Track) colorElement() string {
	if t.version.Compare(Version{11, 0, 0}) > 0 {
		return "Color"
	}
	return "ColorIndex"
}

// Type returns the track kind: AudioTrack, MidiTrack, GroupTrack or
// ReturnTrack.
func (t *Track) Type() string { return t.node.Tag }

// Name returns the user-assigned name, falling back to the effective name
// when the user never renamed the track.
func (t *Track) Name() string {
	if name, err := t.node.FindAttr("Name.UserName", "Value"); err == nil && name != "" {
		return name
	}
	name, err := t.node.FindAttr("Name.EffectiveName", "Value")
	if err != nil {
		return ""
	}
	return name
}

// ID returns the track's Id attribute.
func (t *Track) ID() string {
	id, _ := t.node.Attr("Id")
	return id
}

// GroupID returns the id of the enclosing group track, or "-1" when the
// track is ungrouped.
func (t *Track) GroupID() string {
	id, err := t.node.FindAttr("TrackGroupId", "Value")
	if err != nil {
		return ""
	}
	return id
}

// Width returns the track width in session view. The Sesstion spelling is
// how the element is named in sets, not a typo here.
func (t *Track) Width() string {
	width, err := t.node.FindAttr("DeviceChain.Mixer.ViewStateSesstionTrackWidth", "Value")
	if err != nil {
		return ""
	}
	return width
}

// Height returns the arrangement-view lane height, read from automation
// lane zero.
func (t *Track) Height() string {
	height, err := t.node.FindAttr("DeviceChain.AutomationLanes.AutomationLanes.AutomationLane.LaneHeight", "Value")
	if err != nil {
		return ""
	}
	return height
}

// Unfolded reports whether the track is unfolded. Live 10 stores
// TrackUnfolded directly; 8/9 store the inverse IsFolded under the mixer.
func (t *Track) Unfolded() string {
	if unfolded, err := t.node.FindAttr("TrackUnfolded", "Value"); err == nil {
		return unfolded
	}
	folded, err := t.node.FindAttr("DeviceChain.Mixer.IsFolded", "Value")
	if err != nil {
		return ""
	}
	if folded == "true" {
		return "false"
	}
	return "true"
}

// Color returns the track color index, or -1 when the element is absent.
// There are 70 possible values; the color menu has 5 rows of 14.
func (t *Track) Color() int {
	element := t.node.Child(t.colorElement())
	if element == nil {
		return -1
	}
	value := element.AttrDefault("Value", "0")
	color, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return color
}

// SetColor writes the track color index.
func (t *Track) SetColor(value int) error {
	if value < 0 || value > 69 {
		return fmt.Errorf("color index %d must be within 0 - 69", value)
	}
	element := t.node.Child(t.colorElement())
	if element == nil {
		return &xmltree.NotFoundError{Path: t.colorElement()}
	}
	element.SetAttr("Value", strconv.Itoa(value))
	return nil
}

// Tracks parses the track list into typed views. Results are cached on the
// set; setters write through to the shared tree.
func (s *Set) Tracks() ([]*Track, error) {
	if err := s.requireVersion("track listing", Version{8, 0, 0}); err != nil {
		return nil, err
	}
	if s.tracks != nil {
		return s.tracks, nil
	}
	container, err := s.root.Find("LiveSet.Tracks")
	if err != nil {
		return nil, fmt.Errorf("locate track list: %w", err)
	}
	tracks := make([]*Track, 0, len(container.Children))
	for _, node := range container.Children {
		tracks = append(tracks, &Track{node: node, version: s.version})
	}
	s.tracks = tracks
	return tracks, nil
}
