// Package widgets is a small family of UI widget blocks used by the
// paramblock command and its tests.
package widgets

import (
	"slices"

	"github.com/reoring/paramblock"
	"github.com/reoring/paramblock/schema"
)

// Rect positions a widget inside its parent.
type Rect struct {
	Left   paramblock.Optional[int32] `param:"left"`
	Top    paramblock.Optional[int32] `param:"top"`
	Width  paramblock.Optional[int32] `param:"width"`
	Height paramblock.Optional[int32] `param:"height"`
}

// Font selects a typeface.
type Font struct {
	Name  paramblock.Optional[string] `param:"name"`
	Size  paramblock.Optional[string] `param:"size" enum:"small,medium,large"`
	Style paramblock.Optional[string] `param:"style"`
}

// HAlign is a horizontal alignment, read and written by name.
type HAlign int

const (
	AlignLeft HAlign = iota
	AlignCenter
	AlignRight
)

var alignNames = []string{"left", "center", "right"}

func (a *HAlign) ValueNames() []string { return slices.Clone(alignNames) }

func (a *HAlign) SetFromName(name string) bool {
	i := slices.Index(alignNames, name)
	if i < 0 {
		return false
	}
	*a = HAlign(i)
	return true
}

// Params are the parameters every widget accepts.
type Params struct {
	Name    paramblock.Mandatory[string]          `param:"name"`
	Rect    paramblock.Optional[Rect]             `param:"rect"`
	Enabled paramblock.Optional[bool]             `param:"enabled"`
	Visible paramblock.Optional[bool]             `param:"visible"`
	ToolTip paramblock.Optional[string]           `param:"tool_tip"`
	Follows paramblock.Multiple[string]           `param:"follows" enum:"left,top,right,bottom,all"`
	Color   paramblock.Optional[paramblock.Color] `param:"color" alias:"colour"`
	Layout  paramblock.Deprecated                 `param:"layout"`
	Tab     paramblock.Optional[paramblock.Flag]  `param:"tab_stop"`
}

// Button is a push button.
type Button struct {
	Params
	Label   paramblock.Optional[string]          `param:"label"`
	HAlign  paramblock.Optional[HAlign]          `param:"halign"`
	ImageID paramblock.Optional[paramblock.UUID] `param:"image_id"`
	Font    paramblock.Optional[Font]            `param:"font"`
	Scale   paramblock.Optional[float32]         `param:"scale"`
}

// TextBox is an editable line of text; its markup text is the initial value.
type TextBox struct {
	Params
	Value     paramblock.Optional[string] `param:"value"`
	MaxLength paramblock.Optional[uint16] `param:"max_length"`
	Font      paramblock.Optional[Font]   `param:"font"`
}

// Item is one entry of a ComboBox.
type Item struct {
	Label paramblock.Optional[string] `param:"label"`
	Value paramblock.Optional[string] `param:"value"`
}

// ComboBox is a drop-down list.
type ComboBox struct {
	Params
	Items    paramblock.Multiple[Item]  `param:"combo_item" count:"..64"`
	Selected paramblock.Optional[int32] `param:"selected"`
}

// Panel groups other widgets.
type Panel struct {
	Params
	Title  paramblock.Optional[string] `param:"title"`
	Border paramblock.Optional[bool]   `param:"border"`
}

// Namespace is the XML namespace the widget schemas are written for.
const Namespace = "urn:paramblock:widgets"

// Registry returns the widget element registry. Panels contain any widget;
// other widgets have no children.
func Registry() *schema.MapRegistry {
	return schema.NewMapRegistry().
		Register("panel", func() any { return &Panel{} }, "button", "combo_box", "panel", "text_box").
		Register("button", func() any { return &Button{} }).
		Register("combo_box", func() any { return &ComboBox{} }).
		Register("text_box", func() any { return &TextBox{} })
}
