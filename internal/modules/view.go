package modules

// Emphasis marks a block for warning or alert styling.
type Emphasis int

const (
	EmphasisNormal Emphasis = iota
	EmphasisWarn
	EmphasisAlert
)

// Block is one icon/text unit inside a bar segment.
type Block struct {
	Icon     string
	Text     string
	Emphasis Emphasis
}

// Segment is a module's contribution to the bar: an ordered list of blocks
// rendered as one visual unit. A nil Segment hides the module.
type Segment struct {
	Blocks []Block
}

// TextSegment builds a single-block segment.
func TextSegment(icon, text string) *Segment {
	return &Segment{Blocks: []Block{{Icon: icon, Text: text}}}
}

// MenuItem is one row of a popup menu. A nil OnActivate renders the row as
// static content.
type MenuItem struct {
	Icon     string
	Title    string
	Subtitle string
	Disabled bool

	// OnActivate produces the action to run when the row is activated.
	OnActivate func() Action
}

// MenuView is a module's popup menu content.
type MenuView struct {
	Title string
	Items []MenuItem
}
