package interaction

import "time"

// Color is an embed accent color (0xRRGGBB).
type Color int

const (
	ColorBlue      Color = 0x3498db
	ColorDarkBlue  Color = 0x206694
	ColorDarkGreen Color = 0x1f8b4c
	ColorDarkRed   Color = 0x992d22
	ColorRed       Color = 0xe74c3c
)

// Surface is one complete rendering of a prompt message.
type Surface struct {
	Content   string
	Embeds    []Embed
	Rows      []Row
	Files     []File
	Ephemeral bool
}

type Embed struct {
	Title       string
	Description string
	Color       Color
	Fields      []EmbedField
	Author      *Author
	Thumbnail   string
	Timestamp   time.Time
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type Author struct {
	Name    string
	IconURL string
}

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Row is one action row: either a single select menu or a set of buttons.
type Row struct {
	Select  *SelectMenu
	Buttons []Button
}

type SelectKind int

const (
	SelectString SelectKind = iota
	SelectRole
)

type SelectMenu struct {
	CustomID    string
	Kind        SelectKind
	Placeholder string
	Options     []Option
	// DefaultRoles pre-selects roles on a SelectRole menu.
	DefaultRoles []string
	Disabled     bool
}

type Option struct {
	Label       string
	Value       string
	Description string
	Default     bool
}

type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

type Button struct {
	CustomID string
	Label    string
	Style    ButtonStyle
	Disabled bool
}

// Modal is a bounded-lifetime text entry form.
type Modal struct {
	CustomID string
	Title    string
	Fields   []TextField
}

type TextStyle int

const (
	TextShort TextStyle = iota
	TextParagraph
)

type TextField struct {
	CustomID    string
	Label       string
	Style       TextStyle
	Value       string
	Placeholder string
	Required    bool
}

// SelectRow is shorthand for a row holding one select menu.
func SelectRow(m SelectMenu) Row {
	return Row{Select: &m}
}

// ButtonRow is shorthand for a row of buttons.
func ButtonRow(buttons ...Button) Row {
	return Row{Buttons: buttons}
}

// FindSelect returns the select menu with the given custom id.
func (s Surface) FindSelect(customID string) (SelectMenu, bool) {
	for _, r := range s.Rows {
		if r.Select != nil && r.Select.CustomID == customID {
			return *r.Select, true
		}
	}
	return SelectMenu{}, false
}

// FindButton returns the button with the given custom id.
func (s Surface) FindButton(customID string) (Button, bool) {
	for _, r := range s.Rows {
		for _, b := range r.Buttons {
			if b.CustomID == customID {
				return b, true
			}
		}
	}
	return Button{}, false
}

// DefaultValue returns the value of the pre-selected option, if any.
func (m SelectMenu) DefaultValue() (string, bool) {
	for _, o := range m.Options {
		if o.Default {
			return o.Value, true
		}
	}
	return "", false
}
