package commands

// ItemKind distinguishes toolbar entries.
type ItemKind uint8

const (
	ItemButton ItemKind = iota
	ItemSeparator
)

// String returns the kind name.
func (k ItemKind) String() string {
	switch k {
	case ItemButton:
		return "button"
	case ItemSeparator:
		return "separator"
	default:
		return "unknown"
	}
}

// Item is one toolbar entry.
type Item struct {
	Kind      ItemKind
	Title     string
	ClassName string

	// Action is empty for separators.
	Action string

	// Tooltip is the title with the shortcut, when the action has one.
	Tooltip string
}

// Toolbar actions that have no keyboard shortcut.
const (
	InsertHorizontalRule = "insertHorizontalRule"
	ToggleSuperscript    = "toggleSuperscript"
	ToggleSubscript      = "toggleSubscript"
	Undo                 = "undo"
	Redo                 = "redo"
	ToggleTocPreview     = "toggleTocPreview"
	ToggleHTMLCode       = "toggleHtmlCode"
	DownloadFile         = "downloadFile"
)

type buttonDef struct {
	title, className, action string
}

// separator marks a separator position in toolbarLayout.
var separator = buttonDef{}

var toolbarLayout = []buttonDef{
	{"Bold", "icon-bold", ToggleBold},
	{"Italic", "icon-italic", ToggleItalic},
	{"Heading", "icon-header", ToggleHeading},
	{"Marked", "icon-magic", ToggleMarked},
	{"StrikeThrough", "icon-strike", ToggleStrikeThrough},
	{"Underline", "icon-underline", ToggleUnderline},
	{"Horizontal Rule", "icon-ellipsis", InsertHorizontalRule},
	separator,
	{"Quote", "icon-quote-left", ToggleBlockquote},
	{"Generic List", "icon-list-bullet", ToggleUnorderedList},
	{"Numbered List", "icon-list-numbered", ToggleOrderedList},
	{"Superscript", "icon-superscript", ToggleSuperscript},
	{"Subscript", "icon-subscript", ToggleSubscript},
	separator,
	{"Link", "icon-link", InsertLink},
	{"Image", "icon-picture", InsertImage},
	{"Code", "icon-code", InsertCode},
	{"Table", "icon-table", InsertTable},
	separator,
	{"Undo (Ctrl/Cmd-Z)", "icon-reply", Undo},
	{"Redo (Shift-Ctrl/Cmd-Z)", "icon-forward", Redo},
	separator,
	{"Show Table of Content", "icon-book", ToggleTocPreview},
	{"Toggle Side by Side", "icon-columns", ToggleSideBySide},
	{"Toggle Read mode", "icon-eye", ToggleReadmode},
	separator,
	{"Show Html Code", "icon-html5", ToggleHTMLCode},
	{"Download markdown file", "icon-download-cloud", DownloadFile},
}

// Toolbar returns the toolbar entries in display order, with tooltips
// taken from t.
func (t *Table) Toolbar() []Item {
	items := make([]Item, 0, len(toolbarLayout))
	for _, def := range toolbarLayout {
		if def == separator {
			items = append(items, Item{Kind: ItemSeparator, ClassName: "separator"})
			continue
		}
		items = append(items, Item{
			Kind:      ItemButton,
			Title:     def.title,
			ClassName: def.className,
			Action:    def.action,
			Tooltip:   t.Tooltip(def.title, def.action),
		})
	}
	return items
}
