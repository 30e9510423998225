package axtree

import "strings"

// Role is a normalized accessibility role. Recognized roles are the
// constants below; anything else survives as a free-form string and is
// classified as CategoryOther.
type Role string

const (
	// Interaction roles.
	RoleButton            Role = "button"
	RoleLink              Role = "link"
	RoleTextbox           Role = "textbox"
	RoleSearchbox         Role = "searchbox"
	RoleCombobox          Role = "combobox"
	RoleCheckbox          Role = "checkbox"
	RoleRadio             Role = "radio"
	RoleSwitch            Role = "switch"
	RoleSlider            Role = "slider"
	RoleSpinbutton        Role = "spinbutton"
	RoleTab               Role = "tab"
	RoleMenuItem          Role = "menuitem"
	RoleMenuItemCheckbox  Role = "menuitemcheckbox"
	RoleMenuItemRadio     Role = "menuitemradio"
	RoleOption            Role = "option"

	// Text roles.
	RoleText       Role = "text"
	RoleHeading    Role = "heading"
	RoleParagraph  Role = "paragraph"
	RoleCaption    Role = "caption"
	RoleBlockquote Role = "blockquote"
	RoleCode       Role = "code"
	RoleLineBreak  Role = "linebreak"

	// Image roles.
	RoleImage  Role = "image"
	RoleFigure Role = "figure"

	// Table roles.
	RoleTable        Role = "table"
	RoleGrid         Role = "grid"
	RoleRow          Role = "row"
	RoleRowGroup     Role = "rowgroup"
	RoleCell         Role = "cell"
	RoleGridCell     Role = "gridcell"
	RoleColumnHeader Role = "columnheader"
	RoleRowHeader    Role = "rowheader"

	// List roles.
	RoleList       Role = "list"
	RoleListItem   Role = "listitem"
	RoleListMarker Role = "listmarker"

	// Parameter containers: roles whose children enumerate the values an
	// interaction can take.
	RoleListbox    Role = "listbox"
	RoleMenu       Role = "menu"
	RoleMenuBar    Role = "menubar"
	RoleRadioGroup Role = "radiogroup"
	RoleTabList    Role = "tablist"

	// Structural roles.
	RoleDocument      Role = "document"
	RoleGeneric       Role = "generic"
	RoleNone          Role = "none"
	RoleGroup         Role = "group"
	RoleNavigation    Role = "navigation"
	RoleMain          Role = "main"
	RoleBanner        Role = "banner"
	RoleContentInfo   Role = "contentinfo"
	RoleComplementary Role = "complementary"
	RoleRegion        Role = "region"
	RoleArticle       Role = "article"
	RoleForm          Role = "form"
	RoleDialog        Role = "dialog"
	RoleAlert         Role = "alert"
	RoleAlertDialog   Role = "alertdialog"
	RoleToolbar       Role = "toolbar"
	RoleTabPanel      Role = "tabpanel"
	RoleIframe        Role = "iframe"
)

// Category groups roles; every pruning/folding/eligibility decision keys
// off the category, never off the raw role string.
type Category int

const (
	CategoryOther Category = iota
	CategoryStructural
	CategoryText
	CategoryInteraction
	CategoryTable
	CategoryList
	CategoryParameters
	CategoryImage
)

func (c Category) String() string {
	switch c {
	case CategoryStructural:
		return "structural"
	case CategoryText:
		return "text"
	case CategoryInteraction:
		return "interaction"
	case CategoryTable:
		return "table"
	case CategoryList:
		return "list"
	case CategoryParameters:
		return "parameters"
	case CategoryImage:
		return "image"
	default:
		return "other"
	}
}

// roleAliases maps browser-reported spellings onto the canonical enum.
// Chromium reports camel-cased AX names for some nodes.
var roleAliases = map[string]Role{
	"statictext":   RoleText,
	"webarea":      RoleDocument,
	"rootwebarea":  RoleDocument,
	"linebreak":    RoleLineBreak,
	"listmarker":   RoleListMarker,
	"img":          RoleImage,
	"graphic":      RoleImage,
	"presentation": RoleNone,
	"textfield":    RoleTextbox,
	"popupbutton":  RoleCombobox,
	"togglebutton": RoleButton,
}

// NormalizeRole folds a raw role string onto the closed enum where
// recognized; unrecognized roles pass through lowercased.
func NormalizeRole(raw string) Role {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return RoleGeneric
	}
	if alias, ok := roleAliases[s]; ok {
		return alias
	}
	return Role(s)
}

// Category classifies a role. Unrecognized roles are CategoryOther.
func (r Role) Category() Category {
	switch r {
	case RoleButton, RoleLink, RoleTextbox, RoleSearchbox, RoleCombobox,
		RoleCheckbox, RoleRadio, RoleSwitch, RoleSlider, RoleSpinbutton,
		RoleTab, RoleMenuItem, RoleMenuItemCheckbox, RoleMenuItemRadio,
		RoleOption:
		return CategoryInteraction
	case RoleText, RoleHeading, RoleParagraph, RoleCaption, RoleBlockquote,
		RoleCode, RoleLineBreak:
		return CategoryText
	case RoleImage, RoleFigure:
		return CategoryImage
	case RoleTable, RoleGrid, RoleRow, RoleRowGroup, RoleCell, RoleGridCell,
		RoleColumnHeader, RoleRowHeader:
		return CategoryTable
	case RoleList, RoleListItem, RoleListMarker:
		return CategoryList
	case RoleListbox, RoleMenu, RoleMenuBar, RoleRadioGroup, RoleTabList:
		return CategoryParameters
	case RoleDocument, RoleGeneric, RoleNone, RoleGroup, RoleNavigation,
		RoleMain, RoleBanner, RoleContentInfo, RoleComplementary, RoleRegion,
		RoleArticle, RoleForm, RoleDialog, RoleAlert, RoleAlertDialog,
		RoleToolbar, RoleTabPanel, RoleIframe:
		return CategoryStructural
	default:
		return CategoryOther
	}
}

// Prefix is the one-letter ID prefix for an interaction or image role.
// The second return is false for roles that never receive IDs.
func (r Role) Prefix() (string, bool) {
	switch r {
	case RoleButton, RoleCheckbox, RoleRadio, RoleSwitch,
		RoleMenuItem, RoleMenuItemCheckbox, RoleMenuItemRadio:
		return "B", true
	case RoleLink:
		return "L", true
	case RoleTextbox, RoleSearchbox, RoleCombobox, RoleSlider, RoleSpinbutton:
		return "I", true
	case RoleImage, RoleFigure:
		return "F", true
	case RoleOption:
		return "O", true
	case RoleTab:
		return "T", true
	default:
		return "", false
	}
}

// IsInput reports whether the role accepts typed text or a numeric value.
func (r Role) IsInput() bool {
	switch r {
	case RoleTextbox, RoleSearchbox, RoleCombobox, RoleSlider, RoleSpinbutton:
		return true
	default:
		return false
	}
}

// IsLowPriority reports placeholder roles that lose every folding
// contest: the browser emits them for unlabeled wrappers.
func (r Role) IsLowPriority() bool {
	return r == RoleNone || r == RoleGeneric || r == RoleGroup
}
