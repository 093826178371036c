package mdtoken

import "strconv"

// Attrs is a string-keyed, string-valued attribute bag attached to a Token.
// The data model specifies attributes as string->string; typed accessors
// below parse the well-known keys so rule code never duplicates that
// parsing.
type Attrs map[string]string

// Well-known attribute keys. Parser adapters populate these; rules read
// them through the typed accessor methods.
const (
	AttrHeadingLevel  = "level"
	AttrSetext        = "setext"
	AttrListOrdered   = "ordered"
	AttrListStart     = "start"
	AttrListBullet    = "bullet"
	AttrListDelimiter = "delimiter"
	AttrListTight     = "tight"
	AttrCodeInfo      = "info"
	AttrCodeFenceChar = "fenceChar"
	AttrCodeIndented  = "indented"
	AttrLinkDest      = "dest"
	AttrLinkTitle     = "title"
	AttrImageDest     = "dest"
	AttrImageTitle    = "title"
	AttrFootnoteLabel = "label"
	AttrTableColumns  = "columns"
)

func (a Attrs) get(key string) string {
	if a == nil {
		return ""
	}
	return a[key]
}

func (a Attrs) getBool(key string) bool {
	return a.get(key) == "true"
}

func (a Attrs) getInt(key string) int {
	v, _ := strconv.Atoi(a.get(key))
	return v
}

// HeadingLevel returns the heading level (1-6) for a KindHeading token.
func (t Token) HeadingLevel() int { return t.Attrs.getInt(AttrHeadingLevel) }

// IsSetext reports whether a KindHeading token was written in setext style.
func (t Token) IsSetext() bool { return t.Attrs.getBool(AttrSetext) }

// ListOrdered reports whether a KindList token is an ordered list.
func (t Token) ListOrdered() bool { return t.Attrs.getBool(AttrListOrdered) }

// ListStart returns the starting number of an ordered KindList token.
func (t Token) ListStart() int { return t.Attrs.getInt(AttrListStart) }

// ListBullet returns the bullet character ("-", "+", "*") of a KindList token.
func (t Token) ListBullet() string { return t.Attrs.get(AttrListBullet) }

// ListDelimiter returns the delimiter ("." or ")") of an ordered KindList token.
func (t Token) ListDelimiter() string { return t.Attrs.get(AttrListDelimiter) }

// ListTight reports whether a KindList token is tight (no blank lines between items).
func (t Token) ListTight() bool { return t.Attrs.getBool(AttrListTight) }

// CodeInfo returns the info string of a KindCodeBlock token.
func (t Token) CodeInfo() string { return t.Attrs.get(AttrCodeInfo) }

// CodeFenceChar returns the fence character ("`" or "~") of a fenced KindCodeBlock token.
func (t Token) CodeFenceChar() string { return t.Attrs.get(AttrCodeFenceChar) }

// CodeIndented reports whether a KindCodeBlock token is indented rather than fenced.
func (t Token) CodeIndented() bool { return t.Attrs.getBool(AttrCodeIndented) }

// LinkDestination returns the URL of a KindLink or KindImage token.
func (t Token) LinkDestination() string { return t.Attrs.get(AttrLinkDest) }

// LinkTitle returns the optional title of a KindLink or KindImage token.
func (t Token) LinkTitle() string { return t.Attrs.get(AttrLinkTitle) }

// FootnoteLabel returns the label of a KindFootnoteDefinition token.
func (t Token) FootnoteLabel() string { return t.Attrs.get(AttrFootnoteLabel) }

// TableColumns returns the column count of a KindTable token.
func (t Token) TableColumns() int { return t.Attrs.getInt(AttrTableColumns) }
