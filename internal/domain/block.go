package domain

// Styling constants shared by both report variants. Every block carries
// explicit style attributes rather than inheriting document defaults, so the
// output stays visually consistent no matter which optional sections were
// populated.
const (
	FontName = "Calibri"

	// Institutional palette.
	ColorTitleBlue  = "1F4E79"
	ColorAlertRed   = "D50000"
	ColorBannerFill = "FEE599"

	BannerSizePt = 14
	TitleSizePt  = 12
	MetaSizePt   = 9
	BodySizePt   = 11
)

// Block is one ordered element of the assembled document. The emitter
// realizes each concrete type with the matching native docx construct.
type Block interface {
	isBlock()
}

// Run is a styled text fragment inside a paragraph.
type Run struct {
	Text     string
	Bold     bool
	SizePt   float64
	ColorHex string // empty = automatic
}

// Title is the centered report headline.
type Title struct {
	Text string
}

// SectionBanner is the full-width yellow band with blue uppercase text that
// separates report sections.
type SectionBanner struct {
	Text string
}

// Paragraph is a body paragraph built from one or more styled runs.
type Paragraph struct {
	Runs          []Run
	Center        bool
	SpaceBeforePt float64
	SpaceAfterPt  float64
}

// Table is a rows-by-cols grid. The first row is the header when HeaderBold
// is set. Bordered toggles the light-grid look used by the damage table.
type Table struct {
	Rows       [][]string
	HeaderBold bool
	Bordered   bool
}

// Image is an embedded PNG at a fixed physical size.
type Image struct {
	PNG      []byte
	WidthCm  float64
	HeightCm float64
}

// PlaceholderText is the explanatory sentence rendered in place of a section
// whose content is missing or failed to materialize.
type PlaceholderText struct {
	Text string
}

func (Title) isBlock()           {}
func (SectionBanner) isBlock()   {}
func (Paragraph) isBlock()       {}
func (Table) isBlock()           {}
func (Image) isBlock()           {}
func (PlaceholderText) isBlock() {}

// BodyParagraph builds a plain body-text paragraph in the default font.
func BodyParagraph(text string) Paragraph {
	return Paragraph{Runs: []Run{{Text: text, SizePt: BodySizePt}}}
}
