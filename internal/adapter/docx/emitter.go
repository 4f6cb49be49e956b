// Package docx realizes a domain block sequence as a Word document using the
// unioffice document object model.
package docx

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/unidoc/unioffice/color"
	"github.com/unidoc/unioffice/common"
	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unioffice/measurement"
	"github.com/unidoc/unioffice/schema/soo/wml"

	"github.com/midis-coe/coe-word-service/internal/domain"
)

// Page geometry (Letter with the institutional header band). The top margin
// is forced high enough that the header image never overlaps body text, and
// the header image spans the full text area: page width minus both side
// margins.
const (
	pageWidth    = 8.5 * measurement.Inch
	sideMargin   = 2.54 * measurement.Centimeter
	topMargin    = 3.2 * measurement.Centimeter
	bottomMargin = 2.54 * measurement.Centimeter
	headerMargin = 1.27 * measurement.Centimeter

	headerImageWidth = pageWidth - 2*sideMargin
	// Keep the banner aspect ratio of the institutional template (~6:1).
	headerImageHeight = headerImageWidth / 6
)

// Emitter drives unioffice to produce the final .docx bytes.
type Emitter struct {
	headerImagePNG string
	headerImageJPG string
	logger         *slog.Logger
}

// NewEmitter creates an Emitter. The header image paths may point at missing
// files; emission then proceeds without a page header.
func NewEmitter(headerImagePNG, headerImageJPG string, logger *slog.Logger) *Emitter {
	return &Emitter{
		headerImagePNG: headerImagePNG,
		headerImageJPG: headerImageJPG,
		logger:         logger,
	}
}

// Emit realizes the block sequence as a paginated document and serializes it
// to an in-memory buffer.
func (e *Emitter) Emit(blocks []domain.Block) ([]byte, error) {
	doc := document.New()

	doc.BodySection().SetPageMargins(
		topMargin, sideMargin, bottomMargin, sideMargin,
		headerMargin, headerMargin, 0,
	)
	e.attachHeader(doc)

	for _, block := range blocks {
		if err := e.emitBlock(doc, block); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	return buf.Bytes(), nil
}

// attachHeader injects the repeating page-header image, same on first and
// subsequent pages. A missing or unreadable asset degrades to a headerless
// document; it never fails emission.
func (e *Emitter) attachHeader(doc *document.Document) {
	data, err := readFirst(e.headerImagePNG, e.headerImageJPG)
	if err != nil {
		e.logger.Warn("header image unavailable, emitting without page header",
			"png", e.headerImagePNG, "jpg", e.headerImageJPG, "error", err)
		return
	}

	img, err := common.ImageFromBytes(data)
	if err != nil {
		e.logger.Warn("header image unreadable, emitting without page header", "error", err)
		return
	}
	ref, err := doc.AddImage(img)
	if err != nil {
		e.logger.Warn("header image rejected, emitting without page header", "error", err)
		return
	}

	hdr := doc.AddHeader()
	para := hdr.AddParagraph()
	para.Properties().SetAlignment(wml.ST_JcCenter)
	setSingleSpacing(para)
	inline, err := para.AddRun().AddDrawingInline(ref)
	if err != nil {
		e.logger.Warn("header image drawing failed, emitting without page header", "error", err)
		return
	}
	inline.SetSize(headerImageWidth, headerImageHeight)

	doc.BodySection().SetHeader(hdr, wml.ST_HdrFtrDefault)
}

func readFirst(paths ...string) ([]byte, error) {
	var lastErr error
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (e *Emitter) emitBlock(doc *document.Document, block domain.Block) error {
	switch b := block.(type) {
	case domain.Title:
		emitTitle(doc, b)
	case domain.SectionBanner:
		emitBanner(doc, b)
	case domain.Paragraph:
		emitParagraph(doc, b)
	case domain.Table:
		emitTable(doc, b)
	case domain.Image:
		return emitImage(doc, b)
	case domain.PlaceholderText:
		emitParagraph(doc, domain.BodyParagraph(b.Text))
	default:
		return fmt.Errorf("unknown block type %T", block)
	}
	return nil
}

func emitTitle(doc *document.Document, t domain.Title) {
	para := doc.AddParagraph()
	para.Properties().SetAlignment(wml.ST_JcCenter)
	setSingleSpacing(para)

	run := para.AddRun()
	run.AddText(t.Text)
	run.Properties().SetBold(true)
	run.Properties().SetFontFamily(domain.FontName)
	run.Properties().SetSize(domain.TitleSizePt * measurement.Point)
	run.Properties().SetColor(hexColor(domain.ColorTitleBlue))
}

// emitBanner reproduces the institutional yellow band: a one-row one-column
// table with a colored cell background, not a plain paragraph, so the band
// spans the full text width.
func emitBanner(doc *document.Document, b domain.SectionBanner) {
	tbl := doc.AddTable()
	tbl.Properties().SetWidthPercent(100)

	cell := tbl.AddRow().AddCell()
	cell.Properties().SetShading(wml.ST_ShdClear, color.Auto, hexColor(domain.ColorBannerFill))

	para := cell.AddParagraph()
	para.Properties().Spacing().SetBefore(0)
	para.Properties().Spacing().SetAfter(6 * measurement.Point)
	para.Properties().Spacing().SetLineSpacing(12*measurement.Point, wml.ST_LineSpacingRuleAuto)

	run := para.AddRun()
	run.AddText(strings.ToUpper(b.Text))
	run.Properties().SetBold(true)
	run.Properties().SetFontFamily(domain.FontName)
	run.Properties().SetSize(domain.BannerSizePt * measurement.Point)
	run.Properties().SetColor(hexColor(domain.ColorTitleBlue))
}

func emitParagraph(doc *document.Document, p domain.Paragraph) {
	para := doc.AddParagraph()
	if p.Center {
		para.Properties().SetAlignment(wml.ST_JcCenter)
	}
	para.Properties().Spacing().SetBefore(measurement.Distance(p.SpaceBeforePt) * measurement.Point)
	para.Properties().Spacing().SetAfter(measurement.Distance(p.SpaceAfterPt) * measurement.Point)
	para.Properties().Spacing().SetLineSpacing(12*measurement.Point, wml.ST_LineSpacingRuleAuto)

	for _, r := range p.Runs {
		run := para.AddRun()
		run.AddText(r.Text)
		run.Properties().SetFontFamily(domain.FontName)
		if r.Bold {
			run.Properties().SetBold(true)
		}
		if r.SizePt > 0 {
			run.Properties().SetSize(measurement.Distance(r.SizePt) * measurement.Point)
		}
		if r.ColorHex != "" {
			run.Properties().SetColor(hexColor(r.ColorHex))
		}
	}
}

func emitTable(doc *document.Document, t domain.Table) {
	tbl := doc.AddTable()
	tbl.Properties().SetWidthPercent(100)
	if t.Bordered {
		tbl.Properties().Borders().SetAll(wml.ST_BorderSingle, color.Auto, 0.5*measurement.Point)
	}

	for rowIdx, rowVals := range t.Rows {
		row := tbl.AddRow()
		for _, cellText := range rowVals {
			cell := row.AddCell()
			para := cell.AddParagraph()
			setSingleSpacing(para)
			run := para.AddRun()
			run.AddText(cellText)
			run.Properties().SetFontFamily(domain.FontName)
			if rowIdx == 0 && t.HeaderBold {
				run.Properties().SetBold(true)
			}
		}
	}
}

func emitImage(doc *document.Document, img domain.Image) error {
	ci, err := common.ImageFromBytes(img.PNG)
	if err != nil {
		return fmt.Errorf("decode embedded image: %w", err)
	}
	ref, err := doc.AddImage(ci)
	if err != nil {
		return fmt.Errorf("register embedded image: %w", err)
	}

	para := doc.AddParagraph()
	inline, err := para.AddRun().AddDrawingInline(ref)
	if err != nil {
		return fmt.Errorf("embed image: %w", err)
	}
	inline.SetSize(
		measurement.Distance(img.WidthCm)*measurement.Centimeter,
		measurement.Distance(img.HeightCm)*measurement.Centimeter,
	)
	return nil
}

func setSingleSpacing(para document.Paragraph) {
	para.Properties().Spacing().SetBefore(0)
	para.Properties().Spacing().SetAfter(0)
	para.Properties().Spacing().SetLineSpacing(12*measurement.Point, wml.ST_LineSpacingRuleAuto)
}

// hexColor converts an RRGGBB hex string into a unioffice color.
func hexColor(hex string) color.Color {
	var r, g, b uint8
	fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return color.RGB(r, g, b)
}
