package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// MapRenderer produces a PNG raster of the location. Implementations must
// return within their configured hard deadline; the layout engine treats any
// error as "no image" and degrades to a textual fallback.
type MapRenderer interface {
	Render(ctx context.Context, lat, lon float64, zoom int) ([]byte, error)
}

// Embedded physical size of the location map, independent of the canvas
// resolution the renderer uses.
const (
	MapWidthCm  = 12
	MapHeightCm = 8
)

// Placeholder sentences rendered when optional section content is missing.
const (
	msgNoCoordinates   = "Sin coordenadas registradas (no se puede generar el mapa)."
	msgNoDamageInfo    = "Sin información registrada."
	msgNoPrelimActions = "Sin acciones preliminares registradas."
	msgNoComplActions  = "Sin acciones complementarias registradas."
)

// BuildSections composes the ordered block sequence for one report. Both
// variants share the same pipeline; the variant gates only the report-type
// label, the number fallback (already resolved during normalization), and the
// complementary-actions section.
func BuildSections(ctx context.Context, n NormalizedReport, variant Variant, renderer MapRenderer, logger *slog.Logger) []Block {
	blocks := []Block{
		Title{Text: titleLine(n)},
		metaLine("Fecha de elaboración : "+n.DisplayDate(), ColorTitleBlue),
		metaLine("Código de Emergencia: "+n.Code, ColorAlertRed),
		metaLine(fmt.Sprintf("%s N° %s", variant.Label(), n.GlobalNumber), ColorTitleBlue),
	}

	blocks = append(blocks, SectionBanner{Text: "Hechos"}, BodyParagraph(n.Facts))

	blocks = append(blocks, SectionBanner{Text: "Ubicación"})
	blocks = append(blocks, locationBlocks(ctx, n, renderer, logger)...)

	blocks = append(blocks, SectionBanner{Text: "Daños en el sector Desarrollo e Inclusión Social"})
	blocks = append(blocks, damageBlocks(n.Damage)...)

	blocks = append(blocks, SectionBanner{Text: "Daños en otros sectores"}, BodyParagraph(n.OtherSectorDamage))

	blocks = append(blocks, SectionBanner{Text: "Acciones del Sector Desarrollo e Inclusión Social (Preliminar)"})
	blocks = append(blocks, actionBlocks(n.Actions, msgNoPrelimActions)...)

	if variant == VariantComplementary {
		blocks = append(blocks, SectionBanner{Text: "Acciones del Sector Desarrollo e Inclusión Social (RC)"})
		blocks = append(blocks, actionBlocks(n.ComplementaryActions, msgNoComplActions)...)
	}

	blocks = append(blocks, SectionBanner{Text: "Responsables"})
	blocks = append(blocks,
		labeledLine("Elaborado por: ", n.PreparedBy),
		labeledLine("Aprobado por: ", n.ApprovedBy),
	)

	return blocks
}

// titleLine composes the uppercase headline, e.g.
// "SISMO EN EL DISTRITO LIMA – LIMA".
func titleLine(n NormalizedReport) string {
	return strings.TrimSpace(fmt.Sprintf("%s EN EL DISTRITO %s – %s",
		strings.ToUpper(n.Hazard),
		strings.ToUpper(n.District),
		strings.ToUpper(n.Department),
	))
}

// metaLine builds one of the centered bold 9pt lines under the title.
func metaLine(text, colorHex string) Paragraph {
	return Paragraph{
		Runs:   []Run{{Text: text, Bold: true, SizePt: MetaSizePt, ColorHex: colorHex}},
		Center: true,
	}
}

// labeledLine builds a "Label: value" paragraph with a bold label run.
func labeledLine(label, value string) Paragraph {
	return Paragraph{Runs: []Run{
		{Text: label, Bold: true, SizePt: BodySizePt},
		{Text: value, SizePt: BodySizePt},
	}}
}

// locationBlocks renders the department/province/district table, the map
// heading, and then either the map image or a textual fallback. A render
// failure degrades the map only; it never fails the request.
func locationBlocks(ctx context.Context, n NormalizedReport, renderer MapRenderer, logger *slog.Logger) []Block {
	blocks := []Block{
		Table{
			Rows: [][]string{
				{"Departamento", "Provincia", "Distrito"},
				{n.Department, n.Province, n.District},
			},
			HeaderBold: true,
		},
		Paragraph{
			Runs:          []Run{{Text: "Mapa de ubicación", Bold: true, SizePt: BodySizePt}},
			SpaceBeforePt: 6,
			SpaceAfterPt:  3,
		},
	}

	switch n.Coords.Status {
	case CoordMissing:
		return append(blocks, PlaceholderText{Text: msgNoCoordinates})
	case CoordUnparsable:
		return append(blocks, PlaceholderText{Text: fmt.Sprintf(
			"No se pudo interpretar las coordenadas: latitud='%s', longitud='%s'.",
			n.Coords.RawLat, n.Coords.RawLon,
		)})
	}

	png, err := renderer.Render(ctx, n.Coords.Lat, n.Coords.Lon, n.Zoom)
	if err != nil {
		logger.Warn("map render failed, using textual fallback",
			"lat", n.Coords.Lat,
			"lon", n.Coords.Lon,
			"zoom", n.Zoom,
			"error", err,
		)
		return append(blocks, PlaceholderText{Text: fmt.Sprintf(
			"No se pudo generar el mapa estático (error al obtener las teselas de mapa). Coordenadas: %s, %s.",
			n.Coords.RawLat, n.Coords.RawLon,
		)})
	}

	return append(blocks, Image{PNG: png, WidthCm: MapWidthCm, HeightCm: MapHeightCm})
}

// damageBlocks renders the 6-column damage table, one row per program in
// input order, or the placeholder sentence when nothing was reported.
func damageBlocks(damage DamageTable) []Block {
	if len(damage) == 0 {
		return []Block{PlaceholderText{Text: msgNoDamageInfo}}
	}

	rows := [][]string{{
		"Programa",
		"Usuarios afectados",
		"Servicios afectados",
		"Usuarios afectados por servicios",
		"Usuarios fallecidos",
		"Módulo afectado",
	}}
	for _, pd := range damage {
		rows = append(rows, []string{
			pd.Program,
			fmt.Sprintf("%d", pd.Metrics.UsuariosAfectados),
			fmt.Sprintf("%d", pd.Metrics.ServiciosAfectados),
			fmt.Sprintf("%d", pd.Metrics.UsuariosPorServicios),
			fmt.Sprintf("%d", pd.Metrics.UsuariosFallecidos),
			fmt.Sprintf("%d", pd.Metrics.ModuloAfectado),
		})
	}
	return []Block{Table{Rows: rows, HeaderBold: true, Bordered: true}}
}

// actionBlocks renders a 1-based numbered paragraph per action, or the given
// placeholder when the list is empty.
func actionBlocks(actions []Action, placeholder string) []Block {
	if len(actions) == 0 {
		return []Block{PlaceholderText{Text: placeholder}}
	}

	blocks := make([]Block, 0, len(actions))
	for i, action := range actions {
		blocks = append(blocks, BodyParagraph(formatActionLine(i+1, action)))
	}
	return blocks
}

// formatActionLine renders "{n}. [{dd-mm-yyyy}] {desc}" for dated entries and
// "{n}. {text}" otherwise.
func formatActionLine(num int, action Action) string {
	if action.Bare || action.Fecha == "" {
		return fmt.Sprintf("%d. %s", num, action.Descripcion)
	}
	return fmt.Sprintf("%d. [%s] %s", num, reformatActionDate(action.Fecha), action.Descripcion)
}

// reformatActionDate converts "YYYY-MM-DD" to "DD-MM-YYYY", passing the
// original through when it does not parse.
func reformatActionDate(raw string) string {
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return raw
	}
	return d.Format("02-01-2006")
}
