package domain

import "strings"

// DeriveFilename builds the deterministic output filename:
// NGlobal_Codigo_Peligro_Distrito_Departamento_Fecha.docx. Hyphens in the
// code become underscores and spaces are stripped from the hazard, district,
// and department so the name stays shell- and URL-friendly. The compact date
// may be empty when no elaboration date resolved. Collision avoidance is the
// caller's concern; repeated calls with the same inputs produce identical
// names.
func DeriveFilename(globalNumber, code, hazard, district, department, compactDate string) string {
	parts := []string{
		globalNumber,
		strings.ReplaceAll(code, "-", "_"),
		strings.ReplaceAll(hazard, " ", ""),
		strings.ReplaceAll(district, " ", ""),
		strings.ReplaceAll(department, " ", ""),
		compactDate,
	}
	return strings.Join(parts, "_") + ".docx"
}

// FilenameFor derives the filename for a normalized report.
func FilenameFor(n NormalizedReport) string {
	return DeriveFilename(n.GlobalNumber, n.Code, n.Hazard, n.District, n.Department, n.CompactDate())
}
