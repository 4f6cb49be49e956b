// Package domain models the COE emergency report payload and the document
// block sequence derived from it.
//
// # Payload conventions
//
// The upstream registration forms (SINPAD/COE intake) submit loosely typed
// JSON: numbers may arrive as strings, action timelines mix objects and bare
// strings, and the elaboration date can live under any of five keys depending
// on which form produced the record:
//
//	fechaHoraRC > fechaElaboracionRC > fechaElaboracion > fechaHora > fechaRegistro
//
// Dates are ISO-8601, sometimes with a trailing "Z", sometimes in the loose
// "YYYY-MM-DD HH:MM" shape. Coordinates are decimal strings that may use a
// comma as the decimal separator (es-PE locale).
//
// Normalization is a total function: every malformed optional field becomes
// an empty string or an explicit outcome marker so that document assembly
// always completes. Only a structurally empty payload is rejected, at the
// HTTP boundary.
//
// # Map zoom
//
// The hazard type selects the map zoom level by case-insensitive substring
// match. Levels approximate the area a hazard of that kind typically spans:
// a sismo (earthquake) is shown at regional zoom 10, an incendio urbano
// (urban fire) at street-level zoom 15. Unmatched hazards fall back to 13.
//
// # Block sequence
//
// BuildSections emits the same fixed section order for both report variants;
// the Complementary variant appends one extra actions section. Every block
// carries explicit styling so the rendered document never depends on the
// docx library's defaults.
package domain
