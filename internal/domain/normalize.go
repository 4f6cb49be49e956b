package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyPayload marks a request body with no usable data.
var ErrEmptyPayload = errors.New("empty report payload")

// CoordStatus classifies the outcome of coordinate resolution.
type CoordStatus int

const (
	// CoordMissing means latitude or longitude was absent from the payload.
	CoordMissing CoordStatus = iota
	// CoordUnparsable means both strings were present but at least one did
	// not parse as a number; RawLat/RawLon keep the originals for the
	// user-facing fallback text.
	CoordUnparsable
	// CoordValid means both values parsed; Lat/Lon are set.
	CoordValid
)

// CoordOutcome is the explicit result of coordinate resolution. Either both
// coordinates parse or the map section renders a textual fallback; there is
// no partial state.
type CoordOutcome struct {
	Status CoordStatus
	Lat    float64
	Lon    float64
	RawLat string
	RawLon string
}

// NormalizedReport holds the best-effort typed view of a ReportRequest.
// Normalization is total: malformed fields become empty strings or explicit
// outcome markers, never errors.
type NormalizedReport struct {
	Hazard     string
	Department string
	Province   string
	District   string

	Facts             string
	OtherSectorDamage string
	Code              string
	GlobalNumber      string
	PreparedBy        string
	ApprovedBy        string

	Damage               DamageTable
	Actions              []Action
	ComplementaryActions []Action

	Date    time.Time
	HasDate bool

	Coords CoordOutcome
	Zoom   int
}

// DisplayDate renders the elaboration date as dd/mm/yyyy hh:mm, or "" when
// no date resolved.
func (n NormalizedReport) DisplayDate() string {
	if !n.HasDate {
		return ""
	}
	return n.Date.Format("02/01/2006 15:04")
}

// CompactDate renders the ddmmyyyy filename projection, or "" when no date
// resolved.
func (n NormalizedReport) CompactDate() string {
	if !n.HasDate {
		return ""
	}
	return n.Date.Format("02012006")
}

// Normalize coerces a raw payload into typed fields. The variant only affects
// which report-number fallback key applies.
func Normalize(req ReportRequest, variant Variant) NormalizedReport {
	n := NormalizedReport{
		Hazard:     strings.TrimSpace(req.Peligro),
		Department: req.Departamento,
		Province:   req.Provincia,
		District:   strings.TrimSpace(req.Distrito),

		Facts:             req.Hechos,
		OtherSectorDamage: req.DaniosOtros,
		Code:              strings.TrimSpace(req.Codigo),
		PreparedBy:        req.ElaboradoPor,
		ApprovedBy:        req.AprobadoPor,

		Damage:               req.DaniosMIDIS,
		Actions:              req.AccionesPreliminar,
		ComplementaryActions: req.AccionesRC,
	}

	n.GlobalNumber = string(req.NumeroGlobal)
	if n.GlobalNumber == "" {
		if variant == VariantComplementary {
			n.GlobalNumber = string(req.NumeroReporteRC)
		} else {
			n.GlobalNumber = string(req.NumeroReporte)
		}
	}

	if dt, ok := resolveElaborationDate(req); ok {
		n.Date = dt
		n.HasDate = true
	}

	n.Coords = resolveCoordinates(req.Latitud, req.Longitud)
	n.Zoom = ZoomForHazard(req.Peligro)

	return n
}

// resolveElaborationDate tries the alternate date keys in priority order.
// Each non-empty candidate gets a trailing-Z strip, then an ISO parse, then
// a "YYYY-MM-DD HH:MM" parse. The first success wins.
func resolveElaborationDate(req ReportRequest) (time.Time, bool) {
	candidates := []string{
		req.FechaHoraRC,
		req.FechaElaboracionRC,
		req.FechaElaboracion,
		req.FechaHora,
		req.FechaRegistro,
	}

	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		raw = strings.TrimSuffix(raw, "Z")
		if dt, ok := parseISODateTime(raw); ok {
			return dt, true
		}
		if dt, err := time.Parse("2006-01-02 15:04", raw); err == nil {
			return dt, true
		}
	}
	return time.Time{}, false
}

// isoLayouts covers the ISO-8601 shapes the upstream forms produce, with and
// without seconds or a date-only value.
var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseISODateTime(raw string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if dt, err := time.Parse(layout, raw); err == nil {
			return dt, true
		}
	}
	return time.Time{}, false
}

// resolveCoordinates validates and parses the raw latitude/longitude strings,
// tolerating comma decimal separators.
func resolveCoordinates(latRaw, lonRaw string) CoordOutcome {
	latRaw = strings.TrimSpace(latRaw)
	lonRaw = strings.TrimSpace(lonRaw)
	if latRaw == "" || lonRaw == "" {
		return CoordOutcome{Status: CoordMissing, RawLat: latRaw, RawLon: lonRaw}
	}

	lat, errLat := strconv.ParseFloat(strings.ReplaceAll(latRaw, ",", "."), 64)
	lon, errLon := strconv.ParseFloat(strings.ReplaceAll(lonRaw, ",", "."), 64)
	if errLat != nil || errLon != nil {
		return CoordOutcome{Status: CoordUnparsable, RawLat: latRaw, RawLon: lonRaw}
	}

	return CoordOutcome{Status: CoordValid, Lat: lat, Lon: lon, RawLat: latRaw, RawLon: lonRaw}
}

// hazardZoom maps hazard-type substrings to map zoom levels. Order matters
// only in that the first matching substring wins.
var hazardZoom = []struct {
	substr string
	zoom   int
}{
	{"sismo", 10},
	{"huaic", 14},
	{"inund", 13},
	{"lluvia", 13},
	{"incendio urbano", 15},
	{"incendios urbanos", 15},
	{"incendio forestal", 13},
	{"incendios forestales", 13},
}

// defaultZoom applies when the hazard matches no table entry.
const defaultZoom = 13

// ZoomForHazard selects the map zoom level for a hazard type via
// case-insensitive substring matching.
func ZoomForHazard(hazard string) int {
	h := strings.ToLower(hazard)
	for _, entry := range hazardZoom {
		if strings.Contains(h, entry.substr) {
			return entry.zoom
		}
	}
	return defaultZoom
}
