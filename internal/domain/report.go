package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Variant selects which of the two report shapes is assembled.
// Complementary is a strict superset of Preliminary: it adds one actions
// section and reads an alternate report-number fallback key.
type Variant int

const (
	VariantPreliminary Variant = iota
	VariantComplementary
)

// Label returns the report-type heading rendered under the title block.
func (v Variant) Label() string {
	if v == VariantComplementary {
		return "REPORTE COMPLEMENTARIO DE EMERGENCIA (RC)"
	}
	return "REPORTE PRELIMINAR DE EMERGENCIA (RP)"
}

func (v Variant) String() string {
	if v == VariantComplementary {
		return "rc"
	}
	return "rp"
}

// ReportRequest is the incoming payload for both report variants. Fields are
// untrusted: absent keys decode to zero values and number-like fields accept
// either JSON strings or numbers, matching what the upstream form submits.
type ReportRequest struct {
	Peligro      string `json:"peligro"`
	Departamento string `json:"departamento"`
	Provincia    string `json:"provincia"`
	Distrito     string `json:"distrito"`
	Latitud      string `json:"latitud"`
	Longitud     string `json:"longitud"`
	Hechos       string `json:"hechos"`
	DaniosOtros  string `json:"daniosOtros"`
	Codigo       string `json:"codigo"`

	NumeroGlobal    FlexString `json:"numeroGlobal"`
	NumeroReporte   FlexString `json:"numeroReporte"`
	NumeroReporteRC FlexString `json:"numeroReporteRC"`

	// Elaboration date candidates, tried in a fixed priority order.
	FechaHoraRC        string `json:"fechaHoraRC"`
	FechaElaboracionRC string `json:"fechaElaboracionRC"`
	FechaElaboracion   string `json:"fechaElaboracion"`
	FechaHora          string `json:"fechaHora"`
	FechaRegistro      string `json:"fechaRegistro"`

	DaniosMIDIS        DamageTable `json:"daniosMIDIS"`
	AccionesPreliminar []Action    `json:"accionesPreliminar"`
	AccionesRC         []Action    `json:"accionesRC"`

	ElaboradoPor string `json:"elaboradoPor"`
	AprobadoPor  string `json:"aprobadoPor"`
}

// FlexString decodes a JSON string, number, or null into a string.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("string or number expected: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// Count is a damage metric value. The upstream form is inconsistent about
// types, so numbers, numeric strings, and booleans are all accepted; anything
// else coerces to 0.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*c = 0
	case string(data) == "true":
		*c = 1
	case string(data) == "false":
		*c = 0
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			*c = 0
			return nil
		}
		*c = Count(n)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			*c = 0
			return nil
		}
		*c = Count(int(f))
	}
	return nil
}

// DamageMetrics holds the per-program impact figures shown in the damage table.
type DamageMetrics struct {
	UsuariosAfectados    Count `json:"usuariosAfectados"`
	ServiciosAfectados   Count `json:"serviciosAfectados"`
	UsuariosPorServicios Count `json:"usuariosPorServicios"`
	UsuariosFallecidos   Count `json:"usuariosFallecidos"`
	ModuloAfectado       Count `json:"moduloAfectado"`
}

// ProgramDamage pairs a social-program name with its metrics.
type ProgramDamage struct {
	Program string
	Metrics DamageMetrics
}

// DamageTable is the "program -> metrics" mapping, decoded in the order the
// keys appear in the JSON object. Table rows must come out in input order, so
// a plain map (unordered in Go) is not usable here.
type DamageTable []ProgramDamage

func (d *DamageTable) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*d = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("parse damage table: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("damage table: object expected, got %v", tok)
	}

	var out DamageTable
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("parse damage table key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("damage table: string key expected, got %v", keyTok)
		}
		var metrics DamageMetrics
		if err := dec.Decode(&metrics); err != nil {
			return fmt.Errorf("parse damage metrics for %q: %w", key, err)
		}
		out = append(out, ProgramDamage{Program: key, Metrics: metrics})
	}
	*d = out
	return nil
}

// Action is one entry in an action timeline. The payload is allowed to send
// either an object {fecha, descripcion} or a bare string.
type Action struct {
	Fecha       string
	Descripcion string

	// Bare is set when the entry arrived as a plain string; Descripcion then
	// holds that text and Fecha is empty.
	Bare bool
}

func (a *Action) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = Action{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Action{Descripcion: s, Bare: true}
		return nil
	}
	var obj struct {
		Fecha       string `json:"fecha"`
		Descripcion string `json:"descripcion"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("parse action: %w", err)
	}
	*a = Action{Fecha: obj.Fecha, Descripcion: obj.Descripcion}
	return nil
}

// DecodeReportRequest parses a request body. An empty body, `null`, or an
// empty JSON object is reported as ErrEmptyPayload so the HTTP layer can map
// it to the 400 "Sin datos" response.
func DecodeReportRequest(body []byte) (ReportRequest, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ReportRequest{}, ErrEmptyPayload
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return ReportRequest{}, fmt.Errorf("%w: %v", ErrEmptyPayload, err)
	}
	if len(probe) == 0 {
		return ReportRequest{}, ErrEmptyPayload
	}

	var req ReportRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return ReportRequest{}, fmt.Errorf("parse report request: %w", err)
	}
	return req, nil
}
