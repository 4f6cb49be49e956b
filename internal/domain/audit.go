package domain

import "time"

// AuditEvent describes one generated report document. It carries metadata
// only, never document bytes.
type AuditEvent struct {
	Variant     string    `json:"variant"` // "rp" or "rc"
	Code        string    `json:"codigo,omitempty"`
	Filename    string    `json:"filename"`
	SizeBytes   int       `json:"size_bytes"`
	DurationMS  int64     `json:"duration_ms"`
	MapIncluded bool      `json:"map_included"`
	GeneratedAt time.Time `json:"generated_at"`
}
