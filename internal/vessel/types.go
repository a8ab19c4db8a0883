// Package vessel defines core types shared across the tracking subsystem.
package vessel

import "time"

// Vessel is a fleet entry as supplied by the ship registry.
type Vessel struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Reference string `json:"reference,omitempty"`
}

// HasReference reports whether a detail page is known for this vessel.
func (v Vessel) HasReference() bool {
	return v.Reference != ""
}

// PositionSource labels how a record's position was obtained.
type PositionSource string

// Position provenance values, roughly ordered by confidence.
const (
	PositionStructured  PositionSource = "structured"
	PositionFallback    PositionSource = "fallback"
	PositionPlaceholder PositionSource = "placeholder"
	PositionSynthetic   PositionSource = "synthetic"
)

// Position is a vessel's last known position and movement state.
type Position struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKnots float64   `json:"speed_knots"`
	CourseDeg  float64   `json:"course_deg"`
	Status     string    `json:"status,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitzero"`
}

// Record is the resolved structured data for one vessel at a point in time.
// String fields are empty and numeric fields zero when the source did not
// yield them; Position is nil when no coordinates were recovered.
type Record struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
	Flag string `json:"flag,omitempty"`
	IMO  string `json:"imo,omitempty"`
	MMSI string `json:"mmsi,omitempty"`

	LengthM      float64 `json:"length_m,omitempty"`
	WidthM       float64 `json:"width_m,omitempty"`
	DeadweightT  float64 `json:"deadweight_t,omitempty"`
	GrossTonnage float64 `json:"gross_tonnage,omitempty"`
	YearBuilt    int     `json:"year_built,omitempty"`

	Position       *Position      `json:"position,omitempty"`
	PositionSource PositionSource `json:"position_source,omitempty"`
	NearestPort    string         `json:"nearest_port,omitempty"`
	Destination    string         `json:"destination,omitempty"`

	PhotoURL    string `json:"photo_url,omitempty"`
	PhotoSource string `json:"photo_source,omitempty"`

	ResolvedAt time.Time `json:"resolved_at,omitzero"`
	Synthetic  bool      `json:"synthetic,omitempty"`
}

// HasIdentity reports whether any identity field was recovered.
func (r Record) HasIdentity() bool {
	return r.Name != "" || r.IMO != "" || r.MMSI != ""
}

// Usable reports whether the record carries enough data to display.
// An all-empty extraction counts as a pipeline failure upstream.
func (r Record) Usable() bool {
	return r.HasIdentity() || r.Position != nil
}

// Page is the rendered content of one vessel detail page.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Origin classifies a cache write and determines its TTL.
type Origin string

// Cache write classifications.
const (
	OriginSuccess Origin = "success"
	OriginStatic  Origin = "static"
	OriginError   Origin = "error"
)

// CacheEntry wraps a Record with its cache lifecycle metadata. Entries are
// immutable once written; a refresh is a full replacement.
type CacheEntry struct {
	Record    Record    `json:"record"`
	Origin    Origin    `json:"origin"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry's TTL has elapsed at the given time.
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// CacheStats summarizes the tiered cache contents.
type CacheStats struct {
	FastEntries    int   `json:"fast_entries"`
	DurableEntries int   `json:"durable_entries"`
	FastBytes      int64 `json:"fast_bytes"`
}
