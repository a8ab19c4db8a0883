package extract

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/fleetops/vesselwatch/internal/vessel"
)

// Sentinel position the upstream map widget emits before it has a real
// fix. When the structured blob carries it, fallback strategies run; if
// none validates, the sentinel is retained as a placeholder rather than
// dropping the position entirely.
const (
	sentinelLat = 1.29
	sentinelLon = 103.85
)

var (
	imoRe       = regexp.MustCompile(`(?i)IMO[:\s]*([0-9]{7})`)
	mmsiPairRe  = regexp.MustCompile(`([0-9]{7})\s*/\s*([0-9]{9})`)
	bareMMSIRe  = regexp.MustCompile(`\b([0-9]{9})\b`)
	imoMMSIRow  = regexp.MustCompile(`(?i)IMO\s*/\s*MMSI`)
	placeholder = "-"
)

// Extractor implements vessel.Extractor over goquery documents.
type Extractor struct {
	geo       Geofence
	imageHost string
	logger    *zap.Logger
}

// New builds an extractor validating fallback coordinates against geo.
// imageHost resolves relative photo URLs.
func New(geo Geofence, imageHost string, logger *zap.Logger) *Extractor {
	return &Extractor{geo: geo, imageHost: imageHost, logger: logger}
}

// Extract recovers as many fields as possible from the page. It never
// fails: unparseable content yields an empty record, and any per-field
// miss leaves that field absent.
func (e *Extractor) Extract(page vessel.Page) vessel.Record {
	var rec vessel.Record
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		e.logger.Debug("page parse failed", zap.String("url", page.URL), zap.Error(err))
		return rec
	}

	e.extractIdentity(doc, &rec)
	e.extractMMSI(doc, &rec)
	e.extractPosition(doc, &rec)
	e.extractImage(doc, &rec)
	e.extractPortAndFlag(doc, &rec)
	e.extractSpecs(doc, &rec)

	return rec
}

func (e *Extractor) extractIdentity(doc *goquery.Document, rec *vessel.Record) {
	title := strings.TrimSpace(doc.Find("h1.vessel-title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	rec.Name = title

	subtitle := strings.TrimSpace(doc.Find(".vessel-subtitle").First().Text())
	if subtitle == "" {
		subtitle = strings.TrimSpace(doc.Find("h2").First().Text())
	}
	if subtitle != "" {
		if idx := strings.Index(subtitle, ","); idx > 0 {
			rec.Type = strings.TrimSpace(subtitle[:idx])
		} else {
			rec.Type = subtitle
		}
		if m := imoRe.FindStringSubmatch(subtitle); m != nil {
			rec.IMO = m[1]
		}
	}
	if rec.IMO == "" {
		if m := imoRe.FindStringSubmatch(doc.Find("body").Text()); m != nil {
			rec.IMO = m[1]
		}
	}
}

func (e *Extractor) extractMMSI(doc *goquery.Document, rec *vessel.Record) {
	// Primary: a table row labeled "IMO / MMSI" with a slash-separated value.
	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !imoMMSIRow.MatchString(row.Text()) {
			return true
		}
		if m := mmsiPairRe.FindStringSubmatch(row.Text()); m != nil {
			if rec.IMO == "" {
				rec.IMO = m[1]
			}
			rec.MMSI = m[2]
			return false
		}
		return true
	})
	if rec.MMSI != "" {
		return
	}
	// Fallback: any cell holding a bare nine-digit token.
	doc.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := strings.TrimSpace(cell.Text())
		if m := bareMMSIRe.FindStringSubmatch(text); m != nil {
			rec.MMSI = m[1]
			return false
		}
		return true
	})
}

// markerBlob mirrors the JSON the upstream page embeds on its map element.
type markerBlob struct {
	Lat    json.Number `json:"lat"`
	Lon    json.Number `json:"lon"`
	Speed  json.Number `json:"speed"`
	Course json.Number `json:"course"`
	Status string      `json:"status"`
	Dest   string      `json:"destination"`
	TS     string      `json:"ts"`
	MMSI   string      `json:"mmsi"`
}

func (e *Extractor) extractPosition(doc *goquery.Document, rec *vessel.Record) {
	blob, hasBlob := e.decodeMarker(doc)

	var blobLat, blobLon float64
	blobHasCoords := false
	if hasBlob {
		lat, errLat := blob.Lat.Float64()
		lon, errLon := blob.Lon.Float64()
		if errLat == nil && errLon == nil && (lat != 0 || lon != 0) {
			if validCoordinate(lat, lon) {
				blobLat, blobLon = lat, lon
				blobHasCoords = true
			} else {
				e.logger.Debug("marker blob coordinate out of range",
					zap.Float64("lat", lat), zap.Float64("lon", lon))
			}
		}
		if blob.MMSI != "" && rec.MMSI == "" {
			rec.MMSI = blob.MMSI
		}
		if blob.Dest != "" {
			rec.Destination = blob.Dest
		}
	}

	if blobHasCoords && !isSentinel(blobLat, blobLon) {
		rec.Position = e.positionFromBlob(blob, blobLat, blobLon)
		rec.PositionSource = vessel.PositionStructured
		return
	}

	// The structured blob gave nothing usable; walk the fallback
	// strategies in priority order, first validated candidate wins.
	for _, strat := range fallbackStrategies {
		for _, cand := range strat.scan(doc) {
			if isSentinel(cand.lat, cand.lon) {
				continue
			}
			if !e.geo.Accept(cand.lat, cand.lon) {
				e.logger.Debug("fallback coordinate rejected",
					zap.String("strategy", strat.name),
					zap.Float64("lat", cand.lat),
					zap.Float64("lon", cand.lon))
				continue
			}
			pos := &vessel.Position{Latitude: cand.lat, Longitude: cand.lon}
			if hasBlob {
				fillMovement(pos, blob)
			}
			rec.Position = pos
			rec.PositionSource = vessel.PositionFallback
			return
		}
	}

	// Last resort: a sentinel in the right region beats no position.
	if blobHasCoords {
		rec.Position = e.positionFromBlob(blob, blobLat, blobLon)
		rec.PositionSource = vessel.PositionPlaceholder
	}
}

func (e *Extractor) decodeMarker(doc *goquery.Document) (markerBlob, bool) {
	raw, ok := doc.Find("#vesselMap").Attr("data-marker")
	if !ok || strings.TrimSpace(raw) == "" {
		return markerBlob{}, false
	}
	var blob markerBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		e.logger.Debug("marker blob decode failed", zap.Error(err))
		return markerBlob{}, false
	}
	return blob, true
}

func (e *Extractor) positionFromBlob(blob markerBlob, lat, lon float64) *vessel.Position {
	pos := &vessel.Position{Latitude: lat, Longitude: lon}
	fillMovement(pos, blob)
	return pos
}

func fillMovement(pos *vessel.Position, blob markerBlob) {
	if speed, err := blob.Speed.Float64(); err == nil {
		pos.SpeedKnots = speed
	}
	if course, err := blob.Course.Float64(); err == nil {
		pos.CourseDeg = math.Mod(math.Mod(course, 360)+360, 360)
	}
	pos.Status = blob.Status
	if blob.TS != "" {
		if ts, err := time.Parse(time.RFC3339, blob.TS); err == nil {
			pos.Timestamp = ts.UTC()
		}
	}
}

func isSentinel(lat, lon float64) bool {
	const eps = 1e-6
	return math.Abs(lat-sentinelLat) < eps && math.Abs(lon-sentinelLon) < eps
}

func validCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func (e *Extractor) extractImage(doc *goquery.Document, rec *vessel.Record) {
	img := doc.Find("img.vessel-photo").First()
	if img.Length() == 0 {
		img = doc.Find("#vesselPhoto").First()
	}
	src, ok := img.Attr("src")
	if !ok || src == "" {
		return
	}
	if strings.HasPrefix(src, "/") {
		src = strings.TrimRight(e.imageHost, "/") + src
	}
	rec.PhotoURL = src
	if prov, ok := img.Attr("data-provenance"); ok && prov != "" {
		rec.PhotoSource = prov
	} else {
		rec.PhotoSource = "upstream"
	}
}

func (e *Extractor) extractPortAndFlag(doc *goquery.Document, rec *vessel.Record) {
	if port := strings.TrimSpace(doc.Find(".current-port").First().Text()); port != "" {
		rec.NearestPort = port
	}
	if flag := strings.TrimSpace(doc.Find(".vessel-flag").First().Text()); flag != "" {
		rec.Flag = flag
		return
	}
	// Secondary flag strategy: a labeled table row.
	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		label := strings.TrimSpace(row.Find("th, td").First().Text())
		if !strings.EqualFold(label, "flag") {
			return true
		}
		value := strings.TrimSpace(row.Find("td").Last().Text())
		if value != "" && value != placeholder {
			rec.Flag = value
			return false
		}
		return true
	})
}

func (e *Extractor) extractSpecs(doc *goquery.Document, rec *vessel.Record) {
	doc.Find(".specs-table tr, table.specs tr").Each(func(_ int, row *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(row.Find("th, td").First().Text()))
		value := strings.TrimSpace(row.Find("td").Last().Text())
		if value == "" || value == placeholder || value == "—" {
			return
		}
		switch {
		case strings.Contains(label, "year of build"), strings.Contains(label, "built"):
			if year, err := strconv.Atoi(numericPrefix(value)); err == nil {
				rec.YearBuilt = year
			}
		case strings.Contains(label, "length overall"), strings.Contains(label, "length"):
			if f, ok := parseMeasure(value); ok {
				rec.LengthM = f
			}
		case strings.Contains(label, "beam"), strings.Contains(label, "width"):
			if f, ok := parseMeasure(value); ok {
				rec.WidthM = f
			}
		case strings.Contains(label, "gross tonnage"):
			if f, ok := parseMeasure(value); ok {
				rec.GrossTonnage = f
			}
		case strings.Contains(label, "deadweight"):
			if f, ok := parseMeasure(value); ok {
				rec.DeadweightT = f
			}
		}
	})
}

var measureRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

func parseMeasure(value string) (float64, bool) {
	value = strings.ReplaceAll(value, ",", "")
	m := measureRe.FindString(value)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func numericPrefix(value string) string {
	return measureRe.FindString(value)
}
