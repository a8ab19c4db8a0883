package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// candidate is one possible coordinate pair produced by a fallback
// strategy, before geofence validation.
type candidate struct {
	lat float64
	lon float64
}

// positionStrategy is a named, pure scan over the document that yields
// zero or more coordinate candidates. Strategies are applied in priority
// order with early exit on the first accepted candidate.
type positionStrategy struct {
	name string
	scan func(doc *goquery.Document) []candidate
}

var (
	labeledLatRe = regexp.MustCompile(`(?i)\b(?:lat|latitude)["']?\s*[:=]\s*["']?(-?\d{1,2}\.\d+)`)
	labeledLonRe = regexp.MustCompile(`(?i)\b(?:lon|lng|longitude)["']?\s*[:=]\s*["']?(-?\d{1,3}\.\d+)`)
	// Bare decimal pairs need at least four fractional digits on each side
	// to avoid matching prices, percentages and version numbers.
	barePairRe = regexp.MustCompile(`(-?\d{1,2}\.\d{4,})\s*[,/]\s*(-?\d{1,3}\.\d{4,})`)
	degreeRe   = regexp.MustCompile(`(\d{1,2}\.\d+)\s*°?\s*([NS])[,\s]+(\d{1,3}\.\d+)\s*°?\s*([EW])`)
)

// fallbackStrategies are attempted, in order, when the structured blob
// yields no coordinates or only a sentinel placeholder.
var fallbackStrategies = []positionStrategy{
	{name: "script-labeled", scan: scanScriptLabeledPairs},
	{name: "script-bare-pair", scan: scanScriptBarePairs},
	{name: "attributes", scan: scanCoordinateAttributes},
	{name: "visible-text", scan: scanVisibleDegreeText},
}

func scanScriptLabeledPairs(doc *goquery.Document) []candidate {
	var out []candidate
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		latMatches := labeledLatRe.FindAllStringSubmatch(text, -1)
		lonMatches := labeledLonRe.FindAllStringSubmatch(text, -1)
		n := len(latMatches)
		if len(lonMatches) < n {
			n = len(lonMatches)
		}
		for i := 0; i < n; i++ {
			lat, errLat := strconv.ParseFloat(latMatches[i][1], 64)
			lon, errLon := strconv.ParseFloat(lonMatches[i][1], 64)
			if errLat == nil && errLon == nil {
				out = append(out, candidate{lat: lat, lon: lon})
			}
		}
	})
	return out
}

func scanScriptBarePairs(doc *goquery.Document) []candidate {
	var out []candidate
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		for _, m := range barePairRe.FindAllStringSubmatch(s.Text(), -1) {
			lat, errLat := strconv.ParseFloat(m[1], 64)
			lon, errLon := strconv.ParseFloat(m[2], 64)
			if errLat == nil && errLon == nil {
				out = append(out, candidate{lat: lat, lon: lon})
			}
		}
	})
	return out
}

func scanCoordinateAttributes(doc *goquery.Document) []candidate {
	var out []candidate
	selector := "[data-lat][data-lon], [data-latitude][data-longitude]"
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		latAttr := firstAttr(s, "data-lat", "data-latitude")
		lonAttr := firstAttr(s, "data-lon", "data-longitude")
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(latAttr), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonAttr), 64)
		if errLat == nil && errLon == nil {
			out = append(out, candidate{lat: lat, lon: lon})
		}
	})
	return out
}

func scanVisibleDegreeText(doc *goquery.Document) []candidate {
	var out []candidate
	body := doc.Find("body").Text()
	for _, m := range degreeRe.FindAllStringSubmatch(body, -1) {
		lat, errLat := strconv.ParseFloat(m[1], 64)
		lon, errLon := strconv.ParseFloat(m[3], 64)
		if errLat != nil || errLon != nil {
			continue
		}
		if m[2] == "S" {
			lat = -lat
		}
		if m[4] == "W" {
			lon = -lon
		}
		out = append(out, candidate{lat: lat, lon: lon})
	}
	return out
}

func firstAttr(s *goquery.Selection, names ...string) string {
	for _, name := range names {
		if val, ok := s.Attr(name); ok && val != "" {
			return val
		}
	}
	return ""
}
