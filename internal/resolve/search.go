package resolve

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/fleetops/vesselwatch/internal/vessel"
)

var mmsiQueryRe = regexp.MustCompile(`^\d{9}$`)

// Search returns records matching a free-text query or an MMSI-style
// identifier. This is a deliberately simpler code path than the detail
// pipeline: curated records are matched directly and anything else
// yields one name-derived synthetic record, with no network involved.
func (s *Service) Search(_ context.Context, query string) []vessel.Record {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var out []vessel.Record
	if mmsiQueryRe.MatchString(query) {
		for _, rec := range curated {
			if rec.MMSI == query {
				rec.ResolvedAt = s.clock.Now()
				out = append(out, rec)
			}
		}
		if len(out) > 0 {
			return sortByIMO(out)
		}
	}

	lower := strings.ToLower(query)
	for _, rec := range curated {
		if strings.Contains(strings.ToLower(rec.Name), lower) || rec.IMO == query {
			rec.ResolvedAt = s.clock.Now()
			out = append(out, rec)
		}
	}
	if len(out) > 0 {
		return sortByIMO(out)
	}

	rec := s.Synthetic("search:" + lower)
	rec.Name = strings.ToUpper(query)
	return []vessel.Record{rec}
}

// sortByIMO keeps map-derived result order stable across calls.
func sortByIMO(recs []vessel.Record) []vessel.Record {
	sort.Slice(recs, func(i, j int) bool { return recs[i].IMO < recs[j].IMO })
	return recs
}
