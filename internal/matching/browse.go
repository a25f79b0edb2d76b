// internal/matching/browse.go
// In-process scoring and ordering of browse candidates: geo distance,
// common-interest counting and the sort keys.

package matching

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const earthRadiusKm = 6371

// HaversineKm computes the great-circle distance between two points in km.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// candidateDistance returns the viewer-candidate distance, or nil when either
// side has no coordinates. A missing distance is treated as unbounded: it is
// excluded by any distance filter and sorts last under distance ordering.
func candidateDistance(viewer *ViewerProfile, c *Candidate) *float64 {
	if viewer.Latitude == nil || viewer.Longitude == nil || c.Latitude == nil || c.Longitude == nil {
		return nil
	}

	d := HaversineKm(*viewer.Latitude, *viewer.Longitude, *c.Latitude, *c.Longitude)
	return &d
}

// normalizeTag lowercases a tag and strips everything but letters and digits.
func normalizeTag(tag string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(tag) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tagsMatchPartial reports whether two tags match after normalization,
// allowing one to be a substring of the other.
func tagsMatchPartial(a, b string) bool {
	na, nb := normalizeTag(a), normalizeTag(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// CommonTagCount counts the intersection of two interest sets.
// With partial=false tags compare by normalized equality; with partial=true
// (used when the caller supplied explicit tag filters) substring matches count.
func CommonTagCount(viewerTags, candidateTags []string, partial bool) int {
	count := 0
	for _, vt := range viewerTags {
		for _, ct := range candidateTags {
			var matched bool
			if partial {
				matched = tagsMatchPartial(vt, ct)
			} else {
				matched = normalizeTag(vt) == normalizeTag(ct)
			}
			if matched {
				count++
				break
			}
		}
	}
	return count
}

// hasAllTags reports whether the candidate carries every required tag,
// using partial matching.
func hasAllTags(required, candidateTags []string) bool {
	for _, rt := range required {
		found := false
		for _, ct := range candidateTags {
			if tagsMatchPartial(rt, ct) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// distanceOrInf maps a missing distance to +Inf for ordering purposes
func distanceOrInf(c *Candidate) float64 {
	if c.Distance == nil {
		return math.Inf(1)
	}
	return *c.Distance
}

// sortCandidates orders candidates by the requested key.
// "intelligent" is a strict lexicographic ordering: common tags descending,
// then fame rating descending, then distance ascending; sortOrder is ignored
// for it.
func sortCandidates(candidates []*Candidate, sortBy, sortOrder string) {
	desc := sortOrder == "desc"

	less := func(a, b *Candidate) bool {
		switch sortBy {
		case SortAge:
			return a.Age < b.Age
		case SortFameRating:
			return a.FameRating < b.FameRating
		case SortCommonTags:
			return a.CommonTags < b.CommonTags
		case SortIntelligent:
			if a.CommonTags != b.CommonTags {
				return a.CommonTags > b.CommonTags
			}
			if a.FameRating != b.FameRating {
				return a.FameRating > b.FameRating
			}
			return distanceOrInf(a) < distanceOrInf(b)
		default: // SortDistance
			return distanceOrInf(a) < distanceOrInf(b)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if desc && sortBy != SortIntelligent {
			return less(candidates[j], candidates[i])
		}
		return less(candidates[i], candidates[j])
	})
}
