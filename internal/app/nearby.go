package app

import (
	"math"
	"math/rand"
	"sort"

	"vetdir/internal/domain"
)

const earthRadiusMiles = 3958.8

// Haversine returns the great-circle distance in miles between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// RankNearby ranks the reference city's other records by distance from
// (lat, lon), then pads with a random sample of the rest of the catalog up to
// target. Padding and coordinate-less candidates carry a nil distance and sort
// after the real ones. rng drives only the padding sample; passing a seeded
// source makes the result reproducible.
func RankNearby(cat *domain.Catalog, citySlug, excludeSlug string, lat, lon float64, target int, rng *rand.Rand) []domain.ProximityResult {
	if target <= 0 {
		return nil
	}

	var results []domain.ProximityResult
	if city := cat.CityBySlug(citySlug); city != nil {
		for i := range city.Items {
			it := city.Items[i]
			if it.Slug == excludeSlug {
				continue
			}
			pr := domain.ProximityResult{BusinessRecord: it}
			if it.Latitude != nil && it.Longitude != nil {
				d := Haversine(lat, lon, *it.Latitude, *it.Longitude)
				pr.Distance = &d
			}
			results = append(results, pr)
		}
		// nil distances after all numeric ones; stable keeps input order among equals
		sort.SliceStable(results, func(a, b int) bool {
			da, db := results[a].Distance, results[b].Distance
			if da == nil {
				return false
			}
			if db == nil {
				return true
			}
			return *da < *db
		})
	}

	if len(results) >= target {
		return results[:target]
	}

	taken := make(map[string]struct{}, len(results)+1)
	taken[citySlug+"/"+excludeSlug] = struct{}{}
	for _, r := range results {
		taken[r.CitySlug+"/"+r.Slug] = struct{}{}
	}

	pool := make([]domain.BusinessRecord, 0, len(cat.AllItems))
	for _, it := range cat.AllItems {
		if _, ok := taken[it.CitySlug+"/"+it.Slug]; ok {
			continue
		}
		pool = append(pool, it)
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	for _, it := range pool {
		if len(results) == target {
			break
		}
		results = append(results, domain.ProximityResult{BusinessRecord: it})
	}
	return results
}

// BestRated sorts the flat catalog by rating descending (missing rating below
// any real one), ties broken by review count descending (missing counts as 0).
// No distance, no padding.
func BestRated(cat *domain.Catalog, excludeSlug string, count int) []domain.BusinessRecord {
	if count <= 0 {
		return nil
	}
	items := make([]domain.BusinessRecord, 0, len(cat.AllItems))
	for _, it := range cat.AllItems {
		if excludeSlug != "" && it.Slug == excludeSlug {
			continue
		}
		items = append(items, it)
	}
	sort.SliceStable(items, func(a, b int) bool {
		ra, rb := ratingOrMin(items[a].Rating), ratingOrMin(items[b].Rating)
		if ra != rb {
			return ra > rb
		}
		return reviewsOrZero(items[a].Reviews) > reviewsOrZero(items[b].Reviews)
	})
	if len(items) > count {
		items = items[:count]
	}
	return items
}

func ratingOrMin(r *float64) float64 {
	if r == nil {
		return -1
	}
	return *r
}

func reviewsOrZero(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
