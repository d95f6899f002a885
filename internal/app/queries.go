package app

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"vetdir/internal/domain"
)

// QueryService serves the read models off an in-memory catalog. The catalog is
// read-only after the builder produced it, so concurrent calls are safe.
// Cacheable reads go through a read-through cache the way small, hot directory
// lookups should; FindNearby is never cached because its padding is randomized.
type QueryService struct {
	cat      *domain.Catalog
	cache    domain.Cache
	cacheTTL time.Duration
	seed     func() int64
}

func NewQueryService(cat *domain.Catalog, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{
		cat:      cat,
		cache:    cache,
		cacheTTL: ttl,
		seed:     func() int64 { return time.Now().UnixNano() },
	}
}

func (s *QueryService) Cities(ctx context.Context) []domain.CitySummary {
	var out []domain.CitySummary
	if ok, _ := s.cache.Get(ctx, "cities", &out); ok {
		return out
	}
	out = make([]domain.CitySummary, 0, len(s.cat.Cities))
	for _, c := range s.cat.Cities {
		out = append(out, domain.CitySummary{Name: c.Name, Slug: c.Slug, ItemCount: c.ItemCount})
	}
	_ = s.cache.Set(ctx, "cities", out, int(s.cacheTTL.Seconds()))
	return out
}

func (s *QueryService) GetCity(ctx context.Context, citySlug string) (domain.City, error) {
	key := "city:" + citySlug
	var out domain.City
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	city := s.cat.CityBySlug(citySlug)
	if city == nil {
		return domain.City{}, domain.ErrNotFound
	}
	_ = s.cache.Set(ctx, key, *city, int(s.cacheTTL.Seconds()))
	return *city, nil
}

// CityItems degrades gracefully: an unknown slug yields an empty list, not an
// error, matching the lenient city-items contract.
func (s *QueryService) CityItems(ctx context.Context, citySlug string) []domain.BusinessRecord {
	key := "cityitems:" + citySlug
	var out []domain.BusinessRecord
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out
	}
	out = []domain.BusinessRecord{}
	if city := s.cat.CityBySlug(citySlug); city != nil {
		out = append(out, city.Items...)
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out
}

func (s *QueryService) GetItem(ctx context.Context, citySlug, itemSlug string) (domain.BusinessRecord, error) {
	it := s.cat.Item(citySlug, itemSlug)
	if it == nil {
		return domain.BusinessRecord{}, domain.ErrNotFound
	}
	return *it, nil
}

// States groups cities by state name, states and cities each sorted by name.
func (s *QueryService) States(ctx context.Context) []domain.StateGroup {
	var out []domain.StateGroup
	if ok, _ := s.cache.Get(ctx, "states", &out); ok {
		return out
	}
	byState := make(map[string][]domain.CitySummary)
	var order []string
	for _, c := range s.cat.Cities {
		if _, ok := byState[c.State]; !ok {
			order = append(order, c.State)
		}
		byState[c.State] = append(byState[c.State], domain.CitySummary{Name: c.Name, Slug: c.Slug, ItemCount: c.ItemCount})
	}
	sort.Strings(order)
	out = make([]domain.StateGroup, 0, len(order))
	for _, st := range order {
		out = append(out, domain.StateGroup{State: st, Cities: byState[st]})
	}
	_ = s.cache.Set(ctx, "states", out, int(s.cacheTTL.Seconds()))
	return out
}

// Search does a case-insensitive substring match over name, city, state,
// description and postal code.
func (s *QueryService) Search(ctx context.Context, q string) []domain.BusinessRecord {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []domain.BusinessRecord{}
	}
	key := "search:" + q
	var out []domain.BusinessRecord
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out
	}
	out = []domain.BusinessRecord{}
	for _, it := range s.cat.AllItems {
		if matchesQuery(it, q) {
			out = append(out, it)
		}
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out
}

func matchesQuery(it domain.BusinessRecord, q string) bool {
	if strings.Contains(strings.ToLower(it.Name), q) ||
		strings.Contains(strings.ToLower(it.City), q) ||
		strings.Contains(strings.ToLower(it.State), q) {
		return true
	}
	if it.Description != nil && strings.Contains(strings.ToLower(*it.Description), q) {
		return true
	}
	if it.PostalCode != nil && strings.Contains(strings.ToLower(*it.PostalCode), q) {
		return true
	}
	return false
}

func (s *QueryService) BestRated(ctx context.Context, excludeSlug string, count int) []domain.BusinessRecord {
	key := fmt.Sprintf("best:%s:%d", excludeSlug, count)
	var out []domain.BusinessRecord
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out
	}
	out = BestRated(s.cat, excludeSlug, count)
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out
}

func (s *QueryService) FindNearby(citySlug, excludeSlug string, lat, lon float64, count int) []domain.ProximityResult {
	rng := rand.New(rand.NewSource(s.seed()))
	return RankNearby(s.cat, citySlug, excludeSlug, lat, lon, count, rng)
}
