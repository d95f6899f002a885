package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"vetdir/internal/domain"
)

/********** column alias registry (single source of truth) **********/

var columnAliases = map[string][]string{
	"name":        {"Business Name", "Name", "name"},
	"city":        {"City", "city"},
	"state":       {"State", "Region", "state"},
	"street":      {"Street", "Address", "street"},
	"phone":       {"Phone", "phone"},
	"website":     {"Website", "website"},
	"description": {"Description", "description"},
	"postal":      {"postal_code", "Postal Code", "zip"},
	"rating":      {"Rating", "rating"},
	"reviews":     {"Number of Reviews", "Reviews", "reviews"},
	"lat":         {"Latitude", "latitude", "lat"},
	"lon":         {"Longitude", "longitude", "lng", "lon"},
	"image":       {"Image URL", "image_url", "imageUrl"},
	"hours":       {"Working Hours", "working_hours", "workingHours"},
}

type BuildStats struct {
	Rows    int
	Skipped int
	Cities  int
	Items   int
}

// BuildService runs the offline batch pass: raw rows in, catalog artifact out.
type BuildService struct {
	src   domain.RowSource
	store domain.CatalogStore
}

func NewBuildService(src domain.RowSource, store domain.CatalogStore) *BuildService {
	return &BuildService{src: src, store: store}
}

func (s *BuildService) Run(ctx context.Context) (BuildStats, error) {
	rows, err := s.src.Rows(ctx)
	if err != nil {
		return BuildStats{}, fmt.Errorf("read source: %w", err)
	}
	cat, stats := BuildCatalog(rows)
	if err := s.store.Save(ctx, cat); err != nil {
		return stats, fmt.Errorf("save catalog: %w", err)
	}
	return stats, nil
}

// BuildCatalog folds raw rows into the city-grouped catalog. Single pass,
// deterministic for a given row order; all accumulation state is local.
func BuildCatalog(rows []domain.SourceRow) (domain.Catalog, BuildStats) {
	var stats BuildStats
	cities := make(map[string]*domain.City)
	usedSlugs := make(map[string]map[string]struct{}) // citySlug -> item slugs taken
	var cityOrder []string                            // first-seen order; keeps the final sort stable

	var all []domain.BusinessRecord

	for i, row := range rows {
		stats.Rows++
		name := rowStr(row, "name")
		cityName := rowStr(row, "city")
		stateName := rowStr(row, "state")
		if name == "" || cityName == "" || stateName == "" {
			stats.Skipped++
			log.Warn().Int("row", i+2).Msg("skipping row with missing name/city/state")
			continue
		}

		citySlug := slug.Make(cityName)
		city, ok := cities[citySlug]
		if !ok {
			// display name and state come from the first row seen for this slug
			city = &domain.City{Name: cityName, Slug: citySlug, State: stateName}
			cities[citySlug] = city
			usedSlugs[citySlug] = make(map[string]struct{})
			cityOrder = append(cityOrder, citySlug)
		}

		itemSlug := uniqueSlug(slug.Make(name), usedSlugs[citySlug])
		usedSlugs[citySlug][itemSlug] = struct{}{}

		rec := mapRecord(row, name, itemSlug, citySlug, cityName, stateName)
		city.Items = append(city.Items, rec)
		all = append(all, rec)
	}

	out := domain.Catalog{
		Cities:   make([]domain.City, 0, len(cityOrder)),
		AllItems: all,
	}
	for _, cs := range cityOrder {
		city := cities[cs]
		sort.SliceStable(city.Items, func(a, b int) bool { return city.Items[a].Name < city.Items[b].Name })
		city.ItemCount = len(city.Items)
		out.Cities = append(out.Cities, *city)
	}
	sort.SliceStable(out.Cities, func(a, b int) bool { return out.Cities[a].Name < out.Cities[b].Name })
	sort.SliceStable(out.AllItems, func(a, b int) bool { return out.AllItems[a].Name < out.AllItems[b].Name })

	stats.Cities = len(out.Cities)
	stats.Items = len(out.AllItems)
	return out, stats
}

// uniqueSlug appends -2, -3, ... (first unused integer >= 2) on collision.
// Uniqueness is scoped to one city's slug set, not the whole catalog.
func uniqueSlug(base string, used map[string]struct{}) string {
	if _, taken := used[base]; !taken {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

/********** record mapper **********/

func mapRecord(row domain.SourceRow, name, itemSlug, citySlug, cityName, stateName string) domain.BusinessRecord {
	rec := domain.BusinessRecord{
		Name:        name,
		Slug:        itemSlug,
		CitySlug:    citySlug,
		City:        cityName,
		State:       stateName,
		Street:      rowStrPtr(row, "street"),
		Phone:       rowStrPtr(row, "phone"),
		Website:     rowStrPtr(row, "website"),
		Description: rowStrPtr(row, "description"),
		PostalCode:  rowStrPtr(row, "postal"),
		Rating:      rowFloat(row, "rating"),
		Reviews:     rowInt(row, "reviews"),
		Latitude:    rowFloat(row, "lat"),
		Longitude:   rowFloat(row, "lon"),
		ImageURL:    rowStrPtr(row, "image"),
		Hours:       parseHours(rowStr(row, "hours")),
	}
	// coordinates are a pair: one without the other is useless downstream
	if rec.Latitude == nil || rec.Longitude == nil {
		rec.Latitude, rec.Longitude = nil, nil
	}
	return rec
}

// parseHours soft-parses the hours cell: a JSON day->hours object gives the
// structured variant, anything else non-empty is kept as "unparsed" so callers
// can tell it apart from hours never being given (nil).
func parseHours(s string) *domain.WorkingHours {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var days map[string]string
	if err := json.Unmarshal([]byte(s), &days); err != nil || days == nil {
		return &domain.WorkingHours{Unparsed: true}
	}
	return &domain.WorkingHours{Days: days}
}

/********** tiny row helpers **********/

// rowStr: first non-empty aliased column, trimmed.
func rowStr(row domain.SourceRow, key string) string {
	for _, col := range columnAliases[key] {
		if v := strings.TrimSpace(row[col]); v != "" {
			return v
		}
	}
	return ""
}

func rowStrPtr(row domain.SourceRow, key string) *string {
	if v := rowStr(row, key); v != "" {
		return &v
	}
	return nil
}

// rowFloat parses a float, tolerating comma decimal separators ("41,1").
// Unparsable or absent values stay nil: zero and "unknown" must remain
// distinguishable downstream.
func rowFloat(row domain.SourceRow, key string) *float64 {
	v := rowStr(row, key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &f
}

func rowInt(row domain.SourceRow, key string) *int {
	v := rowStr(row, key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
