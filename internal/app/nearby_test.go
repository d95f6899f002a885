package app_test

import (
	"math"
	"math/rand"
	"testing"

	"vetdir/internal/app"
	"vetdir/internal/domain"
)

func pf(f float64) *float64 { return &f }
func pi(n int) *int         { return &n }

func item(name, slug, citySlug string, lat, lon *float64) domain.BusinessRecord {
	return domain.BusinessRecord{Name: name, Slug: slug, CitySlug: citySlug, City: citySlug, State: "Texas", Latitude: lat, Longitude: lon}
}

// testCatalog: springfield has the reference plus A, B; five more records live
// in other cities and can only enter results as padding.
func testCatalog() *domain.Catalog {
	ref := item("Ref Clinic", "ref-clinic", "springfield", pf(40.0), pf(-75.0))
	a := item("A Clinic", "a-clinic", "springfield", pf(40.01), pf(-75.01))
	b := item("B Clinic", "b-clinic", "springfield", pf(41.0), pf(-76.0))
	others := []domain.BusinessRecord{
		item("O1", "o1", "shelbyville", pf(30.0), pf(-97.0)),
		item("O2", "o2", "shelbyville", nil, nil),
		item("O3", "o3", "capital-city", pf(31.0), pf(-98.0)),
		item("O4", "o4", "capital-city", nil, nil),
		item("O5", "o5", "ogdenville", pf(32.0), pf(-99.0)),
	}
	cat := &domain.Catalog{
		Cities: []domain.City{
			{Name: "Capital City", Slug: "capital-city", State: "Texas", Items: []domain.BusinessRecord{others[2], others[3]}, ItemCount: 2},
			{Name: "Ogdenville", Slug: "ogdenville", State: "Texas", Items: []domain.BusinessRecord{others[4]}, ItemCount: 1},
			{Name: "Shelbyville", Slug: "shelbyville", State: "Texas", Items: []domain.BusinessRecord{others[0], others[1]}, ItemCount: 2},
			{Name: "Springfield", Slug: "springfield", State: "Illinois", Items: []domain.BusinessRecord{a, b, ref}, ItemCount: 3},
		},
	}
	for _, c := range cat.Cities {
		cat.AllItems = append(cat.AllItems, c.Items...)
	}
	return cat
}

func TestHaversineZeroIdentityAndSymmetry(t *testing.T) {
	if d := app.Haversine(40.0, -75.0, 40.0, -75.0); d != 0 {
		t.Fatalf("distance to self should be 0, got %f", d)
	}
	ab := app.Haversine(40.0, -75.0, 41.0, -76.0)
	ba := app.Haversine(41.0, -76.0, 40.0, -75.0)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
	}
	// sanity: about 69 miles per degree of latitude
	ns := app.Haversine(40.0, -75.0, 41.0, -75.0)
	if ns < 68 || ns > 70 {
		t.Fatalf("unexpected north-south degree distance: %f", ns)
	}
}

func TestRankNearbyOrdersThenPads(t *testing.T) {
	cat := testCatalog()
	rng := rand.New(rand.NewSource(1))
	got := app.RankNearby(cat, "springfield", "ref-clinic", 40.0, -75.0, 5, rng)

	if len(got) != 5 {
		t.Fatalf("expected exactly 5 results, got %d", len(got))
	}
	if got[0].Slug != "a-clinic" || got[1].Slug != "b-clinic" {
		t.Fatalf("same-city results out of order: %s, %s", got[0].Slug, got[1].Slug)
	}
	if got[0].Distance == nil || got[1].Distance == nil || *got[0].Distance > *got[1].Distance {
		t.Fatalf("distances not ascending")
	}
	for _, pr := range got[2:] {
		if pr.Distance != nil {
			t.Fatalf("padding entry %s should carry nil distance", pr.Slug)
		}
		if pr.CitySlug == "springfield" {
			t.Fatalf("padding must come from outside the already-covered city set")
		}
	}
}

func TestRankNearbyNeverDuplicatesOrSelfIncludes(t *testing.T) {
	cat := testCatalog()
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		got := app.RankNearby(cat, "springfield", "ref-clinic", 40.0, -75.0, 7, rng)
		seen := map[string]bool{}
		for _, pr := range got {
			key := pr.CitySlug + "/" + pr.Slug
			if key == "springfield/ref-clinic" {
				t.Fatalf("seed %d: reference business leaked into results", seed)
			}
			if seen[key] {
				t.Fatalf("seed %d: duplicate %s", seed, key)
			}
			seen[key] = true
		}
	}
}

func TestRankNearbySizeBound(t *testing.T) {
	cat := testCatalog()
	rng := rand.New(rand.NewSource(1))

	// catalog minus reference has 7 eligible records
	if got := app.RankNearby(cat, "springfield", "ref-clinic", 40.0, -75.0, 7, rng); len(got) != 7 {
		t.Fatalf("expected full target when enough eligible, got %d", len(got))
	}
	if got := app.RankNearby(cat, "springfield", "ref-clinic", 40.0, -75.0, 50, rng); len(got) != 7 {
		t.Fatalf("expected catalog exhaustion at 7, got %d", len(got))
	}
	if got := app.RankNearby(cat, "springfield", "ref-clinic", 40.0, -75.0, 1, rng); len(got) != 1 || got[0].Slug != "a-clinic" {
		t.Fatalf("truncation should keep closest first")
	}
}

func TestRankNearbyNilDistancesSortLast(t *testing.T) {
	cat := testCatalog()
	// shelbyville: o1 has coords, o2 does not; both stay in, o2 after o1
	rng := rand.New(rand.NewSource(1))
	got := app.RankNearby(cat, "shelbyville", "none", 30.0, -97.0, 2, rng)
	if len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	if got[0].Slug != "o1" || got[0].Distance == nil {
		t.Fatalf("coordinate-bearing candidate should rank first")
	}
	if got[1].Slug != "o2" || got[1].Distance != nil {
		t.Fatalf("coordinate-less candidate should follow with nil distance")
	}
}

func TestRankNearbyUnknownCityFallsBackToPadding(t *testing.T) {
	cat := testCatalog()
	rng := rand.New(rand.NewSource(3))
	got := app.RankNearby(cat, "no-such-city", "whatever", 40.0, -75.0, 4, rng)
	if len(got) != 4 {
		t.Fatalf("expected 4 padded results, got %d", len(got))
	}
	for _, pr := range got {
		if pr.Distance != nil {
			t.Fatalf("pure padding should have nil distances")
		}
	}
}

func TestRankNearbyEmptyCatalog(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if got := app.RankNearby(&domain.Catalog{}, "springfield", "x", 40.0, -75.0, 5, rng); len(got) != 0 {
		t.Fatalf("empty catalog should yield empty result, got %d", len(got))
	}
}

func TestRankNearbySeededReproducibility(t *testing.T) {
	cat := testCatalog()
	a := app.RankNearby(cat, "springfield", "ref-clinic", 40.0, -75.0, 6, rand.New(rand.NewSource(42)))
	b := app.RankNearby(cat, "springfield", "ref-clinic", 40.0, -75.0, 6, rand.New(rand.NewSource(42)))
	for i := range a {
		if a[i].Slug != b[i].Slug {
			t.Fatalf("same seed produced different padding at %d", i)
		}
	}
}

func TestBestRatedOrdering(t *testing.T) {
	cat := &domain.Catalog{AllItems: []domain.BusinessRecord{
		{Name: "Few Reviews", Slug: "few", Rating: pf(4.5), Reviews: pi(10)},
		{Name: "Many Reviews", Slug: "many", Rating: pf(4.5), Reviews: pi(50)},
		{Name: "Zero Rated", Slug: "zero", Rating: pf(0)},
		{Name: "Unrated", Slug: "unrated"},
		{Name: "Top", Slug: "top", Rating: pf(5.0), Reviews: pi(3)},
	}}

	got := app.BestRated(cat, "", 5)
	want := []string{"top", "many", "few", "zero", "unrated"}
	for i, w := range want {
		if got[i].Slug != w {
			t.Fatalf("position %d: want %s, got %s", i, w, got[i].Slug)
		}
	}
	// missing rating must sort below a real rating of 0
	if got[3].Slug != "zero" {
		t.Fatalf("rating 0 must beat missing rating")
	}
}

func TestBestRatedExcludeAndTruncate(t *testing.T) {
	cat := &domain.Catalog{AllItems: []domain.BusinessRecord{
		{Name: "A", Slug: "a", Rating: pf(5)},
		{Name: "B", Slug: "b", Rating: pf(4)},
		{Name: "C", Slug: "c", Rating: pf(3)},
	}}
	got := app.BestRated(cat, "a", 2)
	if len(got) != 2 || got[0].Slug != "b" || got[1].Slug != "c" {
		t.Fatalf("unexpected result: %+v", got)
	}
	// fewer eligible than count: return what exists
	if got := app.BestRated(cat, "", 10); len(got) != 3 {
		t.Fatalf("expected all 3, got %d", len(got))
	}
}
