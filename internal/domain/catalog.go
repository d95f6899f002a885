package domain

// BusinessRecord is one listing. Records are immutable once the catalog
// is built; a rerun of the builder regenerates everything from source.
type BusinessRecord struct {
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	CitySlug    string        `json:"citySlug"`
	City        string        `json:"city"`
	State       string        `json:"state"`
	Street      *string       `json:"street,omitempty"`
	Phone       *string       `json:"phone,omitempty"`
	Website     *string       `json:"website,omitempty"`
	Description *string       `json:"description,omitempty"`
	PostalCode  *string       `json:"postalCode,omitempty"`
	Rating      *float64      `json:"rating"`
	Reviews     *int          `json:"reviews"`
	Latitude    *float64      `json:"latitude"`
	Longitude   *float64      `json:"longitude"`
	ImageURL    *string       `json:"imageUrl,omitempty"`
	Hours       *WorkingHours `json:"workingHours,omitempty"`
}

// WorkingHours is the soft-parsed hours variant: Days when the source cell
// held a valid day->hours object, Unparsed when it held something else.
// A nil *WorkingHours on the record means no hours were given at all.
type WorkingHours struct {
	Days     map[string]string `json:"days,omitempty"`
	Unparsed bool              `json:"unparsed,omitempty"`
}

type City struct {
	Name      string           `json:"name"`
	Slug      string           `json:"slug"`
	State     string           `json:"state"`
	Items     []BusinessRecord `json:"items"`
	ItemCount int              `json:"itemCount"`
}

// Catalog is the denormalized build artifact: cities (each embedding its
// records, sorted by name) plus a flat projection of all records.
// Every record appears in exactly one city and exactly once in AllItems.
type Catalog struct {
	Cities   []City           `json:"cities"`
	AllItems []BusinessRecord `json:"allItems"`
}

func (c *Catalog) CityBySlug(slug string) *City {
	for i := range c.Cities {
		if c.Cities[i].Slug == slug {
			return &c.Cities[i]
		}
	}
	return nil
}

// Item looks a record up by its (citySlug, slug) pair; record slugs are
// unique per city, not globally.
func (c *Catalog) Item(citySlug, itemSlug string) *BusinessRecord {
	city := c.CityBySlug(citySlug)
	if city == nil {
		return nil
	}
	for i := range city.Items {
		if city.Items[i].Slug == itemSlug {
			return &city.Items[i]
		}
	}
	return nil
}

// ProximityResult is a record annotated with great-circle distance in miles
// from a reference point, or nil when the record was random padding or is
// missing coordinates.
type ProximityResult struct {
	BusinessRecord
	Distance *float64 `json:"distance"`
}

// CitySummary is the item-less city view used by index listings.
type CitySummary struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	ItemCount int    `json:"itemCount"`
}

type StateGroup struct {
	State  string        `json:"state"`
	Cities []CitySummary `json:"cities"`
}
