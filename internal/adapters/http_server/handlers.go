package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"vetdir/internal/app"
)

const (
	defaultResultCount = 5
	maxResultCount     = 50
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/cities", h.listCities)
	s.mux.Get("/v1/cities/{citySlug}", h.getCity)
	s.mux.Get("/v1/cities/{citySlug}/items", h.cityItems)
	s.mux.Get("/v1/cities/{citySlug}/items/{itemSlug}", h.getItem)
	s.mux.Get("/v1/states", h.listStates)
	s.mux.Get("/v1/best-rated", h.bestRated)
	s.mux.Get("/v1/nearby", h.nearby)
	s.mux.Get("/v1/search", h.search)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCachedJSON answers 304 when the client's If-None-Match matches the
// body's weak ETag, otherwise writes the JSON body with the ETag set.
func writeCachedJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// countParam validates an optional positive count with an upper bound.
func countParam(r *http.Request, def int) (int, bool) {
	cs := r.URL.Query().Get("count")
	if cs == "" {
		return def, true
	}
	n, err := strconv.Atoi(cs)
	if err != nil || n <= 0 || n > maxResultCount {
		return 0, false
	}
	return n, true
}

func (h *Handlers) listCities(w http.ResponseWriter, r *http.Request) {
	writeCachedJSON(w, r, h.Q.Cities(r.Context()))
}

func (h *Handlers) getCity(w http.ResponseWriter, r *http.Request) {
	city, err := h.Q.GetCity(r.Context(), chi.URLParam(r, "citySlug"))
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "city not found")
		return
	}
	writeCachedJSON(w, r, city)
}

func (h *Handlers) cityItems(w http.ResponseWriter, r *http.Request) {
	// unknown city degrades to an empty list by contract
	writeCachedJSON(w, r, h.Q.CityItems(r.Context(), chi.URLParam(r, "citySlug")))
}

func (h *Handlers) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Q.GetItem(r.Context(), chi.URLParam(r, "citySlug"), chi.URLParam(r, "itemSlug"))
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "listing not found")
		return
	}
	writeCachedJSON(w, r, item)
}

func (h *Handlers) listStates(w http.ResponseWriter, r *http.Request) {
	writeCachedJSON(w, r, h.Q.States(r.Context()))
}

func (h *Handlers) bestRated(w http.ResponseWriter, r *http.Request) {
	count, ok := countParam(r, defaultResultCount)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid count", "count must be an integer between 1 and 50")
		return
	}
	exclude := r.URL.Query().Get("exclude")
	writeCachedJSON(w, r, h.Q.BestRated(r.Context(), exclude, count))
}

func (h *Handlers) nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	citySlug := q.Get("city")
	exclude := q.Get("exclude")
	if citySlug == "" || exclude == "" {
		writeProblem(w, http.StatusBadRequest, "Missing parameters", "city and exclude are required")
		return
	}
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid coordinates", "lat and lon must be numeric")
		return
	}
	count, ok := countParam(r, defaultResultCount)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid count", "count must be an integer between 1 and 50")
		return
	}
	// padding is randomized per call, so no ETag/caching here
	writeJSON(w, h.Q.FindNearby(citySlug, exclude, lat, lon, count))
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	writeCachedJSON(w, r, h.Q.Search(r.Context(), r.URL.Query().Get("q")))
}
