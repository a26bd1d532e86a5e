// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"safar_travel/internal/app"
	"safar_travel/internal/domain"
)

type Handlers struct {
	Engine  *app.Engine
	Matcher *app.Matcher
	Repo    domain.CatalogRepository
}

var validate = validator.New()

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/packages/{id}/quote", h.quotePackage)
	s.mux.Get("/v1/hotels/{id}/candidates", h.matchCandidates)
	s.mux.Post("/v1/hotels/{id}/link", h.linkHotel)
	s.mux.Delete("/v1/hotels/{id}/link", h.unlinkHotel)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case domain.IsValidation(err):
		writeProblem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Failure", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
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

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// ---- quote ----

type quoteBody struct {
	Travelers struct {
		Adults   int `json:"adults" validate:"required,min=1,max=40"`
		Children int `json:"children" validate:"min=0,max=40"`
		Infants  int `json:"infants" validate:"min=0,max=10"`
	} `json:"travelers"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Currency  string `json:"currency" validate:"omitempty,len=3,alpha"`
}

func (h *Handlers) quotePackage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}

	var body quoteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := validate.Struct(body); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeProblem(w, http.StatusUnprocessableEntity, "Validation Failed", verrs[0].Error())
			return
		}
		writeProblem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	req := domain.QuoteRequest{
		Travelers: domain.Travelers{
			Adults:   body.Travelers.Adults,
			Children: body.Travelers.Children,
			Infants:  body.Travelers.Infants,
		},
		Currency: body.Currency,
	}
	if body.StartDate != "" {
		req.Start, _ = time.Parse("2006-01-02", body.StartDate)
	}

	quote, err := h.Engine.Quote(r.Context(), id, req)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// ---- match candidates ----

type candidateView struct {
	SupplierCode string   `json:"supplier_code"`
	Name         string   `json:"name"`
	CityCode     string   `json:"city_code,omitempty"`
	Stars        *int     `json:"stars,omitempty"`
	Address      *string  `json:"address,omitempty"`
	Score        float64  `json:"score"`
	Amenities    []string `json:"amenities,omitempty"`
}

func (h *Handlers) matchCandidates(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	hotel, err := h.Repo.GetHotel(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if cc := r.URL.Query().Get("country"); cc != "" {
		hotel.Country = cc
	}

	cands, err := h.Matcher.FindCandidates(r.Context(), hotel)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	views := make([]candidateView, 0, len(cands))
	for _, c := range cands {
		views = append(views, candidateView{
			SupplierCode: c.Hotel.Code,
			Name:         c.Hotel.Name,
			CityCode:     c.Hotel.CityCode,
			Stars:        c.Hotel.Stars,
			Address:      c.Hotel.Address,
			Score:        c.Score,
			Amenities:    c.Hotel.Amenities,
		})
	}
	resp := struct {
		HotelID    int64           `json:"hotel_id"`
		Candidates []candidateView `json:"candidates"`
	}{HotelID: id, Candidates: views}

	etag, bodyBytes := calcETagAndBody(resp)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(bodyBytes); err != nil {
		log.Error().Err(err).Msg("failed to write candidates body")
	}
}

// ---- link management ----

type linkBody struct {
	SupplierCode string `json:"supplier_code" validate:"required"`
	SupplierName string `json:"supplier_name"`
	LivePricing  bool   `json:"live_pricing"`
}

func (h *Handlers) linkHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var body linkBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := validate.Struct(body); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Validation Failed", "supplier_code is required")
		return
	}

	if _, err := h.Repo.GetHotel(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	link := domain.SupplierLink{
		Linked:      true,
		HotelCode:   body.SupplierCode,
		HotelName:   body.SupplierName,
		LivePricing: body.LivePricing,
	}
	if err := h.Repo.SetHotelLink(r.Context(), id, link); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hotel_id": id, "linked": true, "supplier_code": body.SupplierCode})
}

func (h *Handlers) unlinkHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if _, err := h.Repo.GetHotel(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := h.Repo.SetHotelLink(r.Context(), id, domain.SupplierLink{}); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hotel_id": id, "linked": false})
}
