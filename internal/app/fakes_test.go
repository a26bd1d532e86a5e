package app_test

import (
	"context"
	"errors"
	"strconv"

	"safar_travel/internal/domain"
)

// ---- shared fakes for app tests ----

type fakeGateway struct {
	cities       map[string][]map[string]any // by country code
	hotelsByCity map[string][]map[string]any // by city code

	searchResp  map[string]any
	searchErr   error
	searchCalls int
	lastSearch  domain.RateSearch

	cityErr   error
	hotelsErr error
}

func (g *fakeGateway) GetCityList(ctx context.Context, countryCode string) ([]map[string]any, error) {
	if g.cityErr != nil {
		return nil, g.cityErr
	}
	return g.cities[countryCode], nil
}

func (g *fakeGateway) GetHotelsByCity(ctx context.Context, cityCode string) ([]map[string]any, error) {
	if g.hotelsErr != nil {
		return nil, g.hotelsErr
	}
	return g.hotelsByCity[cityCode], nil
}

func (g *fakeGateway) GetHotelDetails(ctx context.Context, hotelCode string) (map[string]any, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) SearchRates(ctx context.Context, req domain.RateSearch) (map[string]any, error) {
	g.searchCalls++
	g.lastSearch = req
	if g.searchErr != nil {
		return nil, g.searchErr
	}
	return g.searchResp, nil
}

type fakeRepo struct {
	pkgs      map[int64]domain.TourPackage
	hotels    map[int64]domain.Hotel
	snapshots map[string]domain.SupplierHotel
	links     map[int64]domain.SupplierLink
	misses    map[int64]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		pkgs:      map[int64]domain.TourPackage{},
		hotels:    map[int64]domain.Hotel{},
		snapshots: map[string]domain.SupplierHotel{},
		links:     map[int64]domain.SupplierLink{},
		misses:    map[int64]string{},
	}
}

func (r *fakeRepo) GetPackage(ctx context.Context, id int64) (domain.TourPackage, error) {
	p, ok := r.pkgs[id]
	if !ok {
		return domain.TourPackage{}, &domain.NotFoundError{Kind: "package", Key: strconv.FormatInt(id, 10)}
	}
	return p, nil
}

func (r *fakeRepo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, ok := r.hotels[id]
	if !ok {
		return domain.Hotel{}, &domain.NotFoundError{Kind: "hotel", Key: strconv.FormatInt(id, 10)}
	}
	return h, nil
}

func (r *fakeRepo) ListUnlinkedHotels(ctx context.Context, limit int) ([]domain.Hotel, error) {
	var out []domain.Hotel
	for _, h := range r.hotels {
		if !h.Link.Linked {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpsertSupplierHotel(ctx context.Context, h domain.SupplierHotel) error {
	r.snapshots[h.Code] = h
	return nil
}

func (r *fakeRepo) SetHotelLink(ctx context.Context, hotelID int64, link domain.SupplierLink) error {
	r.links[hotelID] = link
	return nil
}

func (r *fakeRepo) LogMatchMiss(ctx context.Context, hotelID int64, reason string) error {
	r.misses[hotelID] = reason
	return nil
}

type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	return false, nil // always miss; matcher must survive a cold cache
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error { return nil }
func (c *fakeCache) Del(ctx context.Context, key string) error                    { return nil }

// fakeFx converts via a fixed USD-pivot table and counts the conversions
// that would require a rate lookup.
type fakeFx struct {
	rates       map[string]float64 // units per USD
	lookupCalls int
}

func (f *fakeFx) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	if from == to || from == "" || to == "" {
		return amount, nil
	}
	f.lookupCalls++
	rf, okf := f.rates[from]
	rt, okt := f.rates[to]
	if !okf || !okt {
		return amount, nil
	}
	return amount / rf * rt, nil
}

func ptr[T any](v T) *T { return &v }
