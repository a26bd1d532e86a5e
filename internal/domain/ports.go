package domain

import "context"

// RateSearch is the supplier rate-search request for one hotel.
type RateSearch struct {
	HotelCodes       []string
	CheckIn          string // YYYY-MM-DD
	CheckOut         string // YYYY-MM-DD
	GuestNationality string
	Rooms            []RoomOccupancy
	// ResponseTime is a hint (seconds) passed to the supplier so it bounds
	// its own fan-out before answering.
	ResponseTime float64
}

// SupplierGateway wraps the third-party hotel inventory/rates API.
// Payloads come back as raw JSON maps; the app layer normalizes them
// through alias registries (see internal/app/mappers.go).
type SupplierGateway interface {
	GetCityList(ctx context.Context, countryCode string) ([]map[string]any, error)
	GetHotelsByCity(ctx context.Context, cityCode string) ([]map[string]any, error)
	GetHotelDetails(ctx context.Context, hotelCode string) (map[string]any, error)
	SearchRates(ctx context.Context, req RateSearch) (map[string]any, error)
}

// RateConverter converts amounts between currencies. Implementations must
// be identity for from == to without any network call, and must degrade to
// a documented fallback rate instead of failing when the rate service is
// unavailable: price display never hard-fails on a rate outage.
type RateConverter interface {
	Convert(ctx context.Context, amount float64, from, to string) (float64, error)
}

// Cache is a process-external JSON cache.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// CatalogRepository persists packages, catalog hotels, supplier links and
// supplier hotel snapshots.
type CatalogRepository interface {
	// Read paths
	GetPackage(ctx context.Context, id int64) (TourPackage, error)
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListUnlinkedHotels(ctx context.Context, limit int) ([]Hotel, error)

	// Write paths
	UpsertSupplierHotel(ctx context.Context, h SupplierHotel) error
	SetHotelLink(ctx context.Context, hotelID int64, link SupplierLink) error
	LogMatchMiss(ctx context.Context, hotelID int64, reason string) error
}
