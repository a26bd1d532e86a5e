package domain

// Coords is a WGS84 point.
type Coords struct{ Lat, Lon float64 }

// SupplierLink associates a catalog hotel with exactly one supplier
// property. Writing a new link replaces the previous one.
type SupplierLink struct {
	Linked      bool
	HotelCode   string
	HotelName   string
	LivePricing bool
}

// Hotel is a catalog (internally authored) hotel record.
type Hotel struct {
	ID       int64
	Name     string
	Stars    *int
	City     string
	Country  string // ISO alpha-2
	Address  *string
	Coords   *Coords
	Currency string
	// BasePrice is the static per-night rate used when no live link exists.
	BasePrice float64
	Link      SupplierLink
}

// SupplierHotel is a read-only snapshot of a supplier inventory record,
// keyed by the supplier's own hotel code.
type SupplierHotel struct {
	Code      string
	Name      string
	CityCode  string
	Country   string
	Stars     *int
	Address   *string
	Coords    *Coords
	Amenities []string
	Images    []string
	RawJSON   []byte // full supplier payload
}

// SupplierCity is one entry of the supplier's city taxonomy for a country.
type SupplierCity struct {
	Name string
	Code string
}

// MatchCandidate pairs a supplier record with a [0,1] confidence that it
// denotes the same physical property as the catalog hotel it was scored
// against. Ephemeral; never persisted.
type MatchCandidate struct {
	Hotel SupplierHotel
	Score float64
}
