package domain

import "time"

// QuoteRequest carries the caller's inputs for one pricing computation.
type QuoteRequest struct {
	Travelers Travelers
	// Start is the package start date; required whenever the package has
	// hotel stays.
	Start    time.Time
	Currency string // target currency for every monetary value in the quote
}

// StayQuery is a live rate lookup for one hotel segment.
type StayQuery struct {
	CheckIn  time.Time
	CheckOut time.Time
	Rooms    []RoomOccupancy
}

// NormalizedRoom is a supplier room offer reduced to required fields.
// Absent tax components default to zero.
type NormalizedRoom struct {
	Name        string  `json:"name"`
	MealType    string  `json:"meal_type,omitempty"`
	BookingCode string  `json:"booking_code,omitempty"`
	BaseFare    float64 `json:"base_fare"`
	TotalTax    float64 `json:"total_tax"`
	ServiceTax  float64 `json:"service_tax"`
	Price       float64 `json:"price"` // BaseFare + TotalTax + ServiceTax
	Refundable  bool    `json:"refundable"`
}

// LiveRates is the result of one supplier rate search. Available=false
// means the supplier had no inventory for the query; that is a normal
// outcome, not an error.
type LiveRates struct {
	Available bool
	Rooms     []NormalizedRoom
	Currency  string
	SearchID  string
}

// CheapestRoom returns the lowest-priced room. Callers must check
// Available (or len(Rooms)) first.
func (l LiveRates) CheapestRoom() NormalizedRoom {
	best := l.Rooms[0]
	for _, r := range l.Rooms[1:] {
		if r.Price < best.Price {
			best = r
		}
	}
	return best
}

// Pricing modes on a quote and on individual stays.
const (
	QuoteModeLive        = "live_hotel"
	QuoteModeTraditional = "traditional"

	StayModeLive   = "live"
	StayModeStatic = "static"
)

// TierPricing is the per-traveler-tier breakdown of the base price.
type TierPricing struct {
	Count int     `json:"count"`
	Unit  float64 `json:"unit"`
	Total float64 `json:"total"`
}

// BasePricing is step-1 output: tier totals before any hotel costs.
type BasePricing struct {
	Adults   TierPricing `json:"adults"`
	Children TierPricing `json:"children"`
	Infants  TierPricing `json:"infants"`
	Total    float64     `json:"total"`
}

// StayPricing is one hotel segment's contribution to the quote.
type StayPricing struct {
	HotelID   int64   `json:"hotel_id"`
	HotelName string  `json:"hotel_name,omitempty"`
	Mode      string  `json:"mode"` // "live" | "static"
	Nights    int     `json:"nights"`
	Rooms     int     `json:"rooms"`
	PerNight  float64 `json:"per_night"`
	Total     float64 `json:"total"`
	Error     string  `json:"error,omitempty"`
}

// AppliedDiscount records the discount actually taken off the total.
type AppliedDiscount struct {
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
	Amount float64 `json:"amount"`
}

// PricingQuote is the engine's output. Freshly computed per request,
// never cached. Every monetary value is expressed in Currency.
type PricingQuote struct {
	QuoteID     string           `json:"quote_id"`
	PackageID   int64            `json:"package_id"`
	PricingMode string           `json:"pricing_mode"` // "live_hotel" | "traditional"
	Base        BasePricing      `json:"base_pricing"`
	Hotels      []StayPricing    `json:"hotel_pricing"`
	Discount    *AppliedDiscount `json:"discount,omitempty"`
	GrandTotal  float64          `json:"grand_total"`
	FinalTotal  float64          `json:"final_total"`
	Currency    string           `json:"currency"`
	PerPerson   float64          `json:"price_per_person"`
	Errors      []string         `json:"errors,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}
