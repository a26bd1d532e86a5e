package domain

// Travelers is the requested party for a quote.
type Travelers struct {
	Adults   int
	Children int
	Infants  int
}

func (t Travelers) Total() int { return t.Adults + t.Children + t.Infants }

// RoomOccupancy is one physical room. Ceilings: 2 adults, 2 children.
type RoomOccupancy struct {
	Adults   int
	Children int
}

// Discount is a package-level price reduction.
// Type "percentage" takes Value percent of the total (rounded);
// type "fixed" takes min(Value, total) so the total can never go negative.
type Discount struct {
	Type  string // "percentage" | "fixed"
	Value float64
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// HotelStay is one hotel segment of a package.
type HotelStay struct {
	HotelID int64
	Nights  int // >= 1
	// CheckInDayOffset is 1-based: offset 1 checks in on the package
	// start date.
	CheckInDayOffset int
	StaticPerNight   float64
}

// TourPackage is the package aggregate as the pricing engine sees it.
// ChildPrice/InfantPrice are optional; when absent the engine derives
// them from AdultPrice.
type TourPackage struct {
	ID          int64
	Name        string
	Currency    string
	AdultPrice  float64
	ChildPrice  *float64
	InfantPrice *float64
	Discount    *Discount
	Stays       []HotelStay
}
