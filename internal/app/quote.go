package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"safar_travel/internal/adapters/observability"
	"safar_travel/internal/domain"
)

// Tier derivation when the package does not set explicit child/infant
// prices.
const (
	childPriceShare  = 0.7
	infantPriceShare = 0.1
)

// Engine computes package quotes: traveler-tier base pricing, per-stay
// hotel costs (live rates first, static fallback), currency normalization
// and package discounts. One stay's failure never aborts another's.
type Engine struct {
	repo domain.CatalogRepository
	live *LiveRateResolver
	fx   domain.RateConverter
}

func NewEngine(repo domain.CatalogRepository, live *LiveRateResolver, fx domain.RateConverter) *Engine {
	return &Engine{repo: repo, live: live, fx: fx}
}

// Quote prices a package for the requested party and dates. It fails
// outright only when the package itself cannot be resolved or required
// inputs are missing; everything else degrades per stay.
func (e *Engine) Quote(ctx context.Context, packageID int64, req domain.QuoteRequest) (domain.PricingQuote, error) {
	pkg, err := e.repo.GetPackage(ctx, packageID)
	if err != nil {
		return domain.PricingQuote{}, err
	}
	if req.Travelers.Total() <= 0 {
		return domain.PricingQuote{}, &domain.ValidationError{Msg: "at least one traveler is required"}
	}
	if len(pkg.Stays) > 0 && req.Start.IsZero() {
		return domain.PricingQuote{}, &domain.ValidationError{Msg: "start date is required for packages with hotel stays"}
	}

	currency := req.Currency
	if currency == "" {
		currency = pkg.Currency
	}

	quote := domain.PricingQuote{
		QuoteID:     uuid.NewString(),
		PackageID:   pkg.ID,
		Currency:    currency,
		GeneratedAt: time.Now().UTC(),
	}

	// Step 1: traveler-tier base pricing, converted before aggregation so
	// every value in the quote shares one currency.
	base, err := e.basePricing(ctx, pkg, req.Travelers, currency)
	if err != nil {
		return domain.PricingQuote{}, err
	}
	quote.Base = base

	// Step 2: greedy room allocation covering all adults and children.
	rooms := AllocateRooms(req.Travelers.Adults, req.Travelers.Children)

	// Step 3: per-stay pricing, sequential, failure-isolated.
	anyLive := false
	var hotelTotal float64
	for _, stay := range pkg.Stays {
		sp := e.priceStay(ctx, pkg, stay, req.Start, rooms, currency, &quote)
		if sp.Mode == domain.StayModeLive {
			anyLive = true
		}
		hotelTotal += sp.Total
		quote.Hotels = append(quote.Hotels, sp)
	}

	// Step 4: when any stay priced live, the live hotel rates supersede
	// the pre-set base tour cost entirely; otherwise base + static sum.
	if anyLive {
		quote.PricingMode = domain.QuoteModeLive
		quote.GrandTotal = hotelTotal
	} else {
		quote.PricingMode = domain.QuoteModeTraditional
		quote.GrandTotal = base.Total + hotelTotal
	}

	// Step 5: discount. Fixed discounts cap at the total; the rounded
	// percentage amount is clamped the same way so the final total can
	// never go negative.
	if pkg.Discount != nil {
		quote.Discount = applyDiscount(*pkg.Discount, quote.GrandTotal)
		quote.FinalTotal = quote.GrandTotal - quote.Discount.Amount
	} else {
		quote.FinalTotal = quote.GrandTotal
	}

	// Step 6: per-person price, rounded up.
	quote.PerPerson = math.Ceil(quote.FinalTotal / float64(req.Travelers.Total()))

	observability.ObserveQuote(quote.PricingMode)
	return quote, nil
}

func (e *Engine) basePricing(ctx context.Context, pkg domain.TourPackage, t domain.Travelers, currency string) (domain.BasePricing, error) {
	adult := pkg.AdultPrice
	child := adult * childPriceShare
	if pkg.ChildPrice != nil {
		child = *pkg.ChildPrice
	}
	infant := adult * infantPriceShare
	if pkg.InfantPrice != nil {
		infant = *pkg.InfantPrice
	}

	var err error
	if adult, err = e.fx.Convert(ctx, adult, pkg.Currency, currency); err != nil {
		return domain.BasePricing{}, err
	}
	if child, err = e.fx.Convert(ctx, child, pkg.Currency, currency); err != nil {
		return domain.BasePricing{}, err
	}
	if infant, err = e.fx.Convert(ctx, infant, pkg.Currency, currency); err != nil {
		return domain.BasePricing{}, err
	}

	bp := domain.BasePricing{
		Adults:   domain.TierPricing{Count: t.Adults, Unit: adult, Total: float64(t.Adults) * adult},
		Children: domain.TierPricing{Count: t.Children, Unit: child, Total: float64(t.Children) * child},
		Infants:  domain.TierPricing{Count: t.Infants, Unit: infant, Total: float64(t.Infants) * infant},
	}
	bp.Total = bp.Adults.Total + bp.Children.Total + bp.Infants.Total
	return bp, nil
}

// priceStay prices one hotel segment: live rates when the hotel is linked
// with live pricing enabled, static per-night otherwise or on any live
// failure. Problems are recorded on the stay and in quote.Errors.
func (e *Engine) priceStay(ctx context.Context, pkg domain.TourPackage, stay domain.HotelStay, start time.Time, rooms []domain.RoomOccupancy, currency string, quote *domain.PricingQuote) domain.StayPricing {
	sp := domain.StayPricing{
		HotelID: stay.HotelID,
		Mode:    domain.StayModeStatic,
		Nights:  stay.Nights,
		Rooms:   len(rooms),
	}

	hotel, err := e.repo.GetHotel(ctx, stay.HotelID)
	if err != nil {
		msg := fmt.Sprintf("hotel %d: %v", stay.HotelID, err)
		quote.Errors = append(quote.Errors, msg)
		sp.Error = msg
		e.staticPrice(ctx, pkg, stay, &sp, currency)
		return sp
	}
	sp.HotelName = hotel.Name

	if e.live != nil && hotel.Link.Linked && hotel.Link.LivePricing {
		checkIn := start.AddDate(0, 0, stay.CheckInDayOffset-1)
		checkOut := checkIn.AddDate(0, 0, stay.Nights)
		rates, err := e.live.Resolve(ctx, hotel, domain.StayQuery{
			CheckIn:  checkIn,
			CheckOut: checkOut,
			Rooms:    rooms,
		})
		switch {
		case err != nil:
			msg := fmt.Sprintf("hotel %d live pricing: %v", stay.HotelID, err)
			log.Warn().Err(err).Int64("hotel_id", stay.HotelID).Msg("live pricing failed, falling back to static")
			quote.Errors = append(quote.Errors, msg)
			sp.Error = msg
		case !rates.Available:
			log.Info().Int64("hotel_id", stay.HotelID).Msg("no live availability, falling back to static")
		default:
			cheapest := rates.CheapestRoom()
			total := cheapest.Price * float64(len(rooms))
			if rates.Currency != "" && rates.Currency != currency {
				converted, err := e.fx.Convert(ctx, total, rates.Currency, currency)
				if err != nil {
					msg := fmt.Sprintf("hotel %d currency conversion: %v", stay.HotelID, err)
					quote.Errors = append(quote.Errors, msg)
					sp.Error = msg
				} else {
					total = converted
				}
			}
			sp.Mode = domain.StayModeLive
			sp.Total = total
			if stay.Nights > 0 {
				sp.PerNight = total / float64(stay.Nights)
			}
			return sp
		}
	}

	e.staticPrice(ctx, pkg, stay, &sp, currency)
	return sp
}

func (e *Engine) staticPrice(ctx context.Context, pkg domain.TourPackage, stay domain.HotelStay, sp *domain.StayPricing, currency string) {
	perNight, err := e.fx.Convert(ctx, stay.StaticPerNight, pkg.Currency, currency)
	if err != nil {
		perNight = stay.StaticPerNight
	}
	sp.Mode = domain.StayModeStatic
	sp.PerNight = perNight
	sp.Total = perNight * float64(stay.Nights) * float64(sp.Rooms)
}

// applyDiscount computes the amount taken off total. Percentage amounts
// are rounded; both types are capped at the pre-discount total.
func applyDiscount(d domain.Discount, total float64) *domain.AppliedDiscount {
	var amount float64
	switch d.Type {
	case domain.DiscountPercentage:
		amount = math.Round(total * d.Value / 100)
	case domain.DiscountFixed:
		amount = d.Value
	default:
		amount = 0
	}
	if amount > total {
		amount = total
	}
	if amount < 0 {
		amount = 0
	}
	return &domain.AppliedDiscount{Type: d.Type, Value: d.Value, Amount: amount}
}
