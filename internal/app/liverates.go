package app

import (
	"context"

	"github.com/google/uuid"

	"safar_travel/internal/domain"
)

// LiveRateResolver turns one supplier rate search into a normalized room
// list. It never retries and never treats empty inventory as an error;
// retry and fallback policy belong to the pricing engine.
type LiveRateResolver struct {
	gw          domain.SupplierGateway
	nationality string
	respHint    float64 // seconds, response-time bound forwarded to the supplier
}

func NewLiveRateResolver(gw domain.SupplierGateway, guestNationality string, responseHintSec float64) *LiveRateResolver {
	if guestNationality == "" {
		guestNationality = "SA"
	}
	return &LiveRateResolver{gw: gw, nationality: guestNationality, respHint: responseHintSec}
}

const dateLayout = "2006-01-02"

// Resolve fetches live rates for a linked hotel. The caller guarantees the
// hotel is linked with live pricing enabled; this guard is defensive.
func (r *LiveRateResolver) Resolve(ctx context.Context, h domain.Hotel, q domain.StayQuery) (domain.LiveRates, error) {
	if !h.Link.Linked || !h.Link.LivePricing || h.Link.HotelCode == "" {
		return domain.LiveRates{}, &domain.ValidationError{Msg: "hotel is not enabled for live pricing"}
	}
	if len(q.Rooms) == 0 {
		return domain.LiveRates{}, &domain.ValidationError{Msg: "at least one room is required"}
	}

	req := domain.RateSearch{
		HotelCodes:       []string{h.Link.HotelCode},
		CheckIn:          q.CheckIn.Format(dateLayout),
		CheckOut:         q.CheckOut.Format(dateLayout),
		GuestNationality: r.nationality,
		Rooms:            q.Rooms,
		ResponseTime:     r.respHint,
	}
	resp, err := r.gw.SearchRates(ctx, req)
	if err != nil {
		return domain.LiveRates{}, &domain.SupplierError{Op: "rate_search", Err: err}
	}

	rooms, currency, searchID, ok := mapRateRooms(resp, h.Link.HotelCode)
	if !ok {
		// no inventory is a normal outcome, not an error
		return domain.LiveRates{Available: false, SearchID: searchID}, nil
	}
	if searchID == "" {
		searchID = uuid.NewString()
	}
	return domain.LiveRates{
		Available: true,
		Rooms:     rooms,
		Currency:  currency,
		SearchID:  searchID,
	}, nil
}
