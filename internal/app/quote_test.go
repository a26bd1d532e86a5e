package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"safar_travel/internal/app"
	"safar_travel/internal/domain"
)

func sameFx() *fakeFx {
	return &fakeFx{rates: map[string]float64{"USD": 1, "SAR": 3.75}}
}

func newEngine(repo *fakeRepo, gw *fakeGateway, fx *fakeFx) *app.Engine {
	return app.NewEngine(repo, app.NewLiveRateResolver(gw, "SA", 23), fx)
}

func start() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

func TestQuote_BaseOnly(t *testing.T) {
	repo := newFakeRepo()
	repo.pkgs[1] = domain.TourPackage{ID: 1, Name: "Riyadh Heritage", Currency: "SAR", AdultPrice: 1000}
	e := newEngine(repo, &fakeGateway{}, sameFx())

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{
		Travelers: domain.Travelers{Adults: 2},
		Currency:  "SAR",
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if q.Base.Total != 2000 || q.GrandTotal != 2000 || q.FinalTotal != 2000 {
		t.Fatalf("unexpected totals: %+v", q)
	}
	if q.PerPerson != 1000 {
		t.Fatalf("per person = %f, want 1000", q.PerPerson)
	}
	if q.PricingMode != domain.QuoteModeTraditional {
		t.Fatalf("mode = %s", q.PricingMode)
	}
	if q.QuoteID == "" || q.Currency != "SAR" {
		t.Fatalf("quote meta missing: %+v", q)
	}
}

func TestQuote_DerivedChildAndInfantTiers(t *testing.T) {
	repo := newFakeRepo()
	repo.pkgs[1] = domain.TourPackage{ID: 1, Currency: "SAR", AdultPrice: 1000}
	e := newEngine(repo, &fakeGateway{}, sameFx())

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{
		Travelers: domain.Travelers{Adults: 1, Children: 1, Infants: 1},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if q.Base.Children.Unit != 700 || q.Base.Infants.Unit != 100 {
		t.Fatalf("derived tiers wrong: child %f infant %f", q.Base.Children.Unit, q.Base.Infants.Unit)
	}
	if q.Base.Total != 1800 {
		t.Fatalf("base total = %f, want 1800", q.Base.Total)
	}
	if q.PerPerson != 600 {
		t.Fatalf("per person = %f, want 600", q.PerPerson)
	}
}

func TestQuote_ExplicitTiersWinOverDerivation(t *testing.T) {
	repo := newFakeRepo()
	repo.pkgs[1] = domain.TourPackage{
		ID: 1, Currency: "SAR", AdultPrice: 1000,
		ChildPrice: ptr(500.0), InfantPrice: ptr(0.0),
	}
	e := newEngine(repo, &fakeGateway{}, sameFx())

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{
		Travelers: domain.Travelers{Adults: 1, Children: 2, Infants: 1},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if q.Base.Total != 2000 {
		t.Fatalf("base total = %f, want 2000", q.Base.Total)
	}
}

func TestQuote_StaticStay(t *testing.T) {
	repo := newFakeRepo()
	repo.hotels[7] = domain.Hotel{ID: 7, Name: "Dar Hotel", Currency: "SAR"}
	repo.pkgs[1] = domain.TourPackage{
		ID: 1, Currency: "SAR", AdultPrice: 1000,
		Stays: []domain.HotelStay{{HotelID: 7, Nights: 3, CheckInDayOffset: 1, StaticPerNight: 200}},
	}
	e := newEngine(repo, &fakeGateway{}, sameFx())

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{
		Travelers: domain.Travelers{Adults: 2},
		Start:     start(),
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	// 2 adults -> 1 room; 200 * 3 nights * 1 room
	if len(q.Hotels) != 1 || q.Hotels[0].Total != 600 || q.Hotels[0].Mode != domain.StayModeStatic {
		t.Fatalf("unexpected stay pricing: %+v", q.Hotels)
	}
	if q.GrandTotal != 2600 {
		t.Fatalf("grand = %f, want base+static = 2600", q.GrandTotal)
	}
}

func TestQuote_LiveSupersedesBaseCost(t *testing.T) {
	repo := newFakeRepo()
	repo.hotels[7] = domain.Hotel{
		ID: 7, Name: "Sala Resort", Currency: "SAR",
		Link: domain.SupplierLink{Linked: true, HotelCode: "SUP-1188", LivePricing: true},
	}
	repo.hotels[8] = domain.Hotel{ID: 8, Name: "Dar Hotel", Currency: "SAR"}
	repo.pkgs[1] = domain.TourPackage{
		ID: 1, Currency: "SAR", AdultPrice: 1000,
		Stays: []domain.HotelStay{
			{HotelID: 7, Nights: 3, CheckInDayOffset: 1, StaticPerNight: 150},
			{HotelID: 8, Nights: 2, CheckInDayOffset: 4, StaticPerNight: 100},
		},
	}
	gw := &fakeGateway{searchResp: map[string]any{
		"HotelResult": []any{
			map[string]any{
				"HotelCode": "SUP-1188",
				"Currency":  "SAR",
				"Rooms": []any{
					map[string]any{"TotalFare": 400.0},
					map[string]any{"TotalFare": 900.0},
				},
			},
		},
	}}
	e := newEngine(repo, gw, sameFx())

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{
		Travelers: domain.Travelers{Adults: 2},
		Start:     start(),
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if q.PricingMode != domain.QuoteModeLive {
		t.Fatalf("mode = %s, want live_hotel", q.PricingMode)
	}
	// cheapest room 400 * 1 room, plus static 100*2*1; base 2000 discarded
	if q.Hotels[0].Mode != domain.StayModeLive || q.Hotels[0].Total != 400 {
		t.Fatalf("live stay: %+v", q.Hotels[0])
	}
	if q.Hotels[1].Mode != domain.StayModeStatic || q.Hotels[1].Total != 200 {
		t.Fatalf("static stay: %+v", q.Hotels[1])
	}
	if q.GrandTotal != 600 {
		t.Fatalf("grand = %f: live pricing must exclude the base tour cost", q.GrandTotal)
	}
	// check-in dates derived from day offsets
	if gw.lastSearch.CheckIn != "2026-03-01" || gw.lastSearch.CheckOut != "2026-03-04" {
		t.Fatalf("stay dates: %+v", gw.lastSearch)
	}
}

func TestQuote_LiveCurrencyConvertedBeforeAggregation(t *testing.T) {
	repo := newFakeRepo()
	repo.hotels[7] = domain.Hotel{
		ID: 7, Name: "Sala Resort", Currency: "SAR",
		Link: domain.SupplierLink{Linked: true, HotelCode: "SUP-1188", LivePricing: true},
	}
	repo.pkgs[1] = domain.TourPackage{
		ID: 1, Currency: "SAR", AdultPrice: 1000,
		Stays: []domain.HotelStay{{HotelID: 7, Nights: 2, CheckInDayOffset: 1, StaticPerNight: 150}},
	}
	gw := &fakeGateway{searchResp: map[string]any{
		"HotelResult": []any{
			map[string]any{
				"HotelCode": "SUP-1188",
				"Currency":  "USD",
				"Rooms":     []any{map[string]any{"TotalFare": 400.0}},
			},
		},
	}}
	fx := sameFx()
	e := newEngine(repo, gw, fx)

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{
		Travelers: domain.Travelers{Adults: 2},
		Start:     start(),
		Currency:  "SAR",
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if q.GrandTotal != 1500 { // 400 USD * 3.75
		t.Fatalf("grand = %f, want 1500 SAR", q.GrandTotal)
	}
	if fx.lookupCalls != 1 {
		t.Fatalf("expected exactly one rate lookup (USD->SAR), got %d", fx.lookupCalls)
	}
}

func TestQuote_LiveUnavailableFallsBackToStatic(t *testing.T) {
	repo := newFakeRepo()
	repo.hotels[7] = domain.Hotel{
		ID: 7, Name: "Sala Resort", Currency: "SAR",
		Link: domain.SupplierLink{Linked: true, HotelCode: "SUP-1188", LivePricing: true},
	}
	repo.pkgs[1] = domain.TourPackage{
		ID: 1, Currency: "SAR", AdultPrice: 1000,
		Stays: []domain.HotelStay{{HotelID: 7, Nights: 3, CheckInDayOffset: 1, StaticPerNight: 150}},
	}
	gw := &fakeGateway{searchResp: map[string]any{"HotelResult": []any{}}}
	e := newEngine(repo, gw, sameFx())

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{
		Travelers: domain.Travelers{Adults: 2},
		Start:     start(),
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if q.Hotels[0].Mode != domain.StayModeStatic || q.Hotels[0].Total != 450 {
		t.Fatalf("fallback stay: %+v", q.Hotels[0])
	}
	if q.PricingMode != domain.QuoteModeTraditional {
		t.Fatalf("mode = %s, want traditional when nothing priced live", q.PricingMode)
	}
	if q.GrandTotal != 2450 {
		t.Fatalf("grand = %f, want base + static", q.GrandTotal)
	}
}

func TestQuote_OneStayFailureDoesNotAbortOthers(t *testing.T) {
	repo := newFakeRepo()
	repo.hotels[7] = domain.Hotel{
		ID: 7, Name: "Sala Resort", Currency: "SAR",
		Link: domain.SupplierLink{Linked: true, HotelCode: "SUP-1188", LivePricing: true},
	}
	repo.hotels[8] = domain.Hotel{ID: 8, Name: "Dar Hotel", Currency: "SAR"}
	repo.pkgs[1] = domain.TourPackage{
		ID: 1, Currency: "SAR", AdultPrice: 1000,
		Stays: []domain.HotelStay{
			{HotelID: 7, Nights: 3, CheckInDayOffset: 1, StaticPerNight: 150},
			{HotelID: 8, Nights: 2, CheckInDayOffset: 4, StaticPerNight: 100},
		},
	}
	gw := &fakeGateway{searchErr: errors.New("tls handshake timeout")}
	e := newEngine(repo, gw, sameFx())

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{
		Travelers: domain.Travelers{Adults: 2},
		Start:     start(),
	})
	if err != nil {
		t.Fatalf("quote must degrade, not fail: %v", err)
	}
	if len(q.Errors) != 1 {
		t.Fatalf("expected 1 recorded error, got %+v", q.Errors)
	}
	if q.Hotels[0].Mode != domain.StayModeStatic || q.Hotels[0].Total != 450 {
		t.Fatalf("failed live stay must fall back: %+v", q.Hotels[0])
	}
	if q.Hotels[1].Total != 200 {
		t.Fatalf("sibling stay affected: %+v", q.Hotels[1])
	}
}

func TestQuote_MissingHotelRecordedAndStaticPriced(t *testing.T) {
	repo := newFakeRepo()
	repo.pkgs[1] = domain.TourPackage{
		ID: 1, Currency: "SAR", AdultPrice: 1000,
		Stays: []domain.HotelStay{{HotelID: 99, Nights: 2, CheckInDayOffset: 1, StaticPerNight: 100}},
	}
	e := newEngine(repo, &fakeGateway{}, sameFx())

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{
		Travelers: domain.Travelers{Adults: 1},
		Start:     start(),
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(q.Errors) != 1 {
		t.Fatalf("expected hotel miss recorded, got %+v", q.Errors)
	}
	if q.Hotels[0].Total != 200 {
		t.Fatalf("static fallback must still price the stay: %+v", q.Hotels[0])
	}
}

func TestQuote_DiscountPercentage(t *testing.T) {
	repo := newFakeRepo()
	repo.pkgs[1] = domain.TourPackage{
		ID: 1, Currency: "SAR", AdultPrice: 1000,
		Discount: &domain.Discount{Type: domain.DiscountPercentage, Value: 10},
	}
	e := newEngine(repo, &fakeGateway{}, sameFx())

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{Travelers: domain.Travelers{Adults: 2}})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if q.Discount == nil || q.Discount.Amount != 200 {
		t.Fatalf("discount: %+v", q.Discount)
	}
	if q.FinalTotal != 1800 || q.PerPerson != 900 {
		t.Fatalf("final = %f per person = %f", q.FinalTotal, q.PerPerson)
	}
}

func TestQuote_FixedDiscountCapsAtTotal(t *testing.T) {
	repo := newFakeRepo()
	repo.pkgs[1] = domain.TourPackage{
		ID: 1, Currency: "SAR", AdultPrice: 500,
		Discount: &domain.Discount{Type: domain.DiscountFixed, Value: 5000},
	}
	e := newEngine(repo, &fakeGateway{}, sameFx())

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{Travelers: domain.Travelers{Adults: 2}})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if q.Discount.Amount != 1000 {
		t.Fatalf("discount amount = %f, want cap at 1000", q.Discount.Amount)
	}
	if q.FinalTotal != 0 {
		t.Fatalf("final = %f, want 0", q.FinalTotal)
	}
}

func TestQuote_OverlargePercentageNeverGoesNegative(t *testing.T) {
	repo := newFakeRepo()
	repo.pkgs[1] = domain.TourPackage{
		ID: 1, Currency: "SAR", AdultPrice: 500,
		Discount: &domain.Discount{Type: domain.DiscountPercentage, Value: 110},
	}
	e := newEngine(repo, &fakeGateway{}, sameFx())

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{Travelers: domain.Travelers{Adults: 2}})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if q.Discount.Amount != 1000 || q.FinalTotal != 0 {
		t.Fatalf("discount must never exceed the pre-discount total: %+v", q.Discount)
	}
}

func TestQuote_PerPersonRoundsUp(t *testing.T) {
	repo := newFakeRepo()
	repo.pkgs[1] = domain.TourPackage{ID: 1, Currency: "SAR", AdultPrice: 500.5}
	e := newEngine(repo, &fakeGateway{}, sameFx())

	q, err := e.Quote(context.Background(), 1, domain.QuoteRequest{Travelers: domain.Travelers{Adults: 2}})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if q.PerPerson != 501 { // ceil(1001/2)
		t.Fatalf("per person = %f, want 501", q.PerPerson)
	}
}

func TestQuote_PackageNotFound(t *testing.T) {
	e := newEngine(newFakeRepo(), &fakeGateway{}, sameFx())
	_, err := e.Quote(context.Background(), 404, domain.QuoteRequest{Travelers: domain.Travelers{Adults: 1}})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestQuote_StartDateRequiredWithStays(t *testing.T) {
	repo := newFakeRepo()
	repo.pkgs[1] = domain.TourPackage{
		ID: 1, Currency: "SAR", AdultPrice: 1000,
		Stays: []domain.HotelStay{{HotelID: 7, Nights: 1, CheckInDayOffset: 1, StaticPerNight: 50}},
	}
	e := newEngine(repo, &fakeGateway{}, sameFx())

	_, err := e.Quote(context.Background(), 1, domain.QuoteRequest{Travelers: domain.Travelers{Adults: 1}})
	if !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestQuote_NoTravelersRejected(t *testing.T) {
	repo := newFakeRepo()
	repo.pkgs[1] = domain.TourPackage{ID: 1, Currency: "SAR", AdultPrice: 1000}
	e := newEngine(repo, &fakeGateway{}, sameFx())

	_, err := e.Quote(context.Background(), 1, domain.QuoteRequest{})
	if !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
