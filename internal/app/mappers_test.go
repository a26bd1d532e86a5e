package app

import "testing"

func TestMapCoords_Forms(t *testing.T) {
	nested := map[string]any{
		"GeoLocation": map[string]any{"Latitude": 8.018, "Longitude": 98.3},
	}
	if c := mapCoords(nested); c == nil || c.Lat != 8.018 {
		t.Fatalf("nested form: %+v", c)
	}

	flat := map[string]any{"Latitude": "41,02", "Longitude": "29.01"}
	if c := mapCoords(flat); c == nil || c.Lat != 41.02 || c.Lon != 29.01 {
		t.Fatalf("flat string form with comma decimal: %+v", c)
	}

	piped := map[string]any{"Map": "21.42|39.82"}
	if c := mapCoords(piped); c == nil || c.Lat != 21.42 || c.Lon != 39.82 {
		t.Fatalf("pipe form: %+v", c)
	}

	if c := mapCoords(map[string]any{"Latitude": 8.0}); c != nil {
		t.Fatalf("half a coordinate must map to nil, got %+v", c)
	}
	if c := mapCoords(map[string]any{"Map": "garbage"}); c != nil {
		t.Fatalf("unparseable Map must map to nil, got %+v", c)
	}
}

func TestMapSupplierHotel_AliasesAndStars(t *testing.T) {
	h := mapSupplierHotel(map[string]any{
		"Code":        1188.0, // bare numeric code
		"Name":        "Sala Phuket",
		"CityCode":    "130450",
		"HotelRating": "4",
		"Address1":    "333 Moo 3",
	})
	if h.Code != "1188" {
		t.Fatalf("numeric code: %q", h.Code)
	}
	if h.Name != "Sala Phuket" || h.CityCode != "130450" {
		t.Fatalf("aliases: %+v", h)
	}
	if h.Stars == nil || *h.Stars != 4 {
		t.Fatalf("stars from string rating: %+v", h.Stars)
	}
	if h.Address == nil || *h.Address != "333 Moo 3" {
		t.Fatalf("address: %+v", h.Address)
	}
	if len(h.RawJSON) == 0 {
		t.Fatal("raw payload must be preserved")
	}
}

func TestMapRateRooms_PicksHotelByCode(t *testing.T) {
	resp := map[string]any{
		"TraceId": "tr-7",
		"Hotels": []any{
			map[string]any{
				"HotelCode": "OTHER",
				"Currency":  "USD",
				"Rooms":     []any{map[string]any{"TotalFare": 999.0}},
			},
			map[string]any{
				"HotelCode": "SUP-1188",
				"Currency":  "THB",
				"Rooms":     []any{map[string]any{"TotalFare": 100.0, "TotalTax": 7.0}},
			},
		},
	}
	rooms, currency, searchID, ok := mapRateRooms(resp, "SUP-1188")
	if !ok || len(rooms) != 1 {
		t.Fatalf("rooms: %v %v", ok, rooms)
	}
	if currency != "THB" || searchID != "tr-7" {
		t.Fatalf("meta: %q %q", currency, searchID)
	}
	if rooms[0].Price != 107 {
		t.Fatalf("price: %f", rooms[0].Price)
	}
}

func TestMapRateRooms_EmptyInventory(t *testing.T) {
	if _, _, _, ok := mapRateRooms(map[string]any{"HotelResult": []any{}}, "X"); ok {
		t.Fatal("empty result set must report ok=false")
	}
	resp := map[string]any{
		"HotelResult": []any{map[string]any{"HotelCode": "X", "Currency": "USD", "Rooms": []any{}}},
	}
	if _, currency, _, ok := mapRateRooms(resp, "X"); ok || currency != "USD" {
		t.Fatalf("hotel without rooms: ok=%v currency=%q", ok, currency)
	}
}

func TestMapCity_NumericCode(t *testing.T) {
	c := mapCity(map[string]any{"CityName": "Phuket", "Code": 130443.0})
	if c.Name != "Phuket" || c.Code != "130443" {
		t.Fatalf("city: %+v", c)
	}
}
