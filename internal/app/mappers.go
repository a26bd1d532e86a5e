package app

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"safar_travel/internal/domain"
)

/********** alias registries (single source of truth) **********/

var cityAliases = map[string][]string{
	"name": {"Name", "CityName", "name", "city_name"},
	"code": {"Code", "CityCode", "code", "Id", "city_code"},
}

var hotelAliases = map[string][]string{
	"code":      {"HotelCode", "Code", "hotel_code", "Id"},
	"name":      {"HotelName", "Name", "hotel_name"},
	"city_code": {"CityId", "CityCode", "city_code", "city.code"},
	"country":   {"CountryCode", "country_code", "CountryCOde", "address.country"},
	"address":   {"Address", "HotelAddress", "address", "Address1", "address.line"},
}

var roomAliases = map[string][]string{
	"name":         {"Name", "RoomName", "room_name", "RoomType"},
	"meal":         {"MealType", "meal_type", "Inclusion"},
	"booking_code": {"BookingCode", "booking_code", "RateKey"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the string at path or "". A room "Name" sometimes
// arrives as a one-element list; unwrap that too.
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func floatOrZero(m map[string]any, paths ...string) float64 {
	if f := getFloatFlexible(m, paths...); f != nil {
		return *f
	}
	return 0
}

func boolFlexible(m map[string]any, paths ...string) bool {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b
			}
		}
	}
	return false
}

// firstSliceStrings: accept []any with either strings or {url/src/name}.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := lookupAny(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t != "" {
						out = append(out, t)
					}
				case map[string]any:
					if u, ok := t["url"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if u, ok := t["Url"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if n, ok := t["name"].(string); ok && n != "" {
						out = append(out, n)
						continue
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

/********** city mapper **********/

func mapCity(m map[string]any) domain.SupplierCity {
	code := firstNonEmptyAlias(m, cityAliases, "code")
	if code == "" {
		// some deployments send the code as a bare number
		if f := getFloatFlexible(m, cityAliases["code"]...); f != nil {
			code = strconv.FormatInt(int64(*f), 10)
		}
	}
	return domain.SupplierCity{
		Name: firstNonEmptyAlias(m, cityAliases, "name"),
		Code: code,
	}
}

/********** supplier hotel mapper **********/

func mapSupplierHotel(m map[string]any) domain.SupplierHotel {
	raw, err := json.Marshal(m)
	if err != nil {
		log.Error().Err(err).Str("context", "mapSupplierHotel").Msg("marshal supplier payload failed")
	}

	h := domain.SupplierHotel{
		Code:      firstNonEmptyAlias(m, hotelAliases, "code"),
		Name:      firstNonEmptyAlias(m, hotelAliases, "name"),
		CityCode:  firstNonEmptyAlias(m, hotelAliases, "city_code"),
		Country:   firstNonEmptyAlias(m, hotelAliases, "country"),
		Address:   ptrStr(firstNonEmptyAlias(m, hotelAliases, "address")),
		Amenities: firstSliceStrings(m, "HotelFacilities", "Amenities", "facilities"),
		Images:    firstSliceStrings(m, "Images", "ImageUrls", "photos"),
		RawJSON:   raw,
	}
	if h.Code == "" {
		if f := getFloatFlexible(m, hotelAliases["code"]...); f != nil {
			h.Code = strconv.FormatInt(int64(*f), 10)
		}
	}
	if f := getFloatFlexible(m, "StarRating", "HotelRating", "Rating", "stars"); f != nil {
		stars := int(*f)
		h.Stars = &stars
	}
	if c := mapCoords(m); c != nil {
		h.Coords = c
	}
	return h
}

// mapCoords handles nested GeoLocation objects, flat lat/lon fields and
// the "Map" form ("lat|lon" in a single string).
func mapCoords(m map[string]any) *domain.Coords {
	lat := getFloatFlexible(m, "GeoLocation.Latitude", "Latitude", "latitude", "location.lat", "lat")
	lon := getFloatFlexible(m, "GeoLocation.Longitude", "Longitude", "longitude", "location.lon", "location.lng", "lon")
	if lat != nil && lon != nil {
		return &domain.Coords{Lat: *lat, Lon: *lon}
	}
	if s := lookupStr(m, "Map"); s != "" {
		parts := strings.SplitN(s, "|", 2)
		if len(parts) == 2 {
			la, errA := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			lo, errB := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if errA == nil && errB == nil {
				return &domain.Coords{Lat: la, Lon: lo}
			}
		}
	}
	return nil
}

/********** rate search mapper **********/

// mapRateRooms extracts the room offers for hotelCode from a raw rate
// search response. Returns the normalized rooms, the supplier currency and
// the supplier search id; ok=false means the response carried no inventory
// for that hotel.
func mapRateRooms(resp map[string]any, hotelCode string) (rooms []domain.NormalizedRoom, currency, searchID string, ok bool) {
	searchID = lookupStr(resp, "SearchId")
	if searchID == "" {
		searchID = lookupStr(resp, "TraceId")
	}

	var hotels []map[string]any
	for _, key := range []string{"HotelResult", "Hotels", "HotelResults"} {
		if raw, isList := lookupAny(resp, key).([]any); isList {
			for _, it := range raw {
				if obj, isMap := it.(map[string]any); isMap {
					hotels = append(hotels, obj)
				}
			}
			break
		}
	}
	if len(hotels) == 0 {
		return nil, "", searchID, false
	}

	var hotel map[string]any
	for _, h := range hotels {
		if firstNonEmptyAlias(h, hotelAliases, "code") == hotelCode {
			hotel = h
			break
		}
	}
	if hotel == nil {
		hotel = hotels[0]
	}
	currency = lookupStr(hotel, "Currency")

	rawRooms, isList := lookupAny(hotel, "Rooms").([]any)
	if !isList || len(rawRooms) == 0 {
		return nil, currency, searchID, false
	}
	for _, it := range rawRooms {
		r, isMap := it.(map[string]any)
		if !isMap {
			continue
		}
		nr := domain.NormalizedRoom{
			Name:        lookupStr(r, "Name"),
			MealType:    firstNonEmptyAlias(r, roomAliases, "meal"),
			BookingCode: firstNonEmptyAlias(r, roomAliases, "booking_code"),
			BaseFare:    floatOrZero(r, "TotalFare", "BaseFare", "total_fare"),
			TotalTax:    floatOrZero(r, "TotalTax", "total_tax"),
			ServiceTax:  floatOrZero(r, "ServiceTax", "service_tax"),
			Refundable:  boolFlexible(r, "IsRefundable", "Refundable"),
		}
		if nr.Name == "" {
			nr.Name = firstNonEmptyAlias(r, roomAliases, "name")
		}
		nr.Price = nr.BaseFare + nr.TotalTax + nr.ServiceTax
		rooms = append(rooms, nr)
	}
	return rooms, currency, searchID, len(rooms) > 0
}
