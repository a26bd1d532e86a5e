package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"safar_travel/internal/adapters/observability"
	"safar_travel/internal/domain"
)

// cityClusters maps a natural-language metro/resort name to the sub-area
// names the supplier's taxonomy splits it into. Supplier city codes are
// fine-grained; a traveler's "Phuket" spans a dozen of them.
var cityClusters = map[string][]string{
	"phuket": {
		"Phuket", "Phuket Town", "Patong", "Patong Beach", "Karon",
		"Kata Beach", "Kamala Beach", "Mai Khao", "Bang Tao Beach",
		"Surin Beach", "Rawai", "Nai Harn", "Nai Yang",
	},
	"london": {
		"London", "Westminster", "Kensington", "Chelsea", "Camden",
		"Greenwich", "Croydon", "Stratford", "Heathrow",
	},
	"bangkok": {
		"Bangkok", "Sukhumvit", "Silom", "Pratunam", "Khao San",
		"Riverside Bangkok", "Ratchada",
	},
	"kuala lumpur": {
		"Kuala Lumpur", "Bukit Bintang", "KLCC", "Chow Kit",
		"Bangsar", "Sentral",
	},
	"istanbul": {
		"Istanbul", "Sultanahmet", "Taksim", "Besiktas", "Sisli",
		"Kadikoy", "Fatih",
	},
	"dubai": {
		"Dubai", "Deira", "Bur Dubai", "Jumeirah", "Dubai Marina",
		"Palm Jumeirah", "Downtown Dubai",
	},
}

// Scoring weights. A term's weight joins the normalization denominator
// only when its inputs are present, so sparse supplier records are not
// unfairly penalized.
const (
	weightName    = 0.4
	weightStars   = 0.2
	weightGeo     = 0.3
	weightAddress = 0.1

	candidateThreshold = 0.5
	maxCandidates      = 10
	citySampleLimit    = 10
)

// Matcher reconciles catalog hotels against supplier inventory.
type Matcher struct {
	gw      domain.SupplierGateway
	repo    domain.CatalogRepository
	cache   domain.Cache
	cityTTL int // seconds
}

func NewMatcher(gw domain.SupplierGateway, repo domain.CatalogRepository, cache domain.Cache, cityTTLSec int) *Matcher {
	return &Matcher{gw: gw, repo: repo, cache: cache, cityTTL: cityTTLSec}
}

// FindCandidates resolves the hotel's city against the supplier taxonomy,
// fetches candidate inventory and scores each record against h. It returns
// candidates scoring above the threshold, best first, capped. Hotels
// appearing under several overlapping sub-areas are not deduplicated.
func (m *Matcher) FindCandidates(ctx context.Context, h domain.Hotel) ([]domain.MatchCandidate, error) {
	codes, err := m.resolveCityCodes(ctx, h.City, h.Country)
	if err != nil {
		return nil, err
	}

	var out []domain.MatchCandidate
	for _, code := range codes {
		payloads, err := m.gw.GetHotelsByCity(ctx, code)
		if err != nil {
			return nil, &domain.SupplierError{Op: "hotels_by_city", Err: err}
		}
		for _, p := range payloads {
			sh := mapSupplierHotel(p)
			if sh.Code == "" {
				continue
			}
			if err := m.repo.UpsertSupplierHotel(ctx, sh); err != nil {
				log.Warn().Err(err).Str("supplier_code", sh.Code).Msg("supplier snapshot upsert failed")
			}
			if score := m.Score(h, sh); score > candidateThreshold {
				out = append(out, domain.MatchCandidate{Hotel: sh, Score: score})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxCandidates {
		out = out[:maxCandidates]
	}
	observability.MatchCandidates.Observe(float64(len(out)))
	return out, nil
}

// Score is the weighted similarity between a catalog hotel and a supplier
// record, clamped to [0,1].
func (m *Matcher) Score(h domain.Hotel, s domain.SupplierHotel) float64 {
	sum := stringSimilarity(h.Name, s.Name) * weightName
	weights := weightName

	if h.Stars != nil && s.Stars != nil {
		sum += starScore(*h.Stars, *s.Stars) * weightStars
		weights += weightStars
	}
	if h.Coords != nil && s.Coords != nil {
		d := haversineKm(h.Coords.Lat, h.Coords.Lon, s.Coords.Lat, s.Coords.Lon)
		sum += geoScore(d) * weightGeo
		weights += weightGeo
	}
	if h.Address != nil && s.Address != nil && *h.Address != "" && *s.Address != "" {
		sum += stringSimilarity(*h.Address, *s.Address) * weightAddress
		weights += weightAddress
	}
	return clamp01(sum / weights)
}

// resolveCityCodes turns a free-text city name into supplier city codes:
// cluster expansion first, then exact case-insensitive match, then
// bidirectional substring containment.
func (m *Matcher) resolveCityCodes(ctx context.Context, cityName, countryCode string) ([]string, error) {
	cities, err := m.cityList(ctx, countryCode)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(cityName))
	if query == "" {
		return nil, &domain.ValidationError{Msg: "city name is required"}
	}

	byName := make(map[string]string, len(cities))
	for _, c := range cities {
		if c.Code != "" {
			byName[strings.ToLower(c.Name)] = c.Code
		}
	}

	// 1) known cluster: union every resolvable sub-area
	if aliases, ok := cityClusters[query]; ok {
		var codes []string
		for _, alias := range aliases {
			if code, ok := byName[strings.ToLower(alias)]; ok {
				codes = append(codes, code)
			}
		}
		if len(codes) > 0 {
			return codes, nil
		}
	}

	// 2) exact case-insensitive match
	if code, ok := byName[query]; ok {
		return []string{code}, nil
	}

	// 3) bidirectional substring containment
	for _, c := range cities {
		name := strings.ToLower(c.Name)
		if c.Code != "" && (strings.Contains(name, query) || strings.Contains(query, name)) {
			return []string{c.Code}, nil
		}
	}

	samples := make([]string, 0, citySampleLimit)
	for _, c := range cities {
		if len(samples) == citySampleLimit {
			break
		}
		samples = append(samples, c.Name)
	}
	return nil, &domain.NotFoundError{Kind: "city", Key: cityName, Samples: samples}
}

// cityList fetches (and caches) the supplier city taxonomy for a country.
func (m *Matcher) cityList(ctx context.Context, countryCode string) ([]domain.SupplierCity, error) {
	key := fmt.Sprintf("cities:%s", strings.ToUpper(countryCode))
	var cities []domain.SupplierCity
	if m.cache != nil {
		if ok, _ := m.cache.Get(ctx, key, &cities); ok && len(cities) > 0 {
			return cities, nil
		}
	}

	payloads, err := m.gw.GetCityList(ctx, countryCode)
	if err != nil {
		return nil, &domain.SupplierError{Op: "city_list", Err: err}
	}
	cities = make([]domain.SupplierCity, 0, len(payloads))
	for _, p := range payloads {
		if c := mapCity(p); c.Name != "" {
			cities = append(cities, c)
		}
	}
	if len(cities) == 0 {
		return nil, &domain.NotFoundError{Kind: "city", Key: countryCode}
	}
	if m.cache != nil {
		_ = m.cache.Set(ctx, key, cities, m.cityTTL)
	}
	return cities, nil
}
