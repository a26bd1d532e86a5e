// internal/adapters/supplier/client.go
package supplier

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"safar_travel/internal/adapters/observability"
	"safar_travel/internal/domain"
)

// Client talks to the GDS-style hotel aggregator. Metadata endpoints
// (cities, hotel lists, details) are retried on 429/5xx; rate search is a
// single attempt — the pricing engine owns the fallback policy there.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int, searchTimeout time.Duration) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	if searchTimeout <= 0 {
		searchTimeout = 30 * time.Second
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: searchTimeout},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrNotFound     = errors.New("supplier: not found")
	ErrUnauthorized = errors.New("supplier: unauthorized")
	ErrRateLimited  = errors.New("supplier: rate limited")
)

// ---- Public API ----

func (c *Client) GetCityList(ctx context.Context, countryCode string) ([]map[string]any, error) {
	var out map[string]any
	err := c.post(ctx, "CityList", map[string]any{"CountryCode": countryCode}, &out, 3)
	if err != nil {
		return nil, err
	}
	return listEnvelope(out, "CityList", "Cities", "Result")
}

func (c *Client) GetHotelsByCity(ctx context.Context, cityCode string) ([]map[string]any, error) {
	var out map[string]any
	body := map[string]any{"CityCode": cityCode, "IsDetailedResponse": true}
	err := c.post(ctx, "HotelCodeList", body, &out, 3)
	if err != nil {
		return nil, err
	}
	return listEnvelope(out, "Hotels", "HotelList", "Result")
}

func (c *Client) GetHotelDetails(ctx context.Context, hotelCode string) (map[string]any, error) {
	var out map[string]any
	err := c.post(ctx, "HotelDetails", map[string]any{"Hotelcodes": hotelCode}, &out, 3)
	if err != nil {
		return nil, err
	}
	if items, err := listEnvelope(out, "HotelDetails", "Hotels"); err == nil && len(items) > 0 {
		return items[0], nil
	}
	return out, nil
}

func (c *Client) SearchRates(ctx context.Context, req domain.RateSearch) (map[string]any, error) {
	rooms := make([]map[string]any, 0, len(req.Rooms))
	for _, r := range req.Rooms {
		rooms = append(rooms, map[string]any{"Adults": r.Adults, "Children": r.Children})
	}
	body := map[string]any{
		"CheckIn":          req.CheckIn,
		"CheckOut":         req.CheckOut,
		"HotelCodes":       strings.Join(req.HotelCodes, ","),
		"GuestNationality": req.GuestNationality,
		"PaxRooms":         rooms,
		"ResponseTime":     req.ResponseTime,
		"IsDetailedResponse": false,
		"Filters": map[string]any{
			"Refundable": false,
			"NoOfRooms":  len(req.Rooms),
			"MealType":   "All",
		},
	}
	var out map[string]any
	// single attempt: availability search must not be replayed blindly
	if err := c.post(ctx, "search", body, &out, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- Internals ----

// listEnvelope unwraps {"<key>": [ {...}, ... ]} responses, trying the
// given keys in order. Supplier deployments disagree on envelope naming.
func listEnvelope(m map[string]any, keys ...string) ([]map[string]any, error) {
	for _, k := range keys {
		raw, ok := m[k].([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(raw))
		for _, it := range raw {
			if obj, ok := it.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("no list under %s in supplier response", strings.Join(keys, "/"))
}

// post performs a JSON POST with client-side rate limiting and, when
// retries > 0, retries on 429 and transient 5xx honoring Retry-After.
func (c *Client) post(ctx context.Context, endpoint string, body any, out any, retries int) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := c.base + "/" + endpoint

	var lastErr error
	for i := 0; i <= retries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("X-API-Key", c.key)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "safar-travel/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("supplier", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < retries && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal("supplier", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusTooManyRequests:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = ErrRateLimited
			if i < retries && sleepCtx(ctx, wait) {
				continue
			}
			return lastErr

		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < retries && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
