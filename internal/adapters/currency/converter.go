// internal/adapters/currency/converter.go
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"safar_travel/internal/adapters/observability"
)

// Converter fetches USD-pivot spot rates and caches them in-process for a
// staleness window. Refresh is lazy: the next Convert after expiry triggers
// it. On any fetch failure the converter degrades to a fixed fallback
// table instead of propagating the error — price display must keep working
// through a rate-service outage.
type Converter struct {
	base string
	key  string
	hc   *http.Client
	ttl  time.Duration

	mu        sync.Mutex
	rates     map[string]float64 // units of currency per 1 USD
	fetchedAt time.Time

	fallback map[string]float64
}

func New(base, key string, ttl time.Duration, fallbackUSDSAR float64) *Converter {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if fallbackUSDSAR <= 0 {
		fallbackUSDSAR = 3.75 // SAR is pegged to USD
	}
	return &Converter{
		base: base,
		key:  key,
		hc:   &http.Client{Timeout: 10 * time.Second},
		ttl:  ttl,
		fallback: map[string]float64{
			"USD": 1,
			"SAR": fallbackUSDSAR,
		},
	}
}

// Convert returns amount expressed in `to`. Identity for from == to, with
// no network call. Unknown currencies fall through unconverted with a
// warning: a wrong-but-visible price beats a failed quote.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	if from == to || from == "" || to == "" {
		return amount, nil
	}

	rates := c.snapshot(ctx)
	rf, okf := rates[from]
	rt, okt := rates[to]
	if !okf || !okt || rf == 0 {
		log.Warn().Str("from", from).Str("to", to).Msg("no exchange rate, returning amount unconverted")
		return amount, nil
	}
	return amount / rf * rt, nil
}

// snapshot returns the current rate table, refreshing it when stale.
func (c *Converter) snapshot(ctx context.Context) map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rates != nil && time.Since(c.fetchedAt) < c.ttl {
		return c.rates
	}
	fresh, err := c.fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("exchange rate refresh failed, using fallback rates")
		if c.rates != nil {
			// keep serving the stale table over the fixed fallback
			return c.rates
		}
		return c.fallback
	}
	c.rates = fresh
	c.fetchedAt = time.Now()
	return c.rates
}

func (c *Converter) fetch(ctx context.Context) (map[string]float64, error) {
	url := c.base + "/latest/USD"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("fx", "latest", 0, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("fx", "latest", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fx status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("fx response has no rates")
	}
	// normalize key casing; guarantee the pivot exists
	rates := make(map[string]float64, len(body.Rates)+1)
	for k, v := range body.Rates {
		rates[strings.ToUpper(k)] = v
	}
	rates["USD"] = 1
	return rates, nil
}
