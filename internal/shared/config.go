package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	SupplierBase    string
	SupplierKey     string
	SupplierRPS     int
	SearchTimeout   time.Duration
	SearchRespHint  float64 // seconds, forwarded to the supplier search API
	GuestNationality string

	FxBase           string
	FxKey            string
	FxTTL            time.Duration
	FxFallbackUSDSAR float64

	LinkWorkers       int
	LinkBatch         int
	AutoLinkThreshold float64
	CityCacheTTL      time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/safar?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),

		SupplierBase:     env("SUPPLIER_BASE_URL", "https://api.tbotechnology.in/TBOHolidays_HotelAPI"),
		SupplierKey:      env("SUPPLIER_API_KEY", ""),
		SupplierRPS:      atoi("SUPPLIER_RPS", 5),
		SearchTimeout:    time.Duration(atoi("SUPPLIER_SEARCH_TIMEOUT_SECONDS", 30)) * time.Second,
		SearchRespHint:   atof("SUPPLIER_SEARCH_RESPONSE_HINT", 23.0),
		GuestNationality: env("GUEST_NATIONALITY", "SA"),

		FxBase:           env("FX_BASE_URL", "https://open.er-api.com/v6"),
		FxKey:            env("FX_API_KEY", ""),
		FxTTL:            time.Duration(atoi("FX_TTL_SECONDS", 3600)) * time.Second,
		FxFallbackUSDSAR: atof("FX_FALLBACK_USD_SAR", 3.75),

		LinkWorkers:       atoi("LINK_WORKERS", 8),
		LinkBatch:         atoi("LINK_BATCH", 200),
		AutoLinkThreshold: atof("AUTO_LINK_THRESHOLD", 0.85),
		CityCacheTTL:      time.Duration(atoi("CITY_CACHE_TTL_SECONDS", 86400)) * time.Second,
	}
	if c.SupplierKey == "" {
		log.Warn().Msg("SUPPLIER_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
