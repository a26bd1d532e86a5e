package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"safar_travel/internal/adapters/currency"
	server "safar_travel/internal/adapters/http_server"
	"safar_travel/internal/adapters/observability"
	redisad "safar_travel/internal/adapters/redis"
	"safar_travel/internal/adapters/supplier"
	"safar_travel/internal/app"
	"safar_travel/internal/shared"
	mysqlrepo "safar_travel/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load() // no .env in prod; env vars win either way
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	gw, err := supplier.New(cfg.SupplierBase, cfg.SupplierKey, cfg.SupplierRPS, cfg.SearchTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize supplier client")
	}
	fx := currency.New(cfg.FxBase, cfg.FxKey, cfg.FxTTL, cfg.FxFallbackUSDSAR)

	matcher := app.NewMatcher(gw, repo, cache, int(cfg.CityCacheTTL.Seconds()))
	live := app.NewLiveRateResolver(gw, cfg.GuestNationality, cfg.SearchRespHint)
	engine := app.NewEngine(repo, live, fx)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Engine: engine, Matcher: matcher, Repo: repo})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
