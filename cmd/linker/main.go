// The linker walks unlinked catalog hotels, matches each one against
// supplier inventory and auto-links the top candidate when its score
// clears the configured threshold. Everything below threshold is recorded
// as a miss for operator review.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"safar_travel/internal/adapters/observability"
	redisad "safar_travel/internal/adapters/redis"
	"safar_travel/internal/adapters/supplier"
	"safar_travel/internal/app"
	"safar_travel/internal/domain"
	"safar_travel/internal/shared"
	mysqlrepo "safar_travel/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.SupplierBase).
		Int("workers", cfg.LinkWorkers).
		Float64("threshold", cfg.AutoLinkThreshold).
		Msg("linker starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	gw, err := supplier.New(cfg.SupplierBase, cfg.SupplierKey, cfg.SupplierRPS, cfg.SearchTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize supplier client")
	}
	matcher := app.NewMatcher(gw, repo, cache, int(cfg.CityCacheTTL.Seconds()))

	hotels, err := repo.ListUnlinkedHotels(ctx, cfg.LinkBatch)
	if err != nil {
		log.Fatal().Err(err).Msg("list unlinked hotels failed")
	}
	log.Info().Int("count", len(hotels)).Msg("unlinked hotels to reconcile")

	sem := semaphore.NewWeighted(int64(cfg.LinkWorkers))
	var wg sync.WaitGroup

	for _, h := range hotels {
		h := h

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(hotel domain.Hotel) {
			defer wg.Done()
			defer sem.Release(1)

			if err := reconcile(ctx, matcher, repo, hotel, cfg.AutoLinkThreshold); err != nil {
				log.Warn().Int64("id", hotel.ID).Err(err).Msg("reconcile failed")
				return
			}
			log.Info().Int64("id", hotel.ID).Msg("reconcile ok")
		}(h)
	}

	wg.Wait()
	log.Info().Msg("link run completed")
}

func reconcile(ctx context.Context, matcher *app.Matcher, repo domain.CatalogRepository, hotel domain.Hotel, threshold float64) error {
	cands, err := matcher.FindCandidates(ctx, hotel)
	if err != nil {
		if domain.IsNotFound(err) {
			return repo.LogMatchMiss(ctx, hotel.ID, err.Error())
		}
		return err
	}
	if len(cands) == 0 {
		return repo.LogMatchMiss(ctx, hotel.ID, "no candidates above threshold")
	}

	best := cands[0]
	if best.Score < threshold {
		return repo.LogMatchMiss(ctx, hotel.ID,
			fmt.Sprintf("best candidate %s scored %.2f below %.2f", best.Hotel.Code, best.Score, threshold))
	}

	link := domain.SupplierLink{
		Linked:    true,
		HotelCode: best.Hotel.Code,
		HotelName: best.Hotel.Name,
		// live pricing stays an explicit operator decision
		LivePricing: false,
	}
	if err := repo.SetHotelLink(ctx, hotel.ID, link); err != nil {
		return err
	}
	log.Info().
		Int64("id", hotel.ID).
		Str("supplier_code", best.Hotel.Code).
		Float64("score", best.Score).
		Msg("hotel linked")
	return nil
}
