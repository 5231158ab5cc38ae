package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/db"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/obs"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"
	"auction-marketplace/internal/session"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

const serviceName = "auction-marketplace"

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}
	if err := utils.SetLogLevel(cfg.LogLevel); err != nil {
		utils.Fatal("invalid log level", map[string]any{"error": err.Error()})
	}
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.OTLPEndpoint, cfg.Env)
	if err != nil {
		utils.Fatal("failed to init tracer", map[string]any{"error": err.Error()})
	}

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		utils.Fatal("failed to open store", map[string]any{"store": cfg.Store, "error": err.Error()})
	}

	if cfg.SeedDemoData {
		if seeder, ok := repo.(repository.Seeder); ok {
			if err := seedDemoData(ctx, seeder, time.Now().UTC()); err != nil {
				utils.Fatal("failed to seed demo data", map[string]any{"error": err.Error()})
			}
		}
	}

	biddingSvc := bidding.NewBiddingService(repo)
	if cfg.CloseInterval > 0 {
		go biddingSvc.RunAuctionCloser(ctx, cfg.CloseInterval)
	}

	router := server.SetupRouter(biddingSvc, session.NewParser(cfg.JWTSecret))
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr, "store": cfg.Store})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	utils.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("server shutdown failed", map[string]any{"error": err.Error()})
	}
	closeStore()
	if err := shutdownTracer(shutdownCtx); err != nil {
		utils.Warn("tracer shutdown failed", map[string]any{"error": err.Error()})
	}
}

// openStore builds the AuctionDB selected by STORE and returns its cleanup
func openStore(ctx context.Context, cfg config.Config) (repository.AuctionDB, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		applied, err := db.ApplyMigrations(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		if len(applied) > 0 {
			utils.Info("applied migrations", map[string]any{"migrations": applied})
		}
		return repository.NewPostgresRepo(pool), pool.Close, nil
	case config.StoreRest:
		repo := repository.NewRestRepo(repository.RestConfig{
			BaseURL: cfg.BackendURL,
			APIKey:  cfg.BackendAPIKey,
			Timeout: cfg.BackendTimeout,
		})
		return repo, func() { _ = repo.Close() }, nil
	case config.StoreMemory:
		return repository.NewMemoryRepo(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// seedDemoData adds sample profiles and auctions. Profile ids match the
// subjects cmd/devtoken issues by default.
func seedDemoData(ctx context.Context, s repository.Seeder, now time.Time) error {
	profiles := []model.Profile{
		{UserID: "demo-admin", Email: "admin@example.com", Role: model.RoleAdmin},
		{UserID: "demo-user", Email: "user@example.com", Role: model.RoleUser},
	}
	for _, p := range profiles {
		if err := s.SaveProfile(ctx, p); err != nil {
			return err
		}
	}

	auctions := []model.Auction{
		{Title: "Vintage wristwatch", Description: "Steel case, 1968, serviced last year", CurrentBid: 2500, EndTime: now.Add(25 * time.Hour)},
		{Title: "Impressionist landscape", Description: "Oil on canvas, 60x80", CurrentBid: 1800, EndTime: now.Add(3 * time.Hour)},
		{Title: "Rangefinder camera", Description: "Film camera with 50mm lens", CurrentBid: 950, EndTime: now.Add(45 * time.Minute)},
		{Title: "Bronze sculpture", Description: "Signed, limited edition", CurrentBid: 3200, EndTime: now.Add(72 * time.Hour)},
	}
	for _, a := range auctions {
		a.AuctionID = utils.GenerateID()
		a.Status = model.StatusActive
		a.CreatedAt = now
		if err := s.CreateAuction(ctx, a); err != nil {
			return err
		}
	}

	utils.Info("seeded demo data", map[string]any{"profiles": len(profiles), "auctions": len(auctions)})
	return nil
}
