package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casino-lite/apps/server/internal/auth"
	"casino-lite/apps/server/internal/config"
	"casino-lite/apps/server/internal/game"
	"casino-lite/apps/server/internal/gateway"
	"casino-lite/apps/server/internal/httpapi"
	"casino-lite/apps/server/internal/metrics"
	"casino-lite/apps/server/internal/store"
)

func main() {
	config.LoadDotEnv(".env", ".env.local")
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("[Server] Invalid configuration: %v", err)
	}

	db, err := cfg.OpenDB()
	if err != nil {
		log.Fatalf("[Server] Failed to open %s database: %v", cfg.Mode, err)
	}
	if db != nil {
		defer db.Close()
	}

	authService, authMode, err := auth.NewService(db)
	if err != nil {
		log.Fatalf("[Server] Failed to init auth manager: %v", err)
	}
	defer authService.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gameStore, storeMode, err := store.New(ctx, db, cfg.StartingPoints)
	cancel()
	if err != nil {
		log.Fatalf("[Server] Failed to init game store: %v", err)
	}
	defer gameStore.Close()

	m := metrics.New()
	gameService, err := game.New(gameStore, game.Options{
		Rules:        cfg.Rules,
		Metrics:      m,
		HistoryLimit: cfg.HistoryLimit,
	})
	if err != nil {
		log.Fatalf("[Server] Failed to init game service: %v", err)
	}

	gw := gateway.New(authService, gameService, m)
	authHTTP := auth.NewHTTPHandler(authService, func(accountID uint64) {
		log.Printf("[Server] Account registered: user=%d starting_points=%d", accountID, cfg.StartingPoints)
	})
	gameHTTP := httpapi.NewHTTPHandler(authService, gameService)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/blackjack", gw.HandleWebSocket)
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	authHTTP.RegisterRoutes(mux)
	gameHTTP.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("[Server] Mode: %s", cfg.Mode)
	log.Printf("[Server] Auth mode: %s", authMode)
	log.Printf("[Server] Store mode: %s", storeMode)
	log.Printf("[Server] Rules: stand_on=%d blackjack_pays=%d/%d max_bet=%d",
		cfg.Rules.DealerStandsOn, cfg.Rules.BlackjackPayNum, cfg.Rules.BlackjackPayDen, cfg.Rules.MaxBet)

	go func() {
		log.Printf("[Server] Listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[Server] Failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Shutdown error: %v", err)
	}
	log.Printf("[Server] Stopped")
}
