package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TermVault/internal/api"
	"TermVault/internal/cache"
	"TermVault/internal/config"
	"TermVault/internal/ledger"
	"TermVault/internal/notifier"
	"TermVault/internal/ownership"
	"TermVault/internal/plan"
	"TermVault/internal/scheduler"
	"TermVault/internal/store"
	"TermVault/internal/token"
	"TermVault/internal/vault"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] TermVault starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init store
	var st store.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite store failed, using noop: %v", err)
			st = store.NewNoopStore()
		} else {
			st = ss
			defer ss.Close()
		}
	} else {
		st = store.NewNoopStore()
	}

	// Init reserve vault
	v, err := vault.New(cfg.Vault.StateFile, cfg.Vault.MinHealthBps)
	if err != nil {
		log.Fatalf("[FATAL] init vault: %v", err)
	}

	// Init plan registry, restoring persisted plans
	plans := plan.NewRegistry()
	savedPlans, err := st.LoadPlans()
	if err != nil {
		log.Printf("[WARN] load plans: %v", err)
	}
	for _, p := range savedPlans {
		plans.Restore(p)
	}
	log.Printf("[INFO] restored %d plans", len(savedPlans))

	// Init asset bank. The in-memory bank stands in for an external token
	// transfer surface; the administrator account is seeded so the interest
	// pool can be funded out of the box.
	bank := token.NewBank()
	bank.Mint(cfg.Accounts.Admin, 1_000_000_000_000)

	// Init ledger
	l := ledger.New(ledger.Options{
		Plans:        plans,
		Vault:        v,
		Owners:       ownership.NewRegistry(),
		Asset:        bank,
		Store:        st,
		Admin:        cfg.Accounts.Admin,
		VaultAccount: cfg.Accounts.Vault,
	})
	recs, err := st.LoadCertificates()
	if err != nil {
		log.Printf("[WARN] load certificates: %v", err)
	}
	if err := l.Restore(recs); err != nil {
		log.Fatalf("[FATAL] restore certificates: %v", err)
	}
	log.Printf("[INFO] restored %d certificates", len(recs))

	// Init cache
	var c cache.Cache
	if cfg.Cache.RedisAddr != "" {
		c = cache.NewRedisCache(cfg.Cache.RedisAddr)
		log.Printf("[INFO] redis cache: %s", cfg.Cache.RedisAddr)
	} else {
		c = cache.NewMemoryCache()
		log.Println("[INFO] in-memory cache")
	}

	// Init notifier
	var n notifier.Notifier
	if cfg.Telegram.BotToken != "" {
		n = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		log.Println("[INFO] telegram notifier enabled")
	} else {
		n = notifier.NewLogNotifier()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, l, n)
	if err := sched.RegisterAll(cfg.Schedule.RenewCron, cfg.Schedule.HealthCron, cfg.Schedule.SnapshotCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run the renew sweep immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing renew sweep now")
		go sched.RunRenewSweepNow()
	}

	// Init HTTP server
	limiter := api.NewRateLimiter(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSecs)*time.Second)
	defer limiter.Stop()
	srv := api.NewServer(l, c, time.Duration(cfg.Cache.TTLSecs)*time.Second,
		cfg.Server.AdminToken, cfg.Accounts.Admin, limiter)

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}
	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] TermVault is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] TermVault stopped")
}
