package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpadp "lending-backoffice/internal/adapter/http"
	mw "lending-backoffice/internal/adapter/middleware"
	"lending-backoffice/internal/app"
	"lending-backoffice/internal/config"
	"lending-backoffice/pkg/id"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if !cfg.ProviderConfigured() {
		log.Println("provider credentials missing: charges and mandate links will fail")
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: id.NewID32}),
		middleware.Logger(),
		middleware.Recover(),
	)

	httpadp.Register(e,
		httpadp.NewHandler(map[string]httpadp.Check{"db": a.PingDB, "redis": a.PingRedis}),
		httpadp.NewLoanHandler(a.Loans),
		httpadp.NewDebitHandler(a.Debits, a.Sweeper),
		mw.RequireAuth([]byte(cfg.App.JWTSecret)),
		mw.IdempotencyMiddleware(a.Redis, cfg.Idempotency.TTL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.App.Port
	go func() {
		log.Printf("listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
