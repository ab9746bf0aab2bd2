package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"restoflow-api/cart"
	"restoflow-api/catalog"
	"restoflow-api/config"
	"restoflow-api/feed"
	"restoflow-api/handlers"
	"restoflow-api/logger"
	"restoflow-api/middleware"
	"restoflow-api/orderbook"
	"restoflow-api/routes"
	"restoflow-api/session"
	"restoflow-api/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	logger.Init(logger.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		JSON:  gin.Mode() == gin.ReleaseMode,
	})
	log := logger.Component("main")

	if err := run(cfg); err != nil {
		log.WithError(err).Fatal("server stopped with error")
	}
	log.Info("server stopped")
}

func run(cfg *config.Config) error {
	log := logger.Component("main")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.OpenDB(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	broker, err := feed.Open(ctx, cfg.FeedDriver, cfg.DatabaseDSN, cfg.AMQPURL)
	if err != nil {
		return err
	}
	defer broker.Close()

	loginPIN, err := session.NewPIN(cfg.LoginPIN)
	if err != nil {
		return err
	}
	adminPIN, err := session.NewPIN(cfg.AdminPIN)
	if err != nil {
		return err
	}

	orders := orderbook.New(store.NewOrderRepo(db, broker),
		orderbook.WithFeed(broker),
		orderbook.WithPollInterval(cfg.PollInterval))
	menu := catalog.New(store.NewMenuRepo(db, broker), broker, cfg.PollInterval)

	gate := session.NewGate(loginPIN, session.NewCodec(cfg.SessionSecret), session.WithTTL(cfg.SessionTTL))
	h := &handlers.Handler{
		Menu:     menu,
		Orders:   orders,
		Carts:    cart.NewRegistry(),
		Gate:     gate,
		Keypads:  session.NewKeypads(gate),
		AdminPIN: adminPIN,
		Feed:     broker,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orders.Run(ctx) })
	g.Go(func() error { return menu.Run(ctx) })
	g.Go(func() error {
		log.WithFields(logrus.Fields{"port": cfg.Port, "db": cfg.DBDriver, "feed": cfg.FeedDriver}).
			Info("server running on http://localhost:" + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(cfg *config.Config, h *handlers.Handler) *gin.Engine {
	if err := handlers.RegisterValidators(); err != nil {
		logger.Component("main").WithError(err).Fatal("failed to register validators")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	routes.SetupRoutes(r, h)
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.AdminPINHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
