package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/config"
	"github.com/yeremiapane/restaurant-floor/controllers"
	"github.com/yeremiapane/restaurant-floor/database"
	"github.com/yeremiapane/restaurant-floor/hub"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/router"
	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
)

func main() {
	cfg := config.Load()
	utils.InitLogger(cfg.LogLevel)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	a := newApp(cfg, preferenceStore(cfg))
	defer a.Close()

	date := cfg.ServiceDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if err := a.engine.Activate(context.Background(), date); err != nil {
		// the loop keeps retrying on its own
		utils.ErrorLogger.Errorf("Initial sync for %s failed: %v", date, err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: a.router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Errorf("Server shutdown: %v", err)
	}
}

type app struct {
	store   *store.ReservationStore
	engine  *services.SyncEngine
	hub     *hub.Hub
	router  *gin.Engine
	unwatch func()
}

func newApp(cfg *config.Config, prefs services.PreferenceStore) *app {
	backend := services.NewBackendClient(services.BackendConfig{
		BaseURL:      cfg.BackendURL,
		ServiceToken: cfg.BackendToken,
		Timeout:      cfg.BackendTimeout,
	})

	reservations := store.New()
	liveHub := hub.New()

	engine := services.NewSyncEngine(backend, reservations, cfg.SyncInterval)
	engine.OnFailure = liveHub.SyncFailed

	publishers := services.MultiPublisher{liveHub}
	if cfg.RabbitMQURL != "" {
		publishers = append(publishers, services.NewAMQPPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue))
		utils.InfoLogger.WithField("queue", cfg.RabbitMQQueue).Info("Publishing status changes to RabbitMQ")
	}
	dispatcher := services.NewDispatcher(backend, reservations, engine, publishers)

	r := router.SetupRouter(router.Deps{
		Board:          controllers.NewBoardController(reservations, engine, dispatcher, services.NewPreferenceService(prefs)),
		WS:             controllers.NewWSController(liveHub, reservations, cfg.AllowedOrigins),
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimiter:    middlewares.NewRateLimiter(cfg.ActionRate, cfg.ActionBurst),
	})

	return &app{
		store:   reservations,
		engine:  engine,
		hub:     liveHub,
		router:  r,
		unwatch: liveHub.Watch(reservations),
	}
}

func (a *app) Close() {
	a.engine.Stop()
	a.unwatch()
}

// preferenceStore uses Redis when configured and reachable, and the local
// database otherwise.
func preferenceStore(cfg *config.Config) services.PreferenceStore {
	if cfg.PreferenceBackend == "redis" {
		if client := config.NewRedisClient(cfg); client != nil {
			utils.InfoLogger.WithField("addr", cfg.RedisAddr).Info("Filter preferences stored in Redis")
			return services.NewRedisPreferenceStore(client, 30*24*time.Hour)
		}
		utils.ErrorLogger.Warn("Redis unavailable, falling back to database for filter preferences")
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	return services.NewGormPreferenceStore(db)
}
