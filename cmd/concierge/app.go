package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"wellmeet/internal/api"
	"wellmeet/internal/booking"
	"wellmeet/internal/config"
	"wellmeet/internal/database"
	"wellmeet/internal/dialog"
	"wellmeet/internal/domain"
	"wellmeet/internal/events"
	"wellmeet/internal/logging"
	"wellmeet/internal/models"
	"wellmeet/internal/recommend"
	"wellmeet/internal/repository"
	"wellmeet/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *zerolog.Logger
	closer io.Closer

	redis   *redis.Client
	db      *database.DB
	backend api.Backend
	text    domain.TextRecommender
	bus     *events.EventBus
}

func newApp(ctx context.Context, component string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", component).Logger()

	a := &app{cfg: cfg, logger: &logger, closer: closer, bus: events.NewEventBus()}
	a.redis = initRedis(ctx, cfg, a.logger)

	if err := a.initBackend(); err != nil {
		a.Close()
		return nil, err
	}
	subscribeEvents(a.bus, a.logger)
	return a, nil
}

// initBackend picks where reservations and notifications live: the remote
// upstream or the local SQLite database.
func (a *app) initBackend() error {
	switch a.cfg.Booking.Backend {
	case config.BackendLocal:
		db, err := database.NewDB(a.cfg.Database.Path, a.logger)
		if err != nil {
			a.logger.Error().Err(err).Str("db_path", a.cfg.Database.Path).Msg("init database")
			return err
		}
		db.WithPricing(booking.Pricing{AdultPrice: a.cfg.Booking.AdultPrice, ChildPrice: a.cfg.Booking.ChildPrice})
		a.db = db
		a.backend = db
		a.text = recommend.LocalRecommender{Catalog: recommend.DefaultCatalog()}
	default:
		client := api.NewClient(a.cfg.Upstream, a.logger)
		if a.redis != nil && a.cfg.Upstream.CacheTTLSeconds > 0 {
			client.UseRedisCache(a.redis, time.Duration(a.cfg.Upstream.CacheTTLSeconds)*time.Second)
		}
		a.backend = client
		a.text = client
	}
	a.logger.Info().Str("backend", a.cfg.Booking.Backend).Msg("booking backend ready")
	return nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.redis != nil {
		_ = repository.Close(a.redis)
	}
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}
	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		// failover repository switches to memory on its own
		logger.Warn().Err(err).Msg("redis unavailable")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return client
}

func (a *app) sessionStore() *service.SessionService {
	ttl := time.Duration(a.cfg.Bot.SessionTTLHours) * time.Hour
	fallback := repository.NewMemorySessionRepository(ttl)

	var repo domain.SessionRepository = fallback
	if a.redis != nil {
		repo = repository.NewFailoverSessionRepository(repository.NewRedisSessionRepository(a.redis, ttl), fallback, a.logger)
	}
	return service.NewSessionService(repo, a.logger)
}

func (a *app) quickReservations() domain.QuickReservationBridge {
	ttl := time.Duration(a.cfg.Booking.QuickReservationTTLMinutes) * time.Minute
	fallback := repository.NewMemoryQuickReservationStore(ttl)
	if a.redis != nil {
		return repository.NewFailoverQuickReservationStore(repository.NewRedisQuickReservationStore(a.redis, ttl), fallback, a.logger)
	}
	return fallback
}

func (a *app) dialogController(sessions domain.SessionStore, bridge domain.QuickReservationBridge) *dialog.Controller {
	matcher := recommend.NewMatcher(nil, a.text, a.logger)

	var strategy dialog.Strategy = dialog.FixedStrategy{Matcher: matcher}
	if a.cfg.Dialog.Mode == models.DialogModeFreeText {
		strategy = dialog.FreeTextStrategy{Matcher: matcher}
	}

	delay := time.Duration(a.cfg.Dialog.ThinkingDelayMs) * time.Millisecond
	return dialog.NewController(sessions, strategy, delay, a.logger).
		WithBridge(bridge).
		WithPublisher(a.bus)
}

func (a *app) bookingService(bridge domain.QuickReservationBridge) *service.BookingService {
	pricing := booking.Pricing{AdultPrice: a.cfg.Booking.AdultPrice, ChildPrice: a.cfg.Booking.ChildPrice}
	grid := booking.TimeGrid{Lunch: a.cfg.Booking.LunchSlots, Dinner: a.cfg.Booking.DinnerSlots}
	builder := booking.NewBuilder(bridge, pricing, grid, a.logger)
	return service.NewBookingService(a.backend, builder, a.bus, a.logger)
}

func subscribeEvents(bus *events.EventBus, logger *zerolog.Logger) {
	recommendation := func(ev *events.Event) error {
		var payload events.RecommendationEventPayload
		if err := ev.Decode(&payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Info().
			Int64("user_id", payload.UserID).
			Str("mode", payload.Mode).
			Str("intent", payload.Intent).
			Strs("candidates", payload.CandidateIDs).
			Msg("recommendation completed")
		return nil
	}

	bookingEvent := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := ev.Decode(&payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Info().
			Str("event", ev.Type).
			Str("booking_id", payload.BookingID).
			Int64("user_id", payload.UserID).
			Str("restaurant", payload.RestaurantName).
			Str("status", payload.Status).
			Msg("booking event")
		return nil
	}

	bus.Subscribe(events.EventRecommendationCompleted, recommendation)
	for _, t := range []string{events.EventBookingCreated, events.EventBookingModified, events.EventBookingCancelled, events.EventReviewRequested} {
		bus.Subscribe(t, bookingEvent)
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
