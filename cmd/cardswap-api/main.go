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

	"github.com/gofiber/fiber/v3"
	"golang.org/x/sync/errgroup"

	"github.com/rajivgeraev/cardswap-api/internal/config"
	"github.com/rajivgeraev/cardswap-api/internal/db"
	"github.com/rajivgeraev/cardswap-api/internal/jobs"
	"github.com/rajivgeraev/cardswap-api/internal/logger"
	"github.com/rajivgeraev/cardswap-api/internal/seed"
	"github.com/rajivgeraev/cardswap-api/internal/services/auth"
	"github.com/rajivgeraev/cardswap-api/internal/services/catalog"
	"github.com/rajivgeraev/cardswap-api/internal/services/cloudinary"
	"github.com/rajivgeraev/cardswap-api/internal/services/collection"
	"github.com/rajivgeraev/cardswap-api/internal/services/trade"
	"github.com/rajivgeraev/cardswap-api/internal/store"
	"github.com/rajivgeraev/cardswap-api/internal/store/memory"
	"github.com/rajivgeraev/cardswap-api/internal/store/postgres"
	"github.com/rajivgeraev/cardswap-api/internal/utils"
	"github.com/rajivgeraev/cardswap-api/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Загружаем конфигурацию
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("cardswap-api", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("❌ Сервис остановлен с ошибкой")
	}
	log.Info("Сервис остановлен")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	cards, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return err
	}
	if _, err := seed.Catalog(ctx, st, cards, log.Named("seed")); err != nil {
		return err
	}

	// Создаём сервисы
	jwtService := utils.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	wsManager := websocket.NewManager(log.Named("websocket"))

	catalogService := catalog.NewCatalogService(st, log.Named("catalog"))
	tradeService := trade.NewTradeService(st, catalogService, log.Named("trade"))
	tradeService.WithEvents(wsManager)

	cloudinaryService, err := cloudinary.NewCloudinaryService(cfg.CloudinaryConfig, log.Named("cloudinary"))
	if err != nil {
		return err
	}

	svc := services{
		auth:       auth.NewAuthService(st, jwtService, log.Named("auth")),
		catalog:    catalogService,
		collection: collection.NewCollectionService(st, log.Named("collection")),
		trade:      tradeService,
		cloudinary: cloudinaryService,
	}
	app := newApp(cfg, st, jwtService, svc)

	// Фоновые задачи
	scheduler := jobs.NewScheduler(log.Named("jobs"))
	refresh := jobs.RefreshStats(jobs.CounterFunc(tradeService.CountOpen), catalogService)
	if err := refresh(ctx); err != nil {
		log.WithError(err).Warn("не удалось обновить статистику")
	}
	if err := scheduler.Every("stats", cfg.StatsInterval, refresh); err != nil {
		return err
	}
	scheduler.Start()

	// WebSocket слушает отдельный порт
	mux := http.NewServeMux()
	mux.Handle("/ws", wsManager.ServeWS(jwtService))
	wsServer := &http.Server{
		Addr:              cfg.WSAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", cfg.Port).WithField("store", cfg.StoreDriver).Info("✅ CardSwap API запущен")
		return app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true})
	})
	g.Go(func() error {
		log.WithField("addr", cfg.WSAddr).Info("✅ WebSocket сервер запущен")
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Остановка сервиса...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		scheduler.Stop(shutdownCtx)
		wsManager.Shutdown()
		var errs []error
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("websocket server: %w", err))
		}
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg, log.Named("db"))
		if err != nil {
			return nil, err
		}
		return postgres.New(pool), nil
	case config.StoreMemory:
		log.Warn("Используется хранилище в памяти, данные не сохраняются между перезапусками")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("неизвестное хранилище %q", cfg.StoreDriver)
}
