package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/mmo-navgrid/internal/api"
	"github.com/annel0/mmo-navgrid/internal/cache"
	"github.com/annel0/mmo-navgrid/internal/config"
	"github.com/annel0/mmo-navgrid/internal/eventbus"
	"github.com/annel0/mmo-navgrid/internal/logging"
	"github.com/annel0/mmo-navgrid/internal/navigation"
	"github.com/annel0/mmo-navgrid/internal/observability"
	"github.com/annel0/mmo-navgrid/internal/world"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (default: $NAVGRID_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// === ЛОГИРОВАНИЕ ===
	consoleLevel := logging.ParseLevel(cfg.Logging.ConsoleLevel)
	fileLevel := logging.ParseLevel(cfg.Logging.FileLevel)
	logging.GetLoggerManager().Configure(cfg.Logging.FileOutput, consoleLevel, fileLevel)
	if err := logging.InitDefaultLogger("navserver"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()
	logging.SetDefaultLevels(consoleLevel, fileLevel)

	logging.Info("🧭 Запуск navserver (grid=%dx%d, projection=%s, layers=%d)",
		cfg.Grid.Width, cfg.Grid.Height, cfg.Grid.Projection, cfg.Grid.Layers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry := observability.NoopShutdown
	if cfg.Telemetry.Enabled {
		if shutdownTelemetry, err = observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName); err != nil {
			logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
			shutdownTelemetry = observability.NoopShutdown
		}
	}

	// === ШИНА СОБЫТИЙ ===
	bus := newEventBus(cfg.EventBus)
	exporter := eventbus.NewMetricsExporter(bus, prometheus.DefaultRegisterer)
	exporter.Start(5 * time.Second)
	if cfg.EventBus.LogEvents {
		if _, err := eventbus.StartLoggingListener(bus, eventbus.Filter{}); err != nil {
			logging.Warn("⚠️ LoggingListener не запущен: %v", err)
		}
	}

	// === СЕТКА ===
	grid := world.NewGrid()
	grid.SetObserver(eventbus.GridObserver(bus, cfg.Telemetry.ServiceName))

	opts, err := cfg.Grid.GridOptions()
	if err != nil {
		log.Fatalf("❌ Неверные параметры сетки: %v", err)
	}
	if err := grid.Initialize(opts); err != nil {
		log.Fatalf("❌ Ошибка инициализации сетки: %v", err)
	}

	if cfg.Generator.Enabled {
		gen := cfg.Generator.CostGenerator()
		blocked := gen.Apply(grid, world.Layer(cfg.Generator.Layer))
		logging.Info("🌄 Стоимости слоя %d сгенерированы (seed=%d, заблокировано %d)", cfg.Generator.Layer, gen.Seed, blocked)
	}

	// === НАВИГАЦИЯ ===
	navOpts := []navigation.Option{
		navigation.WithMetrics(navigation.NewMetrics(prometheus.DefaultRegisterer)),
		navigation.WithDefaultMaxIterations(cfg.Navigation.MaxIterations),
	}
	if cfg.Navigation.RandomSeed != 0 {
		navOpts = append(navOpts, navigation.WithSeed(cfg.Navigation.RandomSeed))
	}

	closeCache := func() {}
	if cfg.Navigation.CacheEnabled {
		if opt, closer, err := newPathCache(&cfg.Navigation.Cache); err != nil {
			logging.Warn("⚠️ Кэш путей отключён: %v", err)
		} else {
			closeCache = closer
			navOpts = append(navOpts, opt)
		}
	}
	nav := navigation.New(grid, navOpts...)

	// === REST API ===
	server := api.NewRestServer(api.Config{
		Addr:      fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		Navigator: nav,
		Service:   cfg.Telemetry.ServiceName,
	})
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	logging.Info("✅ navserver запущен")
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetRESTPort())

	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, останавливаемся...")
	case err := <-errCh:
		if err != nil {
			logging.Error("❌ REST API завершился с ошибкой: %v", err)
		}
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	closeCache()
	exporter.Stop()
	if err := bus.Close(); err != nil {
		logging.Error("❌ Ошибка закрытия шины событий: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки телеметрии: %v", err)
	}

	logging.Info("👋 navserver остановлен")
}

// newEventBus подключает JetStream, при ошибке откатывается на in-memory шину
func newEventBus(cfg config.EventBusConfig) eventbus.EventBus {
	if cfg.URL != "" {
		jb, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, cfg.RetentionDuration())
		if err == nil {
			return jb
		}
		logging.Warn("⚠️ JetStream недоступен (%v), используем in-memory шину", err)
	}
	return eventbus.NewMemoryBus(cfg.Buffer)
}

// newPathCache собирает кэш путей; closer освобождает соединения и кодек
func newPathCache(cfg *cache.CacheConfig) (navigation.Option, func(), error) {
	repo, err := cache.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	codec, err := cache.NewCodec(cfg.Compress)
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	logging.Info("🗄️ Кэш путей: backend=%s, ttl=%s, zstd=%t", cfg.Backend, cfg.DefaultTTL, cfg.Compress)

	closer := func() {
		if err := repo.Close(); err != nil {
			logging.Error("❌ Ошибка закрытия кэша: %v", err)
		}
		codec.Close()
	}
	return navigation.WithPathCache(repo, codec, cfg.DefaultTTL), closer, nil
}
