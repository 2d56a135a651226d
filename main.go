package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"studioku_backend/internals/configs"
	database "studioku_backend/internals/databases"
	bookingRepo "studioku_backend/internals/features/booking/bookings/repository"
	bookingService "studioku_backend/internals/features/booking/bookings/service"
	paymentService "studioku_backend/internals/features/finance/payments/service"
	scheduler "studioku_backend/internals/features/users/auth/scheduler"
	helper "studioku_backend/internals/helpers"
	"studioku_backend/internals/helpers/dbtime"
	"studioku_backend/internals/metrics"
	middlewares "studioku_backend/internals/middlewares"
	"studioku_backend/internals/middlewares/logger"
	"studioku_backend/internals/notifications"
	routes "studioku_backend/internals/route"
	"studioku_backend/internals/seeds"
	"studioku_backend/internals/tracing"
)

const serviceName = "studioku_backend"

func main() {
	configs.InitLogger(serviceName)
	configs.LoadEnv()

	policy, err := configs.LoadStudioPolicy()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid studio policy")
	}
	loc, err := time.LoadLocation(policy.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", policy.Timezone).Msg("unknown studio timezone")
	}
	dbtime.SetDefaultLocation(loc)

	// `studioku_backend seed [dir]` loads fixtures and exits.
	if len(os.Args) > 1 && os.Args[1] == "seed" {
		runSeeds(os.Args[2:])
		return
	}

	shutdownTracer, err := tracing.InitTracerProvider(serviceName,
		configs.GetEnv("JAEGER_ENDPOINT"),
		float64(configs.GetEnvInt("TRACE_SAMPLE_PERCENT", 100))/100)
	if err != nil {
		log.Fatal().Err(err).Msg("init tracer")
	}

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		ErrorHandler:            helper.ErrorHandler,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          configs.GetEnvList("TRUSTED_PROXIES"),
		ReadTimeout:             15 * time.Second,
		WriteTimeout:            30 * time.Second,
		IdleTimeout:             90 * time.Second,
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	app.Use(logger.RequestContext(10 * time.Second))
	middlewares.SetupMiddlewares(app)

	// DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	if configs.GetEnvBool("AUTO_MIGRATE", true) {
		if err := database.Migrate(database.DB); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
	}
	database.WarmUpQueries()
	database.ConnectRedis()

	// Notifications: Kafka when brokers are configured, log otherwise.
	var pub notifications.Publisher = notifications.LogPublisher{}
	if brokers := configs.GetEnvList("KAFKA_BROKERS"); len(brokers) > 0 {
		pub = notifications.NewKafkaPublisher(brokers, policy.NotificationTopic)
	}
	dispatcher := notifications.NewDispatcher(pub, notifications.DefaultDispatcherOptions())

	opts := bookingService.Options{
		Location:     loc,
		BulkMaxItems: policy.BulkMaxItems,
	}
	if database.RDB != nil {
		opts.Guard = bookingService.NewRedisSubmitGuard(database.RDB, policy.SubmitGuardTTL)
	}
	bookings := bookingService.NewService(bookingRepo.NewTransactor(database.DB), dispatcher, opts)

	paymentService.InitMidtrans(configs.MidtransServerKey, configs.MidtransUseProd)

	app.Get("/metrics", metrics.Handler())
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := database.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db down"})
		}
		return c.JSON(fiber.Map{"status": "ok", "uptime": routes.Uptime().Round(time.Second).String()})
	})

	routes.SetupRoutes(app, database.DB, bookings)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.StartTokenCleanupScheduler(ctx, database.DB, 24*time.Hour)

	port := configs.GetEnv("PORT", "3000")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", port).Msg("listening")
		return app.Listen("0.0.0.0:" + port)
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := app.ShutdownWithContext(sctx)
		if derr := dispatcher.Close(sctx); derr != nil {
			log.Warn().Err(derr).Msg("notification dispatcher did not drain")
		}
		if terr := shutdownTracer(sctx); terr != nil {
			log.Warn().Err(terr).Msg("tracer shutdown")
		}
		database.CloseRedis()
		database.Close()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func runSeeds(args []string) {
	dir := "internals/seeds"
	if len(args) > 0 {
		dir = args[0]
	}
	db := configs.InitSeederDB()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	seeds.RunAllSeeds(db, dir)
	log.Info().Str("dir", dir).Msg("seeding done")
}
