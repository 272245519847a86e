package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Contabilidad-api/internal/application/costing"
	"github.com/jhoicas/Contabilidad-api/internal/application/guard"
	"github.com/jhoicas/Contabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Contabilidad-api/internal/application/transaction"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/memory"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Contabilidad-api/internal/interfaces/http"
	"github.com/jhoicas/Contabilidad-api/pkg/config"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// @title                       Contabilidad API
// @version                     1.0
// @description                 Costeo de inventario y contabilización de transacciones.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: cfg.App.Name})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Str("costing_default", cfg.Costing.DefaultMethod).
		Msg("iniciando aplicación")

	ctx := context.Background()
	var (
		runner repository.TxRunner
		pinger httpRouter.Pinger
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn().Msg("store en memoria: los datos no sobreviven al reinicio")
		runner = memory.NewStore()
	default:
		if cfg.Store.MigrationsAuto {
			if err := migrateUp(cfg.DB.ConnectionString()); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			log.Info().Msg("migraciones aplicadas")
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		runner = postgres.NewTxRunner(pool)
		pinger = pool
	}

	uc := transaction.NewUseCase(
		runner,
		costing.NewEngine(cfg.Costing.DefaultMethod, logger.Component(log, "costing")),
		ledger.NewPoster(logger.Component(log, "ledger")),
		guard.NewClosingGuard(logger.Component(log, "guard")),
		guard.NewSequencer(runner),
		logger.Component(log, "transaction"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en http://localhost:<port>/docs; swagger.json lo genera `swag init` desde las anotaciones
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Contabilidad API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Transactions: uc,
		Store:        cfg.Store.Driver,
		Pinger:       pinger,
		JWTSecret:    cfg.JWT.Secret,
		Log:          logger.Component(log, "http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func migrateUp(dsn string) error {
	m, err := postgres.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}
