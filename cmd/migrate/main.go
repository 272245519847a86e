// migrate aplica o revierte las migraciones embebidas del esquema contable.
//
// Uso: go run ./cmd/migrate [up|down|version]   (por defecto: up)
// Toma la conexión de DATABASE_URL o DB_HOST/DB_PORT/... igual que la API.
package main

import (
	"fmt"
	"os"

	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Contabilidad-api/pkg/config"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "migrate"})

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	m, err := postgres.NewMigrator(cfg.DB.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("crear migrador")
	}
	defer func() { _ = m.Close() }()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
	default:
		fmt.Fprintf(os.Stderr, "Comando desconocido %q (up|down|version)\n", cmd)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("migración fallida")
	}

	version, dirty, err := m.Version()
	if err != nil {
		log.Fatal().Err(err).Msg("leer versión")
	}
	log.Info().Str("command", cmd).Uint("version", version).Bool("dirty", dirty).Msg("migraciones")
}
