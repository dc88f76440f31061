package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/rajivgeraev/cardswap-api/internal/config"
	"github.com/rajivgeraev/cardswap-api/internal/db/migrations"
	"github.com/rajivgeraev/cardswap-api/internal/logger"
)

func main() {
	log := logger.NewDefault("migrate")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("ошибка конфигурации")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("ошибка открытия базы данных")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("база данных недоступна")
	}

	log.WithField("statements", len(migrations.Statements)).Info("Применение миграций...")
	if err := migrations.Apply(ctx, db); err != nil {
		log.WithError(err).Fatal("ошибка применения миграций")
	}
	log.Info("✅ Миграции применены")
}
