package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/tablesales/internal/config"
	"github.com/diewo77/tablesales/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// MigrationsDir is the golang-migrate source used when MIGRATIONS=1.
var MigrationsDir = "file://migrations"

// Connect opens the PostgreSQL database, retrying while it starts up.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, string, error) {
	dsn := NormalizeDSN(cfg.DSN())
	if dsn == "" {
		return nil, "", errors.New("database DSN is empty, check DATABASE_DSN or DB_* settings")
	}
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	var db *gorm.DB
	var err error
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
		if err == nil {
			break
		}
		log.Warn("retrying database connection", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(connectBackoff)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if err := Ping(db); err != nil {
		return nil, "", err
	}
	log.Info("database connected", zap.String("dsn", MaskDSN(dsn)))
	return db, dsn, nil
}

// Ping runs a trivial query.
func Ping(db *gorm.DB) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}
	return nil
}

// Migrate brings the schema up to date, with SQL migrations when sqlMigrations
// is set and GORM AutoMigrate otherwise.
func Migrate(db *gorm.DB, dsn string, sqlMigrations bool, log *zap.Logger) error {
	if sqlMigrations {
		log.Info("running sql migrations", zap.String("source", MigrationsDir))
		if err := RunSQLMigrations(dsn); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if err := db.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}
	// sanity check: ensure required core tables exist
	for _, table := range []string{"operators", "products", "tables", "table_sales", "table_sale_items"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations applies MigrationsDir with golang-migrate.
func RunSQLMigrations(dsn string) error {
	m, err := migrate.New(MigrationsDir, ToURLDSN(dsn))
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
