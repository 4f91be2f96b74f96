package database

import (
	"context"
	"fmt"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/telemed-assistant/pkg/config"
)

// MigrationsDir is where the sql-migrate files live, relative to the working directory
const MigrationsDir = "migrations"

// Dialects understood by sql-migrate
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// Options tunes the connection pool and SQL logging
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
	LogLevel        logger.LogLevel
}

// OptionsFromConfig derives pool and logging options. Production only logs
// errors; elsewhere every statement is logged.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		MaxOpenConns:    cfg.Database.MaxConns,
		MaxIdleConns:    cfg.Database.MinConns,
		ConnMaxLifetime: time.Hour,
		SlowThreshold:   200 * time.Millisecond,
		LogLevel:        logger.Info,
	}
	if cfg.Server.Environment == "production" {
		opts.LogLevel = logger.Error
	}
	if opts.MaxOpenConns > 0 && opts.MaxIdleConns > opts.MaxOpenConns {
		opts.MaxIdleConns = opts.MaxOpenConns
	}
	return opts
}

// NewPostgresDB connects to the call request database described by cfg
func NewPostgresDB(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	return Open(ctx, postgres.Open(cfg.GetDatabaseDSN()), OptionsFromConfig(cfg), log)
}

// Open connects through dialector, applies the pool options and pings within ctx.
// gorm's SQL log goes to log under the "gorm" name.
func Open(ctx context.Context, dialector gorm.Dialector, opts Options, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database.connected",
		zap.String("dialect", dialector.Name()),
		zap.Int("max_open_conns", opts.MaxOpenConns),
	)
	return db, nil
}

// Migrate applies every pending migration in dir and returns how many ran
func Migrate(db *gorm.DB, dir, dialect string, log *zap.Logger) (int, error) {
	return exec(db, dir, dialect, migrate.Up, 0, log)
}

// Rollback undoes up to steps applied migrations, most recent first
func Rollback(db *gorm.DB, dir, dialect string, steps int, log *zap.Logger) (int, error) {
	if steps <= 0 {
		return 0, fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	return exec(db, dir, dialect, migrate.Down, steps, log)
}

func exec(db *gorm.DB, dir, dialect string, direction migrate.MigrationDirection, max int, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection: %w", err)
	}

	n, err := migrate.ExecMax(sqlDB, dialect, &migrate.FileMigrationSource{Dir: dir}, direction, max)
	if err != nil {
		return 0, fmt.Errorf("failed to run migrations from %s: %w", dir, err)
	}

	name := "database.migrated_up"
	if direction == migrate.Down {
		name = "database.migrated_down"
	}
	log.Info(name, zap.String("dir", dir), zap.Int("count", n))
	return n, nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB, log *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if log != nil {
		log.Info("database.closed")
	}
	return nil
}
