package live

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Store persists live server data: status and ranking snapshots pushed by the
// game server, and the history of artifact builds.
type Store struct {
	DB *gorm.DB

	boards boardCache
}

// Open connects with the given dialector and migrates the schema
func Open(dialector gorm.Dialector) (*Store, error) {
	db, err := connect(dialector)
	if err != nil {
		return nil, err
	}
	return newStore(db)
}

func connect(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(
			slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             10 * time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: "rodb_",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func newStore(db *gorm.DB) (*Store, error) {
	s := &Store{DB: db}
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenPostgres connects using the POSTGRES_* environment variables
func OpenPostgres() (*Store, error) {
	s, err := Open(postgres.Open(fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_DATABASE"),
		os.Getenv("POSTGRES_PORT"),
	)))
	if err != nil {
		return nil, err
	}

	sqlDB, err := s.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("Database connection established", "host", os.Getenv("POSTGRES_HOST"))
	return s, nil
}

// OpenSQLite opens a local database file, ":memory:" gives a throwaway store
func OpenSQLite(path string) (*Store, error) {
	db, err := connect(sqlite.Open(path))
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty in-memory database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}
	return newStore(db)
}

// OpenFromEnv uses postgres when POSTGRES_HOST is set and RODB_SQLITE_PATH
// (default rodb.db) otherwise.
func OpenFromEnv() (*Store, error) {
	if os.Getenv("POSTGRES_HOST") != "" {
		return OpenPostgres()
	}
	path := "rodb.db"
	if p, ok := os.LookupEnv("RODB_SQLITE_PATH"); ok {
		path = p
	}
	slog.Info("Using sqlite database", "path", path)
	return OpenSQLite(path)
}

// AutoMigrate runs automatic migration for all models
func (s *Store) AutoMigrate() error {
	slog.Debug("Running auto migration...")

	err := s.DB.AutoMigrate(
		&StatusSnapshot{},
		&RankingSnapshot{},
		&Build{},
	)
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}

	slog.Debug("Auto migration completed successfully")
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
