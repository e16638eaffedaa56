// Package postgres stores location entities in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kinodata/geocode/locations"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// uniqueViolation is the SQLSTATE of a unique constraint violation.
const uniqueViolation = "23505"

// Config holds PostgreSQL connection settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the lib/pq connection string for c.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema migrations. Safe to call repeatedly.
func Migrate(db *sql.DB, logger *zap.Logger) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("Failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("Failed to close migration database", zap.Error(dbErr))
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No migrations to apply (database up-to-date)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	version, _, _ := m.Version()
	logger.Info("Applied migrations successfully", zap.Uint("version", version))
	return nil
}

// Sink implements locations.Sink on the entities/locations tables.
type Sink struct {
	db  *sql.DB
	log *zap.Logger
}

var _ locations.Sink = (*Sink)(nil)

// NewSink returns a Sink using db.
func NewSink(db *sql.DB, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{db: db, log: logger}
}

// FindLocationByGeonameID implements locations.Sink.
func (s *Sink) FindLocationByGeonameID(ctx context.Context, geonameID int64) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT entity_id FROM locations WHERE geoname_id = $1`, geonameID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query location: %w", err)
	}
	return id, true, nil
}

// CreateLocation implements locations.Sink. When another writer inserted the
// same geoname_id first, the existing entity id is returned instead.
func (s *Sink) CreateLocation(ctx context.Context, rec locations.LocationRecord) (int64, error) {
	id, err := s.insert(ctx, rec)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		s.log.Debug("Location inserted concurrently, reusing existing row",
			zap.Int64("geoname_id", rec.GeonameID))
		existing, found, findErr := s.FindLocationByGeonameID(ctx, rec.GeonameID)
		if findErr != nil {
			return 0, findErr
		}
		if found {
			return existing, nil
		}
	}
	return id, err
}

// InstanceID returns the id of this database, creating it on first use. A
// dropped and recreated database gets a new id.
func (s *Sink) InstanceID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM sink_instance`).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("query instance id: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sink_instance (id) VALUES ($1) ON CONFLICT (singleton) DO NOTHING`,
		uuid.New().String())
	if err != nil {
		return "", fmt.Errorf("insert instance id: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM sink_instance`).Scan(&id); err != nil {
		return "", fmt.Errorf("query instance id: %w", err)
	}
	return id, nil
}

func (s *Sink) insert(ctx context.Context, rec locations.LocationRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	var entityID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO entities (uuid, type, name) VALUES ($1, $2, $3) RETURNING id`,
		rec.EntityUUID.String(), locations.EntityTypeLocation, rec.DisplayName,
	).Scan(&entityID)
	if err != nil {
		return 0, fmt.Errorf("insert entity: %w", err)
	}

	countryCode := sql.NullString{String: rec.CountryCode, Valid: rec.CountryCode != ""}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO locations (entity_id, name, official_name, country_code, longitude, latitude,
			geoname_id, location_type, population, geohash, s2_cell, point_wkt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entityID, rec.Name, rec.OfficialName, countryCode, rec.Longitude, rec.Latitude,
		rec.GeonameID, rec.LocationType, rec.Population, rec.Geohash, rec.S2Cell, rec.PointWKT,
	)
	if err != nil {
		return 0, fmt.Errorf("insert location: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return entityID, nil
}
