package orphan

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver registered as "pgx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/couchbase/gocbcorex/internal/memdx"
	"github.com/couchbase/gocbcorex/internal/orphan/migrations"
)

// DBRecord is the row shape a DBSink persists, kept independent of
// memdx.OrphanContext so a schema change on one side doesn't ripple to the
// other.
type DBRecord struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	ObservedAt     time.Time
	ConnID         string `gorm:"column:conn_id;size:64;index"`
	OpCode         string `gorm:"column:op_code;size:64;index"`
	Opaque         uint32
	LocalAddr      string `gorm:"column:local_addr;size:255"`
	PeerAddr       string `gorm:"column:peer_addr;size:255"`
	ServerDuration time.Duration
}

// TableName returns the table name for DBRecord.
func (DBRecord) TableName() string {
	return "kv_orphaned_responses"
}

// DBSinkConfig configures the database backend for DBSink. Disabled by
// default: callers that want a queryable orphan history opt in explicitly
// by constructing a DBSink and adding it alongside LogSink via MultiSink.
type DBSinkConfig struct {
	// ConnString is a PostgreSQL connection string, as accepted by both
	// golang-migrate's postgres driver and gorm's.
	ConnString string
}

// DBSink persists orphaned responses to PostgreSQL, migrating its own
// schema via golang-migrate and writing rows via GORM. It is additive:
// nothing in this package requires it, and the default Reporter remains
// LogSink.
type DBSink struct {
	db *gorm.DB
}

// NewDBSink runs schema migrations against cfg.ConnString and opens a GORM
// connection for row writes.
func NewDBSink(cfg DBSinkConfig) (*DBSink, error) {
	if cfg.ConnString == "" {
		return nil, fmt.Errorf("orphan: ConnString is required")
	}

	if err := migrateSchema(cfg.ConnString); err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(cfg.ConnString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("orphan: open database: %w", err)
	}

	return &DBSink{db: db}, nil
}

func migrateSchema(connString string) error {
	sqlDB, err := sql.Open("pgx", connString)
	if err != nil {
		return fmt.Errorf("orphan: open migration connection: %w", err)
	}
	defer sqlDB.Close()

	driver, err := migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{
		MigrationsTable: "orphan_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("orphan: create postgres migration driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("orphan: open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("orphan: create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("orphan: apply migrations: %w", err)
	}
	return nil
}

func (s *DBSink) Report(ctx memdx.OrphanContext) {
	rec := DBRecord{
		ObservedAt:     time.Now(),
		ConnID:         ctx.ConnID,
		OpCode:         ctx.OpCode.String(),
		Opaque:         ctx.Opaque,
		LocalAddr:      ctx.LocalAddr,
		PeerAddr:       ctx.PeerAddr,
		ServerDuration: ctx.ServerDuration,
	}
	// Best-effort: a failed insert must not disrupt the dispatcher's read
	// loop that invoked this Reporter, so errors are swallowed here rather
	// than propagated. Operators who need delivery guarantees should pair
	// this with LogSink via MultiSink.
	_ = s.db.Create(&rec).Error
}

// Recent returns the most recently observed orphans, newest first, for
// diagnostic tooling.
func (s *DBSink) Recent(limit int) ([]DBRecord, error) {
	var recs []DBRecord
	err := s.db.Order("observed_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// Close releases the underlying database connection.
func (s *DBSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
