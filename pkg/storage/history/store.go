package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"curator/pkg/curation"
	"curator/pkg/storage"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds the run history database settings.
type Config struct {
	Enabled       bool   `yaml:"enabled"`
	Driver        string `yaml:"driver"`
	DSN           string `yaml:"dsn"`
	Dialect       string `yaml:"dialect"`
	Table         string `yaml:"table"`
	RemovalsTable string `yaml:"removals_table"`
	AutoMigrate   bool   `yaml:"auto_migrate"`
}

// ApplyDefaults fills unset table names.
func ApplyDefaults(cfg *Config) {
	if cfg.Table == "" {
		cfg.Table = "curator_runs"
	}
	if cfg.RemovalsTable == "" {
		cfg.RemovalsTable = "curator_removals"
	}
}

// Store implements storage.RunStore on top of GORM.
type Store struct {
	db            *gorm.DB
	table         string
	removalsTable string
}

type runRow struct {
	RunID      string    `gorm:"column:run_id;size:64;primaryKey"`
	StartedAt  time.Time `gorm:"column:started_at;index"`
	FinishedAt time.Time `gorm:"column:finished_at"`
	Removed    int       `gorm:"column:removed"`
	Backfilled int       `gorm:"column:backfilled"`
	Healed     int       `gorm:"column:healed"`
	Evaluated  int       `gorm:"column:evaluated"`
	Graced     int       `gorm:"column:graced"`
	Authors    string    `gorm:"column:authors;type:text"`
}

type removalRow struct {
	ID          uint   `gorm:"column:id;primaryKey;autoIncrement"`
	RunID       string `gorm:"column:run_id;size:64;index;not null"`
	Position    int    `gorm:"column:position"`
	Repository  string `gorm:"column:repository;size:255;not null"`
	RemovalType string `gorm:"column:removal_type;size:32"`
	Reason      string `gorm:"column:reason;type:text"`
	Link        string `gorm:"column:link;type:text"`
	Backfilled  bool   `gorm:"column:backfilled"`
}

// Open creates a GORM-backed history store.
func Open(cfg Config) (*Store, error) {
	if cfg.Driver == "" && cfg.Dialect == "" {
		return nil, errors.New("history driver or dialect is required")
	}
	if cfg.DSN == "" {
		return nil, errors.New("history dsn is required")
	}
	driver := normalizeDriver(cfg.Driver)
	if driver == "" {
		driver = normalizeDriver(cfg.Dialect)
	}
	if driver == "" {
		return nil, errors.New("unsupported history driver")
	}

	gormDB, err := openGorm(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)
	store := &Store{
		db:            gormDB,
		table:         cfg.Table,
		removalsTable: cfg.RemovalsTable,
	}
	if cfg.AutoMigrate {
		if err := store.migrate(); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

// Close closes the underlying DB connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordRun stores a pass and its removals in one transaction.
func (s *Store) RecordRun(ctx context.Context, record storage.RunRecord) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if record.RunID == "" {
		return errors.New("run id is required")
	}
	run := toRunRow(record)
	removals := toRemovalRows(record)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(s.table).Create(&run).Error; err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		if len(removals) == 0 {
			return nil
		}
		if err := tx.Table(s.removalsTable).Create(&removals).Error; err != nil {
			return fmt.Errorf("insert removals: %w", err)
		}
		return nil
	})
}

// ListRuns returns the most recent passes first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]storage.RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	query := s.db.WithContext(ctx).Table(s.table).Order("started_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var data []runRow
	if err := query.Find(&data).Error; err != nil {
		return nil, err
	}
	records := make([]storage.RunRecord, 0, len(data))
	for _, item := range data {
		records = append(records, fromRunRow(item))
	}
	return records, nil
}

// Removals returns the removal entries of a run in their original order.
func (s *Store) Removals(ctx context.Context, runID string) ([]storage.RemovalEntry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	var data []removalRow
	err := s.db.WithContext(ctx).
		Table(s.removalsTable).
		Where("run_id = ?", runID).
		Order("position asc").
		Find(&data).Error
	if err != nil {
		return nil, err
	}
	entries := make([]storage.RemovalEntry, 0, len(data))
	for _, item := range data {
		entries = append(entries, storage.RemovalEntry{
			Repository:  item.Repository,
			RemovalType: item.RemovalType,
			Reason:      item.Reason,
			Link:        item.Link,
			Backfilled:  item.Backfilled,
		})
	}
	return entries, nil
}

// Observe implements curation.Observer.
func (s *Store) Observe(ctx context.Context, report *curation.Report) error {
	if report == nil {
		return nil
	}
	return s.RecordRun(ctx, FromReport(report))
}

// FromReport converts a pass report into a run record.
func FromReport(report *curation.Report) storage.RunRecord {
	record := storage.RunRecord{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt.UTC(),
		FinishedAt: report.FinishedAt.UTC(),
		Removed:    len(report.Removed),
		Backfilled: len(report.Backfilled),
		Healed:     len(report.Healed),
		Evaluated:  report.Evaluated,
		Graced:     report.Graced,
		Authors:    report.Notification(),
	}
	for _, rec := range report.Backfilled {
		record.Removals = append(record.Removals, toEntry(rec, true))
	}
	for _, rec := range report.Removed {
		record.Removals = append(record.Removals, toEntry(rec, false))
	}
	return record
}

func toEntry(rec curation.RemovalRecord, backfilled bool) storage.RemovalEntry {
	entry := storage.RemovalEntry{
		Repository:  rec.Repository.String(),
		RemovalType: string(rec.RemovalType),
		Backfilled:  backfilled,
	}
	if rec.Reason != nil {
		entry.Reason = *rec.Reason
	}
	if rec.Link != nil {
		entry.Link = *rec.Link
	}
	return entry
}

func (s *Store) migrate() error {
	if err := s.db.Table(s.table).AutoMigrate(&runRow{}); err != nil {
		return err
	}
	return s.db.Table(s.removalsTable).AutoMigrate(&removalRow{})
}

func toRunRow(record storage.RunRecord) runRow {
	return runRow{
		RunID:      record.RunID,
		StartedAt:  record.StartedAt,
		FinishedAt: record.FinishedAt,
		Removed:    record.Removed,
		Backfilled: record.Backfilled,
		Healed:     record.Healed,
		Evaluated:  record.Evaluated,
		Graced:     record.Graced,
		Authors:    record.Authors,
	}
}

func fromRunRow(data runRow) storage.RunRecord {
	return storage.RunRecord{
		RunID:      data.RunID,
		StartedAt:  data.StartedAt,
		FinishedAt: data.FinishedAt,
		Removed:    data.Removed,
		Backfilled: data.Backfilled,
		Healed:     data.Healed,
		Evaluated:  data.Evaluated,
		Graced:     data.Graced,
		Authors:    data.Authors,
	}
}

func toRemovalRows(record storage.RunRecord) []removalRow {
	rows := make([]removalRow, 0, len(record.Removals))
	for i, entry := range record.Removals {
		rows = append(rows, removalRow{
			RunID:       record.RunID,
			Position:    i,
			Repository:  entry.Repository,
			RemovalType: entry.RemovalType,
			Reason:      entry.Reason,
			Link:        entry.Link,
			Backfilled:  entry.Backfilled,
		})
	}
	return rows
}

func normalizeDriver(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "postgres", "postgresql", "pgx":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return ""
	}
}

func openGorm(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "mysql":
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", driver)
	}
}
