// Package database manages the sqlite connection backing the warehouse
// audit sink.
package database

import (
	"fmt"
	"log/slog"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stape-io/awin-conversion-api-tag/internal/config"
)

// Manager owns the warehouse database connection.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
}

// NewManager creates a manager for the configured warehouse location.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

// Connect opens the database, creating the storage directory on first run.
// WAL keeps concurrent audit inserts from blocking reads.
func (m *Manager) Connect() (*gorm.DB, error) {
	if m.db != nil {
		return m.db, nil
	}

	if err := os.MkdirAll(m.cfg.WarehousePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create warehouse directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000",
		m.cfg.WarehouseDatabasePath())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse database: %w", err)
	}

	m.logger.Info("Warehouse database ready",
		slog.String("path", m.cfg.WarehouseDatabasePath()))
	m.db = db
	return db, nil
}

// GetConnection returns the open connection, or nil before Connect.
func (m *Manager) GetConnection() *gorm.DB {
	return m.db
}

// Close releases the underlying connection pool.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
