// Package jobs runs the background maintenance of the warehouse sink.
package jobs

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/stape-io/awin-conversion-api-tag/internal/config"
)

// RetentionJob prunes warehouse audit rows older than the retention period.
type RetentionJob struct {
	db     *gorm.DB
	logger *slog.Logger
	cfg    *config.Config
}

func NewRetentionJob(db *gorm.DB, logger *slog.Logger, cfg *config.Config) *RetentionJob {
	return &RetentionJob{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}
}

// Run removes audit rows past the retention cutoff from every warehouse
// table. Reduces storage usage and keeps logged request payloads from
// accumulating indefinitely.
func (j *RetentionJob) Run() error {
	retentionDays := j.cfg.WarehouseRetentionDays
	if retentionDays <= 0 {
		j.logger.Debug("Warehouse retention disabled")
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays).UnixMilli()

	tables, err := j.warehouseTables()
	if err != nil {
		j.logger.Error("Failed to list warehouse tables", slog.Any("error", err))
		return err
	}

	for _, table := range tables {
		if err := j.pruneTable(table, cutoff, retentionDays); err != nil {
			return err
		}
	}
	return nil
}

// warehouseTables lists the audit tables in the warehouse database. The
// database file holds nothing but sink-created tables.
func (j *RetentionJob) warehouseTables() ([]string, error) {
	var tables []string
	err := j.db.
		Raw("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'").
		Scan(&tables).Error
	return tables, err
}

func (j *RetentionJob) pruneTable(table string, cutoff int64, retentionDays int) error {
	var countToDelete int64
	if err := j.db.Table(table).
		Where("timestamp < ?", cutoff).
		Count(&countToDelete).Error; err != nil {
		j.logger.Error("Failed to count expired audit rows",
			slog.String("table", table), slog.Any("error", err))
		return err
	}

	if countToDelete == 0 {
		j.logger.Debug("No expired audit rows", slog.String("table", table))
		return nil
	}

	// Delete in batches to avoid locking the database for too long.
	batchSize := 1000
	totalDeleted := int64(0)

	for {
		result := j.db.Exec(
			"DELETE FROM `"+table+"` WHERE id IN (SELECT id FROM `"+table+"` WHERE timestamp < ? LIMIT ?)",
			cutoff, batchSize)
		if result.Error != nil {
			j.logger.Error("Failed to delete expired audit rows",
				slog.String("table", table),
				slog.Any("error", result.Error),
				slog.Int64("deleted_so_far", totalDeleted))
			return result.Error
		}

		totalDeleted += result.RowsAffected
		if result.RowsAffected < int64(batchSize) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	j.logger.Info("Pruned expired audit rows",
		slog.String("table", table),
		slog.Int64("deleted_count", totalDeleted),
		slog.Int("retention_days", retentionDays))
	return nil
}
