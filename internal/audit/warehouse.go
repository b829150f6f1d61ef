package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
)

// ConnectionInfo is the warehouse destination descriptor: project, dataset
// and table identifiers plus the ignore-unknown-fields flag, matching the
// insert capability of the original log warehouse.
type ConnectionInfo struct {
	ProjectID           string
	DatasetID           string
	TableID             string
	IgnoreUnknownValues bool
}

// tableName maps the descriptor onto one table.
func (c ConnectionInfo) tableName() string {
	return fmt.Sprintf("%s_%s", c.DatasetID, c.TableID)
}

// warehouseRow is the warehouse schema: record keys renamed per the fixed
// mapping, the three structured fields re-serialized to text, and an
// ingestion timestamp appended at emission time.
type warehouseRow struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement"`
	TagName            string `gorm:"column:tag_name;index"`
	Type               string `gorm:"column:type;index"`
	TraceID            string `gorm:"column:trace_id;index"`
	EventName          string `gorm:"column:event_name"`
	Message            string `gorm:"column:message"`
	Reason             string `gorm:"column:reason"`
	RequestMethod      string `gorm:"column:request_method"`
	RequestURL         string `gorm:"column:request_url"`
	RequestBody        string `gorm:"column:request_body;type:text"`
	ResponseStatusCode int    `gorm:"column:response_status_code"`
	ResponseHeaders    string `gorm:"column:response_headers;type:text"`
	ResponseBody       string `gorm:"column:response_body;type:text"`
	Timestamp          int64  `gorm:"column:timestamp;index"`
}

// WarehouseSink inserts records into the destination table named by each
// emission's connection descriptor.
type WarehouseSink struct {
	db     *gorm.DB
	logger *slog.Logger

	mu       sync.Mutex
	migrated map[string]bool
}

// NewWarehouseSink wraps an open database connection.
func NewWarehouseSink(db *gorm.DB, logger *slog.Logger) *WarehouseSink {
	return &WarehouseSink{db: db, logger: logger, migrated: make(map[string]bool)}
}

// Insert writes one record. Failures are logged, never propagated; audit
// logging must not fail the pipeline.
func (s *WarehouseSink) Insert(info ConnectionInfo, rec Record) {
	table := info.tableName()
	if err := s.ensureTable(table); err != nil {
		s.logger.Error("Failed to prepare warehouse table",
			slog.String("table", table), slog.Any("error", err))
		return
	}

	row := warehouseRow{
		TagName:            rec.Name,
		Type:               string(rec.Type),
		TraceID:            rec.TraceID,
		EventName:          rec.EventName,
		Message:            rec.Message,
		Reason:             rec.Reason,
		RequestMethod:      rec.RequestMethod,
		RequestURL:         rec.RequestURL,
		RequestBody:        serializeField(rec.RequestBody),
		ResponseStatusCode: rec.ResponseStatusCode,
		ResponseHeaders:    serializeField(rec.ResponseHeaders),
		ResponseBody:       serializeField(rec.ResponseBody),
		Timestamp:          time.Now().UnixMilli(),
	}

	if err := s.db.Table(table).Create(&row).Error; err != nil {
		s.logger.Error("Failed to insert warehouse audit row",
			slog.String("table", table), slog.Any("error", err))
	}
}

// ensureTable migrates the destination table on first use.
func (s *WarehouseSink) ensureTable(table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.migrated[table] {
		return nil
	}
	if err := s.db.Table(table).AutoMigrate(&warehouseRow{}); err != nil {
		return err
	}
	s.migrated[table] = true
	return nil
}

// serializeField re-serializes a structured field to text for the flat
// warehouse schema.
func serializeField(v any) string {
	if v == nil {
		return ""
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(encoded)
}
