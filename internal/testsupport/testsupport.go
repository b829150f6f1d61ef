// Package testsupport provides shared fixtures for the test suites.
package testsupport

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stape-io/awin-conversion-api-tag/internal/audit"
	"github.com/stape-io/awin-conversion-api-tag/internal/config"
	"github.com/stape-io/awin-conversion-api-tag/internal/event"
)

// TestConfig returns a service configuration suitable for tests.
func TestConfig() *config.Config {
	return &config.Config{
		AppName:     "awintag",
		AppPort:     "0",
		Environment: config.Test,
		LogLevel:    config.LogLevelError,
		ContainerID: "test-container",
		Tag:         *TestTag(),
	}
}

// TestTag returns a tag configuration with the user-editable defaults
// applied.
func TestTag() *config.Tag {
	return &config.Tag{
		AdvertiserID:                     "12345",
		APIKey:                           "test-api-key",
		CookieExpiration:                 config.DefaultCookieExpirationDays,
		DeduplicationQueryParameterNames: config.DefaultDeduplicationParameters,
		AwinSourceValues:                 config.DefaultAwinSourceValues,
	}
}

// Pointer helpers for the supplied-vs-absent tag fields.

func Str(s string) *string   { return &s }
func F64(f float64) *float64 { return &f }
func Int(i int) *int         { return &i }
func Int64(i int64) *int64   { return &i }

// EventContext builds an immutable event view from raw event data and an
// optional cookie jar.
func EventContext(kind event.Kind, data map[string]any, cookies map[string]string) *event.Context {
	env := &event.Envelope{Type: string(kind), Event: data}
	return event.BuildContext(env, "test-trace", "", cookies)
}

// Logger returns a quiet test logger.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CaptureSink records emitted audit entries for assertions.
type CaptureSink struct {
	mu      sync.Mutex
	Records []audit.Record
}

func (s *CaptureSink) Emit(rec audit.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = append(s.Records, rec)
}

// Last returns the most recent record, failing the test when none exists.
func (s *CaptureSink) Last(t *testing.T) audit.Record {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.Records)
	return s.Records[len(s.Records)-1]
}

// ByType returns all records of the given entry type.
func (s *CaptureSink) ByType(entryType audit.EntryType) []audit.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []audit.Record
	for _, rec := range s.Records {
		if rec.Type == entryType {
			matched = append(matched, rec)
		}
	}
	return matched
}

// InMemoryWarehouse opens a throwaway sqlite database for warehouse sink
// tests.
func InMemoryWarehouse(t *testing.T, logger *slog.Logger) (*audit.WarehouseSink, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return audit.NewWarehouseSink(db, logger), db
}
