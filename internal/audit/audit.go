// Package audit emits the structured lifecycle log entries of the pipeline
// (request, response, rejection) to independently enabled sinks.
package audit

import (
	"github.com/stape-io/awin-conversion-api-tag/internal/config"
)

// TagName identifies this integration in every record.
const TagName = "AwinConversionApi"

// EntryType is the lifecycle stage of a record.
type EntryType string

const (
	TypeMessage  EntryType = "Message"
	TypeRequest  EntryType = "Request"
	TypeResponse EntryType = "Response"
)

// Record is the fixed flat schema shared by all sinks. Zero-valued fields
// are omitted at emission.
type Record struct {
	Name               string
	Type               EntryType
	TraceID            string
	EventName          string
	Message            string
	Reason             string
	RequestMethod      string
	RequestURL         string
	RequestBody        any
	ResponseStatusCode int
	ResponseHeaders    any
	ResponseBody       any
}

// Sink receives records; each implementation applies its own key naming.
type Sink interface {
	Emit(rec Record)
}

// Inserter receives records destined for a warehouse table described by a
// connection descriptor.
type Inserter interface {
	Insert(info ConnectionInfo, rec Record)
}

// Logger fans every record out to the sinks enabled for the given tag
// configuration. Enablement is evaluated per emission because per-request
// overrides can change the log modes.
type Logger struct {
	console   Sink
	warehouse Inserter
	debug     bool
}

// NewLogger builds the fan-out over the available sinks. Either sink may be
// nil when its backing resource is not configured.
func NewLogger(console Sink, warehouse Inserter, debug bool) *Logger {
	return &Logger{console: console, warehouse: warehouse, debug: debug}
}

// Log routes one record to every enabled sink.
func (l *Logger) Log(tag *config.Tag, rec Record) {
	if l.console != nil && consoleEnabled(tag.LogType, l.debug) {
		l.console.Emit(rec)
	}
	if l.warehouse != nil && warehouseEnabled(tag.BigQueryLogType) {
		l.warehouse.Insert(ConnectionInfo{
			ProjectID:           tag.BigQueryProjectID,
			DatasetID:           tag.BigQueryDatasetID,
			TableID:             tag.BigQueryTableID,
			IgnoreUnknownValues: true,
		}, rec)
	}
}

// consoleEnabled applies the console log policy: unset means debug builds
// only, "no" never, "debug" debug builds only, "always" always.
func consoleEnabled(logType string, debug bool) bool {
	switch logType {
	case "":
		return debug
	case "no":
		return false
	case "debug":
		return debug
	default:
		return logType == "always"
	}
}

// warehouseEnabled applies the warehouse policy: only "always" emits.
func warehouseEnabled(logType string) bool {
	if logType == "no" {
		return false
	}
	return logType == "always"
}
