package audit

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/stape-io/awin-conversion-api-tag/internal/config"
)

// ConsoleSink serializes records as line-oriented JSON with the record's
// own key names, to stdout and a rotated log file.
type ConsoleSink struct {
	logger *logrus.Logger
}

// NewConsoleSink builds the sink with rotation settings from the service
// configuration.
func NewConsoleSink(cfg *config.Config) *ConsoleSink {
	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogsDirectory, cfg.AppName+".log"),
		MaxSize:    cfg.LogsMaxSizeInMb,
		MaxBackups: cfg.LogsMaxBackups,
		MaxAge:     cfg.LogsMaxAgeInDays,
	}

	logger := logrus.New()
	logger.SetOutput(io.MultiWriter(os.Stdout, rotated))
	logger.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: true})
	return &ConsoleSink{logger: logger}
}

// NewConsoleSinkWithOutput builds a sink writing to the given writer. Test use.
func NewConsoleSinkWithOutput(out io.Writer) *ConsoleSink {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: true})
	return &ConsoleSink{logger: logger}
}

// Emit writes the record unmodified (original key names, zero fields
// dropped).
func (s *ConsoleSink) Emit(rec Record) {
	fields := logrus.Fields{
		"Name":      rec.Name,
		"Type":      string(rec.Type),
		"TraceId":   rec.TraceID,
		"EventName": rec.EventName,
	}
	if rec.Message != "" {
		fields["Message"] = rec.Message
	}
	if rec.Reason != "" {
		fields["Reason"] = rec.Reason
	}
	if rec.RequestMethod != "" {
		fields["RequestMethod"] = rec.RequestMethod
	}
	if rec.RequestURL != "" {
		fields["RequestUrl"] = rec.RequestURL
	}
	if rec.RequestBody != nil {
		fields["RequestBody"] = rec.RequestBody
	}
	if rec.ResponseStatusCode != 0 {
		fields["ResponseStatusCode"] = rec.ResponseStatusCode
	}
	if rec.ResponseHeaders != nil {
		fields["ResponseHeaders"] = rec.ResponseHeaders
	}
	if rec.ResponseBody != nil {
		fields["ResponseBody"] = rec.ResponseBody
	}
	s.logger.WithFields(fields).Info("audit")
}
