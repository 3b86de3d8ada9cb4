package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/ochairo/depscout/internal/domain/interfaces"
)

// jsonLinesSink writes one JSON object per event
type jsonLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

type jsonLinesEvent struct {
	Name       string            `json:"event.name"`
	Timestamp  time.Time         `json:"timestamp"`
	Attributes map[string]string `json:"attributes"`
}

// NewJSONLinesSink creates a sink that encodes events to w
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewJSONLinesSink(w io.Writer) *jsonLinesSink {
	return &jsonLinesSink{
		enc: json.NewEncoder(w),
		now: time.Now,
	}
}

// Emit writes the event as a single line
func (s *jsonLinesSink) Emit(_ context.Context, name string, attributes map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(jsonLinesEvent{
		Name:       name,
		Timestamp:  s.now().UTC(),
		Attributes: attributes,
	}); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// logSink emits events as Info log entries
type logSink struct {
	logger interfaces.Logger
}

// NewLogSink creates a sink that logs every event
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewLogSink(logger interfaces.Logger) *logSink {
	return &logSink{logger: logger}
}

// Emit logs the event with one field per attribute, in key order
func (s *logSink) Emit(_ context.Context, name string, attributes map[string]string) error {
	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]interfaces.Field, 0, len(keys)+1)
	fields = append(fields, interfaces.F("event.name", name))
	for _, k := range keys {
		fields = append(fields, interfaces.F(k, attributes[k]))
	}
	s.logger.Info("dependency detected", fields...)
	return nil
}
