package logging

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// InternalLogger is the logging interface used while loading policies.
// Printf-style, so loaders don't depend on zerolog directly.
type InternalLogger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

var (
	_ InternalLogger = ZLogger{}
	_ InternalLogger = NopLogger{}
	_ InternalLogger = (*MemoryLogger)(nil)
)

// ZLogger forwards to a zerolog logger, usually one carrying the policy location as field.
type ZLogger struct {
	ZLog zerolog.Logger
}

func NewZLogger(zlog zerolog.Logger) ZLogger {
	return ZLogger{ZLog: zlog}
}

func (l ZLogger) Debug(format string, args ...any) { l.ZLog.Debug().Msgf(format, args...) }
func (l ZLogger) Info(format string, args ...any) { l.ZLog.Info().Msgf(format, args...) }
func (l ZLogger) Warn(format string, args ...any) { l.ZLog.Warn().Msgf(format, args...) }
func (l ZLogger) Error(format string, args ...any) { l.ZLog.Error().Msgf(format, args...) }

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any) {}
func (NopLogger) Warn(string, ...any) {}
func (NopLogger) Error(string, ...any) {}

// MemoryLogger keeps formatted messages per level.
type MemoryLogger struct {
	mu       sync.Mutex
	messages map[zerolog.Level][]string
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{messages: make(map[zerolog.Level][]string)}
}

func (m *MemoryLogger) log(level zerolog.Level, format string, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[level] = append(m.messages[level], fmt.Sprintf(format, args...))
}

func (m *MemoryLogger) Debug(format string, args ...any) { m.log(zerolog.DebugLevel, format, args) }
func (m *MemoryLogger) Info(format string, args ...any) { m.log(zerolog.InfoLevel, format, args) }
func (m *MemoryLogger) Warn(format string, args ...any) { m.log(zerolog.WarnLevel, format, args) }
func (m *MemoryLogger) Error(format string, args ...any) { m.log(zerolog.ErrorLevel, format, args) }

// Messages returns a copy of the messages logged at level, oldest first.
func (m *MemoryLogger) Messages(level zerolog.Level) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.messages[level]))
	copy(out, m.messages[level])
	return out
}
