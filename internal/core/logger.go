package core

import (
	"log"
	"strings"
	"sync"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

// levelNames maps config strings to levels. Unknown names fall back to info.
var levelNames = map[string]LogLevel{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
	"off":     LevelOff,
	"none":    LevelOff,
}

// ParseLevel converts a config string to a LogLevel.
func ParseLevel(s string) LogLevel {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl
	}
	return LevelInfo
}

// LogConfig holds logging configuration from YAML: a global threshold plus
// optional per-component overrides (component tag → level name).
type LogConfig struct {
	Level      string            `yaml:"level,omitempty"`
	Components map[string]string `yaml:"components,omitempty"`
}

// Logger filters output by severity with per-component thresholds.
// Messages go through the stdlib logger, prefixed with the component tag.
type Logger struct {
	mu        sync.RWMutex
	threshold LogLevel
	overrides map[string]LogLevel // lowercase tag → threshold
}

// NewLogger creates a Logger from config.
func NewLogger(cfg LogConfig) *Logger {
	l := &Logger{}
	l.Apply(cfg)
	return l
}

// Apply replaces the logger's thresholds from config. Called at
// construction and again after the host loads its config file.
func (l *Logger) Apply(cfg LogConfig) {
	overrides := make(map[string]LogLevel, len(cfg.Components))
	for tag, level := range cfg.Components {
		overrides[strings.ToLower(tag)] = ParseLevel(level)
	}

	l.mu.Lock()
	l.threshold = ParseLevel(cfg.Level)
	l.overrides = overrides
	l.mu.Unlock()
}

// enabled reports whether a message at lvl should be emitted for tag.
func (l *Logger) enabled(tag string, lvl LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	threshold := l.threshold
	if o, ok := l.overrides[strings.ToLower(tag)]; ok {
		threshold = o
	}
	return lvl >= threshold
}

func (l *Logger) logf(lvl LogLevel, tag, format string, args ...any) {
	if l.enabled(tag, lvl) {
		log.Printf("["+tag+"] "+format, args...)
	}
}

// Debugf logs at debug level.
func (l *Logger) Debugf(tag, format string, args ...any) {
	l.logf(LevelDebug, tag, format, args...)
}

// Infof logs at info level.
func (l *Logger) Infof(tag, format string, args ...any) {
	l.logf(LevelInfo, tag, format, args...)
}

// Warnf logs at warn level.
func (l *Logger) Warnf(tag, format string, args ...any) {
	l.logf(LevelWarn, tag, format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(tag, format string, args ...any) {
	l.logf(LevelError, tag, format, args...)
}

// Log is the process-wide logger, info level until config is applied.
var Log = NewLogger(LogConfig{})
