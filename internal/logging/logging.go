// SPDX-License-Identifier: Unlicense OR MIT

// Package logging is a small leveled wrapper over the standard
// library's log.Logger. The teacher repo never reaches for a logging
// framework — it writes straight to stderr with a prefix per
// subsystem — so the simulation core does the same rather than adding
// a dependency the rest of the stack doesn't use.
package logging

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Level orders the four severities this package prints.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "?"
	}
}

// Logger prefixes every line with a subsystem tag and filters by
// minimum level; it wraps a *log.Logger rather than replacing it.
type Logger struct {
	std  *log.Logger
	tag  string
	min  Level
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Logger{}
)

// New returns the Logger writing to stderr tagged with subsystem (e.g.
// "sim", "wgpubackend", "cli"). Every call with the same subsystem
// returns the same Logger, so a SetLevel through one reaches all.
func New(subsystem string) *Logger {
	registryMu.Lock()
	defer registryMu.Unlock()
	if l, ok := registry[subsystem]; ok {
		return l
	}
	l := &Logger{
		std: log.New(os.Stderr, "", log.LstdFlags),
		tag: subsystem,
		min: LevelInfo,
	}
	registry[subsystem] = l
	return l
}

// SetLevel changes the minimum level printed.
func (l *Logger) SetLevel(min Level) { l.min = min }

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.min {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.std.Printf("[%s] %s: %s", level, l.tag, msg)
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(LevelError, format, args...) }
