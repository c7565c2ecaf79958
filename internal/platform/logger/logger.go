package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu       sync.RWMutex
	minLevel = LevelInfo
	std      = log.New(os.Stdout, "", 0)

	debugTag   = color.New(color.FgCyan).SprintFunc()
	infoTag    = color.New(color.FgBlue).SprintFunc()
	successTag = color.New(color.FgGreen).SprintFunc()
	warnTag    = color.New(color.FgYellow).SprintFunc()
	errorTag   = color.New(color.FgRed, color.Bold).SprintFunc()
	timeTag    = color.New(color.FgHiBlack).SprintFunc()
)

// ParseLevel maps DEBUG/INFO/WARN/ERROR to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(level Level) {
	mu.Lock()
	minLevel = level
	mu.Unlock()
}

// SetOutput redirects log output; tests use it to silence or capture logs.
func SetOutput(w io.Writer) {
	mu.Lock()
	std.SetOutput(w)
	mu.Unlock()
}

func write(level Level, tag string, format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if level < minLevel {
		return
	}
	ts := timeTag(time.Now().Format("2006-01-02 15:04:05"))
	std.Printf("%s %s %s", ts, tag, fmt.Sprintf(format, args...))
}

func Debug(format string, args ...interface{}) {
	write(LevelDebug, debugTag("DEBUG"), format, args...)
}

func Info(format string, args ...interface{}) {
	write(LevelInfo, infoTag("INFO "), format, args...)
}

// Success logs at info level with a green tag.
func Success(format string, args ...interface{}) {
	write(LevelInfo, successTag("OK   "), format, args...)
}

func Warn(format string, args ...interface{}) {
	write(LevelWarn, warnTag("WARN "), format, args...)
}

func Error(format string, args ...interface{}) {
	write(LevelError, errorTag("ERROR"), format, args...)
}

// Fatal logs at error level and exits the process.
func Fatal(format string, args ...interface{}) {
	write(LevelError, errorTag("FATAL"), format, args...)
	os.Exit(1)
}
