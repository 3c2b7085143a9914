// Package logstream decodes the output of device log listeners.
package logstream

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Level is the normalized severity of an entry.
type Level string

const (
	LevelVerbose Level = "verbose"
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

var levelRank = map[Level]int{
	LevelVerbose: 0,
	LevelDebug:   1,
	LevelInfo:    2,
	LevelWarn:    3,
	LevelError:   4,
	LevelFatal:   5,
}

// AtLeast reports whether l is as severe as min.
func (l Level) AtLeast(min Level) bool {
	return levelRank[l] >= levelRank[min]
}

// ParseLevel accepts the names above; anything else is an error.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := levelRank[l]; !ok {
		return "", fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// levelFromMessageType maps os_log message types.
func levelFromMessageType(t string) Level {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "default", "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warning", "warn":
		return LevelWarn
	case "notice":
		return LevelVerbose
	case "error":
		return LevelError
	case "fault":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Entry is a single device log record.
type Entry struct {
	Time      time.Time `json:"time,omitzero"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Process   string    `json:"process,omitempty"`
	PID       int       `json:"pid,omitempty"`
	TID       int64     `json:"tid,omitempty"`
	Subsystem string    `json:"subsystem,omitempty"`
	Category  string    `json:"category,omitempty"`
	// Raw is set for entries decoded from unstructured text.
	Raw string `json:"raw,omitempty"`
}

const processColumn = 18

// Format renders e as a single line.
func (e Entry) Format() string {
	ts := "--:--:--.---"
	if !e.Time.IsZero() {
		ts = e.Time.Format("15:04:05.000")
	}
	proc := e.Process
	if proc == "" {
		proc = "-"
	}
	if e.PID > 0 {
		proc = fmt.Sprintf("%s[%d]", proc, e.PID)
	}
	proc = runewidth.FillRight(runewidth.Truncate(proc, processColumn, "…"), processColumn)
	msg := strings.ReplaceAll(e.Message, "\n", " ⏎ ")
	return fmt.Sprintf("%s %-7s %s %s", ts, strings.ToUpper(string(e.Level)), proc, msg)
}

func processName(imagePath string) string {
	if imagePath == "" {
		return ""
	}
	return path.Base(imagePath)
}
