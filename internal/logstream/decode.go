package logstream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

const (
	jsonTimeLayout   = "2006-01-02 15:04:05.000000-0700"
	syslogTimeLayout = "Jan _2 15:04:05"
	maxLineSize      = 1 << 20
)

// record mirrors the object shape of `log stream --style json`.
type record struct {
	Timestamp        string `json:"timestamp"`
	MessageType      string `json:"messageType"`
	EventMessage     string `json:"eventMessage"`
	ProcessImagePath string `json:"processImagePath"`
	ProcessID        int    `json:"processID"`
	ThreadID         int64  `json:"threadID"`
	Subsystem        string `json:"subsystem"`
	Category         string `json:"category"`
}

func (r record) entry() Entry {
	e := Entry{
		Level:     levelFromMessageType(r.MessageType),
		Message:   r.EventMessage,
		Process:   processName(r.ProcessImagePath),
		PID:       r.ProcessID,
		TID:       r.ThreadID,
		Subsystem: r.Subsystem,
		Category:  r.Category,
	}
	if ts, err := time.Parse(jsonTimeLayout, r.Timestamp); err == nil {
		e.Time = ts
	}
	return e
}

// Decode reads log output from r and calls fn for every entry.
// Structured streams are the JSON array emitted with --style json; anything
// else is decoded line by line. Decoding ends at EOF, when fn returns an
// error (which is returned), or when ctx is done between entries. Reads are
// not interrupted by ctx, so callers stop the producing process as well.
func Decode(ctx context.Context, r io.Reader, structured bool, fn func(Entry) error) error {
	if structured {
		return decodeJSON(ctx, r, fn)
	}
	return decodeText(ctx, r, fn)
}

func decodeJSON(ctx context.Context, r io.Reader, fn func(Entry) error) error {
	br := bufio.NewReaderSize(r, 64<<10)
	// log prints a "Filtering the log data using ..." banner before the array.
	var first string
	for {
		line, err := br.ReadString('\n')
		if strings.HasPrefix(strings.TrimSpace(line), "[") {
			first = line
			break
		}
		if err != nil {
			return endOfStream(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	dec := json.NewDecoder(io.MultiReader(strings.NewReader(first), br))
	if _, err := dec.Token(); err != nil {
		return endOfStream(err)
	}
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var rec record
		if err := dec.Decode(&rec); err != nil {
			return endOfStream(err)
		}
		if err := fn(rec.entry()); err != nil {
			return err
		}
	}
	return nil
}

var (
	// 2024-05-01 10:11:12.123456-0700  0x1a2b  Default  0x0  123  0  MyApp: (UIKit) message
	compactLine = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{6}[-+]\d{4})\s+0x[0-9a-fA-F]+\s+(\w+)\s+0x[0-9a-fA-F]+\s+(\d+)\s+\d+\s+([^:]+):\s?(.*)$`)
	// May  1 10:11:12 iPhone MyApp(UIKitCore)[123] <Notice>: message
	syslogLine = regexp.MustCompile(`^(\w{3}\s+\d{1,2} \d{2}:\d{2}:\d{2})\s+\S+\s+([^\[(\s]+)(?:\(([^)]*)\))?\[(\d+)\]\s+<(\w+)>:\s?(.*)$`)
)

func decodeText(ctx context.Context, r io.Reader, fn func(Entry) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimRight(ansi.Strip(sc.Text()), "\r ")
		if strings.TrimSpace(line) == "" || isBanner(line) {
			continue
		}
		if err := fn(ParseLine(line)); err != nil {
			return err
		}
	}
	return endOfStream(sc.Err())
}

func isBanner(line string) bool {
	return strings.HasPrefix(line, "Filtering the log data") ||
		strings.HasPrefix(line, "Timestamp ")
}

// ParseLine decodes one line of unstructured log output. Lines that match
// no known shape become info entries carrying the whole line.
func ParseLine(line string) Entry {
	if m := compactLine.FindStringSubmatch(line); m != nil {
		e := Entry{Level: levelFromMessageType(m[2]), Process: strings.TrimSpace(m[4]), Message: m[5], Raw: line}
		e.PID, _ = strconv.Atoi(m[3])
		if ts, err := time.Parse(jsonTimeLayout, m[1]); err == nil {
			e.Time = ts
		}
		return e
	}
	if m := syslogLine.FindStringSubmatch(line); m != nil {
		e := Entry{Level: levelFromMessageType(m[5]), Process: m[2], Category: m[3], Message: m[6], Raw: line}
		e.PID, _ = strconv.Atoi(m[4])
		if ts, err := time.ParseInLocation(syslogTimeLayout, m[1], time.Local); err == nil {
			e.Time = ts.AddDate(time.Now().Year(), 0, 0)
		}
		return e
	}
	return Entry{Level: LevelInfo, Message: line, Raw: line}
}

func endOfStream(err error) error {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil
	}
	// The read end is closed when a listener is stopped mid-read.
	if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
