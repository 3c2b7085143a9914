package logstream

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const jsonStream = `Filtering the log data using "senderImagePath CONTAINS "Containers""
[{
  "traceID" : 4469701,
  "eventMessage" : "viewDidLoad",
  "eventType" : "logEvent",
  "subsystem" : "com.example.app",
  "category" : "ui",
  "threadID" : 991,
  "processImagePath" : "\/Users\/me\/Library\/Developer\/CoreSimulator\/Devices\/X\/data\/Containers\/Bundle\/Application\/Y\/Example.app\/Example",
  "timestamp" : "2024-05-01 10:11:12.123456-0700",
  "messageType" : "Error",
  "processID" : 4242
},{
  "eventMessage" : "multi\nline",
  "processImagePath" : "\/bin\/Other",
  "timestamp" : "2024-05-01 10:11:13.000001-0700",
  "messageType" : "Fault",
  "processID" : 7
},{
  "eventMessage" : "truncat`

func collect(t *testing.T, in string, structured bool) []Entry {
	t.Helper()
	var got []Entry
	err := Decode(context.Background(), strings.NewReader(in), structured, func(e Entry) error {
		got = append(got, e)
		return nil
	})
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return got
}

func TestDecodeJSONStream(t *testing.T) {
	got := collect(t, jsonStream, true)
	if len(got) != 2 {
		t.Fatalf("expected 2 complete entries, got %d: %+v", len(got), got)
	}
	first := got[0]
	if first.Message != "viewDidLoad" || first.Process != "Example" || first.PID != 4242 || first.TID != 991 {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.Level != LevelError || first.Subsystem != "com.example.app" || first.Category != "ui" {
		t.Fatalf("unexpected first entry metadata: %+v", first)
	}
	want := time.Date(2024, 5, 1, 17, 11, 12, 123456000, time.UTC)
	if !first.Time.Equal(want) {
		t.Fatalf("unexpected time: got %v, want %v", first.Time, want)
	}
	if got[1].Level != LevelFatal || got[1].Message != "multi\nline" {
		t.Fatalf("unexpected second entry: %+v", got[1])
	}
}

func TestDecodeJSONWithoutArray(t *testing.T) {
	if got := collect(t, "Filtering the log data\n", true); len(got) != 0 {
		t.Fatalf("expected no entries, got %v", got)
	}
}

func TestDecodeStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := Decode(context.Background(), strings.NewReader(jsonStream), true, func(Entry) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("expected to stop after first entry, got err=%v calls=%d", err, calls)
	}
}

func TestDecodeHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Decode(ctx, strings.NewReader("a\nb\n"), false, func(Entry) error {
		t.Fatalf("no entry expected after cancel")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDecodeText(t *testing.T) {
	in := strings.Join([]string{
		"Filtering the log data using \"x\"",
		"Timestamp                       Thread     Type        Activity             PID    TTL",
		"2024-05-01 10:11:12.123456-0700  0x1a2b     Default     0x0                  123    0    Example: (UIKitCore) hello world",
		"May  1 10:11:12 iPhone Example(CFNetwork)[321] <Notice>: connection ready",
		"\x1b[31mplain red text\x1b[0m",
		"",
	}, "\n")
	got := collect(t, in, false)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(got), got)
	}
	if got[0].Process != "Example" || got[0].PID != 123 || got[0].Level != LevelDebug || got[0].Message != "(UIKitCore) hello world" {
		t.Fatalf("unexpected compact entry: %+v", got[0])
	}
	if got[1].Process != "Example" || got[1].Category != "CFNetwork" || got[1].PID != 321 || got[1].Level != LevelVerbose {
		t.Fatalf("unexpected syslog entry: %+v", got[1])
	}
	if got[1].Time.Hour() != 10 || got[1].Time.Month() != time.May {
		t.Fatalf("unexpected syslog time: %v", got[1].Time)
	}
	if got[2].Message != "plain red text" || got[2].Level != LevelInfo {
		t.Fatalf("expected ANSI stripped fallback entry, got %+v", got[2])
	}
}

func TestLevelOrdering(t *testing.T) {
	if !LevelError.AtLeast(LevelWarn) || LevelDebug.AtLeast(LevelInfo) {
		t.Fatalf("unexpected level ordering")
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if l, err := ParseLevel(" WARN "); err != nil || l != LevelWarn {
		t.Fatalf("ParseLevel(WARN) = %v, %v", l, err)
	}
}

func TestEntryFormat(t *testing.T) {
	e := Entry{
		Time:    time.Date(2024, 5, 1, 10, 11, 12, 5000000, time.UTC),
		Level:   LevelWarn,
		Process: "AVeryLongProcessNameThatOverflows",
		PID:     9,
		Message: "a\nb",
	}
	got := e.Format()
	if !strings.HasPrefix(got, "10:11:12.005 WARN ") {
		t.Fatalf("unexpected prefix: %q", got)
	}
	if !strings.Contains(got, "…") || !strings.HasSuffix(got, "a ⏎ b") {
		t.Fatalf("unexpected formatting: %q", got)
	}
}
