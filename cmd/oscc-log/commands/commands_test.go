package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oscc-protocol/oscc-go/pkg/log"
	"github.com/oscc-protocol/oscc-go/pkg/wire"
)

// writeTestTrace builds a small trace with one command, one report, a
// gate transition and a decode error across two sessions.
func writeTestTrace(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.olog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	cmd, err := wire.EncodeCommand(wire.Command{Kind: wire.CommandBrakePosition, Value: 0.5})
	if err != nil {
		t.Fatalf("EncodeCommand failed: %v", err)
	}
	report, err := wire.EncodeBrakeReport(wire.BrakeReport{Position: 0.5, Enabled: true})
	if err != nil {
		t.Fatalf("EncodeBrakeReport failed: %v", err)
	}

	logger.Log(log.Event{
		Timestamp: base,
		SessionID: "aaaaaaaa-1111",
		Direction: log.DirectionOut,
		Layer:     log.LayerChannel,
		Category:  log.CategoryFrame,
		Frame:     &log.FrameEvent{ID: cmd.ID, Len: cmd.Len, Data: cmd.Payload()},
	})
	logger.Log(log.Event{
		Timestamp: base.Add(time.Millisecond),
		SessionID: "aaaaaaaa-1111",
		Direction: log.DirectionIn,
		Layer:     log.LayerChannel,
		Category:  log.CategoryFrame,
		Frame:     &log.FrameEvent{ID: report.ID, Len: report.Len, Data: report.Payload()},
	})
	logger.Log(log.Event{
		Timestamp: base.Add(2 * time.Millisecond),
		SessionID: "aaaaaaaa-1111",
		Layer:     log.LayerEngine,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.EntityGate,
			OldState: "DISABLED",
			NewState: "ENABLED",
		},
	})
	logger.Log(log.Event{
		Timestamp: base.Add(3 * time.Millisecond),
		SessionID: "bbbbbbbb-2222",
		Channel:   1,
		Direction: log.DirectionIn,
		Layer:     log.LayerWire,
		Category:  log.CategoryError,
		Error:     &log.ErrorEvent{Message: "malformed frame", Context: "decode"},
	})

	return path
}

func TestRunView(t *testing.T) {
	path := writeTestTrace(t)

	var out bytes.Buffer
	if err := RunView(path, ViewFilter{}, &out); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Command", "BRAKE_POSITION = 0.5",
		"BRAKE report", "position=0.5",
		"GATE", "DISABLED -> ENABLED",
		"malformed frame",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("view output missing %q\n%s", want, text)
		}
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := writeTestTrace(t)

	dir := log.DirectionIn
	cat := log.CategoryFrame
	var out bytes.Buffer
	if err := RunView(path, ViewFilter{Direction: &dir, Category: &cat}, &out); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "BRAKE report") {
		t.Errorf("filtered view missing inbound report\n%s", text)
	}
	if strings.Contains(text, "Command") || strings.Contains(text, "GATE") {
		t.Errorf("filtered view leaked non-matching events\n%s", text)
	}
}

func TestRunExportCSV(t *testing.T) {
	path := writeTestTrace(t)
	out := filepath.Join(t.TempDir(), "trace.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 { // header + 4 events
		t.Fatalf("CSV has %d lines, want 5:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "timestamp,session_id,channel") {
		t.Errorf("unexpected CSV header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "0x072") {
		t.Errorf("first row missing command identifier: %s", lines[1])
	}
}

func TestRunExportJSONL(t *testing.T) {
	path := writeTestTrace(t)
	out := filepath.Join(t.TempDir(), "trace.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("JSONL has %d lines, want 4", len(lines))
	}

	if err := RunExport(path, "xml", ""); err == nil {
		t.Error("RunExport accepted unknown format")
	}
}

func TestRunFilter(t *testing.T) {
	path := writeTestTrace(t)
	out := filepath.Join(t.TempDir(), "filtered.olog")

	opts := FilterOptions{
		Output:    out,
		SessionID: "aaaaaaaa-1111",
		Channel:   -1,
	}
	if err := RunFilter(path, opts); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	// The output is itself a readable trace holding only the matching
	// session.
	r, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	count := 0
	for {
		e, err := r.Next()
		if err != nil {
			break
		}
		if e.SessionID != "aaaaaaaa-1111" {
			t.Errorf("filtered trace contains session %q", e.SessionID)
		}
		count++
	}
	if count != 3 {
		t.Errorf("filtered trace has %d events, want 3", count)
	}
}

func TestRunStats(t *testing.T) {
	path := writeTestTrace(t)

	var out bytes.Buffer
	if err := RunStats(path, &out); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Total Events: 4",
		"Sessions: 2",
		"Errors: 1",
		"0x072",
		"0x073",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("stats output missing %q\n%s", want, text)
		}
	}
}

func TestParseCANIDFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"0x073", 0x073, false},
		{"073", 73, false},
		{"af", 0xAF, false},
		{"2015", 2015, false}, // decimal, within the 11-bit range
		{"0x800", 0, true},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseCANIDFlag(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCANIDFlag(%q) succeeded, want error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseCANIDFlag(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
