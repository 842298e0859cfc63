// Package commands implements the oscc-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oscc-protocol/oscc-go/pkg/can"
	"github.com/oscc-protocol/oscc-go/pkg/log"
	"github.com/oscc-protocol/oscc-go/pkg/wire"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer     *log.Layer
	Direction *log.Direction
	Category  *log.Category
	CANID     *uint32
}

func (f ViewFilter) matches(event log.Event) bool {
	if f.Layer != nil && event.Layer != *f.Layer {
		return false
	}
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.CANID != nil && (event.Frame == nil || event.Frame.ID != *f.CANID) {
		return false
	}
	return true
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if !filter.matches(event) {
			continue
		}
		formatEvent(output, event)
	}

	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id ch:N] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)

	var typeLabel string
	switch {
	case event.Frame != nil:
		typeLabel = frameLabel(event.Frame)
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [session:%s ch:%d] %-3s %s %s\n",
		ts, session, event.Channel, event.Direction, event.Layer, typeLabel)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenSessionID returns the first 8 characters of the session UUID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// frameLabel names the frame by its place in the protocol identifier
// table; traffic outside the table is vehicle OBD.
func frameLabel(frame *log.FrameEvent) string {
	if kind, ok := wire.ReportKindForID(frame.ID); ok {
		return kind.String() + " report"
	}
	switch frame.ID {
	case wire.BrakeCommandID, wire.SteeringCommandID, wire.ThrottleCommandID:
		return "Command"
	case wire.BrakeEnableID, wire.SteeringEnableID, wire.ThrottleEnableID:
		return "Enable"
	case wire.BrakeDisableID, wire.SteeringDisableID, wire.ThrottleDisableID:
		return "Disable"
	}
	return "OBD"
}

// formatFrameDetails writes the raw frame and, for protocol frames, the
// decoded payload.
func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  ID: 0x%03X  Len: %d\n", frame.ID, frame.Len)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s\n", hex.EncodeToString(frame.Data))
	}

	f, ok := frameEventToFrame(frame)
	if !ok {
		return
	}

	switch frame.ID {
	case wire.BrakeCommandID, wire.SteeringCommandID, wire.ThrottleCommandID:
		if cmd, err := wire.DecodeCommand(f); err == nil {
			fmt.Fprintf(w, "  %s = %.4f\n", cmd.Kind, cmd.Value)
		}
	case wire.BrakeReportID:
		if r, err := wire.DecodeBrakeReport(f); err == nil {
			formatModuleReport(w, "position", r.Position, r.Enabled, r.OperatorOverride, r.DTCs)
		}
	case wire.ThrottleReportID:
		if r, err := wire.DecodeThrottleReport(f); err == nil {
			formatModuleReport(w, "position", r.Position, r.Enabled, r.OperatorOverride, r.DTCs)
		}
	case wire.SteeringReportID:
		if r, err := wire.DecodeSteeringReport(f); err == nil {
			formatModuleReport(w, "angle", r.Angle, r.Enabled, r.OperatorOverride, r.DTCs)
		}
	case wire.FaultReportID:
		if r, err := wire.DecodeFaultReport(f); err == nil {
			fmt.Fprintf(w, "  Origin: %s  DTCs: 0x%04X\n", r.Origin, r.DTCs)
		}
	}
}

func formatModuleReport(w io.Writer, valueName string, value float64, enabled, override bool, dtcs uint16) {
	fmt.Fprintf(w, "  %s=%.4f enabled=%v override=%v", valueName, value, enabled, override)
	if dtcs != 0 {
		fmt.Fprintf(w, " DTCs=0x%04X", dtcs)
	}
	fmt.Fprintln(w)
}

// frameEventToFrame rebuilds a can.Frame from the logged event.
func frameEventToFrame(frame *log.FrameEvent) (can.Frame, bool) {
	if int(frame.Len) != len(frame.Data) || frame.Len > can.MaxDataLen {
		return can.Frame{}, false
	}
	f := can.Frame{ID: frame.ID, Len: frame.Len}
	copy(f.Data[:], frame.Data)
	return f, true
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEvent) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "channel":
		return log.LayerChannel, nil
	case "wire":
		return log.LayerWire, nil
	case "engine":
		return log.LayerEngine, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be channel, wire, or engine)", s)
	}
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "frame":
		return log.CategoryFrame, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be frame, state, or error)", s)
	}
}

// ParseCANIDFlag parses a CAN identifier from command-line flag.
// Accepts hex with or without a 0x prefix, or decimal.
func ParseCANIDFlag(s string) (uint32, error) {
	base := 10
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		s = s[2:]
		base = 16
	} else if strings.ContainsAny(s, "abcdefABCDEF") {
		base = 16
	}
	id, err := strconv.ParseUint(s, base, 32)
	if err != nil || id > can.MaxStdID {
		return 0, fmt.Errorf("invalid CAN identifier: %s", s)
	}
	return uint32(id), nil
}
