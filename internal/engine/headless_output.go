package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pengelbrecht/aptitude/internal/countdown"
)

// HeadlessOutput formats countdown events for headless mode.
// Supports both human-readable (default) and JSON Lines formats.
type HeadlessOutput struct {
	jsonl       bool
	writer      io.Writer
	reportEvery int
	label       string
}

// NewHeadlessOutput creates a new headless output formatter.
// reportEvery controls how often tick lines are emitted, in seconds; values
// below 1 report every tick. The final tick is always reported.
func NewHeadlessOutput(jsonl bool, reportEvery int) *HeadlessOutput {
	if reportEvery < 1 {
		reportEvery = 1
	}
	return &HeadlessOutput{
		jsonl:       jsonl,
		writer:      os.Stdout,
		reportEvery: reportEvery,
	}
}

// SetWriter sets a custom writer (mainly for testing).
func (h *HeadlessOutput) SetWriter(w io.Writer) {
	h.writer = w
}

// Attach wires the formatter to an engine's callbacks.
func (h *HeadlessOutput) Attach(e *Engine) {
	e.OnStart = h.Start
	e.OnTick = h.Tick
	e.OnThreshold = h.Threshold
	e.OnEnd = h.Complete
}

// Start outputs the start of a countdown.
func (h *HeadlessOutput) Start(cfg RunConfig, snap countdown.Snapshot) {
	h.label = cfg.Label
	if h.jsonl {
		h.writeJSON(map[string]interface{}{
			"type":      "start",
			"total":     snap.Total,
			"remaining": snap.Remaining,
			"clock":     snap.Formatted,
		})
	} else {
		fmt.Fprintf(h.writer, "[START] %s: %s (%ds)\n", h.label, snap.Formatted, snap.Total)
	}
}

// Tick outputs a countdown tick, subject to the report interval.
func (h *HeadlessOutput) Tick(snap countdown.Snapshot) {
	if snap.Remaining != 0 && snap.Remaining%h.reportEvery != 0 {
		return
	}
	if h.jsonl {
		h.writeJSON(map[string]interface{}{
			"type":      "tick",
			"remaining": snap.Remaining,
			"clock":     snap.Formatted,
			"progress":  snap.Progress,
			"urgency":   snap.Urgency().String(),
		})
	} else {
		fmt.Fprintf(h.writer, "[TICK] %s %3.0f%%\n", snap.Formatted, snap.Progress*100)
	}
}

// Threshold outputs a warning or critical crossing.
func (h *HeadlessOutput) Threshold(level countdown.Urgency, snap countdown.Snapshot) {
	if h.jsonl {
		h.writeJSON(map[string]interface{}{
			"type":      level.String(),
			"remaining": snap.Remaining,
			"clock":     snap.Formatted,
		})
	} else {
		tag := "WARNING"
		if level == countdown.UrgencyCritical {
			tag = "CRITICAL"
		}
		fmt.Fprintf(h.writer, "[%s] %s remaining\n", tag, snap.Formatted)
	}
}

// Complete outputs the final summary.
func (h *HeadlessOutput) Complete(result *RunResult) {
	if h.jsonl {
		h.writeJSON(map[string]interface{}{
			"type":        "complete",
			"state":       result.Final.State.String(),
			"remaining":   result.Final.Remaining,
			"duration_ms": result.Duration.Milliseconds(),
			"exit_reason": result.ExitReason,
		})
		return
	}

	switch result.Final.State {
	case countdown.Expired:
		fmt.Fprintf(h.writer, "[EXPIRED] %s finished after %v\n", result.Label, result.Duration.Round(1000000000))
	default:
		fmt.Fprintf(h.writer, "[CANCELLED] %s stopped with %s remaining\n", result.Label, result.Final.Formatted)
	}
}

// Error outputs an error message.
func (h *HeadlessOutput) Error(err error) {
	if h.jsonl {
		h.writeJSON(map[string]interface{}{
			"type":  "error",
			"error": err.Error(),
		})
	} else {
		fmt.Fprintf(h.writer, "[ERROR] %s\n", err.Error())
	}
}

// writeJSON writes a JSON object as a single line.
func (h *HeadlessOutput) writeJSON(data map[string]interface{}) {
	if h.label != "" {
		data["label"] = h.label
	}
	b, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintln(h.writer, string(b))
}
