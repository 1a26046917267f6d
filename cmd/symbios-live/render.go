// ABOUTME: Terminal rendering of session updates
// ABOUTME: Prints phase changes and one compact block per simulation step

package main

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/symbios-live/internal/history"
	"github.com/2389/symbios-live/internal/live"
	"github.com/2389/symbios-live/internal/session"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

type renderer struct {
	w         io.Writer
	phase     live.Phase
	step      int
	hasStep   bool
	exhausted bool
}

func newRenderer(w io.Writer) *renderer {
	return &renderer{w: w, phase: live.PhaseIdle}
}

// Render prints whatever changed since the previous update.
func (r *renderer) Render(u session.Update) {
	if u.Phase != r.phase {
		r.phase = u.Phase
		fmt.Fprintln(r.w, phaseLine(u))
	}

	if u.Exhausted && !r.exhausted {
		fmt.Fprintln(r.w, color.New(color.FgRed, color.Bold).Sprint("    ✗ reconnect attempts exhausted; /reconnect to try again"))
	}
	r.exhausted = u.Exhausted

	snap := u.Snapshot
	if snap == nil {
		r.hasStep = false
		return
	}
	if r.hasStep && snap.Step == r.step {
		return
	}
	r.step = snap.Step
	r.hasStep = true
	r.renderStep(snap)
}

func phaseLine(u session.Update) string {
	var c *color.Color
	switch u.Phase {
	case live.PhaseOpen:
		c = color.New(color.FgGreen)
	case live.PhaseConnecting:
		c = color.New(color.FgYellow)
	case live.PhaseFailed:
		c = color.New(color.FgRed)
	default:
		c = color.New(color.FgHiBlack)
	}

	line := c.Sprint("    ● ") + u.Phase.String()
	if u.Phase == live.PhaseConnecting && u.Attempt > 0 {
		line += color.HiBlackString(fmt.Sprintf(" (retry %d)", u.Attempt))
	}
	return line
}

func (r *renderer) renderStep(s *live.Snapshot) {
	header := color.New(color.FgCyan, color.Bold).Sprintf("step %d", s.Step)
	mean := live.MeanReward(s.Rewards)
	header += fmt.Sprintf("  mean reward %.3f", mean)
	if s.EpisodeDone {
		header += color.YellowString("  [episode done]")
	}
	fmt.Fprintln(r.w, header)

	for _, a := range s.Agents {
		line := fmt.Sprintf("  %-12s cash %10.2f  rep %.2f  reward %7.3f",
			a.DisplayName, a.Cash, a.Reputation, s.Rewards[a.ID])
		if s.Disrupted(a.ID) {
			line += " " + color.New(color.FgRed, color.Bold).Sprint("DISRUPTED")
		}
		fmt.Fprintln(r.w, line)
	}

	if len(s.History) > 1 {
		fmt.Fprintf(r.w, "  %s %s\n", color.HiBlackString("history"), sparkline(s.History))
	}
	if s.Narration != "" {
		fmt.Fprintln(r.w, color.HiBlackString("  "+s.Narration))
	}
}

// sparkline draws one block per sample scaled between the series min and max.
func sparkline(samples []history.Sample) string {
	if len(samples) == 0 {
		return ""
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.MeanReward
	}
	lo, hi := slices.Min(values), slices.Max(values)
	span := hi - lo

	var b strings.Builder
	top := len(sparkBlocks) - 1
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int(math.Round((v - lo) / span * float64(top)))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

func statusLine(u session.Update) string {
	var b strings.Builder
	b.WriteString(u.Phase.String())
	if u.Snapshot != nil {
		fmt.Fprintf(&b, ", step %d, %d samples", u.Snapshot.Step, len(u.Snapshot.History))
	}
	if u.Playing {
		b.WriteString(", playing")
	}
	if u.Attempt > 0 {
		fmt.Fprintf(&b, ", retry %d", u.Attempt)
	}
	if u.Exhausted {
		b.WriteString(", retries exhausted")
	}
	return b.String()
}
