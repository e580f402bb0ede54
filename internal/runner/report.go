package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/livinlefevreloca/bulkbench/internal/verify"
)

// StrategyResult is one measured leg of a run.
type StrategyResult struct {
	Phase        string
	Strategy     string
	Rows         int64
	Elapsed      time.Duration
	Rate         float64
	Verification verify.Result
}

// Report is the printed artifact of a run. Winners are only named for
// phases that measured more than one strategy; ties go to the leg that ran
// first.
type Report struct {
	RunID      string
	Mode       string
	Results    []StrategyResult
	Winners    map[string]string // phase -> winning strategy
	OK         bool
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *Runner) buildReport() *Report {
	report := &Report{
		RunID:      r.runID,
		Mode:       r.cfg.Mode,
		Results:    r.results,
		Winners:    make(map[string]string),
		OK:         true,
		StartedAt:  r.timing.StartedAt,
		FinishedAt: r.timing.FinishedAt,
	}

	byPhase := make(map[string][]StrategyResult)
	for _, res := range r.results {
		if !res.Verification.OK {
			report.OK = false
		}
		byPhase[res.Phase] = append(byPhase[res.Phase], res)
	}

	for phase, results := range byPhase {
		if len(results) < 2 {
			continue
		}
		winner := results[0]
		for _, res := range results[1:] {
			if res.Elapsed < winner.Elapsed {
				winner = res
			}
		}
		report.Winners[phase] = winner.Strategy
	}

	return report
}

// Format renders the report for the terminal.
func (r *Report) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "run %s (mode %s) finished in %s\n",
		r.RunID, r.Mode, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	for _, res := range r.Results {
		status := "ok"
		if !res.Verification.OK {
			status = "FAILED: " + res.Verification.Detail
		}
		fmt.Fprintf(&b, "  %-6s %-13s %10d rows  %12s  %12.0f rows/sec  verify %s\n",
			res.Phase, res.Strategy, res.Rows,
			res.Elapsed.Round(time.Millisecond), res.Rate, status)
	}

	for _, phase := range []string{phaseInsert, phaseUpdate} {
		if winner, ok := r.Winners[phase]; ok {
			fmt.Fprintf(&b, "  fastest %s strategy: %s\n", phase, winner)
		}
	}

	return b.String()
}
