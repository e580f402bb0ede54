// Package runner drives a benchmark run through its lifecycle:
// disconnected, connected, running, verifying and finally reported or
// failed. Comparison selections expand into one measured leg per strategy
// against an identical baseline, and the report names the fastest leg.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/livinlefevreloca/bulkbench/internal/db"
	"github.com/livinlefevreloca/bulkbench/internal/generator"
	"github.com/livinlefevreloca/bulkbench/internal/insert"
	"github.com/livinlefevreloca/bulkbench/internal/progress"
	"github.com/livinlefevreloca/bulkbench/internal/update"
	"github.com/livinlefevreloca/bulkbench/internal/verify"
)

// Workload modes.
const (
	ModeInsert = "insert"
	ModeUpdate = "update"
	ModeFull   = "full" // insert phase followed by update phase
)

// StrategyCompare selects every strategy of a phase, run back to back.
const StrategyCompare = "compare"

const (
	phaseInsert = "insert"
	phaseUpdate = "update"
)

// Standard errors
var (
	ErrConnection     = errors.New("runner: database connection failed")
	ErrBatchExecution = errors.New("runner: batch execution failed")
)

var insertStrategies = []string{insert.StrategyParameterized, insert.StrategyStreaming}
var updateStrategies = []string{update.StrategyRange, update.StrategyKeyed, update.StrategyStagingJoin}

// Config holds the workload configuration for a run.
type Config struct {
	Mode            string `toml:"mode"`
	InsertStrategy  string `toml:"insert_strategy"`
	UpdateStrategy  string `toml:"update_strategy"`
	TotalRecords    int    `toml:"total_records"`
	InsertBatchSize int    `toml:"insert_batch_size"`
	UpdateBatchSize int    `toml:"update_batch_size"`
	LimitRows       int64  `toml:"limit_rows"`
	ResetTable      bool   `toml:"reset_table"`
	Seed            int64  `toml:"seed"`
}

// DefaultConfig returns the default workload configuration.
func DefaultConfig() Config {
	return Config{
		Mode:            ModeInsert,
		InsertStrategy:  insert.StrategyStreaming,
		UpdateStrategy:  update.StrategyRange,
		TotalRecords:    1000000,
		InsertBatchSize: 10000,
		UpdateBatchSize: 5000,
		LimitRows:       0,
		ResetTable:      true,
		Seed:            0,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeInsert, ModeUpdate, ModeFull:
	default:
		return fmt.Errorf("invalid mode: %s", c.Mode)
	}

	// Update-mode runs that reset or compare reseed their baseline with the
	// insert knobs, so those still need to hold.
	needsInsert := c.Mode != ModeUpdate ||
		c.ResetTable || c.UpdateStrategy == StrategyCompare

	if c.Mode != ModeUpdate {
		if !validStrategy(c.InsertStrategy, insertStrategies) {
			return fmt.Errorf("invalid insert strategy: %s", c.InsertStrategy)
		}
	}
	if needsInsert {
		if c.TotalRecords <= 0 {
			return fmt.Errorf("total_records must be positive, got %d", c.TotalRecords)
		}
		if c.InsertBatchSize <= 0 {
			return fmt.Errorf("insert_batch_size must be positive, got %d", c.InsertBatchSize)
		}
	}
	if c.Mode != ModeInsert {
		if !validStrategy(c.UpdateStrategy, updateStrategies) {
			return fmt.Errorf("invalid update strategy: %s", c.UpdateStrategy)
		}
		if c.UpdateBatchSize <= 0 {
			return fmt.Errorf("update_batch_size must be positive, got %d", c.UpdateBatchSize)
		}
	}
	if c.Mode == ModeFull {
		// A full run times updates against rows its own insert phase wrote;
		// comparison legs would re-measure updates over already-updated rows.
		if c.InsertStrategy == StrategyCompare || c.UpdateStrategy == StrategyCompare {
			return fmt.Errorf("mode %s does not support strategy comparison", ModeFull)
		}
	}
	if c.comparing() && !c.ResetTable {
		// Compared strategies must measure identical baselines, which append
		// mode cannot provide.
		return fmt.Errorf("strategy comparison requires reset_table")
	}
	if c.LimitRows < 0 {
		return fmt.Errorf("limit_rows must not be negative, got %d", c.LimitRows)
	}

	return nil
}

// comparing reports whether any phase of this mode expands into multiple
// measured legs.
func (c *Config) comparing() bool {
	return (c.Mode != ModeUpdate && c.InsertStrategy == StrategyCompare) ||
		(c.Mode != ModeInsert && c.UpdateStrategy == StrategyCompare)
}

func validStrategy(sel string, all []string) bool {
	if sel == StrategyCompare {
		return true
	}
	for _, s := range all {
		if sel == s {
			return true
		}
	}
	return false
}

// leg is one measured strategy execution.
type leg struct {
	phase    string
	strategy string
}

// legOutcome carries a finished leg into the verifying state.
type legOutcome struct {
	leg      leg
	summary  progress.Summary
	expected int64 // insert: expected total row count
	minID    int64 // update: measured interval
	maxID    int64
}

// Runner executes one benchmark run.
type Runner struct {
	runID  string
	cfg    Config
	dbCfg  db.Config
	logger *slog.Logger

	// State management
	state  State
	timing RunTiming

	database *db.DB
	ownsDB   bool

	legs     []leg
	legIndex int
	pending  *legOutcome
	results  []StrategyResult
	report   *Report
	err      error

	// Optional state recorder for testing
	recorder *StateRecorder
}

// NewRunner creates a runner that opens its own database connection.
func NewRunner(cfg Config, dbCfg db.Config, logger *slog.Logger) *Runner {
	return &Runner{
		runID:  uuid.NewString(),
		cfg:    cfg,
		dbCfg:  dbCfg,
		logger: logger,
		state:  &DisconnectedState{},
		timing: RunTiming{CreatedAt: time.Now()},
	}
}

// newRunnerWithDB creates a runner over an existing connection. The caller
// keeps ownership of the connection.
func newRunnerWithDB(cfg Config, database *db.DB, logger *slog.Logger) *Runner {
	r := NewRunner(cfg, db.Config{}, logger)
	r.database = database
	return r
}

// GetStateName returns the current state name (for testing)
func (r *Runner) GetStateName() string {
	return r.state.Name()
}

// transitionTo performs a state transition and logs it
func (r *Runner) transitionTo(newState State) {
	oldStateName := r.state.Name()
	r.state = newState

	if r.recorder != nil {
		r.recorder.Record(newState)
	}

	r.logger.Info("state transition",
		"from", oldStateName,
		"to", newState.Name(),
		"runID", r.runID)
}

func (r *Runner) fail(state *FailedState, err error) {
	r.err = err
	r.transitionTo(state)
}

// Run executes the benchmark to a terminal state and returns the report.
// A verification mismatch does not abort the run; it is recorded on the
// report with OK unset.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	defer func() {
		if r.ownsDB && r.database != nil {
			r.database.Close()
		}
	}()

	for {
		switch r.state.(type) {
		case *DisconnectedState:
			r.runDisconnected(ctx)
		case *ConnectedState:
			r.runConnected(ctx)
		case *RunningState:
			r.runRunning(ctx)
		case *VerifyingState:
			r.runVerifying(ctx)
		case *ReportedState:
			r.runReported()
			return r.report, nil
		case *FailedState:
			r.runFailed()
			return r.report, r.err
		default:
			return nil, fmt.Errorf("unknown state type %T", r.state)
		}
	}
}

// runDisconnected establishes and verifies the database session.
func (r *Runner) runDisconnected(ctx context.Context) {
	state := r.state.(*DisconnectedState)

	if r.database == nil {
		database, err := db.OpenWithConfig(r.dbCfg)
		if err != nil {
			r.fail(state.ToFailed(), fmt.Errorf("%w: %v", ErrConnection, err))
			return
		}
		r.database = database
		r.ownsDB = true
	}

	if err := r.database.PingContext(ctx); err != nil {
		r.fail(state.ToFailed(), fmt.Errorf("%w: %v", ErrConnection, err))
		return
	}

	r.timing.ConnectedAt = time.Now()
	r.transitionTo(state.ToConnected())
}

// runConnected validates the workload and plans the strategy legs for the
// configured mode.
func (r *Runner) runConnected(ctx context.Context) {
	state := r.state.(*ConnectedState)

	if err := r.cfg.Validate(); err != nil {
		r.fail(state.ToFailed(), err)
		return
	}

	if r.cfg.Mode == ModeInsert || r.cfg.Mode == ModeFull {
		for _, s := range expandStrategies(r.cfg.InsertStrategy, insertStrategies) {
			r.legs = append(r.legs, leg{phase: phaseInsert, strategy: s})
		}
	}
	if r.cfg.Mode == ModeUpdate || r.cfg.Mode == ModeFull {
		for _, s := range expandStrategies(r.cfg.UpdateStrategy, updateStrategies) {
			r.legs = append(r.legs, leg{phase: phaseUpdate, strategy: s})
		}
	}

	r.timing.StartedAt = time.Now()
	r.logger.Info("run starting",
		"runID", r.runID,
		"mode", r.cfg.Mode,
		"legs", len(r.legs),
		"driver", r.database.Driver())
	r.transitionTo(state.ToRunning())
}

func expandStrategies(sel string, all []string) []string {
	if sel == StrategyCompare {
		return all
	}
	return []string{sel}
}

// runRunning executes the current leg.
func (r *Runner) runRunning(ctx context.Context) {
	state := r.state.(*RunningState)
	current := r.legs[r.legIndex]

	var err error
	switch current.phase {
	case phaseInsert:
		err = r.runInsertLeg(ctx, current)
	case phaseUpdate:
		err = r.runUpdateLeg(ctx, current)
	}
	if err != nil {
		r.fail(state.ToFailed(), fmt.Errorf("%w: %w", ErrBatchExecution, err))
		return
	}

	r.transitionTo(state.ToVerifying())
}

func (r *Runner) runInsertLeg(ctx context.Context, current leg) error {
	if r.cfg.ResetTable {
		if err := r.database.ResetTarget(ctx); err != nil {
			return fmt.Errorf("failed to reset target relation: %w", err)
		}
	} else if err := r.database.EnsureTarget(ctx); err != nil {
		return fmt.Errorf("failed to ensure target relation: %w", err)
	}

	preCount, err := r.database.CountRows(ctx)
	if err != nil {
		return fmt.Errorf("failed to count existing rows: %w", err)
	}

	writer, err := r.insertWriter(current.strategy)
	if err != nil {
		return err
	}

	r.logger.Info("insert leg starting",
		"runID", r.runID,
		"strategy", current.strategy,
		"records", r.cfg.TotalRecords,
		"batch_size", r.cfg.InsertBatchSize)

	summary, err := writer.Write(ctx, r.cfg.TotalRecords)
	if err != nil {
		return err
	}

	r.pending = &legOutcome{
		leg:      current,
		summary:  summary,
		expected: preCount + int64(r.cfg.TotalRecords),
	}
	return nil
}

func (r *Runner) runUpdateLeg(ctx context.Context, current leg) error {
	// Comparison legs and reset runs get a freshly seeded baseline so every
	// strategy mutates identical data. The seeding insert is not measured.
	if r.cfg.Mode == ModeUpdate && (r.cfg.ResetTable || r.cfg.UpdateStrategy == StrategyCompare) {
		if err := r.seedBaseline(ctx); err != nil {
			return err
		}
	}

	minID, maxID, err := r.database.IDRange(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve id range: %w", err)
	}
	if r.cfg.LimitRows > 0 && minID+r.cfg.LimitRows-1 < maxID {
		maxID = minID + r.cfg.LimitRows - 1
	}

	updater := r.updater(current.strategy)

	r.logger.Info("update leg starting",
		"runID", r.runID,
		"strategy", current.strategy,
		"min_id", minID,
		"max_id", maxID,
		"batch_size", r.cfg.UpdateBatchSize)

	summary, err := updater.Update(ctx, minID, maxID)
	if err != nil {
		return err
	}

	r.pending = &legOutcome{
		leg:     current,
		summary: summary,
		minID:   minID,
		maxID:   maxID,
	}
	return nil
}

// seedBaseline resets the target relation and fills it with TotalRecords
// rows using the parameterized writer.
func (r *Runner) seedBaseline(ctx context.Context) error {
	if err := r.database.ResetTarget(ctx); err != nil {
		return fmt.Errorf("failed to reset target relation: %w", err)
	}

	r.logger.Info("seeding update baseline",
		"runID", r.runID,
		"records", r.cfg.TotalRecords)

	seeder := insert.NewParameterizedBatch(
		r.database, generator.New(r.cfg.Seed), r.cfg.InsertBatchSize, r.logger)
	if _, err := seeder.Write(ctx, r.cfg.TotalRecords); err != nil {
		return fmt.Errorf("failed to seed update baseline: %w", err)
	}
	return nil
}

// insertWriter builds the writer for a leg. Each leg gets a fresh generator
// seeded from the config, so compared strategies write identical records
// when the seed is fixed.
func (r *Runner) insertWriter(strategy string) (insert.BulkWriter, error) {
	gen := generator.New(r.cfg.Seed)
	switch strategy {
	case insert.StrategyParameterized:
		return insert.NewParameterizedBatch(r.database, gen, r.cfg.InsertBatchSize, r.logger), nil
	case insert.StrategyStreaming:
		return insert.NewStreamingCopy(r.database, gen, r.cfg.InsertBatchSize, r.logger), nil
	default:
		return nil, fmt.Errorf("invalid insert strategy: %s", strategy)
	}
}

func (r *Runner) updater(strategy string) update.Updater {
	gen := generator.New(r.cfg.Seed)
	switch strategy {
	case update.StrategyKeyed:
		return update.NewKeyedBatch(r.database, gen, r.cfg.UpdateBatchSize, r.logger)
	case update.StrategyStagingJoin:
		return update.NewStagingJoin(r.database, gen, r.cfg.UpdateBatchSize, r.logger)
	default:
		return update.NewRangeScan(r.database, gen, r.cfg.UpdateBatchSize, r.logger)
	}
}

// runVerifying checks the finished leg and records its result.
func (r *Runner) runVerifying(ctx context.Context) {
	state := r.state.(*VerifyingState)
	outcome := r.pending
	r.pending = nil

	var res verify.Result
	var err error
	switch outcome.leg.phase {
	case phaseInsert:
		res, err = verify.Inserts(ctx, r.database, outcome.expected)
	case phaseUpdate:
		res, err = verify.Updates(ctx, r.database, outcome.minID, outcome.maxID, int64(outcome.summary.Processed))
	}
	if err != nil {
		r.fail(state.ToFailed(), err)
		return
	}

	if !res.OK {
		r.logger.Warn("verification mismatch",
			"runID", r.runID,
			"phase", outcome.leg.phase,
			"strategy", outcome.leg.strategy,
			"detail", res.Detail)
	}

	r.results = append(r.results, StrategyResult{
		Phase:        outcome.leg.phase,
		Strategy:     outcome.leg.strategy,
		Rows:         int64(outcome.summary.Processed),
		Elapsed:      outcome.summary.Elapsed,
		Rate:         outcome.summary.Rate,
		Verification: res,
	})

	r.legIndex++
	if r.legIndex < len(r.legs) {
		r.transitionTo(state.ToRunning())
		return
	}

	r.timing.FinishedAt = time.Now()
	r.report = r.buildReport()
	r.transitionTo(state.ToReported())
}

// runReported handles successful completion.
func (r *Runner) runReported() {
	r.logger.Info("run reported",
		"runID", r.runID,
		"elapsed", r.timing.FinishedAt.Sub(r.timing.StartedAt),
		"ok", r.report.OK)
}

// runFailed handles failure.
func (r *Runner) runFailed() {
	r.logger.Error("run failed",
		"runID", r.runID,
		"error", r.err)
}
