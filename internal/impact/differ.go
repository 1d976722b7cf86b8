package impact

import (
	"context"
	"fmt"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/darmiel/polsim/internal/core"
	"github.com/darmiel/polsim/internal/engine"
)

// PermittedWhy is reported for every transition to permitted.
// The matched rule's own reason is only surfaced for denials.
const PermittedWhy = "Permitted by new policy rule."

// Differ replays log entries through two policies and classifies decision changes.
type Differ struct {
	old     *engine.Engine
	new     *engine.Engine
	workers int
}

type Option func(*Differ)

// WithWorkers shards the log into n contiguous chunks evaluated concurrently.
// Values below 1 are treated as 1.
func WithWorkers(n int) Option {
	return func(d *Differ) {
		if n < 1 {
			n = 1
		}
		d.workers = n
	}
}

// New validates both policies and creates a Differ.
func New(oldPolicy, newPolicy core.Policy, opts ...Option) (*Differ, error) {
	oldEngine, err := engine.New(oldPolicy)
	if err != nil {
		return nil, fmt.Errorf("old policy: %w", err)
	}
	newEngine, err := engine.New(newPolicy)
	if err != nil {
		return nil, fmt.Errorf("new policy: %w", err)
	}
	d := &Differ{
		old:     oldEngine,
		new:     newEngine,
		workers: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Diff compares the outcome of every log entry under oldPolicy and newPolicy.
func Diff(oldPolicy, newPolicy core.Policy, entries []core.LogEntry) (*core.ImpactReport, error) {
	d, err := New(oldPolicy, newPolicy)
	if err != nil {
		return nil, err
	}
	return d.Diff(context.Background(), entries)
}

// outcome is the per-entry result of a replay.
type outcome struct {
	skipped    *core.SkippedEntry
	transition *core.Transition
}

// Diff replays the entries and builds the impact report.
// Cohorts list identities and transitions in log order, regardless of the worker count.
func (d *Differ) Diff(ctx context.Context, entries []core.LogEntry) (*core.ImpactReport, error) {
	runID := xid.New().String()
	logger := log.Ctx(ctx).With().Str("run_id", runID).Logger()

	outcomes := make([]outcome, len(entries))
	if err := d.replay(ctx, entries, outcomes); err != nil {
		return nil, err
	}

	report := core.NewImpactReport(runID)
	for _, o := range outcomes {
		switch {
		case o.skipped != nil:
			report.Skipped = append(report.Skipped, *o.skipped)
		case o.transition != nil:
			report.Evaluated++
			report.Record(*o.transition)
		default:
			report.Evaluated++
			report.Unchanged++
		}
	}

	logger.Debug().
		Int("entries", len(entries)).
		Int("evaluated", report.Evaluated).
		Int("unchanged", report.Unchanged).
		Int("skipped", len(report.Skipped)).
		Int("newly_denied", report.Denied.Count()).
		Int("newly_permitted", report.Permitted.Count()).
		Msg("replay complete")

	return report, nil
}

func (d *Differ) replay(ctx context.Context, entries []core.LogEntry, outcomes []outcome) error {
	if d.workers <= 1 || len(entries) < 2 {
		return d.replayRange(ctx, entries, outcomes, 0, len(entries))
	}

	chunk := (len(entries) + d.workers - 1) / d.workers
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(entries); start += chunk {
		start, end := start, min(start+chunk, len(entries))
		// each worker owns a disjoint range of outcomes
		g.Go(func() error {
			return d.replayRange(gctx, entries, outcomes, start, end)
		})
	}
	return g.Wait()
}

func (d *Differ) replayRange(ctx context.Context, entries []core.LogEntry, outcomes []outcome, start, end int) error {
	for i := start; i < end; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcomes[i] = d.compare(entries[i])
	}
	return nil
}

// compare evaluates a single entry against both policies.
func (d *Differ) compare(entry core.LogEntry) outcome {
	missing := entry.Request.Missing()
	if entry.Identity == "" {
		missing = append([]string{"identity"}, missing...)
	}
	if len(missing) > 0 {
		return outcome{skipped: &core.SkippedEntry{
			Line:     entry.Line,
			Identity: entry.Identity,
			Missing:  missing,
		}}
	}

	oldRes := d.old.Evaluate(entry.Request)
	newRes := d.new.Evaluate(entry.Request)
	if oldRes.Decision == newRes.Decision {
		// reason differences alone never count as a transition
		return outcome{}
	}

	why := PermittedWhy
	if newRes.Decision == core.Denied {
		why = newRes.Reason
	}

	return outcome{transition: &core.Transition{
		Identity:    entry.Identity,
		Resource:    entry.Request.Value(core.AttrResource),
		Action:      entry.Request.Value(core.AttrAction),
		OldDecision: oldRes.Decision,
		NewDecision: newRes.Decision,
		Change:      core.FormatChange(oldRes.Decision, newRes.Decision),
		Why:         why,
		Line:        entry.Line,
	}}
}
