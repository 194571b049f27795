// Package dispatch runs provider searches under per-source and per-batch deadlines.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/normalize"
	"github.com/lehigh-university-libraries/bookmeta/internal/providers"
)

const (
	DefaultSourceTimeout = 30 * time.Second
	DefaultBatchTimeout  = 45 * time.Second
)

// ErrSourceTimeout marks a source abandoned after its budget (or the batch deadline) ran out
var ErrSourceTimeout = errors.New("source timed out")

// PanicError carries a panic recovered from a source's Search
type PanicError struct {
	Source string
	Value  any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("source %s panicked: %v", e.Source, e.Value)
}

// State is the lifecycle position of one source call within a dispatch
type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateTimedOut
	StateErrored
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON and YAML output
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names MarshalText produces
func (s *State) UnmarshalText(text []byte) error {
	for candidate := StatePending; candidate <= StateErrored; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown dispatch state %q", text)
}

// Outcome is the terminal record of one source call
type Outcome struct {
	Source  string        `json:"source" yaml:"source"`
	State   State         `json:"state" yaml:"state"`
	Records int           `json:"records" yaml:"records"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	Err     error         `json:"-" yaml:"-"`
}

// Result is everything one dispatch produced
type Result struct {
	ID       string              `json:"id" yaml:"id"`
	Records  []models.MetaRecord `json:"records" yaml:"records"`
	Outcomes []Outcome           `json:"outcomes" yaml:"outcomes"`
}

// Request carries the per-call Search arguments
type Request struct {
	Query        string
	GenericCover string
	Locale       string
}

// Dispatcher fans searches out to providers. The zero value uses the default budgets.
type Dispatcher struct {
	SourceTimeout time.Duration
	BatchTimeout  time.Duration
}

// New returns a dispatcher; non-positive durations fall back to the defaults
func New(sourceTimeout, batchTimeout time.Duration) *Dispatcher {
	return &Dispatcher{SourceTimeout: sourceTimeout, BatchTimeout: batchTimeout}
}

func (d *Dispatcher) sourceTimeout() time.Duration {
	if d == nil || d.SourceTimeout <= 0 {
		return DefaultSourceTimeout
	}
	return d.SourceTimeout
}

func (d *Dispatcher) batchTimeout() time.Duration {
	if d == nil || d.BatchTimeout <= 0 {
		return DefaultBatchTimeout
	}
	return d.BatchTimeout
}

// Explore queries every provider in parallel and returns all usable candidates.
// Candidates from one source keep that source's order; sources appear in
// completion order. Sources still running when the batch deadline passes are
// abandoned.
func (d *Dispatcher) Explore(ctx context.Context, plan []providers.Provider, req Request) Result {
	result := Result{ID: uuid.NewString(), Outcomes: make([]Outcome, len(plan))}
	if len(plan) == 0 {
		return result
	}

	batchCtx, cancel := context.WithTimeout(ctx, d.batchTimeout())
	defer cancel()

	logger := slog.With("dispatch_id", result.ID, "mode", "explore")
	logger.Debug("Dispatching search", "query", req.Query, "sources", len(plan))

	type reply struct {
		idx     int
		outcome Outcome
		records []models.MetaRecord
	}
	replies := make(chan reply, len(plan))

	for i, p := range plan {
		result.Outcomes[i] = Outcome{Source: p.Info().ID, State: StatePending}
		go func(idx int, p providers.Provider) {
			outcome, records := d.run(batchCtx, logger, p, req)
			replies <- reply{idx: idx, outcome: outcome, records: records}
		}(i, p)
	}

	for range plan {
		r := <-replies
		result.Outcomes[r.idx] = r.outcome
		result.Records = append(result.Records, r.records...)
	}

	logger.Info("Search finished", "query", req.Query, "candidates", len(result.Records))
	return result
}

// Auto tries providers one at a time in plan order and stops at the first one that
// returns a usable record. Each source gets its own budget; there is no batch deadline.
func (d *Dispatcher) Auto(ctx context.Context, plan []providers.Provider, req Request) (Result, bool) {
	result := Result{ID: uuid.NewString()}
	logger := slog.With("dispatch_id", result.ID, "mode", "auto")
	logger.Debug("Dispatching search", "query", req.Query, "sources", len(plan))

	for _, p := range plan {
		if ctx.Err() != nil {
			break
		}
		outcome, records := d.run(ctx, logger, p, req)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.State == StateCompleted && len(records) > 0 {
			result.Records = records
			logger.Info("Auto search matched", "query", req.Query, "source", outcome.Source, "candidates", len(records))
			return result, true
		}
	}

	logger.Info("Auto search found nothing", "query", req.Query, "tried", len(result.Outcomes))
	return result, false
}

type searchReply struct {
	records []models.MetaRecord
	err     error
}

// run executes one Search under its own timeout. The Search goroutine is not
// waited for once the deadline passes; an uncooperative source leaks until it
// returns, and its late result is dropped.
func (d *Dispatcher) run(ctx context.Context, logger *slog.Logger, p providers.Provider, req Request) (Outcome, []models.MetaRecord) {
	info := p.Info()
	outcome := Outcome{Source: info.ID, State: StateRunning}
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, d.sourceTimeout())
	defer cancel()

	done := make(chan searchReply, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- searchReply{err: &PanicError{Source: info.ID, Value: v}}
			}
		}()
		records, err := p.Search(callCtx, req.Query, req.GenericCover, req.Locale)
		done <- searchReply{records: records, err: err}
	}()

	var reply searchReply
	select {
	case reply = <-done:
	case <-callCtx.Done():
		reply = searchReply{err: callCtx.Err()}
	}
	outcome.Elapsed = time.Since(start)

	// a deadline (ours or the batch's) is a timeout; the caller giving up is not
	timedOut := reply.err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded)

	switch {
	case timedOut:
		outcome.State = StateTimedOut
		outcome.Err = fmt.Errorf("%w: %s after %s", ErrSourceTimeout, info.ID, outcome.Elapsed.Round(time.Millisecond))
		logger.Warn("Source abandoned", "source", info.ID, "outcome", "timeout", "elapsed", outcome.Elapsed)
		return outcome, nil
	case reply.err != nil:
		outcome.State = StateErrored
		outcome.Err = reply.err
		var panicErr *PanicError
		if errors.As(reply.err, &panicErr) {
			logger.Error("Source panicked", "source", info.ID, "outcome", "error", "err", reply.err)
		} else {
			logger.Warn("Source failed", "source", info.ID, "outcome", "error", "err", reply.err)
		}
		return outcome, nil
	}

	records := accept(info, reply.records, logger)
	outcome.State = StateCompleted
	outcome.Records = len(records)
	logger.Debug("Source completed", "source", info.ID, "records", len(records), "elapsed", outcome.Elapsed)
	return outcome, records
}

// accept drops records with neither title nor authors and stamps the dispatching source as provenance
func accept(info models.SourceInfo, records []models.MetaRecord, logger *slog.Logger) []models.MetaRecord {
	out := make([]models.MetaRecord, 0, len(records))
	for _, rec := range records {
		rec.Authors = normalize.UniqueAuthors(rec.Authors)
		if !rec.Usable() {
			logger.Debug("Discarding record without title or authors", "source", info.ID, "id", rec.ID)
			continue
		}
		rec.Source = info
		out = append(out, rec)
	}
	return out
}
