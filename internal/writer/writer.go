// Package writer implements the artifact writer: it fans
// a set of (person, chamber, party) tasks out across a bounded worker
// pool, running the alignment pipeline for each and writing its result
// to a partition file.
//
// Concurrency shape is grounded on internal/conflicts/scorer.go's
// BackfillScoring: an errgroup.Group with SetLimit bounding concurrent
// workers, the context cancelled on the first fatal (non-per-person)
// error. Per-person failures are deliberately NOT propagated as
// errgroup errors: the driver continues with other persons and
// surfaces the failing list at the end, rather than aborting the
// whole fan-out.
package writer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/mysociety/policyscore/internal/columnar"
	"github.com/mysociety/policyscore/internal/macro"
	"github.com/mysociety/policyscore/internal/model"
	"github.com/mysociety/policyscore/internal/pipeline"
	"github.com/mysociety/policyscore/internal/staging"
	"github.com/mysociety/policyscore/internal/telemetry"
)

// Task identifies one (person, chamber, party) partition to materialize.
type Task struct {
	PersonID  int64
	ChamberID int64
	PartyID   int64
}

// StagingData is the full set of precomputed relations every per-person
// engine needs loaded to evaluate its macros. These slices are read-only
// for the duration of Run and are safe to share across worker
// goroutines; each task loads its own private macro.Engine from them
// (see the macro.Engine doc: an Engine is not safe for concurrent use).
type StagingData struct {
	Memberships []model.Membership
	Divisions   []staging.PolicyDivisionRow
	Agreements  []staging.PolicyAgreementRow
	Votes       []staging.VoteRow
	Collective  []staging.CollectiveRow
}

// Config controls the writer's concurrency and retry behavior.
type Config struct {
	OutputDir     string
	Concurrency   int
	WriteRetries  int // default 3, applied by Run if zero
	FullRecompute bool
}

// Result summarizes one Run invocation.
type Result struct {
	Written int
	Failed  []int64 // person_ids that failed after exhausting retries
}

// Run executes the alignment pipeline for every task, writing each
// result to OutputDir/{person}_{chamber}_{party}.parquet. On a full
// recompute the output directory is cleared first; on an incremental
// run only the affected files are overwritten (callers pass only the
// changed tasks).
func Run(
	ctx context.Context,
	tasks []Task,
	data StagingData,
	policies map[int64]model.Policy,
	cfg Config,
) (Result, error) {
	retries := cfg.WriteRetries
	if retries == 0 {
		retries = 3
	}

	m := newMetrics()

	if cfg.FullRecompute {
		if err := columnar.ClearDir(cfg.OutputDir); err != nil {
			return Result{}, fmt.Errorf("writer: clearing output dir: %w", err)
		}
	}

	var mu sync.Mutex
	var failed []int64
	var written int

	g, gCtx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}

			started := time.Now()
			rows, err := runOne(gCtx, task, data, policies)
			if err != nil {
				mu.Lock()
				failed = append(failed, task.PersonID)
				mu.Unlock()
				return nil
			}

			path := filepath.Join(cfg.OutputDir, columnar.PartitionFilename(task.PersonID, task.ChamberID, task.PartyID))
			partition := columnar.FromRows(rows)

			if err := writeWithRetry(path, partition, retries); err != nil {
				m.writeFailures.Add(gCtx, 1)
				mu.Lock()
				failed = append(failed, task.PersonID)
				mu.Unlock()
				return nil
			}

			m.personsRecomputed.Add(gCtx, 1)
			m.pipelineSeconds.Record(gCtx, time.Since(started).Seconds())

			mu.Lock()
			written++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{Written: written, Failed: failed}, err
	}
	return Result{Written: written, Failed: failed}, nil
}

func runOne(ctx context.Context, task Task, data StagingData, policies map[int64]model.Policy) ([]model.VoteDistribution, error) {
	engine, err := macro.NewEngine(ctx)
	if err != nil {
		return nil, fmt.Errorf("writer: person %d: opening engine: %w", task.PersonID, err)
	}
	defer engine.Close()

	if err := engine.LoadMemberships(ctx, data.Memberships); err != nil {
		return nil, err
	}
	if err := engine.LoadDivisionsRelevant(ctx, data.Divisions); err != nil {
		return nil, err
	}
	if err := engine.LoadAgreementsRelevant(ctx, data.Agreements); err != nil {
		return nil, err
	}
	if err := engine.LoadVotesRelevant(ctx, data.Votes); err != nil {
		return nil, err
	}
	if err := engine.LoadCollectiveRelevant(ctx, data.Collective); err != nil {
		return nil, err
	}

	alignment, err := engine.PolicyAlignment(ctx, task.PersonID, task.ChamberID, task.PartyID)
	if err != nil {
		return nil, fmt.Errorf("writer: person %d: policy_alignment: %w", task.PersonID, err)
	}
	agreementCounts, err := engine.AgreementCount(ctx, task.PersonID)
	if err != nil {
		return nil, fmt.Errorf("writer: person %d: agreement_count: %w", task.PersonID, err)
	}

	rows, err := pipeline.Run(alignment, agreementCounts, policies, task.PersonID, task.ChamberID, task.PartyID)
	if err != nil {
		return nil, fmt.Errorf("writer: person %d: pipeline: %w", task.PersonID, err)
	}
	return rows, nil
}

// metrics holds the writer's instruments. The otel API returns a usable
// no-op instrument even when creation errors, so recording is always safe.
type metrics struct {
	personsRecomputed metric.Int64Counter
	writeFailures     metric.Int64Counter
	pipelineSeconds   metric.Float64Histogram
}

func newMetrics() metrics {
	meter := telemetry.Meter("policyscore/writer")
	var m metrics
	m.personsRecomputed, _ = meter.Int64Counter("policyscore.persons_recomputed",
		metric.WithDescription("Persons whose partition file was rewritten"))
	m.writeFailures, _ = meter.Int64Counter("policyscore.partition_write_failures",
		metric.WithDescription("Partition writes that failed after exhausting retries"))
	m.pipelineSeconds, _ = meter.Float64Histogram("policyscore.person_pipeline_seconds",
		metric.WithDescription("Wall-clock seconds per person pipeline invocation"),
		metric.WithUnit("s"))
	return m
}

func writeWithRetry(path string, partition *columnar.Partition, retries int) error {
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if err := columnar.WriteFile(path, partition); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("writer: %s: giving up after %d attempts: %w", path, retries, lastErr)
}
