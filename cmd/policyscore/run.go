package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mysociety/policyscore/internal/loader"
	"github.com/mysociety/policyscore/internal/planner"
	"github.com/mysociety/policyscore/internal/writer"
)

func runCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Recompute policy alignment scores and materialize vote_distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			incremental, _ := cmd.Flags().GetBool("incremental")
			personIDs, _ := cmd.Flags().GetInt64Slice("person-ids")
			policyIDs, _ := cmd.Flags().GetInt64Slice("policy-ids")
			quiet, _ := cmd.Flags().GetBool("quiet")

			cfg, logger, otelShutdown, db, err := bootstrap(ctx, quiet)
			if err != nil {
				return err
			}
			defer db.Close(ctx)
			defer func() { _ = otelShutdown(context.Background()) }()

			u, err := loadUniverse(ctx, db)
			if err != nil {
				return fmt.Errorf("loading universe: %w", err)
			}
			if err := validatePolicyIDs(u.policies, policyIDs); err != nil {
				return err
			}

			relevant := filterRelevantByPolicies(u.relevant, toSet(policyIDs))

			var targetPersons map[int64]bool
			switch {
			case len(personIDs) > 0:
				targetPersons = toSet(personIDs)
			case incremental:
				previousRows, err := db.ListPreviousVoteDistribution(ctx)
				if err != nil {
					return fmt.Errorf("reading previous vote_distribution: %w", err)
				}
				previous := planner.BuildPreviousHashes(previousRows)
				recompute := planner.Plan(relevant, u.policies, previous)
				targetPersons = toSet(recompute)
				if targetPersons == nil {
					logger.Info("incremental plan found nothing to recompute")
					return nil
				}
			default:
				targetPersons = nil // full recompute: every relevant person
			}

			fullRecompute := !incremental && targetPersons == nil && len(policyIDs) == 0

			tasks := tasksForPersons(universe{relevant: relevant}, targetPersons)
			logger.Info("writer starting", "task_count", len(tasks), "incremental", incremental)

			result, err := writer.Run(ctx, tasks, u.staging, u.policies, writer.Config{
				OutputDir:     cfg.ArtifactDir,
				Concurrency:   cfg.WriterWorkers,
				WriteRetries:  cfg.WriteRetries,
				FullRecompute: fullRecompute,
			})
			if err != nil {
				return fmt.Errorf("writer: %w", err)
			}
			if len(result.Failed) > 0 {
				logger.Error("some persons failed to materialize", "failed_person_ids", result.Failed)
			}
			logger.Info("writer finished", "written", result.Written, "failed", len(result.Failed))

			rows, err := loader.Coalesce(cfg.ArtifactDir)
			if err != nil {
				return fmt.Errorf("coalescing partitions: %w", err)
			}
			if err := loader.WriteConsolidated(filepath.Join(cfg.ConsolidatedDir, "policy_calc_to_load.parquet"), rows); err != nil {
				return fmt.Errorf("writing consolidated artifact: %w", err)
			}

			generation := time.Now().UnixNano()
			if err := db.MaterializeVoteDistribution(ctx, rows, generation); err != nil {
				return fmt.Errorf("materializing vote_distribution: %w", err)
			}
			logger.Info("vote_distribution materialized", "rows", len(rows), "generation", generation)

			if len(result.Failed) > 0 {
				return fmt.Errorf("%d person(s) failed after retries: %v", len(result.Failed), result.Failed)
			}

			// A full recompute must leave nothing stale; a non-empty
			// re-plan here means a policy_hash invariant was violated.
			if fullRecompute {
				current, err := db.ListPreviousVoteDistribution(ctx)
				if err != nil {
					return fmt.Errorf("re-reading vote_distribution: %w", err)
				}
				stale := planner.Plan(relevant, u.policies, planner.BuildPreviousHashes(current))
				if len(stale) > 0 {
					return fmt.Errorf("hash mismatch after full recompute for person(s) %v", stale)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("incremental", false, "only recompute persons the hash-diff planner flags as stale")
	cmd.Flags().Int64Slice("person-ids", nil, "restrict the run to these person ids")
	cmd.Flags().Int64Slice("policy-ids", nil, "restrict the run to people touched by these policy ids (other policies for those people still recompute)")
	cmd.Flags().Bool("quiet", false, "suppress progress logging")
	return cmd
}
