package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mysociety/policyscore/internal/planner"
)

func planCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the set of person_ids the hash-diff planner would recompute, without writing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			personIDs, _ := cmd.Flags().GetInt64Slice("person-ids")
			policyIDs, _ := cmd.Flags().GetInt64Slice("policy-ids")
			quiet, _ := cmd.Flags().GetBool("quiet")

			_, logger, otelShutdown, db, err := bootstrap(ctx, quiet)
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

			previousRows, err := db.ListPreviousVoteDistribution(ctx)
			if err != nil {
				return fmt.Errorf("reading previous vote_distribution: %w", err)
			}
			previous := planner.BuildPreviousHashes(previousRows)

			recompute := planner.Plan(relevant, u.policies, previous)
			if personSet := toSet(personIDs); personSet != nil {
				filtered := recompute[:0]
				for _, id := range recompute {
					if personSet[id] {
						filtered = append(filtered, id)
					}
				}
				recompute = filtered
			}

			logger.Info("plan computed", "person_count", len(recompute))
			for _, id := range recompute {
				fmt.Println(id)
			}
			return nil
		},
	}
	cmd.Flags().Int64Slice("person-ids", nil, "restrict the plan to these person ids")
	cmd.Flags().Int64Slice("policy-ids", nil, "restrict the plan to people touched by these policy ids")
	cmd.Flags().Bool("quiet", false, "suppress progress logging")
	return cmd
}
