package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-clan-metrics/internal/loader"
	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/pipeline"
)

// inputFlags are shared by every command that runs the pipeline.
type inputFlags struct {
	matches    string
	registry   string
	teamConfig string
	roles      string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.matches, "matches", "", "raw match export (.json or .json.zst)")
	cmd.Flags().StringVar(&f.registry, "registry", "", "player registry JSON")
	cmd.Flags().StringVar(&f.teamConfig, "team-config", "", "team config JSON")
	cmd.Flags().StringVar(&f.roles, "roles", "", "role annotations JSON (optional)")
}

// paths merges the flags over the loaded settings.
func (f *inputFlags) paths(cmd *cobra.Command) loader.Paths {
	p := loader.Paths{
		Matches:    settings.Matches,
		Registry:   settings.Registry,
		TeamConfig: settings.TeamConfig,
		Roles:      settings.Roles,
	}
	if cmd.Flags().Changed("matches") {
		p.Matches = f.matches
	}
	if cmd.Flags().Changed("registry") {
		p.Registry = f.registry
	}
	if cmd.Flags().Changed("team-config") {
		p.TeamConfig = f.teamConfig
	}
	if cmd.Flags().Changed("roles") {
		p.Roles = f.roles
	}
	return p
}

// runPipeline loads the inputs and runs every stage once.
func runPipeline(ctx context.Context, p loader.Paths) (*model.Result, error) {
	logger.Info("loading inputs",
		zap.String("matches", p.Matches),
		zap.String("registry", p.Registry),
		zap.String("team_config", p.TeamConfig),
		zap.String("roles", p.Roles),
	)
	in, err := loader.Load(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}
	res, err := pipeline.Run(in, pipeline.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}
	logger.Info("pipeline finished",
		zap.Int("matches", res.Diagnostics.TotalMatches),
		zap.Int("scoped", res.Diagnostics.ScopedMatches),
		zap.String("fingerprint", res.Diagnostics.Fingerprint),
	)
	return res, nil
}
