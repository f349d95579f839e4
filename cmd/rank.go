package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scrambledgregs/fleet-sub001/config"
	"github.com/scrambledgregs/fleet-sub001/core/dispatch"
	"github.com/scrambledgregs/fleet-sub001/core/eta"
	"github.com/scrambledgregs/fleet-sub001/core/model"
	infraeta "github.com/scrambledgregs/fleet-sub001/infra/eta"
	"github.com/scrambledgregs/fleet-sub001/infra/logger"
)

var requestPath string

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank a roster for one job from a request file and print the result",
	RunE:  rankOnce,
}

func init() {
	rankCmd.Flags().StringVarP(&requestPath, "request", "r", "", "JSON file with job and roster")
	_ = rankCmd.MarkFlagRequired("request")
	rootCmd.AddCommand(rankCmd)
}

func rankOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := os.ReadFile(requestPath)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	var req struct {
		Job    model.Job          `json:"job"`
		Roster []model.Technician `json:"roster"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	if err := req.Job.Validate(); err != nil {
		return err
	}

	var provider eta.Provider
	if cfg.ETA.BaseURL != "" {
		provider, err = infraeta.NewHTTPProvider(cfg.ETA)
		if err != nil {
			return fmt.Errorf("eta provider: %w", err)
		}
	} else {
		provider = infraeta.NewHaversineProvider()
	}

	scorer := dispatch.FitScorer{Weights: cfg.Dispatch.ScorerWeights()}
	ranker := dispatch.NewRanker(provider, scorer, cfg.Dispatch.MaxInflightETA, logger.New("rank-command"))
	result, err := ranker.Rank(ctx, req.Job, req.Roster)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
