// Command sweep runs a parameter sweep (grid, random, or Latin
// hypercube) over a bounded worker pool and writes one ranked summary
// row per job to sweep_results.csv; with a walk_forward block it runs a
// walk-forward optimization instead and writes walk_forward_folds.csv
// and walk_forward_summary.csv. It follows
// the same urfave/cli/v3 command shape as cmd/backtest, generalized
// from one engine.Run to internal/orchestrator.RunSweep's concurrent
// batch of independent runs.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/sirily11/argo-backtest-core/internal/config"
	"github.com/sirily11/argo-backtest-core/internal/logger"
	"github.com/sirily11/argo-backtest-core/internal/orchestrator"
	"github.com/sirily11/argo-backtest-core/internal/strategy"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	engineConfig, err := config.LoadEngineConfigFile(cmd.String("config"))
	if err != nil {
		return err
	}

	if err := engineConfig.Validate(); err != nil {
		return err
	}

	manifest, err := config.LoadManifest(cmd.String("manifest"))
	if err != nil {
		return err
	}

	sources, specs, err := manifest.LoadSources()
	if err != nil {
		return err
	}

	sweepConfig, err := orchestrator.LoadSweepConfig(cmd.String("sweep"))
	if err != nil {
		return err
	}

	paramSets, err := sweepConfig.ParamSets()
	if err != nil {
		return err
	}

	strategyName := cmd.String("strategy")
	registry := strategy.NewBuiltinRegistry()

	if _, err := registry.New(strategyName); err != nil {
		return err
	}

	newStrategy := func() strategy.Strategy { strat, _ := registry.New(strategyName); return strat }

	score := sweepConfig.Score
	if explicit := cmd.String("score"); explicit != "" {
		score = orchestrator.ScoreField(explicit)
	}

	if sweepConfig.WalkForward != nil {
		windows, err := sweepConfig.WalkForward.Windows()
		if err != nil {
			return err
		}

		log.Sugar().Infof("walk-forward: %d parameter set(s), %d fold(s), scored by %q", len(paramSets), len(windows), score)

		report, err := orchestrator.RunWalkForward(orchestrator.WalkForwardRequest{
			Config:      engineConfig.ToEngineConfig(),
			Sources:     sources,
			Specs:       specs,
			NewStrategy: newStrategy,
			ParamSets:   paramSets,
			Windows:     windows,
			Score:       score,
			MaxWorkers:  int(cmd.Int("workers")),
		})
		if err != nil {
			return fmt.Errorf("walk-forward run failed: %w", err)
		}

		log.Sugar().Infof("walk-forward complete: %d fold(s), out-of-sample sharpe %.4f", len(report.Folds), report.Summary.SharpeRatio)

		return writeWalkForwardReport(cmd.String("out"), report)
	}

	jobs := orchestrator.NewJobs(paramSets, nil)

	log.Sugar().Infof("sweep: %d parameter set(s), %d job(s)", len(paramSets), len(jobs))

	results, err := orchestrator.RunSweep(orchestrator.SweepRequest{
		Config:       engineConfig.ToEngineConfig(),
		Sources:      sources,
		Specs:        specs,
		NewStrategy:  newStrategy,
		Jobs:         jobs,
		MaxWorkers:   int(cmd.Int("workers")),
		ShowProgress: true,
	})
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}

	log.Sugar().Infof("sweep complete: %d succeeded, %d failed", len(results)-failed, failed)

	ranked, err := orchestrator.RankResults(results, score)
	if err != nil {
		return fmt.Errorf("ranking sweep results: %w", err)
	}

	return writeSweepReport(cmd.String("out"), sweepConfig.ParamSpace(), ranked)
}

func writeSweepReport(dir string, space orchestrator.ParamSpace, results []orchestrator.JobResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create sweep output directory: %w", err)
	}

	axisNames := make([]string, len(space.Axes))
	for i, axis := range space.Axes {
		axisNames[i] = axis.Name
	}

	sort.Strings(axisNames)

	file, err := os.Create(filepath.Join(dir, "sweep_results.csv"))
	if err != nil {
		return fmt.Errorf("failed to create sweep_results.csv: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := append([]string{"rank", "job_id", "job_index", "segment", "error"}, axisNames...)
	header = append(header, "total_return", "sharpe_ratio", "max_drawdown", "total_trades", "win_rate")

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write sweep_results.csv header: %w", err)
	}

	// results is expected pre-ranked by orchestrator.RankResults; row
	// order is the ranked order, and "rank" just labels it 1-based.
	for i, result := range results {
		row := []string{strconv.Itoa(i + 1), result.Job.ID, strconv.Itoa(result.Job.Index), result.Job.Segment}

		if result.Err != nil {
			row = append(row, result.Err.Error())
		} else {
			row = append(row, "")
		}

		for _, name := range axisNames {
			row = append(row, fmt.Sprintf("%v", result.Job.Params[name]))
		}

		if result.Err == nil {
			summary := result.Result.Summary
			row = append(row,
				strconv.FormatFloat(summary.TotalReturn, 'f', -1, 64),
				strconv.FormatFloat(summary.SharpeRatio, 'f', -1, 64),
				strconv.FormatFloat(summary.MaxDrawdown, 'f', -1, 64),
				strconv.Itoa(summary.TotalTrades),
				strconv.FormatFloat(summary.WinRate, 'f', -1, 64),
			)
		} else {
			row = append(row, "", "", "", "", "")
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write sweep result row: %w", err)
		}
	}

	return nil
}

// writeWalkForwardReport writes walk_forward_folds.csv (each fold's
// winning parameters, train score, and test-segment summary) and
// walk_forward_summary.csv (the single aggregate summary computed over
// every fold's concatenated out-of-sample series).
func writeWalkForwardReport(dir string, report orchestrator.WalkForwardReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create sweep output directory: %w", err)
	}

	foldsFile, err := os.Create(filepath.Join(dir, "walk_forward_folds.csv"))
	if err != nil {
		return fmt.Errorf("failed to create walk_forward_folds.csv: %w", err)
	}
	defer foldsFile.Close()

	foldsWriter := csv.NewWriter(foldsFile)
	defer foldsWriter.Flush()

	if err := foldsWriter.Write([]string{
		"fold", "train_start", "train_end", "test_start", "test_end",
		"best_params", "train_score", "test_sharpe", "test_total_return", "test_total_trades",
	}); err != nil {
		return fmt.Errorf("failed to write walk_forward_folds.csv header: %w", err)
	}

	for i, fold := range report.Folds {
		summary := fold.TestResult.Summary

		if err := foldsWriter.Write([]string{
			strconv.Itoa(i),
			fold.Window.TrainStart.Format(time.RFC3339),
			fold.Window.TrainEnd.Format(time.RFC3339),
			fold.Window.TestStart.Format(time.RFC3339),
			fold.Window.TestEnd.Format(time.RFC3339),
			fmt.Sprintf("%v", fold.BestParams),
			strconv.FormatFloat(fold.TrainScore, 'f', -1, 64),
			strconv.FormatFloat(summary.SharpeRatio, 'f', -1, 64),
			strconv.FormatFloat(summary.TotalReturn, 'f', -1, 64),
			strconv.Itoa(summary.TotalTrades),
		}); err != nil {
			return fmt.Errorf("failed to write walk-forward fold row: %w", err)
		}
	}

	summaryFile, err := os.Create(filepath.Join(dir, "walk_forward_summary.csv"))
	if err != nil {
		return fmt.Errorf("failed to create walk_forward_summary.csv: %w", err)
	}
	defer summaryFile.Close()

	summaryWriter := csv.NewWriter(summaryFile)
	defer summaryWriter.Flush()

	summary := report.Summary

	if err := summaryWriter.Write([]string{"total_return", "sharpe_ratio", "sortino_ratio", "max_drawdown", "total_trades", "win_rate"}); err != nil {
		return fmt.Errorf("failed to write walk_forward_summary.csv header: %w", err)
	}

	return summaryWriter.Write([]string{
		strconv.FormatFloat(summary.TotalReturn, 'f', -1, 64),
		strconv.FormatFloat(summary.SharpeRatio, 'f', -1, 64),
		strconv.FormatFloat(summary.SortinoRatio, 'f', -1, 64),
		strconv.FormatFloat(summary.MaxDrawdown, 'f', -1, 64),
		strconv.Itoa(summary.TotalTrades),
		strconv.FormatFloat(summary.WinRate, 'f', -1, 64),
	})
}

func main() {
	cmd := &cli.Command{
		Name:  "sweep",
		Usage: "Run a parameter sweep, or a walk-forward optimization when the config has a walk_forward block",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the engine config YAML file",
				Value:    "./config/backtest_config.yaml",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "manifest",
				Aliases:  []string{"m"},
				Usage:    "Path to the instrument manifest YAML file",
				Value:    "./config/manifest.yaml",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "sweep",
				Usage:    "Path to the sweep config YAML file (axes, mode, walk_forward)",
				Value:    "./config/sweep.yaml",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"s"},
				Usage:    "Registered strategy name (e.g. dual_ma_crossover)",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "workers",
				Aliases:  []string{"w"},
				Usage:    "Max concurrent engine.Run workers; zero uses runtime.NumCPU()",
				Value:    0,
				Required: false,
			},
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Output directory for sweep_results.csv or the walk_forward_*.csv reports",
				Value:    "./output",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "score",
				Usage:    "Scoring field to rank results (or select a walk-forward fold's best parameters) by; defaults to sharpe_ratio, or the sweep config's score if set",
				Value:    "",
				Required: false,
			},
		},
		Action: runAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
