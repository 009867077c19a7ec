// Command backtest runs a single strategy over a fixed parameter set
// against one or more instruments and writes the resulting equity curve,
// fills, rejections, trades, and summary metrics to disk. Flags are
// bound in main and the real work is delegated to an Action function.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sirily11/argo-backtest-core/internal/config"
	"github.com/sirily11/argo-backtest-core/internal/engine"
	"github.com/sirily11/argo-backtest-core/internal/logger"
	"github.com/sirily11/argo-backtest-core/internal/strategy"
	"github.com/sirily11/argo-backtest-core/internal/writer"
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

	log.Sugar().Infof("loaded %d instrument(s) from %s", len(sources), cmd.String("manifest"))

	registry := strategy.NewBuiltinRegistry()

	strat, err := registry.New(cmd.String("strategy"))
	if err != nil {
		return err
	}

	params, err := loadParams(cmd.String("params"))
	if err != nil {
		return err
	}

	if err := strat.Configure(params); err != nil {
		return fmt.Errorf("failed to configure strategy %q: %w", cmd.String("strategy"), err)
	}

	runConfig := engineConfig.ToEngineConfig()

	result, err := engine.Run(runConfig, sources, specs, strat)
	if err != nil {
		return fmt.Errorf("backtest run failed: %w", err)
	}

	log.Sugar().Infof("run complete: %d fills, %d rejections, %d trades, total return %.4f",
		len(result.Fills), len(result.Rejections), len(result.Trades), result.Summary.TotalReturn)

	return writeReport(cmd.String("out"), cmd.String("format"), result)
}

func loadParams(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read strategy params %s: %w", path, err)
	}

	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse strategy params %s: %w", path, err)
	}

	return params, nil
}

func writeReport(dir, format string, result engine.Result) error {
	if err := writer.WriteSummaryYAML(dir, result.Summary); err != nil {
		return err
	}

	switch format {
	case "parquet":
		w, err := writer.NewParquetResultWriter()
		if err != nil {
			return err
		}
		defer w.Close()

		if err := w.Stage(result); err != nil {
			return err
		}

		return w.WriteParquet(dir)
	case "both":
		csvWriter, err := writer.NewCSVResultWriter(dir)
		if err != nil {
			return err
		}

		if err := csvWriter.WriteResult(result); err != nil {
			return err
		}

		if err := csvWriter.Close(); err != nil {
			return err
		}

		w, err := writer.NewParquetResultWriter()
		if err != nil {
			return err
		}
		defer w.Close()

		if err := w.Stage(result); err != nil {
			return err
		}

		return w.WriteParquet(dir)
	default:
		csvWriter, err := writer.NewCSVResultWriter(dir)
		if err != nil {
			return err
		}

		if err := csvWriter.WriteResult(result); err != nil {
			return err
		}

		return csvWriter.Close()
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a single backtest over one parameter set",
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
				Name:     "strategy",
				Aliases:  []string{"s"},
				Usage:    "Registered strategy name (e.g. dual_ma_crossover)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "params",
				Aliases:  []string{"p"},
				Usage:    "Path to a JSON file of strategy parameters",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Output directory for the report",
				Value:    "./output",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "format",
				Aliases:  []string{"f"},
				Usage:    "Report format: csv, parquet, or both",
				Value:    "csv",
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
