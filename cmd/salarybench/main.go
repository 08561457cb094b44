// cmd/salarybench/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/David-Botos/salary-benchmark/pkg/adjust"
	"github.com/David-Botos/salary-benchmark/pkg/calibrate"
	"github.com/David-Botos/salary-benchmark/pkg/cleaner"
	"github.com/David-Botos/salary-benchmark/pkg/config"
	"github.com/David-Botos/salary-benchmark/pkg/connector"
	"github.com/David-Botos/salary-benchmark/pkg/export"
	"github.com/David-Botos/salary-benchmark/pkg/fetch"
	"github.com/David-Botos/salary-benchmark/pkg/pipeline"
	"github.com/David-Botos/salary-benchmark/pkg/synth"
	"github.com/David-Botos/salary-benchmark/pkg/upload"
)

// adjustStream is the PCG stream reserved for adjustment draws; pair jobs use
// their index as stream
const adjustStream = ^uint64(0)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Run failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(level, format string) (*zap.Logger, error) {
	var zcfg zap.Config
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	return zcfg.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ref := config.DefaultReference()
	if cfg.Pipeline.BenchmarkFile != "" {
		loaded, err := config.LoadReference(cfg.Pipeline.BenchmarkFile)
		if err != nil {
			return err
		}
		ref = loaded
		logger.Info("Loaded reference file",
			zap.String("path", cfg.Pipeline.BenchmarkFile),
			zap.Int("benchmarks", len(ref.Benchmarks)),
			zap.Int("pairs", len(ref.Pairs)),
			zap.Int("rules", len(ref.Rules)))
	}

	seed := cfg.Pipeline.RandomSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	// Core components
	validator := cleaner.NewValidator(
		cfg.Pipeline.MinReasonableSalary,
		cfg.Pipeline.MaxReasonableSalary,
		cleaner.DefaultInvalidValues,
	)
	method, err := cleaner.ParseOutlierMethod(cfg.Pipeline.OutlierMethod)
	if err != nil {
		return err
	}
	salaryCleaner, err := cleaner.NewSalaryCleaner(
		validator,
		cleaner.NewOutlierFilter(method, cfg.Pipeline.OutlierFactor),
		logger.Named("cleaner"),
	)
	if err != nil {
		return err
	}

	generator := synth.NewGenerator(ref.Benchmarks, synth.DefaultFallback(), rand.NewPCG(seed, 0))
	calibrator := calibrate.NewCalibrator(generator, cfg.Pipeline.MinRequiredSamples).
		WithReclamp(cfg.Pipeline.ReclampSynthetic)

	rules, err := adjust.NewRuleSet(ref.Rules)
	if err != nil {
		return err
	}
	if rules.Duplicates() > 0 {
		logger.Warn("Duplicate adjustment rules; last definition wins",
			zap.Int("duplicates", rules.Duplicates()))
	}
	engine, err := adjust.NewEngine(cfg.Pipeline.ScaleFactor, rules, rand.NewPCG(seed, adjustStream))
	if err != nil {
		return err
	}

	// Observation source; zero pages runs on synthetic data only
	var source pipeline.ObservationSource
	if cfg.Fetch.MaxPages > 0 {
		client, err := fetch.NewAdzunaClient(cfg.Fetch, validator, logger)
		if err != nil {
			return err
		}
		source = client
	} else {
		logger.Warn("Fetching disabled; every pair uses synthetic data only")
	}

	// Sink, opened before the run so cleaning operations can be tracked
	factory := connector.NewConnectorFactory(cfg, logger)
	conn, err := factory.CreateSinkConnector(ctx)
	if err != nil {
		return err
	}
	var uploader *upload.Uploader
	if conn != nil {
		defer conn.Close()
		uploader, err = upload.NewUploader(conn, cfg.Output.StatsTable, cfg.Output.AdjustedTable, logger)
		if err != nil {
			return err
		}
		if cfg.Pipeline.RecordCleaning {
			if err := salaryCleaner.WithTracking(ctx, conn.DB(), uploader.CleaningLogTable()); err != nil {
				return err
			}
		}
	}

	manager, err := pipeline.NewManager(source, salaryCleaner, calibrator, generator, engine, logger)
	if err != nil {
		return err
	}
	manager.WithWorkerCount(cfg.Pipeline.WorkerPoolSize).WithSeed(seed)

	result, err := manager.Run(ctx, ref.Pairs)
	writeMetrics(cfg, manager, logger)
	if err != nil {
		return fmt.Errorf("run %s (seed %d): %w", manager.RunID(), manager.Seed(), err)
	}

	if err := writeExports(cfg.Output, result, logger); err != nil {
		return err
	}

	if uploader != nil {
		reports, err := uploader.Upload(ctx, result.Records, result.Adjusted)
		if err != nil {
			if errors.Is(err, upload.ErrIntegrity) {
				logger.Error("Upload rejected by verification", zap.Error(err))
			}
			return err
		}
		for _, r := range reports {
			logger.Info("Table uploaded",
				zap.String("table", r.Table),
				zap.Int64("rows", r.TargetRowCount),
				zap.Bool("verified", r.Verified()))
		}
	}

	fmt.Print(manager.GetMetrics().GenerateMetricsReport())
	return nil
}

func writeExports(out *config.OutputConfig, result *pipeline.RunResult, logger *zap.Logger) error {
	stats := export.StatisticsTable(result.Records)
	adjusted := export.AdjustedTable(result.Adjusted)

	statsPath := filepath.Join(out.Dir, out.StatsCSV)
	if err := export.WriteCSV(statsPath, stats); err != nil {
		return err
	}
	adjustedPath := filepath.Join(out.Dir, out.AdjustedCSV)
	if err := export.WriteCSV(adjustedPath, adjusted); err != nil {
		return err
	}
	logger.Info("Wrote CSV exports",
		zap.String("statistics", statsPath),
		zap.String("adjusted", adjustedPath),
		zap.Int("rows", len(result.Records)))

	if out.AdjustedXLSX != "" {
		xlsxPath := filepath.Join(out.Dir, out.AdjustedXLSX)
		if err := export.WriteXLSX(xlsxPath, adjusted, stats); err != nil {
			return err
		}
		logger.Info("Wrote workbook", zap.String("path", xlsxPath))
	}
	return nil
}

func writeMetrics(cfg *config.Config, manager *pipeline.Manager, logger *zap.Logger) {
	if cfg.Output.MetricsTextfile == "" {
		return
	}
	path := filepath.Join(cfg.Output.Dir, cfg.Output.MetricsTextfile)
	if err := manager.GetMetrics().WriteTextfile(path); err != nil {
		logger.Warn("Failed to write metrics", zap.Error(err))
	}
}
