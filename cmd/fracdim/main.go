package main

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"fracdim/pkg/config"
	"fracdim/pkg/estimator"
	"fracdim/pkg/field"
)

func main() {
	// Parse command line arguments
	inputPath := flag.String("input", "", "Input image to measure")
	configPath := flag.String("config", "fracdim.yaml", "Configuration file")
	blurRadius := flag.Float64("blur", -1, "Gaussian smoothing radius (overrides config; 0 disables)")
	resamples := flag.Int("resamples", 0, "Number of bootstrap replicates (overrides config)")
	seed := flag.Uint64("seed", 0, "Bootstrap seed (0 = fresh seed per run)")
	cores := flag.Int("cores", 0, "Number of CPU cores for the bootstrap (overrides config)")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save smoothed and binary fields as images")
	intermediaryDir := flag.String("intermediary-dir", "", "Directory for intermediary images (overrides config)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()

	if *inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *configPath).Msg("failed to load configuration")
	}

	// Flags override config file values.
	if *blurRadius >= 0 {
		cfg.Estimation.BlurRadius = *blurRadius
	}
	if *resamples > 0 {
		cfg.Estimation.Resamples = *resamples
	}
	if *seed != 0 {
		cfg.Estimation.Seed = *seed
	}
	if *cores > 0 {
		cfg.Estimation.NumCores = *cores
	}
	if *saveIntermediary {
		cfg.Output.SaveIntermediary = true
	}
	if *intermediaryDir != "" {
		cfg.Output.IntermediaryDir = *intermediaryDir
	}
	if *verbose || cfg.Output.Verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	img, err := imaging.Open(*inputPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *inputPath).Msg("failed to load image")
	}
	f := field.FromImage(img)
	logger.Info().
		Int("rows", f.Rows()).
		Int("cols", f.Cols()).
		Str("path", *inputPath).
		Msg("loaded input field")

	start := time.Now()
	report, err := estimator.Estimate(f, estimator.Options{
		BlurRadius: cfg.Estimation.BlurRadius,
		Resamples:  cfg.Estimation.Resamples,
		Seed:       cfg.Estimation.Seed,
		Workers:    cfg.Estimation.NumCores,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("estimation failed")
	}

	logger.Info().
		Float64("dimension", report.Dimension).
		Float64("stderr", report.StdErr).
		Float64("ci_low", report.CILow).
		Float64("ci_high", report.CIHigh).
		Float64("hurst", report.Hurst).
		Float64("hurst_err", report.HurstErr).
		Float64("threshold", report.Threshold).
		Dur("elapsed", time.Since(start)).
		Msg("estimation complete")
	logger.Info().
		Ints("sizes", report.Sizes).
		Ints("counts", report.Counts).
		Float64("slope", report.Fit.Slope).
		Float64("intercept", report.Fit.Intercept).
		Msg("box-counting curve")

	if cfg.Output.SaveIntermediary {
		if err := saveIntermediaries(cfg.Output.IntermediaryDir, report); err != nil {
			logger.Error().Err(err).Msg("failed to save intermediary images")
		} else {
			logger.Info().Str("dir", cfg.Output.IntermediaryDir).Msg("saved intermediary images")
		}
	}
}

// saveIntermediaries writes the smoothed and binary fields as PNG images so
// the stages of the measurement can be inspected.
func saveIntermediaries(dir string, report *estimator.Report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := imaging.Save(field.ToGray(report.Smoothed), filepath.Join(dir, "01_smoothed.png")); err != nil {
		return err
	}
	return imaging.Save(field.ToGray(report.Binary), filepath.Join(dir, "02_binary.png"))
}
